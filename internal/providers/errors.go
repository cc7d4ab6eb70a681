package providers

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/shortforge/short-video-pipeline/internal/models"
)

var (
	// ErrProviderNotFound means no provider record exists under the given id.
	ErrProviderNotFound = errors.New("provider not found")
	// ErrProviderDisabled means the bound provider is switched off by the
	// operator. Distinct from health, which never blocks invocations.
	ErrProviderDisabled = errors.New("provider is disabled")
)

// NoBindingError means no provider is configured for a (stage, language)
// pair.
type NoBindingError struct {
	Stage    models.Stage
	Language models.ContentLanguage
}

func (e *NoBindingError) Error() string {
	return fmt.Sprintf("no provider bound for stage %q, language %q", e.Stage, e.Language)
}

// LanguageUnsupportedError means the bound provider's capabilities exclude
// the job's content language.
type LanguageUnsupportedError struct {
	ProviderID string
	Language   models.ContentLanguage
}

func (e *LanguageUnsupportedError) Error() string {
	return fmt.Sprintf("provider %q does not support language %q", e.ProviderID, e.Language)
}
