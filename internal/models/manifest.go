package models

import "time"

// ProviderType classifies what capability a provider exposes.
type ProviderType string

const (
	ProviderLLM   ProviderType = "llm"
	ProviderTTS   ProviderType = "tts"
	ProviderImage ProviderType = "image"
	ProviderVideo ProviderType = "video"
)

func (t ProviderType) Valid() bool {
	switch t {
	case ProviderLLM, ProviderTTS, ProviderImage, ProviderVideo:
		return true
	}
	return false
}

// AuthType selects how credentials are attached to provider requests.
type AuthType string

const (
	AuthBearer AuthType = "bearer"
	AuthAPIKey AuthType = "apiKey"
	AuthNone   AuthType = "none"
)

// AuthSpec describes request authentication for every endpoint of a manifest.
// For apiKey auth, In chooses between a header and a query parameter.
type AuthSpec struct {
	Type       AuthType `json:"type"`
	HeaderName string   `json:"headerName,omitempty"`
	In         string   `json:"in,omitempty"`
}

// ResponseExtract maps output field names to path expressions evaluated
// against the decoded provider response.
type ResponseExtract struct {
	Mappings map[string]string `json:"mappings"`
}

// Endpoint is one callable operation of a provider.
type Endpoint struct {
	Name            string          `json:"name"`
	Method          string          `json:"method"`
	Path            string          `json:"path"`
	BodyTemplate    any             `json:"bodyTemplate,omitempty"`
	ResponseExtract ResponseExtract `json:"responseExtract"`
}

// Capabilities declares what a provider supports; the registry uses
// LanguageSupport when binding providers to stages.
type Capabilities struct {
	LanguageSupport []ContentLanguage `json:"languageSupport"`
	MaxOutputTokens int               `json:"maxOutputTokens,omitempty"`
}

// SupportsLanguage reports whether lang appears in LanguageSupport. An empty
// list means unrestricted.
func (c Capabilities) SupportsLanguage(lang ContentLanguage) bool {
	if len(c.LanguageSupport) == 0 {
		return true
	}
	for _, l := range c.LanguageSupport {
		if l == lang {
			return true
		}
	}
	return false
}

// ProviderManifest is the declarative description of one external provider.
// Manifests are immutable after validation; edits replace the whole document.
type ProviderManifest struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	ProviderType ProviderType `json:"providerType"`
	BaseURL      string       `json:"baseUrl"`
	Auth         AuthSpec     `json:"auth"`
	Endpoints    []Endpoint   `json:"endpoints"`
	Capabilities Capabilities `json:"capabilities"`
}

// EndpointByName returns the named endpoint, if declared.
func (m *ProviderManifest) EndpointByName(name string) (*Endpoint, bool) {
	for i := range m.Endpoints {
		if m.Endpoints[i].Name == name {
			return &m.Endpoints[i], true
		}
	}
	return nil, false
}

// ProviderStatus is the advisory display state shown on the providers page.
type ProviderStatus string

const (
	ProviderStatusActive   ProviderStatus = "active"
	ProviderStatusError    ProviderStatus = "error"
	ProviderStatusInactive ProviderStatus = "inactive"
)

// ProviderRecord is a stored manifest plus bookkeeping the dashboard needs.
// The credential is attached at configuration time and never serialized back
// out.
type ProviderRecord struct {
	ID         string            `json:"id" db:"id"`
	Name       string            `json:"name" db:"name"`
	Type       ProviderType      `json:"type" db:"provider_type"`
	Enabled    bool              `json:"enabled" db:"enabled"`
	Status     ProviderStatus    `json:"status"`
	Manifest   *ProviderManifest `json:"manifest"`
	Credential string            `json:"-" db:"credential"`
	CreatedAt  time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at" db:"updated_at"`
}

// ProviderUpsertInput is the configuration payload for creating or replacing
// a provider. The manifest is validated before anything is stored; a rejected
// manifest leaves existing configuration untouched.
type ProviderUpsertInput struct {
	Manifest   map[string]any `json:"manifest" validate:"required"`
	Credential string         `json:"credential" validate:"omitempty,lte=512"`
	Enabled    *bool          `json:"enabled"`
}

// ProviderList is a paginated providers response.
type ProviderList struct {
	Providers  []*ProviderRecord `json:"providers"`
	TotalCount int               `json:"total_count"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	HasMore    bool              `json:"has_more"`
}

// StageBinding routes one (stage, language) pair to a provider manifest and
// the endpoint to invoke on it.
type StageBinding struct {
	Stage      Stage           `json:"stage" db:"stage" validate:"required"`
	Language   ContentLanguage `json:"content_language" db:"content_language" validate:"required,oneof=en ar"`
	ProviderID string          `json:"provider_id" db:"provider_id" validate:"required"`
	Endpoint   string          `json:"endpoint" db:"endpoint" validate:"required"`
}
