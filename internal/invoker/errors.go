package invoker

import (
	"fmt"
	"strings"
)

// ErrorKind classifies why an invocation failed.
type ErrorKind string

const (
	// KindUnknownEndpoint means the manifest declares no endpoint by that name.
	KindUnknownEndpoint ErrorKind = "unknown_endpoint"
	// KindTemplateFailed means the body template referenced a context path
	// that does not exist. Never retried.
	KindTemplateFailed ErrorKind = "template_failed"
	// KindClientRejected means the provider returned 4xx. The request will not
	// self-heal, so it is never retried.
	KindClientRejected ErrorKind = "client_rejected"
	// KindExtractionFailed means the response shape did not match the
	// manifest's responseExtract mappings. Indicates contract drift; never
	// retried.
	KindExtractionFailed ErrorKind = "extraction_failed"
	// KindTransient means transport failures or 5xx responses exhausted the
	// retry budget.
	KindTransient ErrorKind = "transient"
)

// Error is the single error type surfaced by Invoke.
type Error struct {
	Kind       ErrorKind
	Endpoint   string
	StatusCode int
	Body       string
	Fields     []string
	Attempts   int
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindUnknownEndpoint:
		return fmt.Sprintf("invoker: unknown endpoint %q", e.Endpoint)
	case KindClientRejected:
		return fmt.Sprintf("invoker: endpoint %q rejected with status %d: %s", e.Endpoint, e.StatusCode, e.Body)
	case KindExtractionFailed:
		return fmt.Sprintf("invoker: endpoint %q extraction failed for fields [%s]", e.Endpoint, strings.Join(e.Fields, ", "))
	case KindTransient:
		return fmt.Sprintf("invoker: endpoint %q failed after %d attempts: %v", e.Endpoint, e.Attempts, e.Err)
	default:
		return fmt.Sprintf("invoker: endpoint %q: %v", e.Endpoint, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure could have been retried. Only
// transport-level and 5xx failures qualify.
func (e *Error) Retryable() bool {
	return e.Kind == KindTransient
}
