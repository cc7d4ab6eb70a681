package providers

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/shortforge/short-video-pipeline/internal/jsonpath"
	"github.com/shortforge/short-video-pipeline/internal/models"
)

var allowedMethods = map[string]struct{}{
	"GET":    {},
	"POST":   {},
	"PUT":    {},
	"PATCH":  {},
	"DELETE": {},
}

// ParseManifest decodes and validates a raw provider manifest document.
// Unknown top-level fields are ignored; missing or malformed required fields
// fail with *models.ValidationError. Parsing is pure and deterministic.
func ParseManifest(raw []byte) (*models.ProviderManifest, error) {
	var m models.ProviderManifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, models.NewValidationError("manifest", fmt.Sprintf("not valid JSON: %v", err))
	}
	if err := normalizeManifest(&m); err != nil {
		return nil, err
	}
	if err := validateManifest(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// SerializeManifest renders a validated manifest back to its canonical JSON
// form; ParseManifest(SerializeManifest(m)) reproduces m.
func SerializeManifest(m *models.ProviderManifest) ([]byte, error) {
	return json.Marshal(m)
}

func normalizeManifest(m *models.ProviderManifest) error {
	m.ProviderType = models.ProviderType(strings.ToLower(string(m.ProviderType)))
	switch strings.ToLower(string(m.Auth.Type)) {
	case "bearer":
		m.Auth.Type = models.AuthBearer
	case "apikey":
		m.Auth.Type = models.AuthAPIKey
	case "none", "":
		m.Auth.Type = models.AuthNone
	default:
		return models.NewValidationError("auth.type", fmt.Sprintf("unknown auth type %q", m.Auth.Type))
	}
	for i := range m.Endpoints {
		m.Endpoints[i].Method = strings.ToUpper(strings.TrimSpace(m.Endpoints[i].Method))
	}
	return nil
}

func validateManifest(m *models.ProviderManifest) error {
	if strings.TrimSpace(m.ID) == "" {
		return models.NewValidationError("id", "required")
	}
	if strings.TrimSpace(m.Name) == "" {
		return models.NewValidationError("name", "required")
	}
	if !m.ProviderType.Valid() {
		return models.NewValidationError("providerType", fmt.Sprintf("unknown provider type %q", m.ProviderType))
	}
	if err := validateBaseURL(m.BaseURL); err != nil {
		return err
	}
	if m.Auth.Type == models.AuthAPIKey && strings.TrimSpace(m.Auth.HeaderName) == "" {
		return models.NewValidationError("auth.headerName", "required for apiKey auth")
	}
	if m.Auth.In != "" && m.Auth.In != "header" && m.Auth.In != "query" {
		return models.NewValidationError("auth.in", fmt.Sprintf("must be header or query, got %q", m.Auth.In))
	}
	if len(m.Endpoints) == 0 {
		return models.NewValidationError("endpoints", "at least one endpoint is required")
	}
	seen := make(map[string]struct{}, len(m.Endpoints))
	for i := range m.Endpoints {
		if err := validateEndpoint(&m.Endpoints[i], i, seen); err != nil {
			return err
		}
	}
	for _, lang := range m.Capabilities.LanguageSupport {
		if !lang.Valid() {
			return models.NewValidationError("capabilities.languageSupport", fmt.Sprintf("unsupported language %q", lang))
		}
	}
	return nil
}

func validateBaseURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return models.NewValidationError("baseUrl", "required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return models.NewValidationError("baseUrl", "must be an absolute http(s) URL")
	}
	return nil
}

func validateEndpoint(ep *models.Endpoint, idx int, seen map[string]struct{}) error {
	field := func(name string) string { return fmt.Sprintf("endpoints[%d].%s", idx, name) }
	if strings.TrimSpace(ep.Name) == "" {
		return models.NewValidationError(field("name"), "required")
	}
	if _, dup := seen[ep.Name]; dup {
		return models.NewValidationError(field("name"), fmt.Sprintf("duplicate endpoint name %q", ep.Name))
	}
	seen[ep.Name] = struct{}{}
	if _, ok := allowedMethods[ep.Method]; !ok {
		return models.NewValidationError(field("method"), fmt.Sprintf("unsupported method %q", ep.Method))
	}
	if strings.TrimSpace(ep.Path) == "" {
		return models.NewValidationError(field("path"), "required")
	}
	if err := validateTemplateTree(ep.BodyTemplate, field("bodyTemplate")); err != nil {
		return err
	}
	if len(ep.ResponseExtract.Mappings) == 0 {
		return models.NewValidationError(field("responseExtract.mappings"), "at least one mapping is required")
	}
	for out, path := range ep.ResponseExtract.Mappings {
		if strings.TrimSpace(out) == "" {
			return models.NewValidationError(field("responseExtract.mappings"), "empty output field name")
		}
		if _, err := jsonpath.Parse(path); err != nil {
			return models.NewValidationError(field("responseExtract.mappings"), fmt.Sprintf("field %q: %v", out, err))
		}
	}
	return nil
}

// validateTemplateTree walks a body template and checks that every string
// leaf's placeholders are balanced and carry parseable paths.
func validateTemplateTree(node any, field string) error {
	switch v := node.(type) {
	case map[string]any:
		for _, child := range v {
			if err := validateTemplateTree(child, field); err != nil {
				return err
			}
		}
	case []any:
		for _, child := range v {
			if err := validateTemplateTree(child, field); err != nil {
				return err
			}
		}
	case string:
		return validateTemplateLeaf(v, field)
	}
	return nil
}

func validateTemplateLeaf(leaf, field string) error {
	rest := leaf
	for {
		open := strings.Index(rest, "{{")
		if open < 0 {
			if strings.Contains(rest, "}}") {
				return models.NewValidationError(field, fmt.Sprintf("unbalanced placeholder in %q", leaf))
			}
			return nil
		}
		close := strings.Index(rest[open:], "}}")
		if close < 0 {
			return models.NewValidationError(field, fmt.Sprintf("unterminated placeholder in %q", leaf))
		}
		expr := strings.TrimSpace(rest[open+2 : open+close])
		if _, err := jsonpath.Parse(expr); err != nil {
			return models.NewValidationError(field, fmt.Sprintf("bad placeholder path %q: %v", expr, err))
		}
		rest = rest[open+close+2:]
	}
}
