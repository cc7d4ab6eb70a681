package providers_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shortforge/short-video-pipeline/internal/models"
	"github.com/shortforge/short-video-pipeline/internal/providers"
)

const sampleManifest = `{
  "id": "openai-gpt4",
  "name": "OpenAI GPT-4",
  "providerType": "LLM",
  "baseUrl": "https://api.openai.com/v1",
  "auth": {
    "type": "bearer",
    "headerName": "Authorization"
  },
  "endpoints": [{
    "name": "generateScript",
    "method": "POST",
    "path": "/chat/completions",
    "bodyTemplate": {
      "model": "gpt-4",
      "messages": "{{input.messages}}"
    },
    "responseExtract": {
      "mappings": {
        "text": "$.choices[0].message.content"
      }
    }
  }],
  "capabilities": {
    "languageSupport": ["en", "ar"],
    "maxOutputTokens": 4096
  }
}`

func TestParseManifestAcceptsSample(t *testing.T) {
	m, err := providers.ParseManifest([]byte(sampleManifest))
	if err != nil {
		t.Fatalf("ParseManifest error: %v", err)
	}
	if m.ProviderType != models.ProviderLLM {
		t.Fatalf("providerType = %q, want normalized llm", m.ProviderType)
	}
	if m.Auth.Type != models.AuthBearer {
		t.Fatalf("auth type = %q", m.Auth.Type)
	}
	ep, ok := m.EndpointByName("generateScript")
	if !ok {
		t.Fatal("endpoint generateScript missing")
	}
	if ep.ResponseExtract.Mappings["text"] != "$.choices[0].message.content" {
		t.Fatalf("mappings = %#v", ep.ResponseExtract.Mappings)
	}
	if m.Capabilities.MaxOutputTokens != 4096 {
		t.Fatalf("maxOutputTokens = %d", m.Capabilities.MaxOutputTokens)
	}
}

func TestParseManifestRoundTrip(t *testing.T) {
	first, err := providers.ParseManifest([]byte(sampleManifest))
	if err != nil {
		t.Fatalf("ParseManifest error: %v", err)
	}
	raw, err := providers.SerializeManifest(first)
	if err != nil {
		t.Fatalf("SerializeManifest error: %v", err)
	}
	second, err := providers.ParseManifest(raw)
	if err != nil {
		t.Fatalf("ParseManifest(round trip) error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("round trip changed manifest:\n%#v\n%#v", first, second)
	}
}

func TestParseManifestIgnoresUnknownFields(t *testing.T) {
	raw := `{
	  "id": "p", "name": "P", "providerType": "tts",
	  "baseUrl": "https://tts.example.com",
	  "auth": {"type": "none"},
	  "someFutureField": {"nested": true},
	  "endpoints": [{
	    "name": "synthesize", "method": "POST", "path": "/v1/speech",
	    "bodyTemplate": {"text": "{{output.script.text}}"},
	    "responseExtract": {"mappings": {"audioUrl": "$.audio.url"}}
	  }]
	}`
	if _, err := providers.ParseManifest([]byte(raw)); err != nil {
		t.Fatalf("ParseManifest error: %v", err)
	}
}

func TestParseManifestValidationFailures(t *testing.T) {
	cases := []struct {
		name  string
		mut   string
		field string
	}{
		{
			"unknown provider type",
			`{"id":"p","name":"P","providerType":"audio","baseUrl":"https://x.com",
			 "auth":{"type":"none"},
			 "endpoints":[{"name":"e","method":"POST","path":"/p","responseExtract":{"mappings":{"a":"b"}}}]}`,
			"providerType",
		},
		{
			"duplicate endpoint names",
			`{"id":"p","name":"P","providerType":"llm","baseUrl":"https://x.com",
			 "auth":{"type":"none"},
			 "endpoints":[
			   {"name":"e","method":"POST","path":"/p","responseExtract":{"mappings":{"a":"b"}}},
			   {"name":"e","method":"GET","path":"/q","responseExtract":{"mappings":{"a":"b"}}}]}`,
			"endpoints[1].name",
		},
		{
			"missing mappings",
			`{"id":"p","name":"P","providerType":"llm","baseUrl":"https://x.com",
			 "auth":{"type":"none"},
			 "endpoints":[{"name":"e","method":"POST","path":"/p","responseExtract":{"mappings":{}}}]}`,
			"endpoints[0].responseExtract.mappings",
		},
		{
			"apiKey without header name",
			`{"id":"p","name":"P","providerType":"llm","baseUrl":"https://x.com",
			 "auth":{"type":"apiKey"},
			 "endpoints":[{"name":"e","method":"POST","path":"/p","responseExtract":{"mappings":{"a":"b"}}}]}`,
			"auth.headerName",
		},
		{
			"bad base url",
			`{"id":"p","name":"P","providerType":"llm","baseUrl":"not-a-url",
			 "auth":{"type":"none"},
			 "endpoints":[{"name":"e","method":"POST","path":"/p","responseExtract":{"mappings":{"a":"b"}}}]}`,
			"baseUrl",
		},
		{
			"unterminated placeholder",
			`{"id":"p","name":"P","providerType":"llm","baseUrl":"https://x.com",
			 "auth":{"type":"none"},
			 "endpoints":[{"name":"e","method":"POST","path":"/p",
			   "bodyTemplate":{"t":"{{input.topic"},
			   "responseExtract":{"mappings":{"a":"b"}}}]}`,
			"endpoints[0].bodyTemplate",
		},
		{
			"unsupported method",
			`{"id":"p","name":"P","providerType":"llm","baseUrl":"https://x.com",
			 "auth":{"type":"none"},
			 "endpoints":[{"name":"e","method":"FETCH","path":"/p","responseExtract":{"mappings":{"a":"b"}}}]}`,
			"endpoints[0].method",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := providers.ParseManifest([]byte(tc.mut))
			if err == nil {
				t.Fatal("expected validation error")
			}
			var verr *models.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error type %T, want *models.ValidationError", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("field = %q, want %q", verr.Field, tc.field)
			}
		})
	}
}
