// Package invoker executes templated HTTP calls against one external
// provider, driven entirely by the provider's manifest. There is no
// provider-specific code here: authentication, request building and response
// extraction all come from configuration data.
package invoker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shortforge/short-video-pipeline/internal/config"
	"github.com/shortforge/short-video-pipeline/internal/extract"
	"github.com/shortforge/short-video-pipeline/internal/models"
	"github.com/shortforge/short-video-pipeline/internal/template"
	"github.com/shortforge/short-video-pipeline/pkg/logger"
)

const maxErrorBodyBytes = 4 << 10

// Invoker is bound to one immutable manifest and is safe for concurrent use
// by multiple jobs; each invocation carries its own context.
type Invoker struct {
	manifest   *models.ProviderManifest
	credential string
	cfg        config.InvokerConfig
	client     *http.Client
	logger     logger.Logger
	health     Health
	// sleep and jitter are swapped out by tests.
	sleep  func(context.Context, time.Duration) error
	jitter func(time.Duration) time.Duration
}

// New binds an invoker to a validated manifest. The credential is the secret
// attached per the manifest's auth descriptor; it is never part of the
// manifest document itself.
func New(manifest *models.ProviderManifest, credential string, cfg config.InvokerConfig, log logger.Logger) *Invoker {
	return &Invoker{
		manifest:   manifest,
		credential: credential,
		cfg:        cfg,
		client:     &http.Client{},
		logger:     log,
		sleep:      sleepCtx,
		jitter: func(max time.Duration) time.Duration {
			return time.Duration(rand.Int63n(int64(max) + 1))
		},
	}
}

// Manifest returns the bound manifest.
func (iv *Invoker) Manifest() *models.ProviderManifest {
	return iv.manifest
}

// LastKnownHealthy exposes the advisory health flag for display purposes.
func (iv *Invoker) LastKnownHealthy() bool {
	return iv.health.LastKnownHealthy()
}

// HealthCounts exposes the rolling success/failure totals.
func (iv *Invoker) HealthCounts() (success, failure uint64) {
	return iv.health.Counts()
}

// Invoke resolves the endpoint's body template against input, performs the
// HTTP call with retry on transient failures, and extracts the normalized
// output record. Cancelling ctx aborts the in-flight network call.
func (iv *Invoker) Invoke(ctx context.Context, endpointName string, input map[string]any) (*models.InvocationResult, error) {
	started := time.Now()
	ep, ok := iv.manifest.EndpointByName(endpointName)
	if !ok {
		return nil, &Error{Kind: KindUnknownEndpoint, Endpoint: endpointName}
	}

	var body []byte
	if ep.BodyTemplate != nil {
		resolved, err := template.Resolve(ep.BodyTemplate, input)
		if err != nil {
			iv.health.record(false)
			return nil, &Error{Kind: KindTemplateFailed, Endpoint: endpointName, Err: err}
		}
		if body, err = json.Marshal(resolved); err != nil {
			iv.health.record(false)
			return nil, &Error{Kind: KindTemplateFailed, Endpoint: endpointName, Err: err}
		}
	}

	raw, attempts, err := iv.doWithRetry(ctx, ep, body)
	if err != nil {
		iv.health.record(false)
		return nil, err
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		iv.health.record(false)
		return nil, &Error{Kind: KindExtractionFailed, Endpoint: endpointName, Attempts: attempts, Err: err}
	}
	record, err := extract.Extract(ep.ResponseExtract.Mappings, decoded)
	if err != nil {
		iv.health.record(false)
		var xerr *extract.Error
		invErr := &Error{Kind: KindExtractionFailed, Endpoint: endpointName, Attempts: attempts, Err: err}
		if errors.As(err, &xerr) {
			invErr.Fields = xerr.FieldNames()
		}
		return nil, invErr
	}

	iv.health.record(true)
	return &models.InvocationResult{
		Output:   record,
		Elapsed:  time.Since(started),
		Attempts: attempts,
	}, nil
}

func (iv *Invoker) doWithRetry(ctx context.Context, ep *models.Endpoint, body []byte) ([]byte, int, error) {
	var lastErr error
	for attempt := 1; attempt <= iv.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := iv.sleep(ctx, iv.backoff(attempt-1)); err != nil {
				return nil, attempt - 1, &Error{Kind: KindTransient, Endpoint: ep.Name, Attempts: attempt - 1, Err: err}
			}
		}
		raw, retryable, err := iv.doOnce(ctx, ep, body)
		if err == nil {
			return raw, attempt, nil
		}
		if !retryable {
			var invErr *Error
			if errors.As(err, &invErr) {
				invErr.Attempts = attempt
				return nil, attempt, invErr
			}
			return nil, attempt, err
		}
		// Caller cancellation is terminal even when the failure looks
		// transient.
		if ctx.Err() != nil {
			return nil, attempt, &Error{Kind: KindTransient, Endpoint: ep.Name, Attempts: attempt, Err: ctx.Err()}
		}
		lastErr = err
		iv.logger.Warnf("invoke %s/%s attempt %d/%d failed: %v",
			iv.manifest.ID, ep.Name, attempt, iv.cfg.MaxAttempts, err)
	}
	return nil, iv.cfg.MaxAttempts, &Error{Kind: KindTransient, Endpoint: ep.Name, Attempts: iv.cfg.MaxAttempts, Err: lastErr}
}

// doOnce performs a single attempt. The bool reports whether the failure is
// retryable (transport error or 5xx/429).
func (iv *Invoker) doOnce(ctx context.Context, ep *models.Endpoint, body []byte) ([]byte, bool, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, iv.cfg.AttemptTimeout)
	defer cancel()

	target, err := iv.requestURL(ep)
	if err != nil {
		return nil, false, &Error{Kind: KindClientRejected, Endpoint: ep.Name, Err: err}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(attemptCtx, ep.Method, target, reader)
	if err != nil {
		return nil, false, &Error{Kind: KindClientRejected, Endpoint: ep.Name, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	iv.attachAuth(req)

	resp, err := iv.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, true, err
		}
		return raw, false, nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, true, &Error{
			Kind:       KindTransient,
			Endpoint:   ep.Name,
			StatusCode: resp.StatusCode,
			Body:       string(snippet),
		}
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, false, &Error{
			Kind:       KindClientRejected,
			Endpoint:   ep.Name,
			StatusCode: resp.StatusCode,
			Body:       string(snippet),
		}
	}
}

func (iv *Invoker) requestURL(ep *models.Endpoint) (string, error) {
	base := strings.TrimSuffix(iv.manifest.BaseURL, "/")
	path := ep.Path
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	target := base + path
	if iv.manifest.Auth.Type == models.AuthAPIKey && iv.manifest.Auth.In == "query" {
		u, err := url.Parse(target)
		if err != nil {
			return "", err
		}
		q := u.Query()
		q.Set(iv.manifest.Auth.HeaderName, iv.credential)
		u.RawQuery = q.Encode()
		return u.String(), nil
	}
	return target, nil
}

func (iv *Invoker) attachAuth(req *http.Request) {
	auth := iv.manifest.Auth
	switch auth.Type {
	case models.AuthBearer:
		header := auth.HeaderName
		if header == "" {
			header = "Authorization"
		}
		req.Header.Set(header, "Bearer "+iv.credential)
	case models.AuthAPIKey:
		if auth.In != "query" {
			req.Header.Set(auth.HeaderName, iv.credential)
		}
	case models.AuthNone:
	}
}

// backoff computes the delay before the given retry: exponential doubling
// from the base, capped, with full jitter.
func (iv *Invoker) backoff(retry int) time.Duration {
	d := iv.cfg.BackoffBase << (retry - 1)
	if d > iv.cfg.BackoffCap || d <= 0 {
		d = iv.cfg.BackoffCap
	}
	return iv.jitter(d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
