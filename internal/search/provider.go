// Package search adapts external search backends behind a single provider
// interface so callers never depend on a concrete API.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrNotConfigured is returned when a provider is missing credentials.
	ErrNotConfigured = errors.New("search provider not configured")
	// ErrUnknownProvider is returned for a provider name outside the registry.
	ErrUnknownProvider = errors.New("unknown search provider")
)

// Result is one provider-neutral search hit. Metadata carries the provider's
// raw payload for the row and is never interpreted here.
type Result struct {
	Title         string
	Snippet       string
	URL           string
	Source        string
	PublishedDate *time.Time
	Metadata      json.RawMessage
}

// Provider executes keyword searches against one external backend.
type Provider interface {
	// Name identifies the provider in results and configuration.
	Name() string
	// IsConfigured reports whether the provider has what it needs to run.
	IsConfigured() bool
	// Search returns up to maxResults hits for the keyword.
	Search(ctx context.Context, keyword string, maxResults int) ([]Result, error)
}

// ProviderError is a failed call to an external backend. StatusCode is zero
// for transport-level failures.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether a provider failure is worth another attempt.
// Transport failures and upstream throttling or outages are transient;
// anything else, missing credentials included, is not.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrNotConfigured) {
		return false
	}

	var perr *ProviderError
	if !errors.As(err, &perr) {
		return false
	}
	if perr.StatusCode == 0 {
		return true
	}
	return perr.StatusCode == http.StatusTooManyRequests || perr.StatusCode >= http.StatusInternalServerError
}

// Registry holds the configured providers in fallback order.
type Registry struct {
	providers []Provider
}

func NewRegistry(providers ...Provider) *Registry {
	return &Registry{providers: providers}
}

// Names lists every registered provider in fallback order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		names = append(names, p.Name())
	}
	return names
}

// Get returns the named provider whether or not it is configured.
func (r *Registry) Get(name string) (Provider, error) {
	for _, p := range r.providers {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
}

// Pick selects the provider for a request. A non-empty hint must name a
// registered, configured provider. Without a hint the first configured
// provider in registry order wins.
func (r *Registry) Pick(hint string) (Provider, error) {
	if hint != "" {
		p, err := r.Get(hint)
		if err != nil {
			return nil, err
		}
		if !p.IsConfigured() {
			return nil, fmt.Errorf("provider %q: %w", hint, ErrNotConfigured)
		}
		return p, nil
	}

	for _, p := range r.providers {
		if p.IsConfigured() {
			return p, nil
		}
	}
	return nil, ErrNotConfigured
}
