package artwork

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// ProviderError attributes a lookup failure to the provider that raised it.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Step is one provider in the cascade. Proxy routes its image URLs through
// the ImageProxy.
type Step struct {
	Provider Provider
	Proxy    bool
}

// Cascade queries providers in order and stops at the first usable image.
type Cascade struct {
	steps []Step
	proxy *ImageProxy
}

// NewCascade creates a cascade over steps, in order.
func NewCascade(proxy *ImageProxy, steps ...Step) *Cascade {
	return &Cascade{
		steps: steps,
		proxy: proxy,
	}
}

// Providers returns the provider names in cascade order.
func (c *Cascade) Providers() []string {
	names := make([]string, 0, len(c.steps))
	for _, step := range c.steps {
		names = append(names, step.Provider.Name())
	}
	return names
}

// Resolve walks the providers in order. A provider failure of any kind is
// treated as "not found" and the walk continues; the failures are returned
// combined as ProviderErrors so the caller can log them. The Result is a
// clean not-found when every provider came up empty.
func (c *Cascade) Resolve(ctx context.Context, q Query) (Result, error) {
	var errs error

	for _, step := range c.steps {
		if err := ctx.Err(); err != nil {
			return Result{}, multierr.Append(errs, err)
		}

		name := step.Provider.Name()
		res, err := lookup(ctx, step.Provider, q)
		if err != nil {
			if !errors.Is(err, ErrNoMatch) {
				errs = multierr.Append(errs, &ProviderError{Provider: name, Err: err})
			}
			continue
		}
		if res == nil || res.ArtworkURL == "" {
			continue
		}

		found := *res
		found.Found = true
		found.Source = name
		if step.Proxy {
			found.ArtworkURL = c.proxy.Rewrite(found.ArtworkURL)
		}
		return found, errs
	}

	return Result{}, errs
}

// lookup shields the cascade from a misbehaving provider.
func lookup(ctx context.Context, p Provider, q Query) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("provider panicked: %v", r)
		}
	}()
	return p.Lookup(ctx, q)
}
