package analysis

import (
	"context"
	"fmt"

	"github.com/crispit/crispit-server/internal/breaker"
	"github.com/crispit/crispit-server/internal/carbon"
	"github.com/crispit/crispit-server/internal/provider"
	"github.com/rs/zerolog/log"
)

// chainStep pairs a provider with its circuit breaker.
type chainStep struct {
	provider provider.Provider
	breaker  *breaker.Breaker
}

// Service runs analysis tasks against an ordered provider chain:
// primary first, fallback on failure. Adding a third provider or
// reordering priority is a data change in the chain, not a code change.
type Service struct {
	chain  []chainStep
	carbon *carbon.Index
}

// New creates the analysis service. Breakers are injected so tests can
// drive them with a fake clock.
func New(primary, secondary provider.Provider, primaryBreaker, secondaryBreaker *breaker.Breaker, carbonIndex *carbon.Index) *Service {
	return &Service{
		chain: []chainStep{
			{provider: primary, breaker: primaryBreaker},
			{provider: secondary, breaker: secondaryBreaker},
		},
		carbon: carbonIndex,
	}
}

// run executes the fallback chain for one request. Each provider is
// attempted at most once, in order. A provider whose breaker is open is
// skipped, except the last one: with no further fallback a doomed
// attempt beats a guaranteed failure. parse consumes successful output;
// a parse failure falls through to the next provider exactly like a
// transient failure.
func (s *Service) run(ctx context.Context, req provider.Request, parse func(text string) error) error {
	var lastErr error
	for i, step := range s.chain {
		last := i == len(s.chain)-1
		if !last && step.breaker.Open() {
			log.Debug().Str("provider", step.provider.Name()).Msg("breaker open, skipping provider")
			continue
		}

		outcome := step.provider.Generate(ctx, req)
		switch outcome.Status {
		case provider.StatusRateLimited:
			step.breaker.RecordRateLimit(outcome.RetryAfter)
			lastErr = outcome.Err
		case provider.StatusTransientFailure, provider.StatusInvalid:
			log.Warn().Err(outcome.Err).Str("provider", step.provider.Name()).Msg("provider call failed")
			lastErr = outcome.Err
		case provider.StatusSuccess:
			if err := parse(outcome.Text); err != nil {
				log.Warn().Err(err).Str("provider", step.provider.Name()).Msg("failed to parse provider output")
				lastErr = err
				continue
			}
			return nil
		}
	}
	if lastErr != nil {
		return fmt.Errorf("%w: %v", ErrAnalysisFailed, lastErr)
	}
	return ErrAnalysisFailed
}

func errMissingField(name string) error {
	return fmt.Errorf("required field %q missing or wrong type", name)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
