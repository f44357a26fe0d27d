package source

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"

	"github.com/alexmaslar/riff-plugin-editorial/internal/editorial"
	"github.com/alexmaslar/riff-plugin-editorial/internal/metrics"
)

// Service is the invocation boundary: it resolves reviews through the
// registered adapters and never reports a resolution failure as an error.
type Service struct {
	registry *Registry
	logger   *zap.Logger
}

// NewService builds a Service over registry.
func NewService(registry *Registry, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{registry: registry, logger: logger.Named("source")}
}

// Sources lists the registered adapter names.
func (s *Service) Sources() []string {
	return s.registry.Names()
}

// Health returns the adapter's health string.
func (s *Service) Health(ctx context.Context, name string) (string, error) {
	a, err := s.registry.Get(name)
	if err != nil {
		return "", err
	}
	return a.HealthCheck(ctx), nil
}

// Reviews resolves input against one source. The only error is
// ErrUnknownSource; every resolution failure yields an empty result.
func (s *Service) Reviews(ctx context.Context, name string, input editorial.Input) (editorial.Result, error) {
	a, err := s.registry.Get(name)
	if err != nil {
		return editorial.Empty(), err
	}
	return s.resolve(ctx, a, input), nil
}

// AllReviews resolves input against every registered source concurrently and
// merges the results in source-name order.
func (s *Service) AllReviews(ctx context.Context, input editorial.Input) editorial.Result {
	names := s.registry.Names()
	results := iter.Map(names, func(name *string) editorial.Result {
		a, err := s.registry.Get(*name)
		if err != nil {
			return editorial.Empty()
		}
		return s.resolve(ctx, a, input)
	})
	return editorial.Merge(results...)
}

func (s *Service) resolve(ctx context.Context, a editorial.Adapter, input editorial.Input) editorial.Result {
	start := time.Now()
	review, err := a.Resolve(ctx, input.Query())
	if err == nil {
		err = review.Validate()
	}
	outcome := editorial.Outcome(err)
	metrics.ObserveResolution(a.Name(), outcome)

	fields := []zap.Field{
		zap.String("source", a.Name()),
		zap.String("artist", input.Artist),
		zap.String("title", input.Title),
		zap.String("outcome", outcome),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		s.logger.Info("no review resolved", append(fields, zap.Error(err))...)
		return editorial.Empty()
	}
	s.logger.Info("review resolved", append(fields, zap.String("url", review.SourceURL))...)
	return editorial.Wrap(a.Name(), &review)
}
