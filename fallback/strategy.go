package fallback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/extract"
	"github.com/poiesic/docingest/metrics"
	"github.com/poiesic/docingest/quality"
)

// Attempt describes one engine invocation.
type Attempt struct {
	Engine  string
	Outcome string // one of the metrics.Outcome* values
	Score   float64
	Elapsed time.Duration
	Err     error

	result  *core.ExtractionResult
	quality core.QualityScore
}

func (a Attempt) ok() bool {
	return a.Err == nil && a.result != nil
}

// Outcome is the result of Extract.
type Outcome struct {
	Result   *core.ExtractionResult
	Score    core.QualityScore
	Engine   string
	Attempts int

	// Accepted is false when the result is a best effort below MinQuality.
	Accepted bool

	Trail []Attempt
}

// Strategy dispatches a document to extraction engines.
type Strategy struct {
	engines []extract.Engine
	scorer  quality.Scorer
	cfg     Config
	metrics *metrics.Recorder
	logger  *slog.Logger
}

// Option configures a Strategy.
type Option func(*Strategy) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Strategy) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMetrics records attempts on rec.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(s *Strategy) error {
		s.metrics = rec
		return nil
	}
}

// New creates a strategy over engines. The slice is copied and sorted by
// priority.
func New(engines []extract.Engine, scorer quality.Scorer, cfg Config, opts ...Option) (*Strategy, error) {
	if scorer == nil {
		return nil, ErrScorerRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sorted := make([]extract.Engine, 0, len(engines))
	for _, e := range engines {
		if e != nil {
			sorted = append(sorted, e)
		}
	}
	extract.SortByPriority(sorted)

	s := &Strategy{
		engines: sorted,
		scorer:  scorer,
		cfg:     cfg,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "fallback", "mode", cfg.Mode())
	return s, nil
}

// Config returns the strategy configuration.
func (s *Strategy) Config() Config {
	return s.cfg
}

// Identity describes the engine set and acceptance rules. Results produced
// under a different identity are not interchangeable, so it is used as the
// engine part of extraction cache keys.
func (s *Strategy) Identity() string {
	var sb strings.Builder
	sb.WriteString(s.cfg.Mode())
	sb.WriteString(";min=")
	sb.WriteString(strconv.FormatFloat(s.cfg.MinQuality, 'f', -1, 64))
	for _, e := range s.engines {
		sb.WriteByte(';')
		sb.WriteString(e.Name())
		sb.WriteByte('@')
		sb.WriteString(e.Version())
	}
	return sb.String()
}

// Extract produces the best available extraction of the document at path.
// Engines that support path but report themselves unavailable lead the
// trail as skipped attempts and do not consume the attempt budget.
func (s *Strategy) Extract(ctx context.Context, path string) (*Outcome, error) {
	candidates, skipped := s.candidates(path)
	if len(candidates) == 0 {
		err := fmt.Errorf("%w: no available engine supports %s", core.ErrAllBackendsFailed, path)
		if len(skipped) > 0 {
			err = fmt.Errorf("%w: %w", err, skipped[0].Err)
		}
		return &Outcome{Trail: skipped}, err
	}

	var (
		out *Outcome
		err error
	)
	if s.cfg.Parallel {
		out, err = s.extractParallel(ctx, path, candidates)
	} else {
		out, err = s.extractSequential(ctx, path, candidates)
	}
	if out != nil && len(skipped) > 0 {
		out.Trail = append(skipped, out.Trail...)
	}
	return out, err
}

func (s *Strategy) candidates(path string) ([]extract.Engine, []Attempt) {
	out := make([]extract.Engine, 0, len(s.engines))
	var skipped []Attempt
	for _, e := range s.engines {
		if !extract.Supports(e, path) {
			continue
		}
		if !e.IsAvailable() {
			a := Attempt{
				Engine:  e.Name(),
				Outcome: metrics.OutcomeUnavailable,
				Err:     fmt.Errorf("%w: %s", core.ErrEngineUnavailable, e.Name()),
			}
			s.logger.Debug("skipping unavailable engine", "engine", e.Name(), "path", path, "err", a.Err)
			skipped = append(skipped, a)
			continue
		}
		out = append(out, e)
	}
	return out, skipped
}

func (s *Strategy) extractSequential(ctx context.Context, path string, candidates []extract.Engine) (*Outcome, error) {
	out := &Outcome{}
	var best *Attempt

	for _, e := range candidates {
		if out.Attempts >= s.cfg.MaxAttempts || ctx.Err() != nil {
			break
		}
		out.Attempts++

		a := s.invoke(ctx, e, path)
		out.Trail = append(out.Trail, a)
		if !a.ok() {
			continue
		}
		if a.Score >= s.cfg.MinQuality {
			return s.accept(out, a, path), nil
		}
		if best == nil || a.Score > best.Score {
			b := a
			best = &b
		}
	}
	return s.settle(ctx, out, best, path)
}

func (s *Strategy) extractParallel(ctx context.Context, path string, candidates []extract.Engine) (*Outcome, error) {
	raceCtx, cancel := withTimeout(ctx, s.cfg.OverallTimeout)
	defer cancel()

	pool, err := ants.NewPool(min(len(candidates), s.cfg.MaxWorkers))
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	// Buffered so workers finishing after we return never block.
	results := make(chan Attempt, len(candidates))
	go func() {
		for _, e := range candidates {
			if raceCtx.Err() != nil {
				return
			}
			if err := pool.Submit(func() {
				results <- s.invoke(raceCtx, e, path)
			}); err != nil {
				results <- Attempt{Engine: e.Name(), Outcome: metrics.OutcomeFailed, Err: err}
			}
		}
	}()

	out := &Outcome{}
	var best *Attempt
race:
	for len(out.Trail) < len(candidates) {
		select {
		case a := <-results:
			out.Trail = append(out.Trail, a)
			out.Attempts++
			if !a.ok() {
				continue
			}
			if a.Score >= s.cfg.MinQuality {
				cancel()
				return s.accept(out, a, path), nil
			}
			if best == nil || a.Score > best.Score {
				best = &a
			}
		case <-raceCtx.Done():
			s.logger.Warn("parallel extraction deadline reached",
				"path", path, "completed", len(out.Trail), "candidates", len(candidates))
			break race
		}
	}
	return s.settle(ctx, out, best, path)
}

func (s *Strategy) accept(out *Outcome, a Attempt, path string) *Outcome {
	out.Result = a.result
	out.Score = a.quality
	out.Engine = a.Engine
	out.Accepted = true
	s.logger.Info("extraction accepted",
		"path", path, "engine", a.Engine, "score", a.Score, "grade", a.quality.Grade, "attempts", out.Attempts)
	return out
}

func (s *Strategy) settle(ctx context.Context, out *Outcome, best *Attempt, path string) (*Outcome, error) {
	if best == nil {
		err := fmt.Errorf("%w: %s after %d attempt(s)", core.ErrAllBackendsFailed, path, out.Attempts)
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", err, ctxErr)
		}
		return out, err
	}
	out.Result = best.result
	out.Score = best.quality
	out.Engine = best.Engine
	s.logger.Warn("no engine reached minimum quality, using best result",
		"path", path, "engine", best.Engine, "score", best.Score, "min_quality", s.cfg.MinQuality)
	return out, nil
}

type reply struct {
	result *core.ExtractionResult
	err    error
}

// invoke runs one engine under the per-engine timeout, converting panics,
// timeouts and failed results into a failed Attempt.
func (s *Strategy) invoke(ctx context.Context, e extract.Engine, path string) Attempt {
	callCtx, cancel := withTimeout(ctx, s.cfg.EngineTimeout)
	defer cancel()

	start := time.Now()
	done := make(chan reply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- reply{err: fmt.Errorf("%w: %v", ErrEnginePanic, r)}
			}
		}()
		result, err := e.Extract(callCtx, path)
		done <- reply{result: result, err: err}
	}()

	a := Attempt{Engine: e.Name()}
	select {
	case r := <-done:
		a.result, a.Err = r.result, r.err
	case <-callCtx.Done():
		a.Err = callCtx.Err()
	}
	a.Elapsed = time.Since(start)

	switch {
	case errors.Is(a.Err, context.DeadlineExceeded) || errors.Is(a.Err, context.Canceled):
		a.Err = fmt.Errorf("%w: %s: %w", core.ErrEngineTimeout, e.Name(), a.Err)
		a.Outcome = metrics.OutcomeTimeout
	case a.Err != nil:
		a.Outcome = metrics.OutcomeFailed
	case a.result == nil:
		a.Err = ErrEmptyResult
		a.Outcome = metrics.OutcomeFailed
	case a.result.Failed():
		a.Err = fmt.Errorf("engine %s reported failure: %s", e.Name(), a.result.Error)
		a.Outcome = metrics.OutcomeFailed
	default:
		if a.result.Duration == 0 {
			a.result.Duration = a.Elapsed
		}
		a.quality = s.scorer.Assess(a.result)
		a.result.Quality = &a.quality
		a.Score = a.quality.Total
		a.Outcome = metrics.OutcomeBelow
		if a.Score >= s.cfg.MinQuality {
			a.Outcome = metrics.OutcomeAccepted
		}
	}

	if a.Err != nil {
		a.result = nil
		s.logger.Warn("engine attempt failed", "engine", e.Name(), "path", path, "outcome", a.Outcome, "err", a.Err)
	} else {
		s.logger.Debug("engine attempt scored", "engine", e.Name(), "path", path, "score", a.Score, "outcome", a.Outcome)
	}
	s.metrics.FallbackAttempt(e.Name(), a.Outcome, a.Elapsed)
	return a
}

// withTimeout is context.WithTimeout where zero means no limit.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}
