// Package dashboard assembles the dashboard, insights and settings views for
// one user from persisted activity.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/runnerr0/footprint/internal/activity"
	"github.com/runnerr0/footprint/internal/aggregate"
	"github.com/runnerr0/footprint/internal/category"
	"github.com/runnerr0/footprint/internal/telemetry"
)

var (
	// ErrMissingIdentity is returned when no user id accompanies a request.
	ErrMissingIdentity = errors.New("unable to determine user id")

	// ErrUpstream wraps any failure reading from the Source.
	ErrUpstream = errors.New("failed to fetch activity data")
)

// Source is the persistence collaborator read by the Service.
type Source interface {
	SessionsInRange(ctx context.Context, userID string, start, end time.Time) ([]activity.Visit, error)
	DomainRules(ctx context.Context, userID string) ([]activity.DomainRule, error)
	DomainLimits(ctx context.Context, userID string) ([]activity.DomainLimit, error)
	ContentAnalysisInRange(ctx context.Context, userID string, start, end time.Time) ([]activity.ContentAnalysis, error)
	// SuggestedCategories maps page URLs to their latest machine label.
	SuggestedCategories(ctx context.Context, userID string, urls []string) (map[string]string, error)
	// RecentSessionDomains returns domains of the newest sessions, newest first.
	RecentSessionDomains(ctx context.Context, userID string, limit int) ([]string, error)
}

// Options tune the Service.
type Options struct {
	// UseMachineLabels lets content analysis labels override domain rules.
	UseMachineLabels bool
	// LabelBatchSize caps the number of URLs per label lookup.
	LabelBatchSize int
	// RecentDomainLimit caps the sessions scanned for the settings view.
	RecentDomainLimit int
	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		UseMachineLabels:  true,
		LabelBatchSize:    100,
		RecentDomainLimit: 1000,
		Now:               time.Now,
	}
}

// Service builds views. It holds no per-request state and is safe for
// concurrent use.
type Service struct {
	src     Source
	logger  *zap.Logger
	metrics *telemetry.Metrics
	opts    Options
}

// NewService validates its collaborators and fills unset options.
func NewService(src Source, logger *zap.Logger, metrics *telemetry.Metrics, opts Options) (*Service, error) {
	if src == nil {
		return nil, fmt.Errorf("source cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultOptions()
	if opts.LabelBatchSize <= 0 {
		opts.LabelBatchSize = def.LabelBatchSize
	}
	if opts.RecentDomainLimit <= 0 {
		opts.RecentDomainLimit = def.RecentDomainLimit
	}
	if opts.Now == nil {
		opts.Now = def.Now
	}
	return &Service{src: src, logger: logger, metrics: metrics, opts: opts}, nil
}

func checkUser(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", ErrMissingIdentity
	}
	return userID, nil
}

func (s *Service) upstream(query string, err error) error {
	s.metrics.RecordFetchFailure(query)
	return fmt.Errorf("%w: %s: %w", ErrUpstream, query, err)
}

// periodData is everything fetched for a current/previous window pair.
type periodData struct {
	current  []activity.Visit
	previous []activity.Visit
	rules    []activity.DomainRule
}

func (s *Service) fetchPeriods(ctx context.Context, userID string, cur, prev aggregate.Window) (*periodData, error) {
	var d periodData
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		v, err := s.src.SessionsInRange(gctx, userID, cur.Start, cur.End)
		if err != nil {
			return s.upstream("sessions", err)
		}
		d.current = v
		return nil
	})
	g.Go(func() error {
		v, err := s.src.SessionsInRange(gctx, userID, prev.Start, prev.End)
		if err != nil {
			return s.upstream("previous sessions", err)
		}
		d.previous = v
		return nil
	})
	g.Go(func() error {
		r, err := s.src.DomainRules(gctx, userID)
		if err != nil {
			return s.upstream("domain rules", err)
		}
		d.rules = r
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}

// aggregator builds the matcher and, when enabled, the machine labels for
// every URL in visits.
func (s *Service) aggregator(ctx context.Context, userID string, rules []activity.DomainRule, visits ...[]activity.Visit) aggregate.Aggregator {
	agg := aggregate.Aggregator{Rules: category.NewMatcher(rules)}
	if s.opts.UseMachineLabels {
		agg.Labels = s.machineLabels(ctx, userID, visits...)
	}
	return agg
}

// machineLabels looks labels up in batches. A failed batch is logged and
// left out, so those URLs fall back to the domain rules.
func (s *Service) machineLabels(ctx context.Context, userID string, visits ...[]activity.Visit) aggregate.Labels {
	seen := make(map[string]struct{})
	var urls []string
	for _, vs := range visits {
		for _, v := range vs {
			if v.URL == "" {
				continue
			}
			if _, ok := seen[v.URL]; ok {
				continue
			}
			seen[v.URL] = struct{}{}
			urls = append(urls, v.URL)
		}
	}

	labels := make(aggregate.Labels, len(urls))
	for i := 0; i < len(urls); i += s.opts.LabelBatchSize {
		end := min(i+s.opts.LabelBatchSize, len(urls))
		batch, err := s.src.SuggestedCategories(ctx, userID, urls[i:end])
		if err != nil {
			s.metrics.RecordFetchFailure("suggested categories")
			s.logger.Warn("label lookup failed, falling back to domain rules",
				zap.String("user_id", userID),
				zap.Int("batch_size", end-i),
				zap.Error(err))
			continue
		}
		for u, c := range batch {
			if c != "" {
				labels[u] = c
			}
		}
	}
	return labels
}

func (s *Service) aggregate(agg aggregate.Aggregator, visits []activity.Visit, w aggregate.Window) aggregate.Result {
	start := time.Now()
	res := agg.Aggregate(visits, w)
	s.metrics.ObserveAggregation(time.Since(start))
	if res.Skipped > 0 {
		s.metrics.RecordSkipped(res.Skipped)
		s.logger.Debug("skipped malformed visit records", zap.Int("count", res.Skipped), zap.Stringer("window", w))
	}
	return res
}
