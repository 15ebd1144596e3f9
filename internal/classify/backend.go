// Package classify provides the text classification capability used to
// label page content: zero-shot categories, emotions and sentiment.
package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrNotReady is returned when a model is used before loading finished.
	ErrNotReady = errors.New("classification models not ready")

	// ErrUnavailable indicates the model sidecar is unreachable.
	ErrUnavailable = errors.New("classification service unavailable")
)

// LabelScore is a single label with its confidence.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Backend is a set of loaded text models.
type Backend interface {
	Name() string
	Load(ctx context.Context) error

	// ZeroShot returns labels sorted by descending score.
	ZeroShot(ctx context.Context, text string, labels []string, multiLabel bool) ([]LabelScore, error)
	// Emotions returns every emotion score, highest first.
	Emotions(ctx context.Context, text string) ([]LabelScore, error)
	// Sentiment returns the overall polarity, e.g. POSITIVE or NEGATIVE.
	Sentiment(ctx context.Context, text string) (LabelScore, error)
}

// Backend names accepted by New.
const (
	BackendStub = "stub"
	BackendHTTP = "http"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	BaseURL string
	// RetryInterval is passed to Manager.SetRetryInterval.
	RetryInterval time.Duration
}

// New builds a Manager around the configured backend. The choice is made
// once here; callers only see the Manager.
func New(opts Options, logger *zap.Logger) (*Manager, error) {
	var b Backend
	switch strings.ToLower(opts.Backend) {
	case "", BackendStub:
		b = NewStubBackend()
	case BackendHTTP:
		if opts.BaseURL == "" {
			return nil, fmt.Errorf("models.base_url is required for the http backend")
		}
		b = NewHTTPBackend(opts.BaseURL)
	default:
		return nil, fmt.Errorf("unknown model backend %q", opts.Backend)
	}
	m := NewManager(b, logger)
	m.SetRetryInterval(opts.RetryInterval)
	return m, nil
}
