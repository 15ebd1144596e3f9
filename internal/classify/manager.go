package classify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is the lifecycle stage of a Manager.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// DefaultRetryInterval is the minimum gap between EnsureLoaded attempts
// after a failed load.
const DefaultRetryInterval = 30 * time.Second

// Manager guards a Backend behind a load lifecycle. Every model call made
// before Load succeeds returns ErrNotReady.
type Manager struct {
	backend Backend
	logger  *zap.Logger
	retry   time.Duration
	now     func() time.Time

	mu          sync.RWMutex
	state       State
	lastAttempt time.Time
}

// NewManager wraps backend in the uninitialized state.
func NewManager(backend Backend, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{backend: backend, logger: logger, retry: DefaultRetryInterval, now: time.Now}
}

// SetRetryInterval changes the gap EnsureLoaded keeps between failed
// attempts. Non-positive values restore the default.
func (m *Manager) SetRetryInterval(d time.Duration) {
	if d <= 0 {
		d = DefaultRetryInterval
	}
	m.mu.Lock()
	m.retry = d
	m.mu.Unlock()
}

// Load loads the backend models. Calling Load on a ready manager is a no-op.
// A failed load may be retried.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case StateReady:
		m.mu.Unlock()
		m.logger.Info("models already loaded, skipping")
		return nil
	case StateLoading:
		m.mu.Unlock()
		return fmt.Errorf("models are already loading")
	}
	m.state = StateLoading
	m.lastAttempt = m.now()
	m.mu.Unlock()

	m.logger.Info("loading models", zap.String("backend", m.backend.Name()))
	err := m.backend.Load(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.state = StateFailed
		m.logger.Error("failed to load models", zap.String("backend", m.backend.Name()), zap.Error(err))
		return fmt.Errorf("load %s models: %w", m.backend.Name(), err)
	}
	m.state = StateReady
	m.logger.Info("models loaded", zap.String("backend", m.backend.Name()))
	return nil
}

// EnsureLoaded loads the models on first use. After a failed load it tries
// again once the retry interval has passed. Until models are usable it
// returns an error wrapping ErrNotReady.
func (m *Manager) EnsureLoaded(ctx context.Context) error {
	m.mu.RLock()
	state, last, retry := m.state, m.lastAttempt, m.retry
	m.mu.RUnlock()

	switch state {
	case StateReady:
		return nil
	case StateLoading:
		return ErrNotReady
	case StateFailed:
		if m.now().Sub(last) < retry {
			return ErrNotReady
		}
	}
	if err := m.Load(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrNotReady, err)
	}
	return nil
}

// State returns the current lifecycle stage.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Ready reports whether models can be used.
func (m *Manager) Ready() bool {
	return m.State() == StateReady
}

// BackendName returns the configured backend's name.
func (m *Manager) BackendName() string {
	return m.backend.Name()
}

func (m *Manager) ready() (Backend, error) {
	if !m.Ready() {
		return nil, ErrNotReady
	}
	return m.backend, nil
}

// ZeroShot classifies text against candidate labels.
func (m *Manager) ZeroShot(ctx context.Context, text string, labels []string, multiLabel bool) ([]LabelScore, error) {
	b, err := m.ready()
	if err != nil {
		return nil, err
	}
	return b.ZeroShot(ctx, text, labels, multiLabel)
}

// Emotions returns emotion scores for text.
func (m *Manager) Emotions(ctx context.Context, text string) ([]LabelScore, error) {
	b, err := m.ready()
	if err != nil {
		return nil, err
	}
	return b.Emotions(ctx, text)
}

// Sentiment returns the sentiment label for text.
func (m *Manager) Sentiment(ctx context.Context, text string) (LabelScore, error) {
	b, err := m.ready()
	if err != nil {
		return LabelScore{}, err
	}
	return b.Sentiment(ctx, text)
}
