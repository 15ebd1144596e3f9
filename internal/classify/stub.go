package classify

import "context"

// StubBackend answers every call with fixed scores. It stands in for the
// model sidecar in development and tests.
type StubBackend struct{}

// NewStubBackend returns a StubBackend.
func NewStubBackend() *StubBackend {
	return &StubBackend{}
}

func (s *StubBackend) Name() string { return BackendStub }

func (s *StubBackend) Load(ctx context.Context) error { return nil }

func (s *StubBackend) ZeroShot(ctx context.Context, text string, labels []string, multiLabel bool) ([]LabelScore, error) {
	return []LabelScore{
		{Label: "Technology", Score: 0.70},
		{Label: "Productivity", Score: 0.20},
		{Label: "Other", Score: 0.10},
	}, nil
}

func (s *StubBackend) Emotions(ctx context.Context, text string) ([]LabelScore, error) {
	return []LabelScore{
		{Label: "joy", Score: 0.60},
		{Label: "neutral", Score: 0.30},
		{Label: "sadness", Score: 0.10},
	}, nil
}

func (s *StubBackend) Sentiment(ctx context.Context, text string) (LabelScore, error) {
	return LabelScore{Label: "POSITIVE", Score: 0.85}, nil
}
