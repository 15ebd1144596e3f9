package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultHTTPTimeout = 10 * time.Second

type zeroShotRequest struct {
	Text       string   `json:"text"`
	Labels     []string `json:"labels"`
	MultiLabel bool     `json:"multi_label"`
}

type zeroShotResponse struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

type textRequest struct {
	Text string `json:"text"`
}

type emotionsResponse struct {
	Emotions []LabelScore `json:"emotions"`
}

// HTTPBackend talks to a model sidecar over JSON.
type HTTPBackend struct {
	baseURL string
	client  *http.Client
}

// NewHTTPBackend returns a backend for the sidecar at baseURL.
func NewHTTPBackend(baseURL string) *HTTPBackend {
	return &HTTPBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultHTTPTimeout},
	}
}

func (h *HTTPBackend) Name() string { return BackendHTTP }

// Load succeeds once the sidecar answers GET /health with 200.
func (h *HTTPBackend) Load(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unhealthy status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

func (h *HTTPBackend) ZeroShot(ctx context.Context, text string, labels []string, multiLabel bool) ([]LabelScore, error) {
	var out zeroShotResponse
	if err := h.post(ctx, "/zero-shot", zeroShotRequest{Text: text, Labels: labels, MultiLabel: multiLabel}, &out); err != nil {
		return nil, err
	}
	if len(out.Labels) != len(out.Scores) {
		return nil, fmt.Errorf("zero-shot response has %d labels and %d scores", len(out.Labels), len(out.Scores))
	}
	res := make([]LabelScore, len(out.Labels))
	for i := range out.Labels {
		res[i] = LabelScore{Label: out.Labels[i], Score: out.Scores[i]}
	}
	sortByScore(res)
	return res, nil
}

func (h *HTTPBackend) Emotions(ctx context.Context, text string) ([]LabelScore, error) {
	var out emotionsResponse
	if err := h.post(ctx, "/emotions", textRequest{Text: text}, &out); err != nil {
		return nil, err
	}
	sortByScore(out.Emotions)
	return out.Emotions, nil
}

func (h *HTTPBackend) Sentiment(ctx context.Context, text string) (LabelScore, error) {
	var out LabelScore
	if err := h.post(ctx, "/sentiment", textRequest{Text: text}, &out); err != nil {
		return LabelScore{}, err
	}
	return out, nil
}

func (h *HTTPBackend) post(ctx context.Context, path string, body, respPtr any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model service returned %d for %s", resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(respPtr); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
