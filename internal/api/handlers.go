package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/runnerr0/footprint/internal/activity"
	"github.com/runnerr0/footprint/internal/classify"
	"github.com/runnerr0/footprint/internal/dashboard"
	"github.com/runnerr0/footprint/internal/storage"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status         string `json:"status"`
	MLModelsLoaded bool   `json:"ml_models_loaded"`
	ModelsState    string `json:"models_state"`
	ModelsBackend  string `json:"models_backend"`
}

// TrackVisitRequest is the request body for POST /api/v1/tracking/visits.
type TrackVisitRequest struct {
	URL       string    `json:"url"`
	Domain    string    `json:"domain"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// TrackVisitResponse reports the stored session id. Recorded is false when
// the domain is excluded from capture.
type TrackVisitResponse struct {
	ID       int64 `json:"id"`
	Recorded bool  `json:"recorded"`
}

// RuleRequest is the request body for POST /api/v1/user-domain-category.
type RuleRequest struct {
	DomainPattern string `json:"domain_pattern"`
	Category      string `json:"category"`
}

// RuleResponse is one user domain rule.
type RuleResponse struct {
	ID            int64     `json:"id"`
	DomainPattern string    `json:"domain_pattern"`
	Category      string    `json:"category"`
	CreatedAt     time.Time `json:"created_at"`
}

// LimitRequest is the request body for PUT /api/v1/dashboard/settings/limits.
type LimitRequest struct {
	Domain         string `json:"domain"`
	AllowedMinutes int    `json:"allowed_minutes"`
}

// AnalyzeRequest is the request body for POST /api/v1/content/analyze.
type AnalyzeRequest struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// AnalyzeResponse is the stored analysis plus the per-text balance and
// sentiment. Sentiment is not persisted.
type AnalyzeResponse struct {
	URL                     string              `json:"url"`
	SystemSuggestedCategory string              `json:"system_suggested_category"`
	Emotions                map[string]float64  `json:"emotions"`
	DominantEmotion         string              `json:"dominant_emotion"`
	Balance                 classify.Balance    `json:"emotional_balance"`
	Sentiment               classify.LabelScore `json:"sentiment"`
}

func (s *Server) handleHealth(c echo.Context) error {
	m := s.deps.Models
	return c.JSON(http.StatusOK, HealthResponse{
		Status:         "ok",
		MLModelsLoaded: m.Ready(),
		ModelsState:    m.State().String(),
		ModelsBackend:  m.BackendName(),
	})
}

func (s *Server) handlePing(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "pong"})
}

// userID reads the caller identity. An empty value is rejected by the views.
func userID(c echo.Context) string {
	return strings.TrimSpace(c.Request().Header.Get(HeaderUserID))
}

func requireUserID(c echo.Context) (string, error) {
	id := userID(c)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, dashboard.ErrMissingIdentity.Error())
	}
	return id, nil
}

// viewError maps service errors onto HTTP statuses.
func (s *Server) viewError(c echo.Context, view string, err error) error {
	switch {
	case errors.Is(err, dashboard.ErrMissingIdentity):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, dashboard.ErrUpstream):
		s.logger.Error("view build failed",
			zap.String("view", view),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			zap.Error(err))
		return echo.NewHTTPError(http.StatusServiceUnavailable, dashboard.ErrUpstream.Error())
	default:
		s.logger.Error("view build failed", zap.String("view", view), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) handleDashboard(c echo.Context) error {
	resp, err := s.deps.Views.Dashboard(c.Request().Context(), userID(c), c.QueryParam("timeRange"))
	if err != nil {
		return s.viewError(c, "dashboard", err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleInsights(c echo.Context) error {
	resp, err := s.deps.Views.Insights(c.Request().Context(), userID(c), c.QueryParam("timeRange"))
	if err != nil {
		return s.viewError(c, "insights", err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSettings(c echo.Context) error {
	resp, err := s.deps.Views.Settings(c.Request().Context(), userID(c))
	if err != nil {
		return s.viewError(c, "settings", err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSetLimit(c echo.Context) error {
	uid, err := requireUserID(c)
	if err != nil {
		return err
	}
	var req LimitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Domain) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "domain field is required")
	}
	if req.AllowedMinutes < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "allowed_minutes cannot be negative")
	}
	if err := s.deps.Store.SetDomainLimit(c.Request().Context(), uid, req.Domain, req.AllowedMinutes); err != nil {
		s.logger.Error("set limit failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusServiceUnavailable, "failed to store limit")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleTrackVisit(c echo.Context) error {
	uid, err := requireUserID(c)
	if err != nil {
		return err
	}
	var req TrackVisitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.URL == "" && req.Domain == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url or domain is required")
	}
	if req.StartTime.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "start_time is required")
	}

	sess := &storage.Session{
		UserID:    uid,
		Domain:    req.Domain,
		URL:       req.URL,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
	if err := s.deps.Store.AddSession(c.Request().Context(), sess); err != nil {
		s.logger.Error("store session failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusServiceUnavailable, "failed to store visit")
	}
	return c.JSON(http.StatusCreated, TrackVisitResponse{ID: sess.ID, Recorded: sess.ID != 0})
}

func toRuleResponse(r activity.DomainRule) RuleResponse {
	return RuleResponse{
		ID:            r.ID,
		DomainPattern: r.Pattern,
		Category:      r.Category,
		CreatedAt:     r.CreatedAt,
	}
}

func (s *Server) handleListRules(c echo.Context) error {
	uid, err := requireUserID(c)
	if err != nil {
		return err
	}
	rules, err := s.deps.Store.DomainRules(c.Request().Context(), uid)
	if err != nil {
		s.logger.Error("list rules failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusServiceUnavailable, "failed to load rules")
	}
	out := make([]RuleResponse, 0, len(rules))
	for _, r := range rules {
		out = append(out, toRuleResponse(r))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleAddRule(c echo.Context) error {
	uid, err := requireUserID(c)
	if err != nil {
		return err
	}
	var req RuleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.DomainPattern) == "" || strings.TrimSpace(req.Category) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "domain_pattern and category are required")
	}
	rule, err := s.deps.Store.AddDomainRule(c.Request().Context(), uid, req.DomainPattern, req.Category)
	if err != nil {
		s.logger.Error("add rule failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusServiceUnavailable, "failed to store rule")
	}
	return c.JSON(http.StatusCreated, toRuleResponse(*rule))
}

func (s *Server) handleDeleteRule(c echo.Context) error {
	uid, err := requireUserID(c)
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid rule id")
	}
	err = s.deps.Store.DeleteDomainRule(c.Request().Context(), uid, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "rule not found")
	case err != nil:
		s.logger.Error("delete rule failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusServiceUnavailable, "failed to delete rule")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleAnalyze(c echo.Context) error {
	uid, err := requireUserID(c)
	if err != nil {
		return err
	}
	var req AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid analyze request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.URL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url field is required")
	}

	ctx := c.Request().Context()
	rec, err := s.deps.Analyzer.Analyze(ctx, req.URL, req.Text)
	if errors.Is(err, classify.ErrNotReady) {
		s.deps.Metrics.RecordClassify("not_ready")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "ML models not loaded")
	}
	if err != nil {
		s.deps.Metrics.RecordClassify("error")
		s.logger.Error("content analysis failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "content analysis failed")
	}

	if err := s.deps.Store.AddContentAnalysis(ctx, uid, rec); err != nil {
		s.deps.Metrics.RecordClassify("store_error")
		s.logger.Error("store content analysis failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusServiceUnavailable, "failed to store analysis")
	}
	s.deps.Metrics.RecordClassify("ok")

	sentiment, err := s.deps.Analyzer.Sentiment(ctx, req.Text)
	if err != nil {
		s.logger.Warn("sentiment unavailable", zap.Error(err))
	}

	return c.JSON(http.StatusOK, AnalyzeResponse{
		URL:                     rec.PageURL,
		SystemSuggestedCategory: rec.SuggestedCategory,
		Emotions: map[string]float64{
			"happy":   rec.Happy,
			"sad":     rec.Sad,
			"angry":   rec.Angry,
			"neutral": rec.Neutral,
		},
		DominantEmotion: rec.DominantEmotion,
		Balance:         recordBalance(rec),
		Sentiment:       sentiment,
	})
}

// recordBalance derives the per-text balance from the grouped scores.
func recordBalance(rec activity.ContentAnalysis) classify.Balance {
	return classify.EmotionBalance([]classify.LabelScore{
		{Label: "joy", Score: rec.Happy},
		{Label: "sadness", Score: rec.Sad},
		{Label: "anger", Score: rec.Angry},
	})
}
