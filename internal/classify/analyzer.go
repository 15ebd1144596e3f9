package classify

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/runnerr0/footprint/internal/activity"
)

// MaxWords is the number of words kept from a text before classification.
const MaxWords = 512

// DefaultCategories are the zero-shot candidate labels for page content.
var DefaultCategories = []string{
	"Productivity",
	"Social Media",
	"Entertainment",
	"News",
	"Shopping",
	"Education",
	"Health & Wellness",
	"Technology",
	"Finance",
	"Other",
}

const fallbackCategory = "Other"

// Emotion labels grouped into the four stored intensities.
var (
	happyEmotions = []string{"joy", "love", "surprise"}
	sadEmotions   = []string{"sadness", "fear"}
	angryEmotions = []string{"anger", "disgust"}
)

// Analyzer turns page text into a content analysis record.
type Analyzer struct {
	models     *Manager
	categories []string
	logger     *zap.Logger
	now        func() time.Time
}

// NewAnalyzer returns an Analyzer using the default candidate categories.
func NewAnalyzer(models *Manager, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		models:     models,
		categories: DefaultCategories,
		logger:     logger,
		now:        time.Now,
	}
}

// Analyze classifies text and scores its emotions. Empty text and model
// failures yield the Other/neutral fallback; only ErrNotReady is returned.
func (a *Analyzer) Analyze(ctx context.Context, url, text string) (activity.ContentAnalysis, error) {
	rec := activity.ContentAnalysis{
		PageURL:           url,
		SuggestedCategory: fallbackCategory,
		Neutral:           1,
		DominantEmotion:   "neutral",
		ScrapedAt:         a.now().UTC(),
	}
	if err := a.models.EnsureLoaded(ctx); err != nil {
		return rec, err
	}

	text = Truncate(text, MaxWords)
	if text == "" {
		return rec, nil
	}

	cats, err := a.models.ZeroShot(ctx, text, a.categories, false)
	switch {
	case errors.Is(err, ErrNotReady):
		return rec, err
	case err != nil:
		a.logger.Warn("zero-shot classification failed", zap.String("url", url), zap.Error(err))
	case len(cats) > 0:
		rec.SuggestedCategory = cats[0].Label
	}

	emotions, err := a.models.Emotions(ctx, text)
	switch {
	case errors.Is(err, ErrNotReady):
		return rec, err
	case err != nil:
		a.logger.Warn("emotion detection failed", zap.String("url", url), zap.Error(err))
	case len(emotions) > 0:
		applyEmotions(&rec, emotions)
	}
	return rec, nil
}

// NeutralSentiment is the result for empty text and failed sentiment calls.
var NeutralSentiment = LabelScore{Label: "NEUTRAL", Score: 0}

// Sentiment scores the overall polarity of text with an upper-case label.
// Empty text and model failures yield NeutralSentiment; only ErrNotReady is
// returned.
func (a *Analyzer) Sentiment(ctx context.Context, text string) (LabelScore, error) {
	if err := a.models.EnsureLoaded(ctx); err != nil {
		return NeutralSentiment, err
	}

	text = Truncate(text, MaxWords)
	if text == "" {
		return NeutralSentiment, nil
	}

	s, err := a.models.Sentiment(ctx, text)
	switch {
	case errors.Is(err, ErrNotReady):
		return NeutralSentiment, err
	case err != nil:
		a.logger.Warn("sentiment analysis failed", zap.Error(err))
		return NeutralSentiment, nil
	}
	s.Label = strings.ToUpper(s.Label)
	return s, nil
}

// Truncate keeps the first maxWords whitespace-separated words of text.
func Truncate(text string, maxWords int) string {
	words := strings.Fields(text)
	if len(words) > maxWords {
		words = words[:maxWords]
	}
	return strings.Join(words, " ")
}

func applyEmotions(rec *activity.ContentAnalysis, emotions []LabelScore) {
	rec.Happy = sumLabels(emotions, happyEmotions)
	rec.Sad = sumLabels(emotions, sadEmotions)
	rec.Angry = sumLabels(emotions, angryEmotions)
	rec.Neutral = sumLabels(emotions, []string{"neutral"})
	rec.DominantEmotion = emotions[0].Label
}

func sumLabels(scores []LabelScore, labels []string) float64 {
	var sum float64
	for _, s := range scores {
		for _, l := range labels {
			if strings.EqualFold(s.Label, l) {
				sum += s.Score
			}
		}
	}
	return sum
}

// Balance summarizes the positive and negative emotion mass of one text.
type Balance struct {
	Positive   float64 `json:"positive_score"`
	Negative   float64 `json:"negative_score"`
	Balance    float64 `json:"balance"`
	IsBalanced bool    `json:"is_balanced"`
}

// EmotionBalance scores emotions on a 0 (negative) to 1 (positive) scale.
// With no positive or negative mass the balance is 0.5.
func EmotionBalance(emotions []LabelScore) Balance {
	pos := sumLabels(emotions, happyEmotions)
	neg := sumLabels(emotions, sadEmotions) + sumLabels(emotions, angryEmotions)

	b := Balance{Positive: pos, Negative: neg, Balance: 0.5}
	if total := pos + neg; total > 0 {
		b.Balance = pos / total
	}
	b.IsBalanced = b.Balance >= 0.4 && b.Balance <= 0.6
	return b
}

func sortByScore(s []LabelScore) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Score > s[j].Score })
}
