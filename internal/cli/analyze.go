package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/runnerr0/footprint/internal/classify"
	"github.com/runnerr0/footprint/internal/config"
	"github.com/runnerr0/footprint/internal/storage"
)

// Execute implements the go-flags Commander interface for AnalyzeCommand.
func (c *AnalyzeCommand) Execute(args []string) error {
	if c.URL == "" {
		return fmt.Errorf("--url is required for analyze command")
	}
	if c.Text != "" && c.TextFile != "" {
		return fmt.Errorf("--text and --text-file are mutually exclusive")
	}
	return withStore(c.globals, c.executeWithStore)
}

// executeWithStore loads the configured models, analyzes the text and stores
// the result (used by tests).
func (c *AnalyzeCommand) executeWithStore(ctx context.Context, store *storage.SQLiteStore, cfg *config.Config) error {
	user, err := resolveUser(c.globals, cfg)
	if err != nil {
		return err
	}

	text := c.Text
	if c.TextFile != "" {
		data, err := os.ReadFile(c.TextFile)
		if err != nil {
			return fmt.Errorf("reading text file: %w", err)
		}
		text = string(data)
	}

	logger, cleanup, err := newLogger(c.globals, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	models, err := classify.New(classify.Options{
		Backend: cfg.Models.Backend,
		BaseURL: cfg.Models.BaseURL,
	}, logger)
	if err != nil {
		return err
	}
	if err := models.Load(ctx); err != nil {
		return err
	}

	analyzer := classify.NewAnalyzer(models, logger)
	rec, err := analyzer.Analyze(ctx, c.URL, text)
	if err != nil {
		return fmt.Errorf("analyzing content: %w", err)
	}
	sentiment, err := analyzer.Sentiment(ctx, text)
	if err != nil {
		return fmt.Errorf("analyzing sentiment: %w", err)
	}
	if err := store.AddContentAnalysis(ctx, user, rec); err != nil {
		return fmt.Errorf("storing analysis: %w", err)
	}

	if isJSON(c.globals) {
		return printJSON(map[string]interface{}{
			"url":                       rec.PageURL,
			"system_suggested_category": rec.SuggestedCategory,
			"emotions": map[string]float64{
				"happy":   rec.Happy,
				"sad":     rec.Sad,
				"angry":   rec.Angry,
				"neutral": rec.Neutral,
			},
			"dominant_emotion": rec.DominantEmotion,
			"sentiment":        sentiment,
			"scraped_at":       rec.ScrapedAt.UTC().Format(time.RFC3339),
			"backend":          models.BackendName(),
		})
	}

	fmt.Printf("Analyzed %s (%s backend)\n", rec.PageURL, models.BackendName())
	fmt.Printf("  Category: %s\n", rec.SuggestedCategory)
	fmt.Printf("  Emotion:  %s\n", rec.DominantEmotion)
	fmt.Printf("  Scores:   happy %.2f  sad %.2f  angry %.2f  neutral %.2f\n",
		rec.Happy, rec.Sad, rec.Angry, rec.Neutral)
	fmt.Printf("  Sentiment: %s (%.2f)\n", sentiment.Label, sentiment.Score)
	return nil
}
