// Seed script for loading demo core knowledge into the configured store.
// Run with: STORE_BACKEND=redis go run ./scripts/seed.go
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/Harshitk-cp/augur/internal/bootstrap"
	"github.com/Harshitk-cp/augur/internal/config"
	"github.com/Harshitk-cp/augur/internal/service"
	"go.uber.org/zap"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if config.StoreBackend() == "memory" {
		log.Fatal("STORE_BACKEND is memory; seeded data would vanish on exit. Use redis or postgres.")
	}

	logger, err := bootstrap.NewLogger()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	kv, closeStore, err := bootstrap.OpenStore(ctx, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer closeStore()
	fmt.Printf("Connected to %s store\n", config.StoreBackend())

	knowledge := service.NewKnowledgeService(kv, config.Tuning(), logger.Named("knowledge"))

	patterns := []struct {
		name        string
		description string
		confidence  float64
		tags        []string
	}{
		{"double_bottom", "Two troughs at a similar level followed by a break of the neckline", 0.82, []string{"technical_analysis", "reversal"}},
		{"golden_cross", "50-day moving average crossing above the 200-day", 0.78, []string{"technical_analysis", "trend"}},
		{"earnings_drift", "Price keeps moving in the direction of an earnings surprise for weeks", 0.74, []string{"fundamental_analysis", "earnings"}},
		{"sentiment_capitulation", "Extreme negative sentiment coinciding with volume spikes near lows", 0.7, []string{"market_sentiment", "reversal"}},
	}

	for _, p := range patterns {
		content := map[string]any{
			"type":             "core_pattern",
			"name":             p.name,
			"description":      p.description,
			"confidence":       p.confidence,
			"occurrences":      []any{},
			"validation_count": 3,
		}
		item, err := knowledge.AddToShortTerm(ctx, content, "seed", p.tags)
		if err != nil {
			log.Printf("Warning: Failed to store pattern %s: %v", p.name, err)
			continue
		}
		item.Confidence = p.confidence
		item.ValidationCount = 3
		if !knowledge.MoveToCore(ctx, item) {
			log.Printf("Warning: Failed to promote pattern %s", p.name)
			continue
		}
		fmt.Printf("Created core pattern: %s (%.2f)\n", p.name, p.confidence)
	}

	items, err := knowledge.RetrieveMemory(ctx, map[string]any{"content.type": "core_pattern"}, "core", 100)
	if err != nil {
		logger.Error("failed to verify seed", zap.Error(err))
		return
	}
	fmt.Printf("\n=== Seed Complete: %d core patterns ===\n", len(items))
	fmt.Println("\nTo check, run: augur status")
}
