package config

import (
	"time"

	"github.com/speare-ai/speare/pkg/service/retriever"
	"github.com/urfave/cli/v3"
)

// Learning holds CLI flags for the learning loop thresholds
type Learning struct {
	askThreshold float64
	gapThreshold float64
	topK         int
	scanInterval time.Duration
}

// Flags returns CLI flags for learning loop configuration
func (l *Learning) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.FloatFlag{
			Name:        "ask-threshold",
			Usage:       "Confidence floor for copilot answers",
			Value:       retriever.DefaultAskThreshold,
			Sources:     cli.EnvVars("SPEARE_ASK_THRESHOLD"),
			Destination: &l.askThreshold,
		},
		&cli.FloatFlag{
			Name:        "gap-threshold",
			Usage:       "KB coverage score below which a ticket counts as a knowledge gap",
			Value:       retriever.DefaultGapThreshold,
			Sources:     cli.EnvVars("SPEARE_GAP_THRESHOLD"),
			Destination: &l.gapThreshold,
		},
		&cli.IntFlag{
			Name:        "top-k",
			Usage:       "Results fetched per collection on retrieval",
			Value:       retriever.DefaultTopK,
			Sources:     cli.EnvVars("SPEARE_TOP_K"),
			Destination: &l.topK,
		},
		&cli.DurationFlag{
			Name:        "scan-interval",
			Usage:       "Interval for the periodic gap scan (0 disables it)",
			Sources:     cli.EnvVars("SPEARE_SCAN_INTERVAL"),
			Destination: &l.scanInterval,
		},
	}
}

// RetrieverOptions converts the flags into retriever options
func (l *Learning) RetrieverOptions() []retriever.Option {
	return []retriever.Option{
		retriever.WithAskThreshold(l.askThreshold),
		retriever.WithGapThreshold(l.gapThreshold),
		retriever.WithTopK(l.topK),
	}
}

// ScanInterval returns the periodic scan interval, zero when disabled
func (l *Learning) ScanInterval() time.Duration {
	return l.scanInterval
}
