package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/speare-ai/speare/pkg/cli/config"
)

func cmdScan() *cli.Command {
	var repoCfg config.Repository
	var geminiCfg config.Gemini
	var indexCfg config.Index
	var learningCfg config.Learning
	var corpusCfg config.Corpus

	var flags []cli.Flag
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, indexCfg.Flags()...)
	flags = append(flags, learningCfg.Flags()...)
	flags = append(flags, corpusCfg.Flags()...)

	return &cli.Command{
		Name:  "scan",
		Usage: "Run one gap scan over the resolved tickets and report new knowledge gaps",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, repoClose, err := buildUseCases(ctx, &repoCfg, &geminiCfg, &indexCfg, &learningCfg, &corpusCfg)
			if err != nil {
				return err
			}
			defer repoClose()

			result, err := uc.Learning.ScanGaps(ctx)
			if err != nil {
				return err
			}

			bold := color.New(color.Bold)
			bold.Println("Gap scan result")
			fmt.Printf("  scanned:      %d\n", result.GapsScanned)
			fmt.Printf("  skipped:      %d\n", result.Skipped)
			fmt.Printf("  total events: %d\n", result.TotalEvents)

			if result.NewGapsFound == 0 {
				color.Green("  no new knowledge gaps")
				return nil
			}

			color.Yellow("  new gaps:     %d", result.NewGapsFound)
			for _, event := range result.NewEvents {
				fmt.Printf("    %s  %s\n", color.CyanString(string(event.ID)), event.DetectedGap)
			}

			return nil
		},
	}
}
