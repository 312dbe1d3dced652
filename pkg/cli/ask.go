package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/speare-ai/speare/pkg/cli/config"
	"github.com/speare-ai/speare/pkg/usecase"
)

func cmdAsk() *cli.Command {
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
		Name:      "ask",
		Usage:     "Ask the support copilot a question from the command line",
		ArgsUsage: "<question>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			question := strings.Join(c.Args().Slice(), " ")
			if question == "" {
				return goerr.New("question argument is required")
			}

			uc, repoClose, err := buildUseCases(ctx, &repoCfg, &geminiCfg, &indexCfg, &learningCfg, &corpusCfg)
			if err != nil {
				return err
			}
			defer repoClose()

			answer, err := uc.Copilot.Ask(ctx, usecase.AskRequest{Question: question})
			if err != nil {
				return err
			}

			fmt.Println(answer.Answer)
			fmt.Println()
			fmt.Printf("%s %s (%.0f%%)\n",
				color.New(color.Bold).Sprint("answer type:"),
				answer.AnswerType,
				answer.Confidence*100)
			for _, src := range answer.Sources {
				fmt.Printf("  %s %s (%.0f%%)\n", color.CyanString(src.ID), src.Title, src.Score*100)
			}

			return nil
		},
	}
}
