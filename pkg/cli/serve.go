package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/speare-ai/speare/pkg/cli/config"
	httpctrl "github.com/speare-ai/speare/pkg/controller/http"
	"github.com/speare-ai/speare/pkg/service/drafter"
	"github.com/speare-ai/speare/pkg/service/retriever"
	"github.com/speare-ai/speare/pkg/usecase"
	"github.com/speare-ai/speare/pkg/utils/async"
	"github.com/speare-ai/speare/pkg/utils/logging"
)

func cmdServe() *cli.Command {
	var addr string
	var repoCfg config.Repository
	var geminiCfg config.Gemini
	var indexCfg config.Index
	var learningCfg config.Learning
	var corpusCfg config.Corpus

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("SPEARE_ADDR"),
			Destination: &addr,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, indexCfg.Flags()...)
	flags = append(flags, learningCfg.Flags()...)
	flags = append(flags, corpusCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, repoClose, err := buildUseCases(ctx, &repoCfg, &geminiCfg, &indexCfg, &learningCfg, &corpusCfg)
			if err != nil {
				return err
			}
			defer repoClose()

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Periodic gap scan, detached from request handling
			var scanStop func()
			if interval := learningCfg.ScanInterval(); interval > 0 {
				scanStop = startScanLoop(ctx, uc, interval)
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				if scanStop != nil {
					scanStop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}

// buildUseCases wires the repository, index, services and corpus from
// the shared config flags, and bootstraps the vector index. The
// returned closer releases the repository.
func buildUseCases(ctx context.Context, repoCfg *config.Repository, geminiCfg *config.Gemini, indexCfg *config.Index, learningCfg *config.Learning, corpusCfg *config.Corpus) (*usecase.UseCases, func(), error) {
	repo, err := repoCfg.Configure(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to initialize repository")
	}
	repoClose := func() {
		if err := repo.Close(); err != nil {
			logging.Default().Error("failed to close repository", "error", err.Error())
		}
	}

	llmClient, err := geminiCfg.Configure(ctx)
	if err != nil {
		repoClose()
		return nil, nil, err
	}

	idx, err := indexCfg.Configure(llmClient)
	if err != nil {
		repoClose()
		return nil, nil, err
	}

	retrOpts := learningCfg.RetrieverOptions()
	if llmClient != nil {
		retrOpts = append(retrOpts, retriever.WithLLMClient(llmClient))
	}
	retr, err := retriever.New(idx, retrOpts...)
	if err != nil {
		repoClose()
		return nil, nil, err
	}

	var drafterOpts []drafter.Option
	if llmClient != nil {
		drafterOpts = append(drafterOpts, drafter.WithLLMClient(llmClient))
	}
	drft := drafter.New(drafterOpts...)

	source, seeds, err := corpusCfg.Configure(ctx)
	if err != nil {
		repoClose()
		return nil, nil, err
	}

	uc := usecase.New(repo, source, idx, retr, drft)

	if _, err := uc.Knowledge.BootstrapIndex(ctx, seeds); err != nil {
		repoClose()
		return nil, nil, goerr.Wrap(err, "failed to bootstrap vector index")
	}

	return uc, repoClose, nil
}

// startScanLoop runs ScanGaps on a fixed interval until stopped
func startScanLoop(ctx context.Context, uc *usecase.UseCases, interval time.Duration) func() {
	loopCtx, cancel := context.WithCancel(ctx)

	async.Dispatch(loopCtx, func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		logging.Default().Info("periodic gap scan enabled", "interval", interval)
		for {
			select {
			case <-loopCtx.Done():
				return nil
			case <-ticker.C:
				result, err := uc.Learning.ScanGaps(loopCtx)
				if err != nil {
					logging.From(ctx).Error("periodic gap scan failed", "error", err)
					continue
				}
				logging.From(ctx).Info("periodic gap scan completed",
					"scanned", result.GapsScanned,
					"new_gaps", result.NewGapsFound,
					"skipped", result.Skipped)
			}
		}
	})

	return cancel
}
