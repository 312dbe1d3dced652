package config

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/speare-ai/speare/pkg/domain/model"
	"github.com/speare-ai/speare/pkg/service/tickets"
	"github.com/speare-ai/speare/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Corpus holds CLI flags for the ticket corpus file
type Corpus struct {
	path string
}

// Flags returns CLI flags for corpus configuration
func (c *Corpus) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "corpus-path",
			Usage:       "TOML file with tickets, conversations, scripts and seed KB articles",
			Sources:     cli.EnvVars("SPEARE_CORPUS_PATH"),
			Destination: &c.path,
		},
	}
}

// Configure loads the corpus file into a ticket source plus the seed
// articles for index bootstrap. Without a path, both come back empty.
func (c *Corpus) Configure(ctx context.Context) (*tickets.Source, []*model.KBArticle, error) {
	if c.path == "" {
		logging.Default().Warn("corpus-path not configured, starting with an empty corpus")
		return tickets.NewSource(), nil, nil
	}

	corpus, err := tickets.LoadCorpus(ctx, c.path)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to load corpus", goerr.V("path", c.path))
	}

	logging.Default().Info("corpus loaded",
		"path", c.path,
		"tickets", len(corpus.Tickets),
		"conversations", len(corpus.Conversations),
		"scripts", len(corpus.Scripts),
		"seed_articles", len(corpus.Articles),
	)

	return corpus.Source(), corpus.SeedArticles(), nil
}
