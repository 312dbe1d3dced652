package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/speare-ai/speare/pkg/service/vectorindex"
	"github.com/speare-ai/speare/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Index holds CLI flags for the vector index
type Index struct {
	path     string
	compress bool
}

// Flags returns CLI flags for index configuration
func (i *Index) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "index-path",
			Usage:       "Directory for the persistent vector index (empty keeps it in memory)",
			Sources:     cli.EnvVars("SPEARE_INDEX_PATH"),
			Destination: &i.path,
		},
		&cli.BoolFlag{
			Name:        "index-compress",
			Usage:       "Compress persisted index files",
			Value:       true,
			Sources:     cli.EnvVars("SPEARE_INDEX_COMPRESS"),
			Destination: &i.compress,
		},
	}
}

// Configure builds the vector index. With an LLM client the index embeds
// through Gemini; without one it degrades to local hash embeddings.
func (i *Index) Configure(llmClient gollem.LLMClient) (*vectorindex.Index, error) {
	var embedFunc = vectorindex.HashEmbeddingFunc()
	if llmClient != nil {
		embedFunc = vectorindex.NewEmbeddingFunc(llmClient)
	} else {
		logging.Default().Warn("Gemini not configured, using local hash embeddings (development only)")
	}

	opts := []vectorindex.Option{vectorindex.WithEmbeddingFunc(embedFunc)}
	if i.path != "" {
		opts = append(opts, vectorindex.WithPersistentPath(i.path, i.compress))
	}

	idx, err := vectorindex.New(opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize vector index")
	}
	return idx, nil
}
