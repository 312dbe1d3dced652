package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/speare-ai/speare/pkg/domain/interfaces"
)

type Firestore struct {
	client  *firestore.Client
	event   *eventRepository
	article *articleRepository
	lineage *lineageRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix namespaces all collections, mainly for tests
// sharing one emulator project.
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.event.collectionPrefix = prefix
		f.article.collectionPrefix = prefix
		f.lineage.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client", goerr.V("projectID", projectID))
	}

	f := &Firestore{
		client:  client,
		event:   newEventRepository(client),
		article: newArticleRepository(client),
		lineage: newLineageRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Event() interfaces.EventRepository {
	return f.event
}

func (f *Firestore) Article() interfaces.ArticleRepository {
	return f.article
}

func (f *Firestore) Lineage() interfaces.LineageRepository {
	return f.lineage
}

func (f *Firestore) Close() error {
	return f.client.Close()
}
