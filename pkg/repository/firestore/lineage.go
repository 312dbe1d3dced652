package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/speare-ai/speare/pkg/domain/model"
	"github.com/speare-ai/speare/pkg/domain/types"
	"google.golang.org/api/iterator"
)

// lineageDoc is the Firestore document representation of model.LineageEdge
type lineageDoc struct {
	SourceType   types.LineageSource `firestore:"SourceType"`
	SourceID     string              `firestore:"SourceID"`
	TargetKBID   model.ArticleID     `firestore:"TargetKBID"`
	Relationship types.Relationship  `firestore:"Relationship"`
}

func toLineageDoc(e model.LineageEdge) *lineageDoc {
	return &lineageDoc{
		SourceType:   e.SourceType,
		SourceID:     e.SourceID,
		TargetKBID:   e.TargetKBID,
		Relationship: e.Relationship,
	}
}

func fromLineageDoc(d *lineageDoc) model.LineageEdge {
	return model.LineageEdge{
		SourceType:   d.SourceType,
		SourceID:     d.SourceID,
		TargetKBID:   d.TargetKBID,
		Relationship: d.Relationship,
	}
}

type lineageRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newLineageRepository(client *firestore.Client) *lineageRepository {
	return &lineageRepository{client: client}
}

func (r *lineageRepository) collection() *firestore.CollectionRef {
	name := "kb_lineage"
	if r.collectionPrefix != "" {
		name = r.collectionPrefix + "_" + name
	}
	return r.client.Collection(name)
}

// edgeDocID derives a deterministic document ID from the edge, so
// replaying the same edge overwrites instead of duplicating.
func edgeDocID(e model.LineageEdge) string {
	return fmt.Sprintf("%s:%s:%s:%s", e.SourceType, e.SourceID, e.TargetKBID, e.Relationship)
}

func (r *lineageRepository) Append(ctx context.Context, edges []model.LineageEdge) error {
	for _, e := range edges {
		if e.SourceID == "" || e.TargetKBID == "" {
			continue
		}
		docRef := r.collection().Doc(edgeDocID(e))
		if _, err := docRef.Set(ctx, toLineageDoc(e)); err != nil {
			return goerr.Wrap(err, "failed to save lineage edge",
				goerr.V("source_id", e.SourceID),
				goerr.V("target_kb_id", e.TargetKBID))
		}
	}

	return nil
}

func (r *lineageRepository) ListByArticle(ctx context.Context, articleID model.ArticleID) ([]model.LineageEdge, error) {
	iter := r.collection().Where("TargetKBID", "==", string(articleID)).Documents(ctx)
	defer iter.Stop()

	var result []model.LineageEdge
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate lineage edges", goerr.V("article_id", articleID))
		}
		var d lineageDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal lineage edge")
		}
		result = append(result, fromLineageDoc(&d))
	}

	return result, nil
}

func (r *lineageRepository) DeleteByArticle(ctx context.Context, articleID model.ArticleID) error {
	iter := r.collection().Where("TargetKBID", "==", string(articleID)).Documents(ctx)
	defer iter.Stop()

	var refs []*firestore.DocumentRef
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return goerr.Wrap(err, "failed to iterate lineage edges", goerr.V("article_id", articleID))
		}
		refs = append(refs, doc.Ref)
	}

	for _, ref := range refs {
		if _, err := ref.Delete(ctx); err != nil {
			return goerr.Wrap(err, "failed to delete lineage edge", goerr.V("article_id", articleID))
		}
	}

	return nil
}
