package repository_test

import (
	"context"
	"testing"

	"github.com/speare-ai/speare/pkg/domain/interfaces"
	"github.com/speare-ai/speare/pkg/domain/model"
	"github.com/speare-ai/speare/pkg/domain/types"
)

func runLineageRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Append and ListByArticle", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		articleID := uniqueArticleID()
		edges := []model.LineageEdge{
			{
				SourceType:   types.LineageSourceTicket,
				SourceID:     uniqueTicketNumber(),
				TargetKBID:   articleID,
				Relationship: types.RelationshipCreatedFrom,
			},
			{
				SourceType:   types.LineageSourceConversation,
				SourceID:     "conv-001",
				TargetKBID:   articleID,
				Relationship: types.RelationshipReferences,
			},
		}

		if err := repo.Lineage().Append(ctx, edges); err != nil {
			t.Fatalf("failed to append edges: %v", err)
		}

		listed, err := repo.Lineage().ListByArticle(ctx, articleID)
		if err != nil {
			t.Fatalf("failed to list edges: %v", err)
		}
		if len(listed) != 2 {
			t.Errorf("expected 2 edges, got %d", len(listed))
		}

		other, err := repo.Lineage().ListByArticle(ctx, uniqueArticleID())
		if err != nil {
			t.Fatalf("failed to list edges: %v", err)
		}
		if len(other) != 0 {
			t.Errorf("expected 0 edges for other article, got %d", len(other))
		}
	})

	t.Run("Append deduplicates identical edges", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		articleID := uniqueArticleID()
		edge := model.LineageEdge{
			SourceType:   types.LineageSourceTicket,
			SourceID:     uniqueTicketNumber(),
			TargetKBID:   articleID,
			Relationship: types.RelationshipCreatedFrom,
		}

		if err := repo.Lineage().Append(ctx, []model.LineageEdge{edge}); err != nil {
			t.Fatalf("failed to append edge: %v", err)
		}
		if err := repo.Lineage().Append(ctx, []model.LineageEdge{edge}); err != nil {
			t.Fatalf("failed to append edge again: %v", err)
		}

		listed, err := repo.Lineage().ListByArticle(ctx, articleID)
		if err != nil {
			t.Fatalf("failed to list edges: %v", err)
		}
		if len(listed) != 1 {
			t.Errorf("expected 1 edge after duplicate append, got %d", len(listed))
		}
	})

	t.Run("Append skips edges with missing identifiers", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		articleID := uniqueArticleID()
		edges := []model.LineageEdge{
			{
				SourceType:   types.LineageSourceTicket,
				SourceID:     "",
				TargetKBID:   articleID,
				Relationship: types.RelationshipCreatedFrom,
			},
			{
				SourceType:   types.LineageSourceScript,
				SourceID:     "SCRIPT-01",
				TargetKBID:   "",
				Relationship: types.RelationshipReferences,
			},
		}

		if err := repo.Lineage().Append(ctx, edges); err != nil {
			t.Fatalf("failed to append edges: %v", err)
		}

		listed, err := repo.Lineage().ListByArticle(ctx, articleID)
		if err != nil {
			t.Fatalf("failed to list edges: %v", err)
		}
		if len(listed) != 0 {
			t.Errorf("expected 0 edges, got %d", len(listed))
		}
	})

	t.Run("DeleteByArticle removes only matching edges", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		target := uniqueArticleID()
		other := uniqueArticleID()
		if err := repo.Lineage().Append(ctx, []model.LineageEdge{
			{
				SourceType:   types.LineageSourceTicket,
				SourceID:     uniqueTicketNumber(),
				TargetKBID:   target,
				Relationship: types.RelationshipCreatedFrom,
			},
			{
				SourceType:   types.LineageSourceTicket,
				SourceID:     uniqueTicketNumber(),
				TargetKBID:   other,
				Relationship: types.RelationshipCreatedFrom,
			},
		}); err != nil {
			t.Fatalf("failed to append edges: %v", err)
		}

		if err := repo.Lineage().DeleteByArticle(ctx, target); err != nil {
			t.Fatalf("failed to delete edges: %v", err)
		}

		listed, err := repo.Lineage().ListByArticle(ctx, target)
		if err != nil {
			t.Fatalf("failed to list edges: %v", err)
		}
		if len(listed) != 0 {
			t.Errorf("expected 0 edges after delete, got %d", len(listed))
		}

		remaining, err := repo.Lineage().ListByArticle(ctx, other)
		if err != nil {
			t.Fatalf("failed to list edges: %v", err)
		}
		if len(remaining) != 1 {
			t.Errorf("expected 1 edge for other article, got %d", len(remaining))
		}
	})
}

func TestMemoryLineageRepository(t *testing.T) {
	runLineageRepositoryTest(t, newMemoryRepository)
}

func TestFirestoreLineageRepository(t *testing.T) {
	runLineageRepositoryTest(t, newFirestoreRepository)
}
