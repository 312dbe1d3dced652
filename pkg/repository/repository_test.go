package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/speare-ai/speare/pkg/domain/interfaces"
	"github.com/speare-ai/speare/pkg/repository/firestore"
	"github.com/speare-ai/speare/pkg/repository/memory"
)

func newMemoryRepository(t *testing.T) interfaces.Repository {
	t.Helper()
	return memory.New()
}

func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}

	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if databaseID == "" {
		t.Skip("TEST_FIRESTORE_DATABASE_ID not set")
	}

	ctx := context.Background()
	// Test data isolation is achieved through unique ticket numbers and
	// IDs rather than collection prefixes, to reuse existing indexes.
	repo, err := firestore.New(ctx, projectID, databaseID)
	if err != nil {
		t.Fatalf("failed to create firestore repository: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("failed to close firestore repository: %v", err)
		}
	})
	return repo
}

func uniqueTicketNumber() string {
	return fmt.Sprintf("TK-%d", time.Now().UnixNano())
}
