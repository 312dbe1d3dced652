package usecase_test

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/m-mizutani/gt"
	"github.com/speare-ai/speare/pkg/domain/interfaces"
	"github.com/speare-ai/speare/pkg/domain/model"
	"github.com/speare-ai/speare/pkg/domain/types"
	"github.com/speare-ai/speare/pkg/repository/memory"
	"github.com/speare-ai/speare/pkg/service/drafter"
	"github.com/speare-ai/speare/pkg/service/retriever"
	"github.com/speare-ai/speare/pkg/service/tickets"
	"github.com/speare-ai/speare/pkg/service/vectorindex"
	"github.com/speare-ai/speare/pkg/usecase"
)

// wordHashEmbedding gives deterministic similarity from shared
// vocabulary, enough to exercise retrieval end to end without a model.
func wordHashEmbedding(ctx context.Context, text string) ([]float32, error) {
	const dim = 64
	vec := make([]float32, dim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		vec[h.Sum32()%dim]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}

// flakyIndex delegates to a real index but can be told to fail writes,
// for exercising the publish rollback path.
type flakyIndex struct {
	interfaces.VectorIndex
	failWrites bool
}

func (f *flakyIndex) Index(ctx context.Context, doc *interfaces.IndexDocument) error {
	if f.failWrites {
		return errors.New("index unavailable")
	}
	return f.VectorIndex.Index(ctx, doc)
}

// flakyEventStore delegates to the real event repository but can be
// told to fail status transitions, for exercising the publish rollback
// path.
type flakyEventStore struct {
	interfaces.EventRepository
	failTransitions bool
}

func (f *flakyEventStore) Transition(ctx context.Context, id model.EventID, from, to types.EventStatus, patch model.ReviewPatch) (*model.LearningEvent, error) {
	if f.failTransitions {
		return nil, errors.New("event store unavailable")
	}
	return f.EventRepository.Transition(ctx, id, from, to, patch)
}

type flakyRepo struct {
	interfaces.Repository
	events *flakyEventStore
}

func (f *flakyRepo) Event() interfaces.EventRepository {
	return f.events
}

func resolvedTicket(number string) *model.Ticket {
	return &model.Ticket{
		Number:      number,
		Subject:     "Tenant ledger export fails with timeout",
		Description: "Exporting the tenant ledger for large portfolios times out after 30 seconds",
		Resolution:  "Run the ledger rebuild script and retry the export with a narrower date range",
		RootCause:   "Unindexed ledger table scan",
		Module:      "Accounting",
		Category:    "Reports",
		Tags:        "ledger,export,timeout",
		Status:      "Closed",
		Priority:    "High",
		Tier:        3,
		ScriptID:    "SCRIPT-042",
	}
}

type testEnv struct {
	repo   *memory.Memory
	source *tickets.Source
	index  *flakyIndex
	events *flakyEventStore
	uc     *usecase.UseCases
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := memory.New()

	source := tickets.NewSource()
	source.AddTicket(resolvedTicket("TK-1001"))
	source.AddConversation(&model.Conversation{
		ID:           "CONV-01",
		TicketNumber: "TK-1001",
		Channel:      "chat",
		AgentName:    "Dana",
		IssueSummary: "Ledger export timing out",
		Transcript:   "Customer: the ledger export keeps failing\nAgent: let me check the backend",
	})
	source.AddScript(&model.Script{
		ID:      "SCRIPT-042",
		Title:   "Rebuild tenant ledger",
		Purpose: "Rebuilds the ledger aggregates for one tenant",
		Inputs:  "tenant_id",
		Module:  "Accounting",
		Text:    "BEGIN; CALL rebuild_ledger(:tenant_id); COMMIT;",
	})

	idx, err := vectorindex.New(vectorindex.WithEmbeddingFunc(wordHashEmbedding))
	gt.NoError(t, err).Required()
	index := &flakyIndex{VectorIndex: idx}

	retr, err := retriever.New(index)
	gt.NoError(t, err).Required()

	events := &flakyEventStore{EventRepository: repo.Event()}
	uc := usecase.New(&flakyRepo{Repository: repo, events: events}, source, index, retr, drafter.New())

	return &testEnv{repo: repo, source: source, index: index, events: events, uc: uc}
}

func TestScanDetectsGapAndApprovePublishes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	scan, err := env.uc.Learning.ScanGaps(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, scan.GapsScanned).Equal(1)
	gt.Value(t, scan.NewGapsFound).Equal(1)
	gt.Array(t, scan.NewEvents).Length(1)

	event := scan.NewEvents[0]
	gt.Value(t, event.Status).Equal(types.EventStatusPending)
	gt.Value(t, event.TicketNumber).Equal("TK-1001")
	gt.Value(t, event.ConversationID).Equal("CONV-01")
	gt.Bool(t, strings.HasPrefix(event.DetectedGap, "No KB match above 35% for:")).True()

	draft, err := env.uc.Learning.GenerateDraft(ctx, usecase.DraftRequest{EventID: event.ID})
	gt.NoError(t, err).Required()
	gt.Value(t, draft.Draft.Title).Equal("Resolution: Tenant ledger export fails with timeout")
	gt.Value(t, draft.Ticket.Number).Equal("TK-1001")

	result, err := env.uc.Learning.Review(ctx, usecase.ReviewRequest{
		EventID:      event.ID,
		Action:       usecase.ReviewActionApprove,
		ReviewerRole: "kb_manager",
	})
	gt.NoError(t, err).Required()
	gt.Value(t, result.Event.Status).Equal(types.EventStatusApproved)
	gt.Value(t, result.ArticleID).Equal(model.ArticleID("KB-SYN-0001"))
	gt.Value(t, result.KBTotalAfter).Equal(1)

	article, err := env.uc.Knowledge.GetArticle(ctx, result.ArticleID)
	gt.NoError(t, err).Required()
	gt.Value(t, article.Article.Status).Equal(types.ArticleStatusPublished)
	gt.Value(t, article.Article.SourceType).Equal(types.ArticleSourceGenerated)

	// Ticket, conversation and script all recorded as provenance
	gt.Array(t, article.Lineage).Length(3)
	for _, edge := range article.Lineage {
		gt.Value(t, edge.TargetKBID).Equal(result.ArticleID)
	}

	// The published article closes the gap it was created for
	gt.Bool(t, result.ConfidenceImprovement != nil).True()
	gt.Bool(t, result.ConfidenceImprovement.After > result.ConfidenceImprovement.Before).True()
}

func TestScanIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.uc.Learning.ScanGaps(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, first.NewGapsFound).Equal(1)

	second, err := env.uc.Learning.ScanGaps(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, second.NewGapsFound).Equal(0)
	gt.Value(t, second.Skipped).Equal(1)
	gt.Value(t, second.TotalEvents).Equal(1)
}

func TestScanSkipsTicketsWithDecidedEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	scan, err := env.uc.Learning.ScanGaps(ctx)
	gt.NoError(t, err).Required()
	event := scan.NewEvents[0]

	_, err = env.uc.Learning.Review(ctx, usecase.ReviewRequest{
		EventID: event.ID,
		Action:  usecase.ReviewActionReject,
	})
	gt.NoError(t, err).Required()

	// A rejected gap stays decided; the scanner never resurrects it
	again, err := env.uc.Learning.ScanGaps(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, again.NewGapsFound).Equal(0)
	gt.Value(t, again.Skipped).Equal(1)
}

func TestScanCancelledReturnsPartialProgress(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scan, err := env.uc.Learning.ScanGaps(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, scan.GapsScanned).Equal(0)
	gt.Value(t, scan.NewGapsFound).Equal(0)
}

func TestRejectLeavesNoArticle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	scan, err := env.uc.Learning.ScanGaps(ctx)
	gt.NoError(t, err).Required()
	event := scan.NewEvents[0]

	result, err := env.uc.Learning.Review(ctx, usecase.ReviewRequest{
		EventID:       event.ID,
		Action:        usecase.ReviewActionReject,
		ReviewerNotes: "duplicate of existing internal runbook",
	})
	gt.NoError(t, err).Required()
	gt.Value(t, result.Event.Status).Equal(types.EventStatusRejected)
	gt.Value(t, result.Event.ReviewNotes).Equal("duplicate of existing internal runbook")
	gt.Bool(t, result.Event.ReviewedAt != nil).True()

	count, err := env.repo.Article().Count(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, count).Equal(0)
}

func TestReviewDecidedEventFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	scan, err := env.uc.Learning.ScanGaps(ctx)
	gt.NoError(t, err).Required()
	event := scan.NewEvents[0]

	_, err = env.uc.Learning.Review(ctx, usecase.ReviewRequest{
		EventID: event.ID,
		Action:  usecase.ReviewActionApprove,
	})
	gt.NoError(t, err).Required()

	_, err = env.uc.Learning.Review(ctx, usecase.ReviewRequest{
		EventID: event.ID,
		Action:  usecase.ReviewActionReject,
	})
	gt.Error(t, err)
	gt.Bool(t, errors.Is(err, types.ErrInvalidState)).True()
}

func TestReviewValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.uc.Learning.Review(ctx, usecase.ReviewRequest{Action: usecase.ReviewActionApprove})
	gt.Error(t, err)
	gt.Bool(t, errors.Is(err, usecase.ErrBadRequest)).True()

	_, err = env.uc.Learning.Review(ctx, usecase.ReviewRequest{EventID: "ev-1", Action: "defer"})
	gt.Error(t, err)
	gt.Bool(t, errors.Is(err, usecase.ErrBadRequest)).True()

	_, err = env.uc.Learning.Review(ctx, usecase.ReviewRequest{EventID: "missing", Action: usecase.ReviewActionApprove})
	gt.Error(t, err)
	gt.Bool(t, errors.Is(err, types.ErrNotFound)).True()
}

func TestFailedIndexWriteRollsBackPublish(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	scan, err := env.uc.Learning.ScanGaps(ctx)
	gt.NoError(t, err).Required()
	event := scan.NewEvents[0]

	env.index.failWrites = true

	_, err = env.uc.Learning.Review(ctx, usecase.ReviewRequest{
		EventID: event.ID,
		Action:  usecase.ReviewActionApprove,
	})
	gt.Error(t, err)
	gt.Bool(t, errors.Is(err, types.ErrPublishConsistency)).True()

	// The event stays Pending, the article and its lineage are gone
	got, err := env.repo.Event().Get(ctx, event.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, got.Status).Equal(types.EventStatusPending)

	count, err := env.repo.Article().Count(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, count).Equal(0)

	edges, err := env.repo.Lineage().ListByArticle(ctx, "KB-SYN-0001")
	gt.NoError(t, err).Required()
	gt.Array(t, edges).Length(0)

	// Retry once the index recovers
	env.index.failWrites = false
	result, err := env.uc.Learning.Review(ctx, usecase.ReviewRequest{
		EventID: event.ID,
		Action:  usecase.ReviewActionApprove,
	})
	gt.NoError(t, err).Required()
	gt.Value(t, result.Event.Status).Equal(types.EventStatusApproved)
}

func TestFailedReviewDecisionRollsBackPublish(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	scan, err := env.uc.Learning.ScanGaps(ctx)
	gt.NoError(t, err).Required()
	event := scan.NewEvents[0]

	env.events.failTransitions = true

	_, err = env.uc.Learning.Review(ctx, usecase.ReviewRequest{
		EventID: event.ID,
		Action:  usecase.ReviewActionApprove,
	})
	gt.Error(t, err)
	gt.Bool(t, errors.Is(err, types.ErrPublishConsistency)).True()

	// The event stays Pending and the article is withdrawn, same as a
	// failed index write
	got, err := env.repo.Event().Get(ctx, event.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, got.Status).Equal(types.EventStatusPending)

	count, err := env.repo.Article().Count(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, count).Equal(0)

	edges, err := env.repo.Lineage().ListByArticle(ctx, "KB-SYN-0001")
	gt.NoError(t, err).Required()
	gt.Array(t, edges).Length(0)

	// Retry once the store recovers, ending with exactly one article
	env.events.failTransitions = false
	result, err := env.uc.Learning.Review(ctx, usecase.ReviewRequest{
		EventID: event.ID,
		Action:  usecase.ReviewActionApprove,
	})
	gt.NoError(t, err).Required()
	gt.Value(t, result.Event.Status).Equal(types.EventStatusApproved)

	count, err = env.repo.Article().Count(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, count).Equal(1)
}

func TestMultibyteGapTextStaysValidUTF8(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ticket := resolvedTicket("TK-3001")
	ticket.Subject = strings.Repeat("排水管の水漏れ確認", 20)
	env.source.AddTicket(ticket)

	scan, err := env.uc.Learning.ScanGaps(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, scan.NewGapsFound).Equal(2)
	for _, ev := range scan.NewEvents {
		gt.Bool(t, utf8.ValidString(ev.DetectedGap)).True()
	}

	question := strings.Repeat("家賃の二重請求を取り消す方法", 30)
	event, err := env.uc.Copilot.ReportGap(ctx, question, 0.1)
	gt.NoError(t, err).Required()
	gt.Bool(t, utf8.ValidString(event.DetectedGap)).True()

	result, err := env.uc.Learning.Review(ctx, usecase.ReviewRequest{
		EventID:       event.ID,
		Action:        usecase.ReviewActionApprove,
		ReviewerNotes: "請求画面から二重請求を取り消し、台帳を再同期する。",
	})
	gt.NoError(t, err).Required()

	detail, err := env.uc.Knowledge.GetArticle(ctx, result.ArticleID)
	gt.NoError(t, err).Required()
	gt.Bool(t, utf8.ValidString(detail.Article.Title)).True()
	title := strings.TrimPrefix(detail.Article.Title, "Resolution: ")
	gt.Value(t, len([]rune(title))).Equal(100)
}

func TestReportGapAndApprove(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	question := "How do I regenerate expired API tokens for an integration partner?"
	event, err := env.uc.Copilot.ReportGap(ctx, question, 0.2)
	gt.NoError(t, err).Required()
	gt.Value(t, event.Status).Equal(types.EventStatusPending)
	gt.Value(t, event.Trigger).Equal(types.TriggerCopilot)
	gt.Value(t, event.TicketNumber).Equal("")
	gt.Value(t, event.SourceQuestion).Equal(question)
	gt.Bool(t, strings.HasPrefix(event.DetectedGap, "Copilot low confidence (20%) on:")).True()

	result, err := env.uc.Learning.Review(ctx, usecase.ReviewRequest{
		EventID:       event.ID,
		Action:        usecase.ReviewActionApprove,
		ReviewerNotes: "Use the partner console to rotate tokens, then re-sync the integration.",
	})
	gt.NoError(t, err).Required()
	gt.Value(t, result.Event.Status).Equal(types.EventStatusApproved)

	detail, err := env.uc.Knowledge.GetArticle(ctx, result.ArticleID)
	gt.NoError(t, err).Required()
	gt.Bool(t, strings.HasPrefix(detail.Article.Title, "Resolution: How do I regenerate")).True()
	gt.Bool(t, strings.Contains(detail.Article.Body, "## Question")).True()
	gt.Bool(t, strings.Contains(detail.Article.Body, "## Resolution")).True()

	gt.Array(t, detail.Lineage).Length(1)
	gt.Value(t, detail.Lineage[0].SourceType).Equal(types.LineageSourceCopilot)
	gt.Value(t, detail.Lineage[0].SourceID).Equal(string(event.ID))
	gt.Value(t, detail.Lineage[0].Relationship).Equal(types.RelationshipReportedFrom)
}

func TestEditedContentWinsOverDraft(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	scan, err := env.uc.Learning.ScanGaps(ctx)
	gt.NoError(t, err).Required()
	event := scan.NewEvents[0]

	result, err := env.uc.Learning.Review(ctx, usecase.ReviewRequest{
		EventID:     event.ID,
		Action:      usecase.ReviewActionApprove,
		EditedTitle: "Ledger export timeout on large portfolios",
		EditedBody:  "## Problem\nLedger export times out.\n\n## Resolution\nRebuild the ledger and narrow the date range.",
		EditedTags:  "ledger,timeout",
	})
	gt.NoError(t, err).Required()

	detail, err := env.uc.Knowledge.GetArticle(ctx, result.ArticleID)
	gt.NoError(t, err).Required()
	gt.Value(t, detail.Article.Title).Equal("Ledger export timeout on large portfolios")
	gt.Value(t, detail.Article.Tags).Equal("ledger,timeout")
}

func TestAskReturnsFallbackAnswer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.uc.Knowledge.BootstrapIndex(ctx, nil)
	gt.NoError(t, err).Required()

	answer, err := env.uc.Copilot.Ask(ctx, usecase.AskRequest{
		Question: "tenant ledger export timeout",
	})
	gt.NoError(t, err).Required()
	gt.Bool(t, answer.AnswerType != types.AnswerTypeNoMatch).True()
	gt.Bool(t, strings.Contains(answer.Answer, "Best match")).True()
	gt.Bool(t, len(answer.Sources) > 0).True()

	_, err = env.uc.Copilot.Ask(ctx, usecase.AskRequest{Question: "   "})
	gt.Error(t, err)
	gt.Bool(t, errors.Is(err, usecase.ErrBadRequest)).True()
}

func TestAskCollectionToggles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.uc.Knowledge.BootstrapIndex(ctx, nil)
	gt.NoError(t, err).Required()

	off := false
	answer, err := env.uc.Copilot.Ask(ctx, usecase.AskRequest{
		Question:       "rebuild tenant ledger aggregates",
		IncludeScripts: &off,
		IncludeTickets: &off,
	})
	gt.NoError(t, err).Required()

	// Only the empty KB collection was searched
	gt.Value(t, answer.AnswerType).Equal(types.AnswerTypeNoMatch)
	gt.Array(t, answer.Sources).Length(0)
}

func TestBootstrapIndexSeedsEverything(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	seeds := []*model.KBArticle{{
		ID:         "KB-0001",
		Title:      "Resetting resident portal passwords",
		Body:       "Use the admin console to send a reset link",
		SourceType: types.ArticleSourceSeed,
		Status:     types.ArticleStatusPublished,
	}}

	result, err := env.uc.Knowledge.BootstrapIndex(ctx, seeds)
	gt.NoError(t, err).Required()
	gt.Value(t, result.Articles).Equal(1)
	gt.Value(t, result.Scripts).Equal(1)
	gt.Value(t, result.Tickets).Equal(1)

	stats, err := env.uc.Knowledge.Stats(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, stats.Tickets).Equal(1)
	gt.Value(t, stats.ResolvedTier3).Equal(1)
	gt.Value(t, stats.AvgTier).Equal(3.0)
	gt.Value(t, stats.Conversations).Equal(1)
	gt.Value(t, stats.Scripts).Equal(1)
	gt.Value(t, stats.Articles).Equal(1)
	gt.Value(t, stats.IndexedByType[types.DocTypeKBArticle]).Equal(1)
	gt.Value(t, stats.IndexedByType[types.DocTypeScript]).Equal(1)
	gt.Value(t, stats.IndexedByType[types.DocTypeTicket]).Equal(1)

	// Re-running seeds is an upsert, not a duplication
	_, err = env.uc.Knowledge.BootstrapIndex(ctx, seeds)
	gt.NoError(t, err).Required()

	stats, err = env.uc.Knowledge.Stats(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, stats.Articles).Equal(1)
	gt.Value(t, stats.IndexedByType[types.DocTypeKBArticle]).Equal(1)
}

func TestGetTicketComposesLinkedRecords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	detail, err := env.uc.Knowledge.GetTicket(ctx, "TK-1001")
	gt.NoError(t, err).Required()
	gt.Value(t, detail.Ticket.Number).Equal("TK-1001")
	gt.Value(t, detail.Conversation.ID).Equal("CONV-01")
	gt.Value(t, detail.Script.ID).Equal("SCRIPT-042")

	_, err = env.uc.Knowledge.GetTicket(ctx, "TK-9999")
	gt.Error(t, err)
	gt.Bool(t, errors.Is(err, usecase.ErrTicketNotFound)).True()
}

func TestGenerateDraftValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.uc.Learning.GenerateDraft(ctx, usecase.DraftRequest{})
	gt.Error(t, err)
	gt.Bool(t, errors.Is(err, usecase.ErrBadRequest)).True()

	_, err = env.uc.Learning.GenerateDraft(ctx, usecase.DraftRequest{TicketNumber: "TK-9999"})
	gt.Error(t, err)
	gt.Bool(t, errors.Is(err, usecase.ErrTicketNotFound)).True()
}

func TestListEventsWithStatusBreakdown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	scan, err := env.uc.Learning.ScanGaps(ctx)
	gt.NoError(t, err).Required()
	_, err = env.uc.Copilot.ReportGap(ctx, "how to merge duplicate vendor records", 0.1)
	gt.NoError(t, err).Required()

	_, err = env.uc.Learning.Review(ctx, usecase.ReviewRequest{
		EventID: scan.NewEvents[0].ID,
		Action:  usecase.ReviewActionReject,
	})
	gt.NoError(t, err).Required()

	listing, err := env.uc.Learning.ListEvents(ctx, model.EventListOptions{})
	gt.NoError(t, err).Required()
	gt.Value(t, listing.Total).Equal(2)
	gt.Value(t, listing.StatusCounts[types.EventStatusPending]).Equal(1)
	gt.Value(t, listing.StatusCounts[types.EventStatusRejected]).Equal(1)

	pending, err := env.uc.Learning.ListEvents(ctx, model.EventListOptions{Status: types.EventStatusPending})
	gt.NoError(t, err).Required()
	gt.Value(t, pending.Total).Equal(1)
	gt.Array(t, pending.Events).Length(1)
}
