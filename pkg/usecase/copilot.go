package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/speare-ai/speare/pkg/domain/model"
	"github.com/speare-ai/speare/pkg/domain/types"
	"github.com/speare-ai/speare/pkg/utils/logging"
)

// AskRequest is a copilot question with optional collection toggles.
// Nil toggles default to true.
type AskRequest struct {
	Question       string
	IncludeKB      *bool
	IncludeScripts *bool
	IncludeTickets *bool
}

func (r AskRequest) includeKB() bool {
	return r.IncludeKB == nil || *r.IncludeKB
}

func (r AskRequest) includeScripts() bool {
	return r.IncludeScripts == nil || *r.IncludeScripts
}

func (r AskRequest) includeTickets() bool {
	return r.IncludeTickets == nil || *r.IncludeTickets
}

// Ask answers a support question with RAG over the indexed corpus
func (c *CopilotUseCase) Ask(ctx context.Context, req AskRequest) (*model.CopilotAnswer, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, goerr.Wrap(ErrBadRequest, "question is required")
	}

	answer, err := c.uc.retriever.Answer(ctx, req.Question, req.includeKB(), req.includeScripts(), req.includeTickets())
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Info("copilot answered",
		"answer_type", answer.AnswerType,
		"confidence", answer.Confidence,
		"sources", len(answer.Sources))

	return answer, nil
}

// CheckConfidence scores how well the corpus covers a question without
// generating an answer.
func (c *CopilotUseCase) CheckConfidence(ctx context.Context, question string) (*model.ConfidenceResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, goerr.Wrap(ErrBadRequest, "question is required")
	}

	return c.uc.retriever.CheckConfidence(ctx, question)
}

// ReportGap records a low-confidence copilot interaction as a Pending
// learning event so a reviewer can close the gap.
func (c *CopilotUseCase) ReportGap(ctx context.Context, question string, confidence float64) (*model.LearningEvent, error) {
	if strings.TrimSpace(question) == "" {
		return nil, goerr.Wrap(ErrBadRequest, "question is required")
	}

	gap := model.Truncate(question, 200)

	event, err := c.uc.repo.Event().Create(ctx, &model.LearningEvent{
		DetectedGap:        fmt.Sprintf("Copilot low confidence (%.0f%%) on: %s", confidence*100, gap),
		Status:             types.EventStatusPending,
		Trigger:            types.TriggerCopilot,
		SourceQuestion:     question,
		ReportedConfidence: confidence,
	})
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Info("gap reported", "event_id", event.ID, "confidence", confidence)

	return event, nil
}
