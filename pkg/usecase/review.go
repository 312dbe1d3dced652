package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/speare-ai/speare/pkg/domain/model"
	"github.com/speare-ai/speare/pkg/domain/types"
	"github.com/speare-ai/speare/pkg/utils/logging"
)

const (
	ReviewActionApprove = "approve"
	ReviewActionReject  = "reject"
)

// ReviewRequest is a human decision on a Pending learning event.
// EditedTitle and EditedBody, when set, supersede the drafted content.
type ReviewRequest struct {
	EventID       model.EventID
	Action        string
	ReviewerRole  string
	ReviewerNotes string
	EditedTitle   string
	EditedBody    string
	EditedTags    string
}

// ReviewResult reports the decided event and, on approval, the published
// article with its confidence improvement.
type ReviewResult struct {
	Event                 *model.LearningEvent
	ArticleID             model.ArticleID
	ConfidenceImprovement *model.ConfidenceImprovement
	KBTotalAfter          int
}

// Review applies an approve or reject decision. Only Pending events can
// be decided; losing a concurrent decision race surfaces as
// ErrStaleState and changes nothing.
func (l *LearningUseCase) Review(ctx context.Context, req ReviewRequest) (*ReviewResult, error) {
	if req.EventID == "" {
		return nil, goerr.Wrap(ErrBadRequest, "event_id is required")
	}
	if req.Action != ReviewActionApprove && req.Action != ReviewActionReject {
		return nil, goerr.Wrap(ErrBadRequest, "action must be approve or reject", goerr.V("action", req.Action))
	}

	event, err := l.uc.repo.Event().Get(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	if event.Status != types.EventStatusPending {
		return nil, goerr.Wrap(types.ErrInvalidState, "event already decided",
			goerr.V("event_id", event.ID),
			goerr.V("status", event.Status))
	}

	reviewerRole := req.ReviewerRole
	if reviewerRole == "" {
		reviewerRole = "kb_manager"
	}
	patch := model.ReviewPatch{
		ReviewerRole: reviewerRole,
		ReviewNotes:  req.ReviewerNotes,
		ReviewedAt:   time.Now().UTC(),
	}

	if req.Action == ReviewActionReject {
		decided, err := l.uc.repo.Event().Transition(ctx, event.ID, types.EventStatusPending, types.EventStatusRejected, patch)
		if err != nil {
			return nil, err
		}
		logging.From(ctx).Info("event rejected", "event_id", decided.ID)
		return &ReviewResult{Event: decided}, nil
	}

	return l.publish(ctx, event, req, patch)
}

// buildPublishContent assembles the article text for an approval. Edited
// reviewer content wins; otherwise the body falls back to the ticket's
// problem/resolution, or to the gap description for ticketless events.
func (l *LearningUseCase) buildPublishContent(ctx context.Context, event *model.LearningEvent, req ReviewRequest) (*model.PublishContent, error) {
	content := &model.PublishContent{
		Title: req.EditedTitle,
		Body:  req.EditedBody,
		Tags:  req.EditedTags,
	}

	var sources *ticketSources
	if event.TicketNumber != "" {
		var err error
		sources, err = l.gatherTicketSources(ctx, event.TicketNumber)
		if err != nil {
			return nil, err
		}
		ticket := sources.ticket
		content.Module = ticket.Module
		content.Category = ticket.Category
		if content.Title == "" {
			content.Title = "Resolution: " + ticket.Subject
		}
		if content.Body == "" {
			content.Body = "## Problem\n" + ticket.Description + "\n\n## Resolution\n" + ticket.Resolution
		}
		if content.Tags == "" {
			content.Tags = ticket.Tags
		}

		content.Lineage = append(content.Lineage, model.LineageEdge{
			SourceType:   types.LineageSourceTicket,
			SourceID:     ticket.Number,
			Relationship: types.RelationshipCreatedFrom,
		})
		if sources.conversation != nil {
			content.Lineage = append(content.Lineage, model.LineageEdge{
				SourceType:   types.LineageSourceConversation,
				SourceID:     sources.conversation.ID,
				Relationship: types.RelationshipCreatedFrom,
			})
		}
		if sources.script != nil {
			content.Lineage = append(content.Lineage, model.LineageEdge{
				SourceType:   types.LineageSourceScript,
				SourceID:     sources.script.ID,
				Relationship: types.RelationshipReferences,
			})
		}
	} else {
		if content.Title == "" {
			content.Title = "Resolution: " + model.Truncate(event.GapQuery(), 100)
		}
		if content.Body == "" {
			body := "## Question\n" + event.GapQuery()
			if req.ReviewerNotes != "" {
				body += "\n\n## Resolution\n" + req.ReviewerNotes
			}
			content.Body = body
		}

		content.Lineage = append(content.Lineage, model.LineageEdge{
			SourceType:   types.LineageSourceCopilot,
			SourceID:     string(event.ID),
			Relationship: types.RelationshipReportedFrom,
		})
	}

	if strings.TrimSpace(content.Title) == "" || strings.TrimSpace(content.Body) == "" {
		return nil, goerr.Wrap(ErrBadRequest, "article title and body must not be empty")
	}

	return content, nil
}
