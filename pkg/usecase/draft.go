package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/speare-ai/speare/pkg/domain/model"
	"github.com/speare-ai/speare/pkg/service/drafter"
)

// DraftRequest identifies what to draft from: a ticket directly, or an
// existing learning event (which may be ticketless).
type DraftRequest struct {
	TicketNumber string
	EventID      model.EventID
	Question     string
}

// DraftResult bundles the draft with the source records it drew on
type DraftResult struct {
	Draft        *model.KBDraft
	Event        *model.LearningEvent
	Ticket       *model.Ticket
	Conversation *model.Conversation
	Script       *model.Script
}

// GenerateDraft produces an article draft for review. The draft is
// ephemeral; nothing is persisted here.
func (l *LearningUseCase) GenerateDraft(ctx context.Context, req DraftRequest) (*DraftResult, error) {
	if req.TicketNumber == "" && req.EventID == "" {
		return nil, goerr.Wrap(ErrBadRequest, "ticket_number or event_id is required")
	}

	result := &DraftResult{}
	input := drafter.Input{Question: req.Question}

	ticketNumber := req.TicketNumber
	if req.EventID != "" {
		event, err := l.uc.repo.Event().Get(ctx, req.EventID)
		if err != nil {
			return nil, err
		}
		result.Event = event
		input.Event = event
		if input.Question == "" {
			input.Question = event.GapQuery()
		}
		ticketNumber = event.TicketNumber
	}

	if ticketNumber != "" {
		sources, err := l.gatherTicketSources(ctx, ticketNumber)
		if err != nil {
			return nil, err
		}
		result.Ticket = sources.ticket
		result.Conversation = sources.conversation
		result.Script = sources.script
		input.Ticket = sources.ticket
		input.Conversation = sources.conversation
		input.Script = sources.script
	}

	draft, err := l.uc.drafter.Generate(ctx, input)
	if err != nil {
		return nil, err
	}
	result.Draft = draft

	return result, nil
}

type ticketSources struct {
	ticket       *model.Ticket
	conversation *model.Conversation
	script       *model.Script
}

func (l *LearningUseCase) gatherTicketSources(ctx context.Context, ticketNumber string) (*ticketSources, error) {
	ticket, err := l.uc.source.GetTicket(ctx, ticketNumber)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, goerr.Wrap(ErrTicketNotFound, "ticket not in corpus", goerr.V("ticket_number", ticketNumber))
	}

	sources := &ticketSources{ticket: ticket}

	// Conversation and script are optional context
	sources.conversation, err = l.uc.source.GetConversation(ctx, ticketNumber)
	if err != nil {
		return nil, err
	}
	if ticket.ScriptID != "" {
		sources.script, err = l.uc.source.GetScript(ctx, ticket.ScriptID)
		if err != nil {
			return nil, err
		}
	}

	return sources, nil
}
