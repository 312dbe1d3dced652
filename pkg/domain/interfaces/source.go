package interfaces

import (
	"context"

	"github.com/speare-ai/speare/pkg/domain/model"
)

// TicketSource is the read-only external store of tickets,
// conversations and scripts. Lookups for absent records return nil
// without error; absence of a linked conversation or script is normal.
type TicketSource interface {
	// GetTicket retrieves a ticket by number, nil when absent
	GetTicket(ctx context.Context, number string) (*model.Ticket, error)

	// GetConversation retrieves the conversation linked to a ticket,
	// nil when the ticket has none
	GetConversation(ctx context.Context, ticketNumber string) (*model.Conversation, error)

	// GetScript retrieves a script by ID, nil when absent
	GetScript(ctx context.Context, id string) (*model.Script, error)

	// ListResolvedTier3 returns all closed Tier-3+ tickets that carry a
	// resolution, the population the gap scanner iterates
	ListResolvedTier3(ctx context.Context) ([]*model.Ticket, error)

	// ListTickets retrieves tickets with optional filters and pagination
	ListTickets(ctx context.Context, opts model.TicketListOptions) ([]*model.Ticket, int, error)

	// ListScripts returns every script in the corpus, for index seeding
	ListScripts(ctx context.Context) ([]*model.Script, error)

	// ListAllTickets returns every ticket in the corpus, for index seeding
	ListAllTickets(ctx context.Context) ([]*model.Ticket, error)

	// ListConversations retrieves conversations with optional filters and
	// pagination
	ListConversations(ctx context.Context, opts model.ConversationListOptions) ([]*model.Conversation, int, error)

	// CountConversations returns the number of conversations in the corpus
	CountConversations(ctx context.Context) (int, error)
}
