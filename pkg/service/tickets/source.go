package tickets

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/speare-ai/speare/pkg/domain/interfaces"
	"github.com/speare-ai/speare/pkg/domain/model"
)

// Source is an in-memory read-only view of the support corpus: tickets,
// their conversations and the Tier-3 scripts. It backs the gap scanner
// and the draft generator; nothing in the learning loop writes to it.
type Source struct {
	mu            sync.RWMutex
	tickets       map[string]*model.Ticket
	conversations map[string]*model.Conversation
	scripts       map[string]*model.Script
}

var _ interfaces.TicketSource = &Source{}

func NewSource() *Source {
	return &Source{
		tickets:       make(map[string]*model.Ticket),
		conversations: make(map[string]*model.Conversation),
		scripts:       make(map[string]*model.Script),
	}
}

// AddTicket registers a ticket in the corpus
func (s *Source) AddTicket(t *model.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[t.Number] = t
}

// AddConversation registers a conversation, keyed by its ticket number
func (s *Source) AddConversation(c *model.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[c.TicketNumber] = c
}

// AddScript registers a backend script
func (s *Source) AddScript(sc *model.Script) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[sc.ID] = sc
}

func (s *Source) GetTicket(ctx context.Context, number string) (*model.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tickets[number], nil
}

func (s *Source) GetConversation(ctx context.Context, ticketNumber string) (*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conversations[ticketNumber], nil
}

func (s *Source) GetScript(ctx context.Context, id string) (*model.Script, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scripts[id], nil
}

func (s *Source) ListResolvedTier3(ctx context.Context) ([]*model.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*model.Ticket
	for _, t := range s.tickets {
		if t.IsResolvedTier3() {
			result = append(result, t)
		}
	}
	sortTickets(result)

	return result, nil
}

func (s *Source) ListTickets(ctx context.Context, opts model.TicketListOptions) ([]*model.Ticket, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	opts = opts.Normalize()
	search := strings.ToLower(opts.Search)

	var matched []*model.Ticket
	for _, t := range s.tickets {
		if opts.Status != "" && t.Status != opts.Status {
			continue
		}
		if search != "" && !ticketMatches(t, search) {
			continue
		}
		matched = append(matched, t)
	}
	sortTickets(matched)

	total := len(matched)
	start := (opts.Page - 1) * opts.PageSize
	if start >= total {
		return []*model.Ticket{}, total, nil
	}
	end := start + opts.PageSize
	if end > total {
		end = total
	}

	return matched[start:end], total, nil
}

func ticketMatches(t *model.Ticket, search string) bool {
	return strings.Contains(strings.ToLower(t.Number), search) ||
		strings.Contains(strings.ToLower(t.Subject), search) ||
		strings.Contains(strings.ToLower(t.Module), search) ||
		strings.Contains(strings.ToLower(t.Category), search)
}

func (s *Source) ListScripts(ctx context.Context) ([]*model.Script, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*model.Script, 0, len(s.scripts))
	for _, sc := range s.scripts {
		result = append(result, sc)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

func (s *Source) ListAllTickets(ctx context.Context) ([]*model.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*model.Ticket, 0, len(s.tickets))
	for _, t := range s.tickets {
		result = append(result, t)
	}
	sortTickets(result)

	return result, nil
}

func (s *Source) ListConversations(ctx context.Context, opts model.ConversationListOptions) ([]*model.Conversation, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	opts = opts.Normalize()

	var matched []*model.Conversation
	for _, c := range s.conversations {
		if opts.TicketNumber != "" && c.TicketNumber != opts.TicketNumber {
			continue
		}
		matched = append(matched, c)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	start := (opts.Page - 1) * opts.PageSize
	if start >= total {
		return []*model.Conversation{}, total, nil
	}
	end := start + opts.PageSize
	if end > total {
		end = total
	}

	return matched[start:end], total, nil
}

func (s *Source) CountConversations(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations), nil
}

func sortTickets(tickets []*model.Ticket) {
	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].Number < tickets[j].Number
	})
}
