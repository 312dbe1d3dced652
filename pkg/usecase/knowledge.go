package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/speare-ai/speare/pkg/domain/model"
)

// ArticleListing is a page of KB articles
type ArticleListing struct {
	Articles []*model.KBArticle
	Total    int
}

// ListArticles returns a filtered page of KB articles
func (k *KnowledgeUseCase) ListArticles(ctx context.Context, opts model.ArticleListOptions) (*ArticleListing, error) {
	articles, total, err := k.uc.repo.Article().List(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &ArticleListing{Articles: articles, Total: total}, nil
}

// ArticleDetail is an article with its provenance
type ArticleDetail struct {
	Article *model.KBArticle
	Lineage []model.LineageEdge
}

// GetArticle returns one article with its lineage edges
func (k *KnowledgeUseCase) GetArticle(ctx context.Context, id model.ArticleID) (*ArticleDetail, error) {
	article, err := k.uc.repo.Article().Get(ctx, id)
	if err != nil {
		return nil, err
	}

	lineage, err := k.uc.repo.Lineage().ListByArticle(ctx, id)
	if err != nil {
		return nil, err
	}

	return &ArticleDetail{Article: article, Lineage: lineage}, nil
}

// TicketListing is a page of corpus tickets
type TicketListing struct {
	Tickets []*model.Ticket
	Total   int
}

// ListTickets returns a filtered page of corpus tickets
func (k *KnowledgeUseCase) ListTickets(ctx context.Context, opts model.TicketListOptions) (*TicketListing, error) {
	tickets, total, err := k.uc.source.ListTickets(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &TicketListing{Tickets: tickets, Total: total}, nil
}

// ConversationListing is a page of corpus conversations
type ConversationListing struct {
	Conversations []*model.Conversation
	Total         int
}

// ListConversations returns a filtered page of corpus conversations
func (k *KnowledgeUseCase) ListConversations(ctx context.Context, opts model.ConversationListOptions) (*ConversationListing, error) {
	conversations, total, err := k.uc.source.ListConversations(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &ConversationListing{Conversations: conversations, Total: total}, nil
}

// TicketDetail is a ticket with its linked records
type TicketDetail struct {
	Ticket       *model.Ticket
	Conversation *model.Conversation
	Script       *model.Script
	Article      *model.KBArticle
}

// GetTicket returns a ticket with its conversation, script and any
// linked KB article.
func (k *KnowledgeUseCase) GetTicket(ctx context.Context, number string) (*TicketDetail, error) {
	ticket, err := k.uc.source.GetTicket(ctx, number)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, goerr.Wrap(ErrTicketNotFound, "ticket not in corpus", goerr.V("ticket_number", number))
	}

	detail := &TicketDetail{Ticket: ticket}

	detail.Conversation, err = k.uc.source.GetConversation(ctx, number)
	if err != nil {
		return nil, err
	}
	if ticket.ScriptID != "" {
		detail.Script, err = k.uc.source.GetScript(ctx, ticket.ScriptID)
		if err != nil {
			return nil, err
		}
	}
	if ticket.KBArticleID != "" {
		article, err := k.uc.repo.Article().Get(ctx, model.ArticleID(ticket.KBArticleID))
		if err == nil {
			detail.Article = article
		}
	}

	return detail, nil
}
