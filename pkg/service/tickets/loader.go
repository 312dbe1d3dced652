package tickets

import (
	"context"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/speare-ai/speare/pkg/domain/model"
	"github.com/speare-ai/speare/pkg/domain/types"
	"github.com/speare-ai/speare/pkg/utils/safe"
)

// Corpus is the TOML-serialized support corpus: the tickets,
// conversations and scripts the loop learns from, plus the seed KB
// articles indexed at bootstrap.
type Corpus struct {
	Tickets       []ticketRecord       `toml:"tickets"`
	Conversations []conversationRecord `toml:"conversations"`
	Scripts       []scriptRecord       `toml:"scripts"`
	Articles      []articleRecord      `toml:"articles"`
}

type ticketRecord struct {
	Number      string `toml:"number"`
	Subject     string `toml:"subject"`
	Description string `toml:"description"`
	Resolution  string `toml:"resolution"`
	RootCause   string `toml:"root_cause"`
	Module      string `toml:"module"`
	Category    string `toml:"category"`
	Product     string `toml:"product"`
	Tags        string `toml:"tags"`
	Status      string `toml:"status"`
	Priority    string `toml:"priority"`
	Tier        int    `toml:"tier"`
	ScriptID    string `toml:"script_id"`
	KBArticleID string `toml:"kb_article_id"`
	CreatedAt   string `toml:"created_at"`
}

type conversationRecord struct {
	ID           string `toml:"id"`
	TicketNumber string `toml:"ticket_number"`
	Channel      string `toml:"channel"`
	AgentName    string `toml:"agent_name"`
	IssueSummary string `toml:"issue_summary"`
	Sentiment    string `toml:"sentiment"`
	Transcript   string `toml:"transcript"`
}

type scriptRecord struct {
	ID       string `toml:"id"`
	Title    string `toml:"title"`
	Purpose  string `toml:"purpose"`
	Inputs   string `toml:"inputs"`
	Module   string `toml:"module"`
	Category string `toml:"category"`
	Text     string `toml:"text"`
}

type articleRecord struct {
	ID       string `toml:"id"`
	Title    string `toml:"title"`
	Body     string `toml:"body"`
	Tags     string `toml:"tags"`
	Module   string `toml:"module"`
	Category string `toml:"category"`
}

// LoadCorpus reads a TOML corpus file
func LoadCorpus(ctx context.Context, path string) (*Corpus, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open corpus file", goerr.V("path", path))
	}
	defer safe.Close(ctx, fd)

	var corpus Corpus
	if err := toml.NewDecoder(fd).Decode(&corpus); err != nil {
		return nil, goerr.Wrap(err, "failed to decode corpus file", goerr.V("path", path))
	}

	return &corpus, nil
}

// Source builds the in-memory ticket source from the corpus
func (c *Corpus) Source() *Source {
	src := NewSource()
	for _, r := range c.Tickets {
		src.AddTicket(&model.Ticket{
			Number:      r.Number,
			Subject:     r.Subject,
			Description: r.Description,
			Resolution:  r.Resolution,
			RootCause:   r.RootCause,
			Module:      r.Module,
			Category:    r.Category,
			Product:     r.Product,
			Tags:        r.Tags,
			Status:      r.Status,
			Priority:    r.Priority,
			Tier:        r.Tier,
			ScriptID:    r.ScriptID,
			KBArticleID: r.KBArticleID,
			CreatedAt:   r.CreatedAt,
		})
	}
	for _, r := range c.Conversations {
		src.AddConversation(&model.Conversation{
			ID:           r.ID,
			TicketNumber: r.TicketNumber,
			Channel:      r.Channel,
			AgentName:    r.AgentName,
			IssueSummary: r.IssueSummary,
			Sentiment:    r.Sentiment,
			Transcript:   r.Transcript,
		})
	}
	for _, r := range c.Scripts {
		src.AddScript(&model.Script{
			ID:       r.ID,
			Title:    r.Title,
			Purpose:  r.Purpose,
			Inputs:   r.Inputs,
			Module:   r.Module,
			Category: r.Category,
			Text:     r.Text,
		})
	}
	return src
}

// SeedArticles converts the corpus KB entries into publishable articles
func (c *Corpus) SeedArticles() []*model.KBArticle {
	now := time.Now().UTC()
	articles := make([]*model.KBArticle, 0, len(c.Articles))
	for _, r := range c.Articles {
		articles = append(articles, &model.KBArticle{
			ID:         model.ArticleID(r.ID),
			Title:      r.Title,
			Body:       r.Body,
			Tags:       r.Tags,
			Module:     r.Module,
			Category:   r.Category,
			SourceType: types.ArticleSourceSeed,
			Status:     types.ArticleStatusPublished,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	return articles
}
