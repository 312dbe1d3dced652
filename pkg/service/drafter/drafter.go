package drafter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/speare-ai/speare/pkg/domain/model"
	"github.com/speare-ai/speare/pkg/domain/types"
)

const draftSystemPrompt = `You are a knowledge-base author for enterprise property management support.
Given a resolved support ticket with its conversation transcript and script details,
generate a knowledge-base article that captures the resolution for future reuse.

Rules:
- Be specific and actionable.
- Include the exact steps the agent took.
- Reference the script ID if one was used.
- Replace any real customer names with placeholders.
- Structure: Problem -> Cause -> Resolution Steps -> Verification.`

const (
	scriptTextLimit = 2000
	transcriptLimit = 3000
)

// Input carries everything the generator may draw on. Ticket is nil for
// gap reports raised by the copilot; Conversation and Script are
// optional either way.
type Input struct {
	Ticket       *model.Ticket
	Conversation *model.Conversation
	Script       *model.Script
	Event        *model.LearningEvent
	Question     string
}

// Service turns a resolved ticket or reported gap into a KB draft. It
// holds no state and never persists anything; the draft lives only in
// the review flow.
type Service struct {
	llmClient gollem.LLMClient
}

type Option func(*Service)

// WithLLMClient enables LLM drafting. Without it, drafts degrade to the
// ticket's problem/resolution text.
func WithLLMClient(llmClient gollem.LLMClient) Option {
	return func(s *Service) {
		s.llmClient = llmClient
	}
}

func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate produces a complete draft or an error, never both
func (s *Service) Generate(ctx context.Context, input Input) (*model.KBDraft, error) {
	if input.Ticket == nil && strings.TrimSpace(input.Question) == "" {
		return nil, goerr.Wrap(types.ErrGeneration, "a ticket or a question is required")
	}

	var draft *model.KBDraft
	if s.llmClient == nil {
		draft = fallbackDraft(input)
	} else {
		generated, err := s.generate(ctx, input)
		if err != nil {
			return nil, err
		}
		draft = generated
	}

	draft.Lineage = buildLineage(input)
	draft.QualityScore, draft.QualityNotes = assessQuality(draft)

	return draft, nil
}

type draftResponse struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tags  string `json:"tags"`
}

func (s *Service) generate(ctx context.Context, input Input) (*model.KBDraft, error) {
	session, err := s.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(buildResponseSchema()),
		gollem.WithSessionSystemPrompt(draftSystemPrompt),
	)
	if err != nil {
		return nil, goerr.Wrap(types.ErrGeneration, "failed to create LLM session", goerr.V("cause", err.Error()))
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(buildUserPrompt(input)))
	if err != nil {
		return nil, goerr.Wrap(types.ErrGeneration, "failed to generate draft", goerr.V("cause", err.Error()))
	}
	if len(resp.Texts) == 0 {
		return nil, goerr.Wrap(types.ErrGeneration, "LLM returned no content")
	}

	var parsed draftResponse
	if err := json.Unmarshal([]byte(resp.Texts[0]), &parsed); err != nil {
		return nil, goerr.Wrap(types.ErrGeneration, "failed to parse draft response", goerr.V("response", resp.Texts[0]))
	}
	if parsed.Title == "" || parsed.Body == "" {
		return nil, goerr.Wrap(types.ErrGeneration, "draft is missing title or body")
	}

	return &model.KBDraft{
		Title: parsed.Title,
		Body:  parsed.Body,
		Tags:  parsed.Tags,
	}, nil
}

func buildUserPrompt(input Input) string {
	var sb strings.Builder

	if input.Ticket != nil {
		t := input.Ticket
		fmt.Fprintf(&sb, "Ticket: %s\n", t.Subject)
		fmt.Fprintf(&sb, "Description: %s\n", t.Description)
		fmt.Fprintf(&sb, "Resolution: %s\n", t.Resolution)
		fmt.Fprintf(&sb, "Root Cause: %s\n", t.RootCause)
		fmt.Fprintf(&sb, "Module: %s / %s\n", t.Module, t.Category)
		fmt.Fprintf(&sb, "Product: %s\n", t.Product)
	} else {
		fmt.Fprintf(&sb, "Reported support question with no KB coverage: %s\n", input.Question)
		if input.Event != nil && input.Event.DetectedGap != "" {
			fmt.Fprintf(&sb, "Gap context: %s\n", input.Event.DetectedGap)
		}
	}

	if input.Script != nil {
		text := model.Truncate(input.Script.Text, scriptTextLimit)
		fmt.Fprintf(&sb, "\nScript ID: %s\n", input.Script.ID)
		fmt.Fprintf(&sb, "Script Purpose: %s\n", input.Script.Purpose)
		fmt.Fprintf(&sb, "Script Inputs: %s\n", input.Script.Inputs)
		fmt.Fprintf(&sb, "Script Text:\n%s\n", text)
	}

	if input.Conversation != nil {
		transcript := model.Truncate(input.Conversation.Transcript, transcriptLimit)
		fmt.Fprintf(&sb, "\nTranscript:\n%s\n", transcript)
	}

	return sb.String()
}

func buildResponseSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "KBArticleDraft",
		Description: "A knowledge-base article drafted from a resolved support case",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"title": {
				Type:        gollem.TypeString,
				Description: "Short descriptive title",
				Required:    true,
			},
			"body": {
				Type:        gollem.TypeString,
				Description: "Full article body in markdown: problem description, steps to resolve, and verification steps",
				Required:    true,
			},
			"tags": {
				Type:        gollem.TypeString,
				Description: "Comma-separated relevant tags",
				Required:    true,
			},
		},
	}
}

// fallbackDraft assembles an article from the raw ticket fields when no
// LLM is configured.
func fallbackDraft(input Input) *model.KBDraft {
	if input.Ticket != nil {
		t := input.Ticket
		subject := t.Subject
		if subject == "" {
			subject = "Unknown Issue"
		}
		return &model.KBDraft{
			Title: "Resolution: " + subject,
			Body:  fmt.Sprintf("## Problem\n%s\n\n## Resolution\n%s", t.Description, t.Resolution),
			Tags:  t.Tags,
		}
	}

	body := "## Question\n" + input.Question
	if input.Event != nil && input.Event.DetectedGap != "" {
		body += "\n\n## Context\n" + input.Event.DetectedGap
	}
	return &model.KBDraft{
		Title: "Resolution: " + input.Question,
		Body:  body,
	}
}

// buildLineage records where the draft's content came from. Target
// article IDs are filled in at publish time.
func buildLineage(input Input) []model.LineageEdge {
	var edges []model.LineageEdge

	if input.Ticket != nil {
		edges = append(edges, model.LineageEdge{
			SourceType:   types.LineageSourceTicket,
			SourceID:     input.Ticket.Number,
			Relationship: types.RelationshipCreatedFrom,
		})
	}
	if input.Conversation != nil {
		edges = append(edges, model.LineageEdge{
			SourceType:   types.LineageSourceConversation,
			SourceID:     input.Conversation.ID,
			Relationship: types.RelationshipCreatedFrom,
		})
	}
	if input.Script != nil {
		edges = append(edges, model.LineageEdge{
			SourceType:   types.LineageSourceScript,
			SourceID:     input.Script.ID,
			Relationship: types.RelationshipReferences,
		})
	}
	if input.Ticket == nil && input.Event != nil {
		edges = append(edges, model.LineageEdge{
			SourceType:   types.LineageSourceCopilot,
			SourceID:     string(input.Event.ID),
			Relationship: types.RelationshipReportedFrom,
		})
	}

	return edges
}

// assessQuality scores structural completeness of the draft, a cheap
// stand-in for editorial review hints.
func assessQuality(draft *model.KBDraft) (float64, string) {
	var score float64
	var missing []string

	if len(draft.Title) >= 10 {
		score += 0.25
	} else {
		missing = append(missing, "short title")
	}
	if len(draft.Body) >= 200 {
		score += 0.25
	} else {
		missing = append(missing, "thin body")
	}
	if strings.Contains(draft.Body, "##") {
		score += 0.25
	} else {
		missing = append(missing, "no section structure")
	}
	if draft.Tags != "" {
		score += 0.25
	} else {
		missing = append(missing, "no tags")
	}

	if len(missing) == 0 {
		return score, "complete"
	}
	return score, strings.Join(missing, ", ")
}
