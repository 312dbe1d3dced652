package usecase

import (
	"github.com/speare-ai/speare/pkg/domain/interfaces"
	"github.com/speare-ai/speare/pkg/service/drafter"
	"github.com/speare-ai/speare/pkg/service/retriever"
)

type UseCases struct {
	repo      interfaces.Repository
	source    interfaces.TicketSource
	index     interfaces.VectorIndex
	retriever *retriever.Service
	drafter   *drafter.Service

	Learning  *LearningUseCase
	Copilot   *CopilotUseCase
	Knowledge *KnowledgeUseCase
}

type Option func(*UseCases)

func New(repo interfaces.Repository, source interfaces.TicketSource, index interfaces.VectorIndex, retr *retriever.Service, drft *drafter.Service, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:      repo,
		source:    source,
		index:     index,
		retriever: retr,
		drafter:   drft,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Learning = &LearningUseCase{uc: uc}
	uc.Copilot = &CopilotUseCase{uc: uc}
	uc.Knowledge = &KnowledgeUseCase{uc: uc}

	return uc
}

// LearningUseCase runs the self-learning loop: gap scanning, draft
// generation, review and publication.
type LearningUseCase struct {
	uc *UseCases
}

// CopilotUseCase answers support questions and reports low-confidence
// gaps back into the loop.
type CopilotUseCase struct {
	uc *UseCases
}

// KnowledgeUseCase exposes read-side views of the corpus and the KB,
// and seeds the vector index at startup.
type KnowledgeUseCase struct {
	uc *UseCases
}
