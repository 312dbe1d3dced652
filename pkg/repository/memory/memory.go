package memory

import (
	"github.com/speare-ai/speare/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory is an in-memory repository for development and tests
type Memory struct {
	event   *eventRepository
	article *articleRepository
	lineage *lineageRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		event:   newEventRepository(),
		article: newArticleRepository(),
		lineage: newLineageRepository(),
	}
}

func (m *Memory) Event() interfaces.EventRepository {
	return m.event
}

func (m *Memory) Article() interfaces.ArticleRepository {
	return m.article
}

func (m *Memory) Lineage() interfaces.LineageRepository {
	return m.lineage
}

func (m *Memory) Close() error {
	return nil
}
