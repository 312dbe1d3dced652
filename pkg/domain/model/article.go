package model

import (
	"time"

	"github.com/speare-ai/speare/pkg/domain/types"
)

// ArticleID is the stable identifier of a knowledge-base article.
// Generated articles carry the "KB-SYN-NNNN" sequence, seeded corpus
// articles keep whatever ID the corpus assigned.
type ArticleID string

// String returns the string representation of the article ID
func (id ArticleID) String() string {
	return string(id)
}

// KBArticle is a persisted knowledge unit. Append-only: new versions get
// new IDs, never a silent overwrite.
type KBArticle struct {
	ID         ArticleID
	Title      string
	Body       string
	Tags       string
	Module     string
	Category   string
	SourceType types.ArticleSource
	Status     types.ArticleStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IndexText returns the text embedded into the vector index for this
// article: title and body joined, matching the seeded corpus documents.
func (a *KBArticle) IndexText() string {
	return a.Title + "\n" + a.Body
}

// LineageEdge records one provenance link from a source record to a
// generated article. Every generated article has at least one; seed
// articles may have none.
type LineageEdge struct {
	SourceType   types.LineageSource
	SourceID     string
	TargetKBID   ArticleID
	Relationship types.Relationship
}

// ArticleListOptions filters and paginates article listings
type ArticleListOptions struct {
	Search   string
	Page     int
	PageSize int
}

// Normalize applies listing defaults
func (o ArticleListOptions) Normalize() ArticleListOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize < 1 {
		o.PageSize = 20
	}
	if o.PageSize > 100 {
		o.PageSize = 100
	}
	return o
}
