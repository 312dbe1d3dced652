package model

import "strings"

const indexTextLimit = 8000

// Ticket is a resolved support case from the external ticket store
type Ticket struct {
	Number       string
	Subject      string
	Description  string
	Resolution   string
	RootCause    string
	Module       string
	Category     string
	Product      string
	Tags         string
	Status       string
	Priority     string
	Tier         int
	ScriptID     string
	KBArticleID  string
	CreatedAt    string
}

// IsResolvedTier3 reports whether the ticket qualifies for gap scanning
func (t *Ticket) IsResolvedTier3() bool {
	return t.Status == "Closed" && t.Resolution != "" && t.Tier >= 3
}

// GapQuery builds the retrieval query used to test KB coverage of this
// ticket's resolution, capped at 1000 chars.
func (t *Ticket) GapQuery() string {
	q := strings.TrimSpace(t.Subject + " " + t.Description + " " + t.Resolution)
	return Truncate(q, 1000)
}

// IndexText returns the document text embedded for this ticket
func (t *Ticket) IndexText() string {
	text := "Subject: " + t.Subject + "\n" +
		"Description: " + t.Description + "\n" +
		"Resolution: " + t.Resolution + "\n" +
		"Root Cause: " + t.RootCause
	return Truncate(text, indexTextLimit)
}

// Conversation is a support interaction transcript linked to a ticket
type Conversation struct {
	ID           string
	TicketNumber string
	Channel      string
	AgentName    string
	IssueSummary string
	Sentiment    string
	Transcript   string
}

// Script is a Tier-3 backend resolution script
type Script struct {
	ID       string
	Title    string
	Purpose  string
	Inputs   string
	Module   string
	Category string
	Text     string
}

// IndexText returns the document text embedded for this script
func (s *Script) IndexText() string {
	text := s.Title + "\n" +
		"Purpose: " + s.Purpose + "\n" +
		"Inputs: " + s.Inputs + "\n" +
		"Module: " + s.Module + " / " + s.Category
	return Truncate(text, indexTextLimit)
}

// TicketListOptions filters and paginates ticket listings
type TicketListOptions struct {
	Status   string
	Search   string
	Page     int
	PageSize int
}

// Normalize applies listing defaults
func (o TicketListOptions) Normalize() TicketListOptions {
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

// ConversationListOptions filters and paginates conversation listings
type ConversationListOptions struct {
	TicketNumber string
	Page         int
	PageSize     int
}

// Normalize applies listing defaults
func (o ConversationListOptions) Normalize() ConversationListOptions {
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

// Truncate caps s at limit characters, cutting on a rune boundary so
// multi-byte text never yields invalid UTF-8.
func Truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
