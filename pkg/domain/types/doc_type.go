package types

import "github.com/m-mizutani/goerr/v2"

// DocType identifies a searchable document collection in the vector index
type DocType string

const (
	DocTypeKBArticle DocType = "kb_article"
	DocTypeScript    DocType = "script"
	DocTypeTicket    DocType = "ticket"
)

// AllDocTypes returns all searchable document types
func AllDocTypes() []DocType {
	return []DocType{
		DocTypeKBArticle,
		DocTypeScript,
		DocTypeTicket,
	}
}

// IsValid checks if the doc type is valid
func (d DocType) IsValid() bool {
	switch d {
	case DocTypeKBArticle, DocTypeScript, DocTypeTicket:
		return true
	default:
		return false
	}
}

// String returns the string representation of the doc type
func (d DocType) String() string {
	return string(d)
}

// AnswerType classifies where a copilot answer came from
type AnswerType string

const (
	AnswerTypeKB               AnswerType = "KB"
	AnswerTypeScript           AnswerType = "SCRIPT"
	AnswerTypeTicketResolution AnswerType = "TICKET_RESOLUTION"
	AnswerTypeNoMatch          AnswerType = "no_match"
)

// AnswerTypeOf maps a doc type to the answer classification
func AnswerTypeOf(d DocType) AnswerType {
	switch d {
	case DocTypeKBArticle:
		return AnswerTypeKB
	case DocTypeScript:
		return AnswerTypeScript
	case DocTypeTicket:
		return AnswerTypeTicketResolution
	default:
		return AnswerTypeNoMatch
	}
}

// ParseDocType parses a string into a DocType
func ParseDocType(s string) (DocType, error) {
	d := DocType(s)
	if !d.IsValid() {
		return "", goerr.New("invalid doc type", goerr.V("doc_type", s))
	}
	return d, nil
}
