package types

// ArticleSource distinguishes seeded corpus articles from ones generated
// by the learning loop
type ArticleSource string

const (
	ArticleSourceSeed      ArticleSource = "seed"
	ArticleSourceGenerated ArticleSource = "generated"
)

// ArticleStatus represents the publication state of a KB article
type ArticleStatus string

const (
	ArticleStatusDraft     ArticleStatus = "Draft"
	ArticleStatusPublished ArticleStatus = "Published"
)

// LineageSource identifies what kind of record a lineage edge points at
type LineageSource string

const (
	LineageSourceTicket       LineageSource = "Ticket"
	LineageSourceConversation LineageSource = "Conversation"
	LineageSourceScript       LineageSource = "Script"
	LineageSourceCopilot      LineageSource = "Copilot"
)

// Relationship describes how a source record justified an article
type Relationship string

const (
	RelationshipCreatedFrom  Relationship = "CREATED_FROM"
	RelationshipReferences   Relationship = "REFERENCES"
	RelationshipReportedFrom Relationship = "REPORTED_FROM"
)

// TriggerKind records which path created a learning event
type TriggerKind string

const (
	TriggerScan    TriggerKind = "scan"
	TriggerCopilot TriggerKind = "copilot"
)
