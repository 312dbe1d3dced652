package model

// KBDraft is an ephemeral article draft. It is never persisted; the
// reviewer may edit title and body before approval, and the edited text
// supersedes the generated body only at publish time.
type KBDraft struct {
	Title        string
	Body         string
	Tags         string
	Lineage      []LineageEdge
	QualityScore float64
	QualityNotes string
}

// PublishContent is the article content handed to the publish step after
// a reviewer approves an event. Edited fields, when non-empty, have
// already replaced the drafted ones.
type PublishContent struct {
	Title    string
	Body     string
	Tags     string
	Module   string
	Category string
	Lineage  []LineageEdge
}

// ConfidenceImprovement compares retrieval confidence for the original
// gap before and after an article was published.
type ConfidenceImprovement struct {
	Before      float64 `json:"before"`
	After       float64 `json:"after"`
	Delta       float64 `json:"delta"`
	Explanation string  `json:"explanation"`
}
