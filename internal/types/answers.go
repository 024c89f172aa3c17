package types

// AnswerSource records which resolution tier produced a candidate answer.
type AnswerSource string

const (
	SourceExact          AnswerSource = "exact"
	SourceFuzzy          AnswerSource = "fuzzy"
	SourceKeywordPattern AnswerSource = "keyword_pattern"
	SourceAI             AnswerSource = "ai"
	SourceManual         AnswerSource = "manual"
)

// AnswerCandidate is a resolved answer for one question.
type AnswerCandidate struct {
	Value  string       `json:"value"`
	Source AnswerSource `json:"source"`
}

// ManualChange records a user edit observed by the change monitor after it
// has survived debouncing.
type ManualChange struct {
	Original  string    `json:"original"`
	New       string    `json:"new"`
	FieldType FieldType `json:"field_type"`
}

// PendingReviewItem is one candidate answer staged for user review along with
// its validation verdict.
type PendingReviewItem struct {
	Question string       `json:"question"`
	Value    string       `json:"value"`
	Source   AnswerSource `json:"source"`
	Valid    bool         `json:"valid"`
	Issues   []string     `json:"issues,omitempty"`
}
