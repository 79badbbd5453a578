package domain

import "time"

const (
	NotAvailableAnswer = "Information not available in the provided text"
	NotApplicable      = "N/A"
)

type QueryKind string

const (
	QueryGeneral QueryKind = "general"
	QueryClaim   QueryKind = "claim"
)

type ClaimDetails struct {
	Age            string `json:"age"`
	Gender         string `json:"gender"`
	Procedure      string `json:"procedure"`
	Location       string `json:"location"`
	PolicyDuration string `json:"policy_duration"`
}

type ClauseReference struct {
	ClauseID       string  `json:"clause_id"`
	ClauseText     string  `json:"clause_text"`
	RelevanceScore float64 `json:"relevance_score"`
}

// CoverageDecision is derived from lexical presence checks on retrieved
// clauses. Heuristic is always true: the gates are not a rule engine.
type CoverageDecision struct {
	Approved             bool              `json:"is_approved"`
	Status               string            `json:"approval_status"`
	ProcedureCovered     bool              `json:"procedure_covered"`
	WaitingPeriodCleared bool              `json:"waiting_period_cleared"`
	LocationApproved     bool              `json:"location_approved"`
	Heuristic            bool              `json:"heuristic"`
	Clauses              []ClauseReference `json:"clauses_referenced"`
}

type AnswerMetadata struct {
	Kind            QueryKind         `json:"kind"`
	ConfidenceScore float64           `json:"confidence_score"`
	ProcessingTime  time.Duration     `json:"processing_time"`
	SourceSections  []string          `json:"source_sections"`
	Reasoning       string            `json:"reasoning"`
	Decision        *CoverageDecision `json:"decision,omitempty"`
	Cached          bool              `json:"cached"`
}

type QueryResult struct {
	Query           string         `json:"query"`
	Answer          string         `json:"answer"`
	DecisionSummary string         `json:"decision_summary"`
	QueryUnderstood string         `json:"query_understood,omitempty"`
	Claim           *ClaimDetails  `json:"claim,omitempty"`
	Metadata        AnswerMetadata `json:"metadata"`
}
