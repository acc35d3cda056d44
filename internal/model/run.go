package model

import "time"

// QueryStatus is the lifecycle state of a pipeline run.
type QueryStatus string

const (
	QueryInProgress QueryStatus = "Inprogress"
	QueryCompleted  QueryStatus = "Completed"
	QueryFailed     QueryStatus = "Failed"
	QueryCanceled   QueryStatus = "Canceled"
)

// Terminal reports whether the run has finished.
func (s QueryStatus) Terminal() bool {
	return s == QueryCompleted || s == QueryFailed || s == QueryCanceled
}

// RunCounts are per-stage record counts for a run.
type RunCounts struct {
	Jobs           int `json:"jobs"`
	Companies      int `json:"companies"`
	ICPCompanies   int `json:"icp_companies"`
	Prospects      int `json:"prospects"`
	Contacts       int `json:"contacts"`
	Posts          int `json:"posts"`
	EmailsResolved int `json:"emails_resolved"`
	Sequences      int `json:"sequences"`
	FinalRecords   int `json:"final_records"`
	Pushed         int `json:"pushed"`
	PushFailed     int `json:"push_failed"`
}

// TokenUsage accumulates model token consumption and cost.
type TokenUsage struct {
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	Calls        int     `json:"calls"`
	CostUSD      float64 `json:"cost_usd"`
}

// Add accumulates another usage.
func (u *TokenUsage) Add(o TokenUsage) {
	u.InputTokens += o.InputTokens
	u.OutputTokens += o.OutputTokens
	u.Calls += o.Calls
	u.CostUSD += o.CostUSD
}

// Query tracks one pipeline run, keyed by QueryID.
type Query struct {
	QueryID     string      `json:"query_id"`
	Filters     Filters     `json:"filters"`
	Status      QueryStatus `json:"status"`
	Progress    string      `json:"progress,omitempty"`
	Error       string      `json:"error,omitempty"`
	Counts      RunCounts   `json:"counts"`
	Usage       TokenUsage  `json:"usage"`
	StartedAt   time.Time   `json:"started_at"`
	CompletedAt time.Time   `json:"completed_at,omitzero"`
}
