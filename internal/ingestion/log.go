package ingestion

import (
	"encoding/json"
	"time"
)

type LogStatus string

const (
	StatusReceived   LogStatus = "received"
	StatusProcessing LogStatus = "processing"
	StatusSuccess    LogStatus = "success"
	StatusFailed     LogStatus = "failed"
	StatusDuplicate  LogStatus = "duplicate"
)

func (s LogStatus) Valid() bool {
	switch s {
	case StatusReceived, StatusProcessing, StatusSuccess, StatusFailed, StatusDuplicate:
		return true
	}
	return false
}

func (s LogStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusDuplicate
}

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
)

type StepTiming struct {
	Step       string `json:"step"`
	DurationMs int64  `json:"durationMs"`
	Result     string `json:"result"`
}

type Trace struct {
	Steps    []StepTiming `json:"steps"`
	Action   string       `json:"action"`
	Warnings []string     `json:"warnings,omitempty"`
}

// LogEntry is one persisted ingestion attempt.
type LogEntry struct {
	ID               string          `json:"id"`
	SourceType       string          `json:"sourceType"`
	Status           LogStatus       `json:"status"`
	ContentTitle     string          `json:"contentTitle,omitempty"`
	ExternalID       string          `json:"externalId,omitempty"`
	RawPayload       json.RawMessage `json:"rawPayload,omitempty"`
	PipelineLog      *Trace          `json:"pipelineLog,omitempty"`
	Error            string          `json:"error,omitempty"`
	FailedStage      string          `json:"failedStage,omitempty"`
	ProcessingTimeMs *int64          `json:"processingTimeMs,omitempty"`
	Content          string          `json:"content,omitempty"`
	ReplayOf         string          `json:"replayOf,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// rawValue keeps the payload verbatim: valid JSON is stored as-is, anything
// else as a JSON string.
func rawValue(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	if json.Valid(raw) {
		return json.RawMessage(raw)
	}
	return string(raw)
}
