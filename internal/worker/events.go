package worker

import "encoding/json"

// ReplayPayload is the body published on the replay topic: a logged raw
// payload and the source that first received it.
type ReplayPayload struct {
	LogID      string          `json:"log_id"`
	SourceType string          `json:"source_type"`
	Payload    json.RawMessage `json:"payload"`

	CorrelationID string `json:"correlation_id"`
}
