package amqp

import (
	"encoding/json"
	"time"

	"github.com/klokku/revenue/internal/event_bus"
)

// ReportReadyMessage tells the distribution step that a monthly report file can be picked up.
type ReportReadyMessage struct {
	RunID     string    `json:"runId"`
	Month     string    `json:"month"`
	Path      string    `json:"path"`
	Rows      int       `json:"rows"`
	Timestamp time.Time `json:"timestamp"`
}

func NewReportReadyMessage(written event_bus.ReportWritten, timestamp time.Time) *ReportReadyMessage {
	return &ReportReadyMessage{
		RunID:     written.RunID,
		Month:     written.Month,
		Path:      written.Path,
		Rows:      written.Rows,
		Timestamp: timestamp,
	}
}

func (m *ReportReadyMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
