package amqp

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ReportRequestMessage asks a worker to generate one report. Selector may be
// empty, in which case the worker resolves the period containing the time
// the request was made.
type ReportRequestMessage struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	PeriodKind  string    `json:"period_kind"`
	Selector    string    `json:"selector,omitempty"`
	GeneratedBy string    `json:"generated_by,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewReportRequestMessage creates a request with a fresh ID.
func NewReportRequestMessage(category, periodKind, selector, generatedBy string) *ReportRequestMessage {
	return &ReportRequestMessage{
		ID:          newMessageID(),
		Category:    category,
		PeriodKind:  periodKind,
		Selector:    selector,
		GeneratedBy: generatedBy,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReportRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportRequestMessageFromJSON decodes a request. Category and period kind
// are mandatory.
func ReportRequestMessageFromJSON(data []byte) (*ReportRequestMessage, error) {
	var msg ReportRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(msg.Category) == "" {
		return nil, fmt.Errorf("missing category")
	}
	if strings.TrimSpace(msg.PeriodKind) == "" {
		return nil, fmt.Errorf("missing period_kind")
	}
	return &msg, nil
}

// ReportGeneratedMessage announces a finished report.
type ReportGeneratedMessage struct {
	RequestID   string    `json:"request_id,omitempty"`
	Category    string    `json:"category"`
	PeriodKind  string    `json:"period_kind"`
	Selector    string    `json:"selector"`
	Filename    string    `json:"filename"`
	Bytes       int       `json:"bytes"`
	GeneratedBy string    `json:"generated_by"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ToJSON converts the message to JSON bytes
func (m *ReportGeneratedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func newMessageID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(b)
}
