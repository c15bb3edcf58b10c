package dto

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// PushEnvelope is the bus push wrapper delivered to the worker
type PushEnvelope struct {
	Message      PushMessage `json:"message" validate:"required"`
	Subscription string      `json:"subscription,omitempty"`
}

// PushMessage carries the message id and the base64-encoded payload.
// Some publishers use message_id instead of messageId; both are accepted.
type PushMessage struct {
	MessageID    string `json:"messageId"`
	MessageIDAlt string `json:"message_id,omitempty"`
	Data         string `json:"data" validate:"required"`
}

// ID returns whichever message id key the publisher used
func (m *PushMessage) ID() string {
	if m.MessageID != "" {
		return m.MessageID
	}
	return m.MessageIDAlt
}

// JobPayload is the decoded message data
type JobPayload struct {
	MeetingID     string `json:"meeting_id" validate:"required"`
	GCSURI        string `json:"gcs_uri,omitempty"`
	TranscriptRef string `json:"transcript_ref,omitempty"`
	ProcessedText string `json:"processed_text,omitempty"`
}

// Ref returns the transcript reference under either accepted key
func (p *JobPayload) Ref() string {
	if p.GCSURI != "" {
		return p.GCSURI
	}
	return p.TranscriptRef
}

// DecodePayload decodes the base64 message data into a JobPayload
func (e *PushEnvelope) DecodePayload() (*JobPayload, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(e.Message.Data))
	if err != nil {
		return nil, fmt.Errorf("data is not valid base64: %w", err)
	}
	var payload JobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("payload is not valid JSON: %w", err)
	}
	return &payload, nil
}
