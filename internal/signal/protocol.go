// Package signal is the real-time channel between a live session and its
// client: lifecycle messages and transcript events go out over a WebSocket,
// finalized utterances come back in.
package signal

import (
	"encoding/json"

	"github.com/soyeahso/interviewd/internal/domain"
)

// Outbound message types.
const (
	TypeWarning    = "interview_warning"
	TypeCompleted  = "interview_completed"
	TypeTranscript = "transcript"
)

// Inbound frame types.
const (
	TypeUtterance = "utterance"
	TypeAudio     = "audio"
)

// WarningMessage is sent exactly once when the session enters the warning
// phase.
type WarningMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// CompletedMessage is sent exactly once at closure. The client is expected
// to wait a fixed grace period and then navigate away.
type CompletedMessage struct {
	Type            string `json:"type"`
	Message         string `json:"message"`
	Token           string `json:"token"`
	DurationMinutes int    `json:"duration_minutes"`
}

// TranscriptMessage carries one recorded turn for live display.
type TranscriptMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId"`
	Turn      domain.Turn `json:"turn"`
}

// InboundFrame is the envelope for client-to-server messages. Text frames
// carry a finalized recognized utterance; audio frames carry a base64
// segment for server-side recognition.
type InboundFrame struct {
	Type       string `json:"type"`
	Text       string `json:"text,omitempty"`
	Audio      []byte `json:"audio,omitempty"`
	SampleRate int    `json:"sampleRate,omitempty"`
}

// NewWarning builds the warning message.
func NewWarning(message string) WarningMessage {
	return WarningMessage{Type: TypeWarning, Message: message}
}

// NewCompleted builds the completion message.
func NewCompleted(message, token string, durationMinutes int) CompletedMessage {
	return CompletedMessage{
		Type:            TypeCompleted,
		Message:         message,
		Token:           token,
		DurationMinutes: durationMinutes,
	}
}

// NewTranscript builds a transcript event for one turn.
func NewTranscript(sessionID string, turn domain.Turn) TranscriptMessage {
	return TranscriptMessage{Type: TypeTranscript, SessionID: sessionID, Turn: turn}
}

func encode(msg any) ([]byte, error) {
	return json.Marshal(msg)
}
