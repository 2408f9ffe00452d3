// Package provider defines the capability interfaces the orchestrator
// consumes (speech recognition, language generation, speech synthesis),
// the concrete provider implementations, and the uniform error shape the
// failover layer classifies.
package provider

import (
	"context"

	"github.com/soyeahso/interviewd/internal/domain"
)

// TranscribeRequest is one finalized audio segment to recognize.
type TranscribeRequest struct {
	Audio        []byte
	SampleRate   int
	LanguageCode string
}

// GenerateRequest is the bounded context handed to a generation provider:
// the fixed system instructions plus the materialized conversation window.
type GenerateRequest struct {
	Instructions string
	Turns        []domain.Turn
}

// Transcriber converts a finalized audio segment into text.
type Transcriber interface {
	Transcribe(ctx context.Context, req TranscribeRequest) (string, error)
	Name() string
}

// Generator produces the agent's next utterance from the bounded context.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	Name() string
}

// Synthesizer converts agent text to audio. Called fire-and-forget: a
// synthesis failure never affects session state.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	Name() string
}
