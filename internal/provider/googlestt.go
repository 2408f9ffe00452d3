package provider

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	speech "google.golang.org/api/speech/v1"
)

const defaultLanguageCode = "en-US"

// GoogleTranscriber recognizes finalized audio segments through the Google
// Cloud Speech-to-Text API.
type GoogleTranscriber struct {
	svc *speech.Service
}

// NewGoogleTranscriber creates a Speech-to-Text backed recognition provider.
func NewGoogleTranscriber(ctx context.Context, apiKey string) (*GoogleTranscriber, error) {
	svc, err := speech.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating speech service: %w", err)
	}
	return &GoogleTranscriber{svc: svc}, nil
}

func (t *GoogleTranscriber) Name() string { return "google-stt" }

// Transcribe runs synchronous recognition on one finalized segment. Interim
// results never reach this path; the recorder only ever sees final text.
func (t *GoogleTranscriber) Transcribe(ctx context.Context, req TranscribeRequest) (string, error) {
	lang := req.LanguageCode
	if lang == "" {
		lang = defaultLanguageCode
	}
	sampleRate := req.SampleRate
	if sampleRate == 0 {
		sampleRate = 16000
	}

	resp, err := t.svc.Speech.Recognize(&speech.RecognizeRequest{
		Config: &speech.RecognitionConfig{
			Encoding:        "LINEAR16",
			SampleRateHertz: int64(sampleRate),
			LanguageCode:    lang,
		},
		Audio: &speech.RecognitionAudio{
			Content: base64.StdEncoding.EncodeToString(req.Audio),
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", t.normalize(err)
	}

	var b strings.Builder
	for _, result := range resp.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(strings.TrimSpace(result.Alternatives[0].Transcript))
	}

	text := b.String()
	if text == "" {
		return "", &Error{Provider: t.Name(), Code: 400, Message: "no speech recognized"}
	}
	return text, nil
}

func (t *GoogleTranscriber) normalize(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &Error{Provider: t.Name(), Code: apiErr.Code, Message: apiErr.Message}
	}
	return &Error{Provider: t.Name(), Message: err.Error()}
}
