package provider

import "context"

// MockTranscriber is a test double for Transcriber.
type MockTranscriber struct {
	ProviderName   string
	TranscribeFunc func(ctx context.Context, req TranscribeRequest) (string, error)
}

func (m *MockTranscriber) Name() string { return m.ProviderName }

func (m *MockTranscriber) Transcribe(ctx context.Context, req TranscribeRequest) (string, error) {
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, req)
	}
	return "mock transcript", nil
}

// MockGenerator is a test double for Generator.
type MockGenerator struct {
	ProviderName string
	GenerateFunc func(ctx context.Context, req GenerateRequest) (string, error)
}

func (m *MockGenerator) Name() string { return m.ProviderName }

func (m *MockGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return "mock response", nil
}

// MockSynthesizer is a test double for Synthesizer.
type MockSynthesizer struct {
	ProviderName   string
	SynthesizeFunc func(ctx context.Context, text string) ([]byte, error)
}

func (m *MockSynthesizer) Name() string { return m.ProviderName }

func (m *MockSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text)
	}
	return []byte("mock audio"), nil
}
