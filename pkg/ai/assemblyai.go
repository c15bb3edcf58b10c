package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"

	"github.com/kumemura-df/struct-project/pkg/config"
)

// ErrAudioRejected marks a terminal transcription failure reported for the
// audio itself (bad codec, empty audio). Not retryable.
var ErrAudioRejected = errors.New("transcription rejected audio")

// Transcriber wraps the AssemblyAI SDK for synchronous speech-to-text
type Transcriber struct {
	client   *aai.Client
	language string
}

// NewTranscriber creates a transcriber using the provided config.
// If cfg is nil, falls back to environment variables.
func NewTranscriber(cfg *config.TranscribeConfig) *Transcriber {
	var apiKey string
	language := "en"
	if cfg != nil {
		apiKey = cfg.APIKey
		if cfg.LanguageCode != "" {
			language = cfg.LanguageCode
		}
	}
	if apiKey == "" {
		apiKey = os.Getenv("ASSEMBLYAI_API_KEY")
	}
	return &Transcriber{
		client:   aai.NewClient(apiKey),
		language: language,
	}
}

// Language returns the configured transcription language code
func (t *Transcriber) Language() string {
	return t.language
}

// Transcribe uploads the audio stream, waits for completion, and returns the
// transcript text. A status of error from the provider surfaces as
// ErrAudioRejected; transport failures surface as-is.
func (t *Transcriber) Transcribe(ctx context.Context, r io.Reader) (string, error) {
	params := &aai.TranscriptOptionalParams{
		LanguageCode:  aai.TranscriptLanguageCode(t.language),
		SpeakerLabels: aai.Bool(true),
	}

	transcript, err := t.client.Transcripts.TranscribeFromReader(ctx, r, params)
	if err != nil {
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}

	if transcript.Status == aai.TranscriptStatusError {
		reason := ""
		if transcript.Error != nil {
			reason = *transcript.Error
		}
		return "", fmt.Errorf("%w: %s", ErrAudioRejected, reason)
	}

	if transcript.Text == nil || *transcript.Text == "" {
		return "", fmt.Errorf("%w: empty transcript", ErrAudioRejected)
	}
	return *transcript.Text, nil
}
