package transcribe

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/openai/openai-go"
)

var _ Transcriber = (*Whisper)(nil)

// Whisper implements Transcriber using the OpenAI audio transcription API.
// Whisper returns plain text only; it never yields utterances, so callers
// needing speaker labels must segment the text themselves.
type Whisper struct {
	Client *openai.Client

	// Model defaults to whisper-1.
	Model openai.AudioModel
}

// Transcribe uploads the local audio file and returns its transcript text.
func (w *Whisper) Transcribe(ctx context.Context, audioRef string) (*Result, error) {
	if w.Client == nil {
		return nil, errors.New("transcribe: whisper client is required")
	}
	f, err := os.Open(audioRef)
	if err != nil {
		return nil, fmt.Errorf("transcribe: open audio: %w", err)
	}
	defer f.Close()

	model := w.Model
	if model == "" {
		model = openai.AudioModelWhisper1
	}
	resp, err := w.Client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: model,
		File:  f,
	})
	if err != nil {
		return nil, fmt.Errorf("transcribe: whisper: %w", err)
	}
	return &Result{Text: resp.Text}, nil
}
