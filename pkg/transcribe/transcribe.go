// Package transcribe provides a narrow boundary to speech-to-text services.
// A transcriber turns an audio reference (a local file path or a URL the
// engine can fetch) into a transcript, optionally with speaker-diarized
// utterances.
package transcribe

import (
	"context"
	"fmt"
	"sync"
)

// Utterance is one speaker-attributed segment of a transcript.
type Utterance struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Result is a completed transcription. Utterances is empty when the engine
// did not diarize (or was not asked to).
type Result struct {
	Text       string      `json:"text"`
	Utterances []Utterance `json:"utterances,omitempty"`
}

// Transcriber is the interface that wraps the Transcribe method.
type Transcriber interface {
	// Transcribe transcribes the audio behind audioRef.
	Transcribe(ctx context.Context, audioRef string) (*Result, error)
}

// TranscribeFunc is an adapter to allow the use of ordinary functions as
// Transcribers.
type TranscribeFunc func(ctx context.Context, audioRef string) (*Result, error)

// Transcribe calls the underlying function.
func (f TranscribeFunc) Transcribe(ctx context.Context, audioRef string) (*Result, error) {
	return f(ctx, audioRef)
}

// DefaultMux is the default transcriber multiplexer.
var DefaultMux = NewMux()

// Handle registers a transcriber for the given engine name with the default mux.
func Handle(name string, t Transcriber) error {
	return DefaultMux.Handle(name, t)
}

// Transcribe transcribes using the named engine of the default mux.
func Transcribe(ctx context.Context, name, audioRef string) (*Result, error) {
	return DefaultMux.Transcribe(ctx, name, audioRef)
}

// Mux routes transcription requests to the transcriber registered under an
// engine name.
type Mux struct {
	mu           sync.RWMutex
	transcribers map[string]Transcriber
}

// NewMux creates a new transcriber multiplexer.
func NewMux() *Mux {
	return &Mux{
		transcribers: make(map[string]Transcriber),
	}
}

// Handle registers a transcriber for the given engine name.
// Returns an error if a transcriber is already registered for the name.
func (m *Mux) Handle(name string, t Transcriber) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.transcribers[name]; ok {
		return fmt.Errorf("transcribe: transcriber already registered for %s", name)
	}
	m.transcribers[name] = t
	return nil
}

// HandleFunc registers a TranscribeFunc for the given engine name.
func (m *Mux) HandleFunc(name string, f TranscribeFunc) error {
	return m.Handle(name, f)
}

// Transcribe dispatches to the transcriber registered for the engine name.
func (m *Mux) Transcribe(ctx context.Context, name, audioRef string) (*Result, error) {
	m.mu.RLock()
	t, ok := m.transcribers[name]
	m.mu.RUnlock()
	if !ok || t == nil {
		return nil, fmt.Errorf("transcribe: transcriber not found for %s", name)
	}
	return t.Transcribe(ctx, audioRef)
}
