package transcribe

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

// newAAIServer fakes the AssemblyAI v2 API: upload, create, then poll.
// polls is the number of "processing" responses before completion.
func newAAIServer(t *testing.T, polls int32, final aaiTranscript) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var pollCount atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v2/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "test-key" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if len(body) == 0 {
			http.Error(w, "empty upload", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.example/abc"})
	})
	mux.HandleFunc("POST /v2/transcript", func(w http.ResponseWriter, r *http.Request) {
		var req aaiTranscriptRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AudioURL == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(aaiTranscript{ID: "tr_1", Status: "queued"})
	})
	mux.HandleFunc("GET /v2/transcript/tr_1", func(w http.ResponseWriter, r *http.Request) {
		if pollCount.Add(1) <= polls {
			json.NewEncoder(w).Encode(aaiTranscript{ID: "tr_1", Status: "processing"})
			return
		}
		json.NewEncoder(w).Encode(final)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &pollCount
}

func writeTempAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "visit.webm")
	if err := os.WriteFile(path, []byte("fake-audio-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAssemblyAI_TranscribeLocalFile(t *testing.T) {
	srv, polls := newAAIServer(t, 2, aaiTranscript{
		ID: "tr_1", Status: "completed", Text: "Hello there. Hi doctor.",
		Utterances: []Utterance{
			{Speaker: "A", Text: "Hello there."},
			{Speaker: "B", Text: "Hi doctor."},
		},
	})

	a := &AssemblyAI{
		APIKey:           "test-key",
		BaseURL:          srv.URL,
		SpeakerLabels:    true,
		SpeakersExpected: 2,
		PollInterval:     time.Millisecond,
	}
	res, err := a.Transcribe(context.Background(), writeTempAudio(t))
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if res.Text != "Hello there. Hi doctor." {
		t.Errorf("unexpected text: %q", res.Text)
	}
	if len(res.Utterances) != 2 {
		t.Fatalf("got %d utterances, want 2", len(res.Utterances))
	}
	if res.Utterances[0].Speaker != "A" || res.Utterances[1].Speaker != "B" {
		t.Errorf("unexpected speakers: %+v", res.Utterances)
	}
	if polls.Load() != 3 {
		t.Errorf("got %d polls, want 3", polls.Load())
	}
}

func TestAssemblyAI_TranscribeURLSkipsUpload(t *testing.T) {
	srv, _ := newAAIServer(t, 0, aaiTranscript{ID: "tr_1", Status: "completed", Text: "ok"})

	a := &AssemblyAI{APIKey: "test-key", BaseURL: srv.URL, PollInterval: time.Millisecond}
	res, err := a.Transcribe(context.Background(), "https://cdn.example/visit.webm")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if res.Text != "ok" {
		t.Errorf("unexpected text: %q", res.Text)
	}
}

func TestAssemblyAI_TranscriptError(t *testing.T) {
	srv, _ := newAAIServer(t, 0, aaiTranscript{ID: "tr_1", Status: "error", Error: "audio too short"})

	a := &AssemblyAI{APIKey: "test-key", BaseURL: srv.URL, PollInterval: time.Millisecond}
	_, err := a.Transcribe(context.Background(), "https://cdn.example/visit.webm")
	if err == nil {
		t.Fatal("expected error for failed transcript")
	}
}

func TestAssemblyAI_MissingKey(t *testing.T) {
	a := &AssemblyAI{}
	if _, err := a.Transcribe(context.Background(), "x.webm"); err == nil {
		t.Error("expected error without api key")
	}
}

func TestAssemblyAI_PollTimeout(t *testing.T) {
	srv, _ := newAAIServer(t, 1<<30, aaiTranscript{})

	a := &AssemblyAI{
		APIKey:       "test-key",
		BaseURL:      srv.URL,
		PollInterval: time.Millisecond,
		PollTimeout:  20 * time.Millisecond,
	}
	_, err := a.Transcribe(context.Background(), "https://cdn.example/visit.webm")
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestMux_Dispatch(t *testing.T) {
	mux := NewMux()
	if err := mux.HandleFunc("fake", func(_ context.Context, ref string) (*Result, error) {
		return &Result{Text: "ref=" + ref}, nil
	}); err != nil {
		t.Fatal(err)
	}

	res, err := mux.Transcribe(context.Background(), "fake", "a.webm")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if res.Text != "ref=a.webm" {
		t.Errorf("unexpected result: %q", res.Text)
	}

	if _, err := mux.Transcribe(context.Background(), "missing", "a.webm"); err == nil {
		t.Error("expected error for unregistered engine")
	}

	if err := mux.HandleFunc("fake", nil); err == nil {
		t.Error("expected error for duplicate registration")
	}
}
