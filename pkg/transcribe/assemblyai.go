package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

var _ Transcriber = (*AssemblyAI)(nil)

const assemblyAIBaseURL = "https://api.assemblyai.com"

// AssemblyAI implements Transcriber against the AssemblyAI v2 REST API.
// Local file paths are uploaded first; http(s) audioRefs are submitted
// directly. When SpeakerLabels is set the result carries diarized
// utterances and the pipeline can skip its own segmentation.
type AssemblyAI struct {
	// APIKey is the AssemblyAI API key. Required.
	APIKey string

	// BaseURL overrides the API endpoint. Defaults to the public API.
	BaseURL string

	// HTTPClient overrides the HTTP client. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// SpeakerLabels requests speaker diarization.
	SpeakerLabels bool

	// SpeakersExpected hints the expected speaker count. Only used when
	// SpeakerLabels is set.
	SpeakersExpected int

	// PollInterval is the delay between status polls. Defaults to 3s.
	PollInterval time.Duration

	// PollTimeout bounds the total wait for a transcript. Defaults to 10m.
	PollTimeout time.Duration
}

type aaiTranscriptRequest struct {
	AudioURL         string `json:"audio_url"`
	SpeakerLabels    bool   `json:"speaker_labels,omitempty"`
	SpeakersExpected int    `json:"speakers_expected,omitempty"`
}

type aaiTranscript struct {
	ID         string      `json:"id"`
	Status     string      `json:"status"`
	Text       string      `json:"text"`
	Utterances []Utterance `json:"utterances"`
	Error      string      `json:"error"`
}

// Transcribe uploads the audio if needed, creates a transcript job, and
// polls until the job completes or fails.
func (a *AssemblyAI) Transcribe(ctx context.Context, audioRef string) (*Result, error) {
	if a.APIKey == "" {
		return nil, errors.New("transcribe: assemblyai api key is required")
	}

	audioURL := audioRef
	if !strings.HasPrefix(audioRef, "http://") && !strings.HasPrefix(audioRef, "https://") {
		uploaded, err := a.upload(ctx, audioRef)
		if err != nil {
			return nil, err
		}
		audioURL = uploaded
	}

	id, err := a.create(ctx, audioURL)
	if err != nil {
		return nil, err
	}
	return a.poll(ctx, id)
}

func (a *AssemblyAI) upload(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("transcribe: read audio: %w", err)
	}

	var resp struct {
		UploadURL string `json:"upload_url"`
	}
	if err := a.do(ctx, http.MethodPost, "/v2/upload", "application/octet-stream", bytes.NewReader(data), &resp); err != nil {
		return "", err
	}
	if resp.UploadURL == "" {
		return "", errors.New("transcribe: assemblyai upload returned no url")
	}
	return resp.UploadURL, nil
}

func (a *AssemblyAI) create(ctx context.Context, audioURL string) (string, error) {
	body, err := json.Marshal(aaiTranscriptRequest{
		AudioURL:         audioURL,
		SpeakerLabels:    a.SpeakerLabels,
		SpeakersExpected: a.SpeakersExpected,
	})
	if err != nil {
		return "", err
	}

	var tr aaiTranscript
	if err := a.do(ctx, http.MethodPost, "/v2/transcript", "application/json", bytes.NewReader(body), &tr); err != nil {
		return "", err
	}
	if tr.ID == "" {
		return "", errors.New("transcribe: assemblyai returned no transcript id")
	}
	return tr.ID, nil
}

func (a *AssemblyAI) poll(ctx context.Context, id string) (*Result, error) {
	interval := a.PollInterval
	if interval <= 0 {
		interval = 3 * time.Second
	}
	timeout := a.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		var tr aaiTranscript
		if err := a.do(ctx, http.MethodGet, "/v2/transcript/"+id, "", nil, &tr); err != nil {
			return nil, err
		}
		switch tr.Status {
		case "completed":
			return &Result{Text: tr.Text, Utterances: tr.Utterances}, nil
		case "error":
			return nil, fmt.Errorf("transcribe: assemblyai transcript %s: %s", id, tr.Error)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("transcribe: assemblyai transcript %s: %w", id, ctx.Err())
		case <-time.After(interval):
		}
	}
}

func (a *AssemblyAI) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	base := a.BaseURL
	if base == "" {
		base = assemblyAIBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, method, base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", a.APIKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	hc := a.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("transcribe: assemblyai %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("transcribe: assemblyai %s %s: http %d: %s", method, path, resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
