// Package server exposes the session ingestion HTTP API: upload a visit
// recording with the clinician's notes, get back a session id, and fetch the
// enriched record once the background pipeline has filled it in.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/carelog/scribe/pkg/pipeline"
	"github.com/carelog/scribe/pkg/session"
)

// maxUploadBytes caps a multipart upload. Visit recordings are long but
// compressed; 512 MiB is well past anything legitimate.
const maxUploadBytes = 512 << 20

// Server handles session ingestion and retrieval. Uploads are written under
// DataDir and the pipeline runs detached; the response never waits for it.
type Server struct {
	Store   session.Store
	Runner  *pipeline.Runner
	DataDir string
	Logger  *slog.Logger
}

// Handler returns the route table for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sessions", s.handleCreate)
	mux.HandleFunc("GET /sessions/{id}", s.handleGet)
	return mux
}

// ListenAndServe blocks serving the API on addr until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	s.logger().Info("ingestion server starting", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

type createResponse struct {
	ID string `json:"id"`
}

// handleCreate accepts a multipart form with an audio file, a patient id, and
// the clinician's notes. It persists the upload and the initial session
// record, then dispatches the pipeline on a detached goroutine. The request
// context dies with the response, so the run gets a fresh background context.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	patientID := r.FormValue("patient_id")
	notes := r.FormValue("notes")
	if patientID == "" || notes == "" {
		http.Error(w, "patient_id and notes are required", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		http.Error(w, "audio file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	id := uuid.NewString()
	audioPath, err := s.saveUpload(id, header.Filename, file)
	if err != nil {
		s.logger().Error("upload save failed", "session", id, "error", err)
		http.Error(w, "failed to store upload", http.StatusInternalServerError)
		return
	}

	sess := &session.Session{
		ID:        id,
		PatientID: patientID,
		Notes:     notes,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.Create(r.Context(), sess); err != nil {
		s.logger().Error("session create failed", "session", id, "error", err)
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	s.logger().Info("session accepted", "session", id, "patient", patientID, "audio", audioPath)
	go s.Runner.Run(context.Background(), id, audioPath, notes)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(createResponse{ID: id}); err != nil {
		s.logger().Error("failed to encode response", "error", err)
	}
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, err := s.Store.Get(r.Context(), id)
	if errors.Is(err, session.ErrNotFound) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger().Error("session fetch failed", "session", id, "error", err)
		http.Error(w, "failed to fetch session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(sess); err != nil {
		s.logger().Error("failed to encode session", "session", id, "error", err)
	}
}

// saveUpload writes the audio stream under DataDir, keyed by session id with
// the original extension kept for the transcription engine's sake.
func (s *Server) saveUpload(id, filename string, r io.Reader) (string, error) {
	if err := os.MkdirAll(s.DataDir, 0o755); err != nil {
		return "", fmt.Errorf("server: create data dir: %w", err)
	}
	path := filepath.Join(s.DataDir, id+filepath.Ext(filename))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("server: create upload file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("server: write upload: %w", err)
	}
	return path, nil
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
