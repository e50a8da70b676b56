// Package session defines the persisted record for one audio+notes
// submission and the store that holds it. A session's derived fields are
// filled in incrementally by the processing pipeline; a reader may observe
// any prefix of those writes while a run is in flight.
package session

import "time"

// Issue is one structured discrepancy finding between the clinician's notes
// and the conversation transcript.
type Issue struct {
	Issue       string `json:"issue" msgpack:"issue"`
	Description string `json:"description" msgpack:"description"`
}

// Session is the unit of work and persistence. ID, PatientID, Notes and
// CreatedAt are set at creation and immutable; the remaining fields are
// derived by the pipeline. Derived string fields are nil until their stage
// completes, then hold either the stage result or a failure sentinel.
type Session struct {
	ID        string    `json:"id" msgpack:"id"`
	PatientID string    `json:"patient_id" msgpack:"patient_id"`
	Notes     string    `json:"notes" msgpack:"notes"`
	CreatedAt time.Time `json:"created_at" msgpack:"created_at"`

	Transcript          *string `json:"transcript" msgpack:"transcript"`
	AnnotatedTranscript *string `json:"annotated_transcript" msgpack:"annotated_transcript"`
	Summary             *string `json:"summary" msgpack:"summary"`
	Flags               []Issue `json:"flags" msgpack:"flags"`
}

// Fields is a partial update: nil members are left untouched. Flags is
// applied when non-nil.
type Fields struct {
	Transcript          *string
	AnnotatedTranscript *string
	Summary             *string
	Flags               []Issue
}

// Transcript returns a Fields setting only the transcript.
func Transcript(s string) Fields {
	return Fields{Transcript: &s}
}

// AnnotatedTranscript returns a Fields setting only the annotated transcript.
func AnnotatedTranscript(s string) Fields {
	return Fields{AnnotatedTranscript: &s}
}

// Summary returns a Fields setting only the summary.
func Summary(s string) Fields {
	return Fields{Summary: &s}
}

func (f Fields) apply(s *Session) {
	if f.Transcript != nil {
		v := *f.Transcript
		s.Transcript = &v
	}
	if f.AnnotatedTranscript != nil {
		v := *f.AnnotatedTranscript
		s.AnnotatedTranscript = &v
	}
	if f.Summary != nil {
		v := *f.Summary
		s.Summary = &v
	}
	if f.Flags != nil {
		s.Flags = append([]Issue(nil), f.Flags...)
	}
}
