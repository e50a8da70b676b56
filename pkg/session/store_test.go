package session

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

// storeFactories lets every test run against both implementations.
func storeFactories(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	return map[string]func(t *testing.T) Store{
		"mem": func(t *testing.T) Store {
			return NewMemStore()
		},
		"badger": func(t *testing.T) Store {
			s, err := NewBadgerStore(BadgerOptions{InMemory: true})
			if err != nil {
				t.Fatal(err)
			}
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func newTestSession(id string) *Session {
	return &Session{
		ID:        id,
		PatientID: "p-1",
		Notes:     "Prescribed 20mg lisinopril.",
		CreatedAt: time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC),
	}
}

func TestStore_CreateGet(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			ctx := context.Background()

			if err := store.Create(ctx, newTestSession("s1")); err != nil {
				t.Fatalf("Create() error = %v", err)
			}

			got, err := store.Get(ctx, "s1")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.PatientID != "p-1" {
				t.Errorf("PatientID = %q, want %q", got.PatientID, "p-1")
			}
			if got.Transcript != nil || got.AnnotatedTranscript != nil || got.Summary != nil {
				t.Error("derived fields should be nil at creation")
			}
			if len(got.Flags) != 0 {
				t.Error("flags should be empty at creation")
			}

			if err := store.Create(ctx, newTestSession("s1")); !errors.Is(err, ErrExists) {
				t.Errorf("Create() duplicate error = %v, want ErrExists", err)
			}
		})
	}
}

func TestStore_GetNotFound(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get() error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStore_UpdateFieldsPartial(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			ctx := context.Background()
			if err := store.Create(ctx, newTestSession("s1")); err != nil {
				t.Fatal(err)
			}

			if err := store.UpdateFields(ctx, "s1", Transcript("Speaker A: Hello\n\n")); err != nil {
				t.Fatalf("UpdateFields() error = %v", err)
			}
			got, err := store.Get(ctx, "s1")
			if err != nil {
				t.Fatal(err)
			}
			if got.Transcript == nil || *got.Transcript != "Speaker A: Hello\n\n" {
				t.Errorf("Transcript = %v", got.Transcript)
			}
			if got.Summary != nil || got.AnnotatedTranscript != nil {
				t.Error("untouched fields must stay nil")
			}

			// Later update fills other fields without reverting transcript.
			if err := store.UpdateFields(ctx, "s1", Fields{
				Summary: ptr("Brief summary."),
				Flags:   []Issue{{Issue: "dosage", Description: "mismatch"}},
			}); err != nil {
				t.Fatal(err)
			}
			got, err = store.Get(ctx, "s1")
			if err != nil {
				t.Fatal(err)
			}
			if got.Transcript == nil {
				t.Error("transcript reverted by unrelated update")
			}
			if got.Summary == nil || *got.Summary != "Brief summary." {
				t.Errorf("Summary = %v", got.Summary)
			}
			if !reflect.DeepEqual(got.Flags, []Issue{{Issue: "dosage", Description: "mismatch"}}) {
				t.Errorf("Flags = %+v", got.Flags)
			}
		})
	}
}

func TestStore_UpdateFieldsIdempotent(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			ctx := context.Background()
			if err := store.Create(ctx, newTestSession("s1")); err != nil {
				t.Fatal(err)
			}

			update := Fields{
				Summary: ptr("same summary"),
				Flags:   []Issue{{Issue: "a", Description: "b"}},
			}
			if err := store.UpdateFields(ctx, "s1", update); err != nil {
				t.Fatal(err)
			}
			once, err := store.Get(ctx, "s1")
			if err != nil {
				t.Fatal(err)
			}
			if err := store.UpdateFields(ctx, "s1", update); err != nil {
				t.Fatal(err)
			}
			twice, err := store.Get(ctx, "s1")
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(once, twice) {
				t.Errorf("repeated update changed state:\nonce:  %+v\ntwice: %+v", once, twice)
			}
		})
	}
}

func TestStore_UpdateFieldsNotFound(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			err := store.UpdateFields(context.Background(), "nope", Summary("x"))
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("UpdateFields() error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStore_IndependentSessions(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			ctx := context.Background()
			for _, id := range []string{"a", "b"} {
				if err := store.Create(ctx, newTestSession(id)); err != nil {
					t.Fatal(err)
				}
			}
			if err := store.UpdateFields(ctx, "a", Summary("for a")); err != nil {
				t.Fatal(err)
			}
			b, err := store.Get(ctx, "b")
			if err != nil {
				t.Fatal(err)
			}
			if b.Summary != nil {
				t.Error("update to session a leaked into session b")
			}
		})
	}
}

func ptr(s string) *string { return &s }
