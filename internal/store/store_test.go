package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetGetDelete(t *testing.T) {
	s := newTestStore(t)

	// Missing key returns empty string.
	v, err := s.Get("exam_auth")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v != "" {
		t.Errorf("expected empty value, got %q", v)
	}

	if err := s.Set("exam_auth", `{"token":"a"}`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, _ = s.Get("exam_auth")
	if v != `{"token":"a"}` {
		t.Errorf("unexpected value %q", v)
	}

	// Update existing.
	if err := s.Set("exam_auth", `{"token":"b"}`); err != nil {
		t.Fatalf("Set update: %v", err)
	}
	v, _ = s.Get("exam_auth")
	if v != `{"token":"b"}` {
		t.Errorf("expected updated value, got %q", v)
	}

	if err := s.Delete("exam_auth"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	v, _ = s.Get("exam_auth")
	if v != "" {
		t.Errorf("expected deleted key, got %q", v)
	}

	// Deleting twice is fine.
	if err := s.Delete("exam_auth"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
}

func TestJSONSlices(t *testing.T) {
	s := newTestStore(t)

	type entry struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	var got []entry
	found, err := s.LoadJSON("exam_types", &got)
	if err != nil {
		t.Fatalf("LoadJSON missing: %v", err)
	}
	if found {
		t.Error("expected missing key to report not found")
	}

	want := []entry{{"et-1", "Theory"}, {"et-2", "MCQ"}}
	if err := s.SaveJSON("exam_types", want); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}
	found, err = s.LoadJSON("exam_types", &got)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if !found || len(got) != 2 || got[1].Name != "MCQ" {
		t.Errorf("unexpected slice %+v (found=%v)", got, found)
	}

	// Corrupt value surfaces a decode error.
	if err := s.Set("exam_types", "{not json"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := s.LoadJSON("exam_types", &got); !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestKeys(t *testing.T) {
	s := newTestStore(t)
	for _, k := range []string{"exam_users", "exam_auth", "exam_passwords"} {
		if err := s.Set(k, "{}"); err != nil {
			t.Fatalf("Set(%s): %v", k, err)
		}
	}
	keys, err := s.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 3 || keys[0] != "exam_auth" || keys[2] != "exam_users" {
		t.Errorf("expected sorted keys, got %v", keys)
	}
}

func TestReopenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "examdash.db")

	s, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Set("exam_passwords", `{"john":"x"}`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	s.Close()

	s, err = New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	v, err := s.Get("exam_passwords")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v != `{"john":"x"}` {
		t.Errorf("value did not survive reopen: %q", v)
	}
}
