package model

import (
	"encoding/json"
	"testing"
)

func TestSessionState(t *testing.T) {
	admin := &User{ID: "admin-1", Role: UserRoleAdmin}
	flagged := &User{ID: "admin-9", Role: UserRoleAdmin, MustChangePassword: true}

	tests := []struct {
		name string
		sess Session
		want SessionState
	}{
		{"empty", Session{}, StateAnonymous},
		{"user without token", Session{User: admin}, StateAnonymous},
		{"token without user", Session{Token: "t"}, StateAnonymous},
		{"logged in", Session{User: admin, Token: "t", IsAuthenticated: true}, StateAuthenticated},
		{"must change password", Session{User: flagged, Token: "t", IsAuthenticated: true}, StateMustChangePassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sess.State(); got != tt.want {
				t.Errorf("State() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseUserRole(t *testing.T) {
	for _, s := range []string{"admin", "student", "superadmin"} {
		r, err := ParseUserRole(s)
		if err != nil {
			t.Fatalf("ParseUserRole(%q): %v", s, err)
		}
		if r.Home() == "/login" {
			t.Errorf("role %q has no home route", s)
		}
	}
	if _, err := ParseUserRole("proctor"); err == nil {
		t.Error("expected error for unknown role")
	}
	if UserRole("").Valid() {
		t.Error("empty role should be invalid")
	}
}

func TestTargetJSON(t *testing.T) {
	var n Notification
	if err := json.Unmarshal([]byte(`{"id":"n-1","target":"all"}`), &n); err != nil {
		t.Fatalf("unmarshal all: %v", err)
	}
	if !n.Target.All || !n.Target.Includes("anyone") {
		t.Errorf("expected target all, got %+v", n.Target)
	}

	if err := json.Unmarshal([]byte(`{"id":"n-2","target":["student-1","student-3"]}`), &n); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if n.Target.All {
		t.Error("list target decoded as all")
	}
	if !n.Target.Includes("student-3") || n.Target.Includes("student-2") {
		t.Errorf("unexpected membership for %v", n.Target.StudentIDs)
	}
	if n.Target.String() != "student-1,student-3" {
		t.Errorf("String() = %q", n.Target.String())
	}

	if err := json.Unmarshal([]byte(`{"target":"some"}`), &n); err == nil {
		t.Error("expected error for unknown target string")
	}

	data, err := json.Marshal(TargetStudents())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("empty target encoded as %s, want []", data)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Result{
		{Percentage: 78, Status: ResultPass},
		{Percentage: 92, Status: ResultPass},
		{Percentage: 35, Status: ResultFail},
	})
	if s.Count != 3 || s.Passed != 2 || s.Failed != 1 {
		t.Errorf("unexpected counts %+v", s)
	}
	if s.AveragePercentage != 205.0/3 {
		t.Errorf("average = %f", s.AveragePercentage)
	}
	if got := Summarize(nil); got.AveragePercentage != 0 {
		t.Errorf("empty summary average = %f", got.AveragePercentage)
	}
}
