package domain

import (
	"testing"
	"time"
)

func TestNormalizeEmail(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "  Alice@X.com ", want: "alice@x.com"},
		{in: "bob@example.com", want: "bob@example.com"},
		{in: "\tCAROL@EXAMPLE.ORG\n", want: "carol@example.org"},
		{in: "", want: ""},
	}
	for _, tc := range cases {
		if got := NormalizeEmail(tc.in); got != tc.want {
			t.Fatalf("NormalizeEmail(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResetExpiredBoundary(t *testing.T) {
	expiry := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	u := &User{}
	u.SetReset("tok", expiry)

	if u.ResetExpired(expiry.Add(-time.Second)) {
		t.Fatalf("expected reset to be valid before expiry")
	}
	if u.ResetExpired(expiry) {
		t.Fatalf("expected reset to be valid at the exact expiry instant")
	}
	if !u.ResetExpired(expiry.Add(time.Nanosecond)) {
		t.Fatalf("expected reset to be expired after expiry")
	}
}

func TestClearResetAndClone(t *testing.T) {
	u := &User{ID: "1", Email: "a@b.c"}
	if !u.ResetExpired(time.Now()) {
		t.Fatalf("user without pending reset must report expired")
	}

	u.SetReset("tok", time.Now().Add(time.Hour))
	clone := u.Clone()
	*clone.ResetToken = "changed"
	if *u.ResetToken != "tok" {
		t.Fatalf("clone shares reset token with original")
	}

	u.ClearReset()
	if u.HasPendingReset() || u.ResetToken != nil || u.ResetTokenExpiry != nil {
		t.Fatalf("expected both reset fields cleared")
	}
	if !clone.HasPendingReset() {
		t.Fatalf("clearing original must not affect clone")
	}
}
