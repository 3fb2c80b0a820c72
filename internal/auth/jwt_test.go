package auth

import (
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	token, exp, err := Issue("2021001", "rollcall-dev", "secret", time.Hour)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if time.Until(exp) < 59*time.Minute {
		t.Errorf("expiry too soon: %s", exp)
	}

	claims, err := Parse(token, "secret", "rollcall-dev")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.StudentID != "2021001" || claims.Subject != "2021001" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseRejectsWrongKey(t *testing.T) {
	token, _, err := Issue("2021001", "rollcall-dev", "secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(token, "other-secret", "rollcall-dev"); err == nil {
		t.Error("expected signature verification failure")
	}
}

func TestParseRejectsIssuerMismatch(t *testing.T) {
	token, _, err := Issue("2021001", "someone-else", "secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(token, "secret", "rollcall-dev"); err == nil {
		t.Error("expected issuer mismatch")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	token, _, err := Issue("2021001", "rollcall-dev", "secret", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(token, "secret", "rollcall-dev"); err == nil {
		t.Error("expected expired token to fail")
	}
}
