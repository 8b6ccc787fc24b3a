package auth

import "testing"

func TestNewToken_LengthAndUniqueness(t *testing.T) {
	a := NewToken()
	b := NewToken()
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if a == b {
		t.Fatalf("expected distinct tokens")
	}
}

func TestVerifyToken(t *testing.T) {
	tok := NewToken()
	hash := HashToken(tok)
	if !VerifyToken(tok, hash) {
		t.Fatalf("expected token to verify against its own hash")
	}
	if VerifyToken(NewToken(), hash) {
		t.Fatalf("expected mismatched token to fail")
	}
}

func TestVerifyAdminSecret(t *testing.T) {
	if !VerifyAdminSecret("s3cret", "s3cret") {
		t.Fatalf("expected match")
	}
	if VerifyAdminSecret("s3cret!", "s3cret") {
		t.Fatalf("expected length mismatch to fail")
	}
	if VerifyAdminSecret("s3creT", "s3cret") {
		t.Fatalf("expected content mismatch to fail")
	}
	if VerifyAdminSecret("", "") {
		t.Fatalf("expected empty configured secret to never match")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword("hunter2", hash) {
		t.Fatalf("expected password to verify")
	}
	if CheckPassword("hunter3", hash) {
		t.Fatalf("expected wrong password to fail")
	}
}
