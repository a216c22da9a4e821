package service

import (
	"context"
	"testing"
	"time"

	"github.com/eduquiz/eduquiz-backend/internal/config"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	_, rdb := newTestRedis(t)
	cfg := &config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: 4,
	}
	return NewAuthService(cfg, rdb)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	s := newTestAuthService(t)

	hash, err := s.HashPassword("hunter2pass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := s.CheckPassword(hash, "hunter2pass"); err != nil {
		t.Fatalf("CheckPassword with correct password: %v", err)
	}
	if err := s.CheckPassword(hash, "wrong"); err != ErrInvalidCredentials {
		t.Fatalf("CheckPassword with wrong password = %v, want ErrInvalidCredentials", err)
	}
}

func TestStudentTokenSingleDevice(t *testing.T) {
	s := newTestAuthService(t)
	ctx := context.Background()

	token, err := s.GenerateStudentToken(ctx, 11, "7")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}

	claims, err := s.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.TokenType != TokenTypeStudent || claims.UserID != 11 || claims.Grade != "7" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
	if err := s.ValidateStudentSession(ctx, 11, claims.ID); err != nil {
		t.Fatalf("ValidateStudentSession: %v", err)
	}

	// Second device is rejected while the session is live.
	if _, err := s.GenerateStudentToken(ctx, 11, "7"); err != ErrSessionAlreadyActive {
		t.Fatalf("second login err = %v, want ErrSessionAlreadyActive", err)
	}

	// After reset a new login works and the old JTI is invalid.
	if err := s.ResetStudentSession(ctx, 11); err != nil {
		t.Fatalf("ResetStudentSession: %v", err)
	}
	token2, err := s.GenerateStudentToken(ctx, 11, "7")
	if err != nil {
		t.Fatalf("relogin: %v", err)
	}
	claims2, _ := s.ValidateToken(token2)
	if err := s.ValidateStudentSession(ctx, 11, claims.ID); err == nil {
		t.Fatal("old JTI still validates after relogin")
	}
	if err := s.ValidateStudentSession(ctx, 11, claims2.ID); err != nil {
		t.Fatalf("new JTI rejected: %v", err)
	}
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	s := newTestAuthService(t)

	token, err := s.GenerateAdminToken(3)
	if err != nil {
		t.Fatalf("GenerateAdminToken: %v", err)
	}

	if _, err := s.ValidateToken(token + "x"); err == nil {
		t.Fatal("tampered token validated")
	}

	claims, err := s.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.TokenType != TokenTypeAdmin || claims.UserID != 3 {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}
