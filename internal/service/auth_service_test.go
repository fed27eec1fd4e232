package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fieldhouse/coach-app/internal/domain"

	"github.com/golang-jwt/jwt/v4"
)

const testJWTSecret = "test-secret-key"

func newAuthService() (AuthService, *fakeUserRepo) {
	repo := newFakeUserRepo()
	return NewAuthService(repo, testJWTSecret, time.Hour), repo
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "Alice", "alice@example.com", "supersecret", domain.RoleAthlete)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.PasswordHash != "" {
		t.Error("registration response must not carry the password hash")
	}
	if user.Coach != nil {
		t.Error("athlete accounts must not get a coach profile")
	}

	token, loggedIn, err := svc.Login(ctx, "alice@example.com", "supersecret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Errorf("login returned user %s, want %s", loggedIn.ID.Hex(), user.ID.Hex())
	}

	claims := &jwtClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.UserID != user.ID.Hex() {
		t.Errorf("token uid = %s, want %s", claims.UserID, user.ID.Hex())
	}
	if claims.Role != domain.RoleAthlete {
		t.Errorf("token role = %s, want athlete", claims.Role)
	}
}

func TestRegisterCoachGetsProfile(t *testing.T) {
	svc, _ := newAuthService()

	user, err := svc.Register(context.Background(), "Bob", "bob@example.com", "supersecret", domain.RoleCoach)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Coach == nil {
		t.Fatal("coach accounts must start with an empty coach profile")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Alice", "alice@example.com", "supersecret", domain.RoleAthlete); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	_, err := svc.Register(ctx, "Other Alice", "alice@example.com", "differentpw", domain.RoleCoach)
	if !errors.Is(err, ErrUserAlreadyExists) {
		t.Fatalf("expected ErrUserAlreadyExists, got %v", err)
	}
}

func TestRegisterRefusesAdmin(t *testing.T) {
	svc, _ := newAuthService()

	_, err := svc.Register(context.Background(), "Eve", "eve@example.com", "supersecret", domain.RoleAdmin)
	if !errors.Is(err, ErrRoleNotRegisterable) {
		t.Fatalf("expected ErrRoleNotRegisterable, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Alice", "alice@example.com", "supersecret", domain.RoleAthlete); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, _, err := svc.Login(ctx, "alice@example.com", "wrongpassword")
	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
	}

	_, _, err = svc.Login(ctx, "nobody@example.com", "supersecret")
	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("unknown email: expected ErrAuthenticationFailed, got %v", err)
	}
}
