package service

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/sakif/bite/internal/model"
	"github.com/sakif/bite/internal/repository/sqlite"
)

func newTestAuthService(t *testing.T, ownerGitHubID int64) (*AuthService, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewAuthService(db, ownerGitHubID, logger), db
}

func TestHandleCallbackCreatesUser(t *testing.T) {
	svc, _ := newTestAuthService(t, 0)

	user, err := svc.HandleCallback(context.Background(), GitHubProfile{
		ID:        42,
		Name:      "Octocat",
		Email:     "octo@example.com",
		AvatarURL: "https://example.com/octo.png",
	})
	if err != nil {
		t.Fatalf("HandleCallback returned error: %v", err)
	}
	if user.GitHubID != 42 {
		t.Errorf("expected github ID 42, got %d", user.GitHubID)
	}
	if user.Name != "Octocat" {
		t.Errorf("expected name Octocat, got %q", user.Name)
	}
	if user.LoginMethod != "github" {
		t.Errorf("expected login method github, got %q", user.LoginMethod)
	}
	if user.Role != model.UserRoleUser {
		t.Errorf("expected default site role user, got %q", user.Role)
	}
	if user.LastSignedIn.IsZero() {
		t.Error("expected LastSignedIn to be stamped")
	}
}

func TestHandleCallbackUpdatesExistingUser(t *testing.T) {
	svc, _ := newTestAuthService(t, 0)
	ctx := context.Background()

	first, err := svc.HandleCallback(ctx, GitHubProfile{ID: 42, Name: "Old Name"})
	if err != nil {
		t.Fatalf("HandleCallback returned error: %v", err)
	}

	second, err := svc.HandleCallback(ctx, GitHubProfile{ID: 42, Name: "New Name"})
	if err != nil {
		t.Fatalf("HandleCallback returned error: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected same user row, got %d and %d", first.ID, second.ID)
	}
	if second.Name != "New Name" {
		t.Errorf("expected updated name, got %q", second.Name)
	}
}

func TestHandleCallbackPromotesOwnerToAdmin(t *testing.T) {
	svc, _ := newTestAuthService(t, 42)
	ctx := context.Background()

	owner, err := svc.HandleCallback(ctx, GitHubProfile{ID: 42, Name: "Site Owner"})
	if err != nil {
		t.Fatalf("HandleCallback returned error: %v", err)
	}
	if owner.Role != model.UserRoleAdmin {
		t.Errorf("expected owner account promoted to admin, got %q", owner.Role)
	}

	regular, err := svc.HandleCallback(ctx, GitHubProfile{ID: 43, Name: "Somebody"})
	if err != nil {
		t.Fatalf("HandleCallback returned error: %v", err)
	}
	if regular.Role != model.UserRoleUser {
		t.Errorf("expected non-owner to stay a user, got %q", regular.Role)
	}
}

func TestGetUserLoadsStoredProfile(t *testing.T) {
	svc, _ := newTestAuthService(t, 0)
	ctx := context.Background()

	created, err := svc.HandleCallback(ctx, GitHubProfile{ID: 7, Name: "Seven"})
	if err != nil {
		t.Fatalf("HandleCallback returned error: %v", err)
	}

	got, err := svc.GetUser(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetUser returned error: %v", err)
	}
	if got.GitHubID != 7 || got.Name != "Seven" {
		t.Errorf("unexpected profile: %+v", got)
	}
}
