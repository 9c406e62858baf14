package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/bite/internal/model"
	"github.com/sakif/bite/internal/repository"
)

// AuthService handles the sign-in side effects: upserting the user row
// after a successful GitHub OAuth exchange and loading the profile behind
// the me endpoint.
type AuthService struct {
	users         repository.UserRepository
	ownerGitHubID int64
	logger        *slog.Logger
}

// NewAuthService wires the service. ownerGitHubID, when non-zero, names the
// GitHub account that is promoted to the admin site role on every sign-in.
func NewAuthService(users repository.UserRepository, ownerGitHubID int64, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:         users,
		ownerGitHubID: ownerGitHubID,
		logger:        logger,
	}
}

// GitHubProfile is the subset of the GitHub user payload the app keeps.
type GitHubProfile struct {
	ID        int64
	Name      string
	Email     string
	AvatarURL string
}

// HandleCallback upserts the signed-in user keyed by GitHub account ID and
// returns the stored row. Existing users keep their site role unless they
// are the configured owner account, which is promoted to admin.
func (s *AuthService) HandleCallback(ctx context.Context, profile GitHubProfile) (*model.User, error) {
	loginMethod := "github"
	now := time.Now().UTC()

	upsert := repository.UserUpsert{
		GitHubID:     profile.ID,
		Name:         &profile.Name,
		Email:        &profile.Email,
		LoginMethod:  &loginMethod,
		AvatarURL:    &profile.AvatarURL,
		LastSignedIn: &now,
	}
	if s.ownerGitHubID != 0 && profile.ID == s.ownerGitHubID {
		admin := model.UserRoleAdmin
		upsert.Role = &admin
	}

	user, err := s.users.Upsert(ctx, upsert)
	if err != nil {
		s.logger.Error("failed to upsert user",
			slog.Int64("githubID", profile.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("upserting user: %w", err)
	}

	s.logger.Info("user signed in",
		slog.Int64("userID", user.ID),
		slog.Int64("githubID", user.GitHubID),
	)
	return user, nil
}

// GetUser loads a user by internal ID.
func (s *AuthService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.users.GetUserByID(ctx, id)
}
