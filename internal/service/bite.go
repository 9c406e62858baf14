// Package service contains the business logic layer: validation, the
// per-bite role checks, and the multi-table orchestration behind each API
// procedure. It knows nothing about HTTP; handlers translate its domain
// errors to status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/sakif/bite/internal/apperror"
	"github.com/sakif/bite/internal/cache"
	"github.com/sakif/bite/internal/model"
	"github.com/sakif/bite/internal/repository"
)

const (
	MaxBiteNameLength = 255
	MaxFileSize       = 1 << 20 // 1MB per file
	DefaultListLimit  = 20
	MaxListLimit      = 100

	biteIDLength   = 10
	biteIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	publicCachePrefix = "bites:public:"
	publicCacheTTL    = time.Minute
)

// BiteService implements every bites.* procedure.
type BiteService struct {
	bites  repository.BiteRepository
	users  repository.UserRepository
	cache  *cache.Cache
	logger *slog.Logger
}

// NewBiteService wires the service. cache may be nil (disabled).
func NewBiteService(bites repository.BiteRepository, users repository.UserRepository, c *cache.Cache, logger *slog.Logger) *BiteService {
	return &BiteService{
		bites:  bites,
		users:  users,
		cache:  c,
		logger: logger,
	}
}

// generateBiteID draws a 10-char identifier from the 62-symbol alphanumeric
// alphabet, one uniform choice per position. No existence check — the
// UNIQUE constraint on bite_id catches the astronomically unlikely
// collision at insert time.
func generateBiteID() string {
	var b strings.Builder
	b.Grow(biteIDLength)
	for i := 0; i < biteIDLength; i++ {
		b.WriteByte(biteIDAlphabet[rand.IntN(len(biteIDAlphabet))])
	}
	return b.String()
}

// CreateBiteParams is the input of the create procedure.
type CreateBiteParams struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Framework   string   `json:"framework"`
}

// Create persists a new bite with its five default files (index.html,
// style.css, script.js, README.md, bite.json), a metadata row at version
// 1.0.0, and an owner permission for the creator — all in one transaction.
func (s *BiteService) Create(ctx context.Context, userID int64, p CreateBiteParams) (*model.Bite, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "bite name is required")
	}
	if len(name) > MaxBiteNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("bite name must be %d characters or less", MaxBiteNameLength))
	}

	framework := p.Framework
	if framework == "" {
		framework = "vanilla"
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}

	bite := &model.Bite{
		BiteID:      generateBiteID(),
		Name:        name,
		Description: p.Description,
		CreatedBy:   userID,
		Tags:        tags,
		IsPublic:    1,
		Framework:   framework,
	}

	files, err := defaultFiles(name, p.Description, framework, tags)
	if err != nil {
		return nil, fmt.Errorf("building default files: %w", err)
	}

	meta := &model.BiteMetadata{
		Version:      "1.0.0",
		Dependencies: []string{},
	}
	perm := &model.BitePermission{
		UserID: userID,
		Role:   model.RoleOwner,
	}

	if err := s.bites.CreateWithDefaults(ctx, bite, files, meta, perm); err != nil {
		s.logger.Error("failed to create bite",
			slog.String("name", name),
			slog.Int64("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating bite: %w", err)
	}

	s.cache.DeletePrefix(ctx, publicCachePrefix)

	s.logger.Info("bite created",
		slog.String("biteId", bite.BiteID),
		slog.String("name", bite.Name),
		slog.Int64("userID", userID),
	)
	return bite, nil
}

// FileView is the projection of a file returned by GetByID: filename,
// content, and type only.
type FileView struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	FileType string `json:"fileType"`
}

// BiteDetail is the composite returned by the getById procedure.
type BiteDetail struct {
	model.Bite
	Files       []FileView             `json:"files"`
	Metadata    *model.BiteMetadata    `json:"metadata"`
	Permissions []model.BitePermission `json:"permissions"`
}

// GetByID returns a bite joined with its files, metadata, and raw
// permission rows. Public — no auth check. Returns ErrNotFound when the
// bite does not exist.
func (s *BiteService) GetByID(ctx context.Context, biteID string) (*BiteDetail, error) {
	biteID = strings.TrimSpace(biteID)
	if biteID == "" {
		return nil, apperror.ValidationFailed("biteId", "bite ID is required")
	}

	bite, err := s.bites.GetByID(ctx, biteID)
	if err != nil {
		return nil, err
	}

	files, err := s.bites.ListFiles(ctx, biteID)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	views := make([]FileView, 0, len(files))
	for _, f := range files {
		views = append(views, FileView{Filename: f.Filename, Content: f.Content, FileType: f.FileType})
	}

	// Metadata should always exist for a created bite, but a missing row is
	// not fatal to the read — it comes back as null.
	meta, err := s.bites.GetMetadata(ctx, biteID)
	if err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("getting metadata: %w", err)
	}

	perms, err := s.bites.ListPermissions(ctx, biteID)
	if err != nil {
		return nil, fmt.Errorf("listing permissions: %w", err)
	}

	return &BiteDetail{
		Bite:        *bite,
		Files:       views,
		Metadata:    meta,
		Permissions: perms,
	}, nil
}

// GetPublic lists public bites, newest first, with limit/offset paging.
// Pages are cached for a minute when Redis is configured.
func (s *BiteService) GetPublic(ctx context.Context, limit, offset int) ([]model.Bite, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	key := fmt.Sprintf("%s%d:%d", publicCachePrefix, limit, offset)
	var cached []model.Bite
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	bites, err := s.bites.ListPublic(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list public bites", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing public bites: %w", err)
	}

	s.cache.SetJSON(ctx, key, bites, publicCacheTTL)
	return bites, nil
}

// GetUserBites lists every bite created by the calling user.
func (s *BiteService) GetUserBites(ctx context.Context, userID int64) ([]model.Bite, error) {
	bites, err := s.bites.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list user bites",
			slog.Int64("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing user bites: %w", err)
	}
	return bites, nil
}

// UpdateBiteParams is the mutable-field whitelist of the update procedure.
// An empty Name or Description means "leave unchanged", not "clear" —
// longstanding editor behaviour that clients depend on. IsPublic uses a
// pointer so 0 (make private) is distinguishable from absent.
type UpdateBiteParams struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	IsPublic    *int     `json:"isPublic"`
}

// Update mutates a bite's name/description/tags/visibility.
// Requires the caller to hold owner or developer on the bite.
func (s *BiteService) Update(ctx context.Context, biteID string, userID int64, p UpdateBiteParams) error {
	if _, err := s.bites.GetByID(ctx, biteID); err != nil {
		return err
	}
	if err := s.authorize(ctx, biteID, userID, model.RoleOwner, model.RoleDeveloper); err != nil {
		return err
	}

	// Any non-empty name counts, whitespace included, and is stored
	// verbatim; only the empty string means "leave unchanged".
	var changes repository.BiteChanges
	if p.Name != "" {
		if len(p.Name) > MaxBiteNameLength {
			return apperror.ValidationFailed("name",
				fmt.Sprintf("bite name must be %d characters or less", MaxBiteNameLength))
		}
		changes.Name = &p.Name
	}
	if p.Description != "" {
		changes.Description = &p.Description
	}
	if p.Tags != nil {
		changes.Tags = p.Tags
	}
	if p.IsPublic != nil {
		if *p.IsPublic != 0 && *p.IsPublic != 1 {
			return apperror.ValidationFailed("isPublic", "isPublic must be 0 or 1")
		}
		changes.IsPublic = p.IsPublic
	}
	if changes.Empty() {
		return nil
	}

	if err := s.bites.Update(ctx, biteID, changes); err != nil {
		s.logger.Error("failed to update bite",
			slog.String("biteId", biteID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("updating bite: %w", err)
	}

	s.cache.DeletePrefix(ctx, publicCachePrefix)
	s.logger.Info("bite updated", slog.String("biteId", biteID), slog.Int64("userID", userID))
	return nil
}

// UpdateFile overwrites a file's content. Requires owner or developer.
func (s *BiteService) UpdateFile(ctx context.Context, biteID string, userID int64, filename, content string) error {
	if filename == "" {
		return apperror.ValidationFailed("filename", "filename is required")
	}
	if len(content) > MaxFileSize {
		return apperror.ValidationFailed("content",
			fmt.Sprintf("file content must be %d bytes or less", MaxFileSize))
	}
	if err := s.authorize(ctx, biteID, userID, model.RoleOwner, model.RoleDeveloper); err != nil {
		return err
	}

	if err := s.bites.UpdateFile(ctx, biteID, filename, content); err != nil {
		return err
	}
	s.logger.Info("file updated",
		slog.String("biteId", biteID),
		slog.String("filename", filename),
		slog.Int64("userID", userID),
	)
	return nil
}

// CreateFile adds a file to a bite (the upload path). Requires owner or
// developer. No filename-collision check: uploading an existing name adds
// another row, mirroring the editor's historical behaviour.
func (s *BiteService) CreateFile(ctx context.Context, biteID string, userID int64, filename, content, fileType string) error {
	if filename == "" {
		return apperror.ValidationFailed("filename", "filename is required")
	}
	if fileType == "" {
		return apperror.ValidationFailed("fileType", "file type is required")
	}
	if len(content) > MaxFileSize {
		return apperror.ValidationFailed("content",
			fmt.Sprintf("file content must be %d bytes or less", MaxFileSize))
	}
	if err := s.authorize(ctx, biteID, userID, model.RoleOwner, model.RoleDeveloper); err != nil {
		return err
	}

	file := &model.BiteFile{
		BiteID:   biteID,
		Filename: filename,
		Content:  content,
		FileType: fileType,
	}
	if err := s.bites.CreateFile(ctx, file); err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	s.logger.Info("file created",
		slog.String("biteId", biteID),
		slog.String("filename", filename),
		slog.Int64("userID", userID),
	)
	return nil
}

// DeleteFile removes a file. Stricter than update: owner only.
func (s *BiteService) DeleteFile(ctx context.Context, biteID string, userID int64, filename string) error {
	if filename == "" {
		return apperror.ValidationFailed("filename", "filename is required")
	}
	if err := s.authorize(ctx, biteID, userID, model.RoleOwner); err != nil {
		return err
	}

	if err := s.bites.DeleteFile(ctx, biteID, filename); err != nil {
		return err
	}
	s.logger.Info("file deleted",
		slog.String("biteId", biteID),
		slog.String("filename", filename),
		slog.Int64("userID", userID),
	)
	return nil
}

// AddCollaborator grants a role on a bite to another user. Owner only.
// Granting again to the same user updates their role in place.
func (s *BiteService) AddCollaborator(ctx context.Context, biteID string, callerID, targetUserID int64, role model.Role) error {
	if !role.Valid() {
		return apperror.ValidationFailed("role", "role must be owner, developer, or viewer")
	}
	if err := s.authorize(ctx, biteID, callerID, model.RoleOwner); err != nil {
		return err
	}

	perm := &model.BitePermission{
		BiteID: biteID,
		UserID: targetUserID,
		Role:   role,
	}
	if err := s.bites.AddPermission(ctx, perm); err != nil {
		return fmt.Errorf("adding collaborator: %w", err)
	}
	s.logger.Info("collaborator added",
		slog.String("biteId", biteID),
		slog.Int64("userID", targetUserID),
		slog.String("role", string(role)),
	)
	return nil
}

// RemoveCollaborator revokes a user's role on a bite. Owner only. Owners
// can remove themselves; the bite then has no owner, which is on them.
func (s *BiteService) RemoveCollaborator(ctx context.Context, biteID string, callerID, targetUserID int64) error {
	if err := s.authorize(ctx, biteID, callerID, model.RoleOwner); err != nil {
		return err
	}

	if err := s.bites.RemovePermission(ctx, biteID, targetUserID); err != nil {
		return err
	}
	s.logger.Info("collaborator removed",
		slog.String("biteId", biteID),
		slog.Int64("userID", targetUserID),
	)
	return nil
}

// PermissionWithUser is a permission row enriched with the user's profile.
// User is null when the referenced account no longer resolves.
type PermissionWithUser struct {
	model.BitePermission
	User *model.User `json:"user"`
}

// GetPermissions returns every permission row of a bite with the associated
// user profile attached. Public.
func (s *BiteService) GetPermissions(ctx context.Context, biteID string) ([]PermissionWithUser, error) {
	perms, err := s.bites.ListPermissions(ctx, biteID)
	if err != nil {
		return nil, fmt.Errorf("listing permissions: %w", err)
	}

	enriched := make([]PermissionWithUser, 0, len(perms))
	for _, p := range perms {
		user, err := s.users.GetUserByID(ctx, p.UserID)
		if err != nil {
			if !isNotFound(err) {
				return nil, fmt.Errorf("looking up user %d: %w", p.UserID, err)
			}
			user = nil
		}
		enriched = append(enriched, PermissionWithUser{BitePermission: p, User: user})
	}
	return enriched, nil
}

// RecordDownload bumps the download counter. Best-effort from the share
// page; callers log failures rather than failing the render.
func (s *BiteService) RecordDownload(ctx context.Context, biteID string) error {
	return s.bites.IncrementDownloads(ctx, biteID)
}

// authorize is the single role guard behind every mutating procedure:
// fetch the bite's permission rows, find the caller's, compare against the
// allowed set. No row at all means forbidden.
func (s *BiteService) authorize(ctx context.Context, biteID string, userID int64, allowed ...model.Role) error {
	perms, err := s.bites.ListPermissions(ctx, biteID)
	if err != nil {
		return fmt.Errorf("checking permissions: %w", err)
	}
	for _, p := range perms {
		if p.UserID != userID {
			continue
		}
		for _, role := range allowed {
			if p.Role == role {
				return nil
			}
		}
	}
	return apperror.Forbidden("you do not have permission to modify this bite")
}

func isNotFound(err error) bool {
	return errors.Is(err, apperror.ErrNotFound)
}
