package repository

import (
	"context"

	"github.com/sakif/bite/internal/apperror"
	"github.com/sakif/bite/internal/model"
)

// Unavailable implements both repository interfaces for a process that has
// no working database. Reads degrade to empty results (a caller cannot
// tell "no rows" from "no database", which is the contract listings rely
// on) while every write fails loudly with apperror.ErrUnavailable.
//
// The server installs this when the SQLite file cannot be opened, so the
// public read surface stays up instead of the process crashing.
type Unavailable struct{}

var (
	_ UserRepository = Unavailable{}
	_ BiteRepository = Unavailable{}
)

func (Unavailable) Upsert(context.Context, UserUpsert) (*model.User, error) {
	return nil, apperror.Unavailable("upsert user")
}

func (Unavailable) GetUserByID(context.Context, int64) (*model.User, error) {
	return nil, apperror.NotFound("user", "")
}

func (Unavailable) GetUserByGitHubID(context.Context, int64) (*model.User, error) {
	return nil, apperror.NotFound("user", "")
}

func (Unavailable) CreateWithDefaults(context.Context, *model.Bite, []model.BiteFile, *model.BiteMetadata, *model.BitePermission) error {
	return apperror.Unavailable("create bite")
}

func (Unavailable) GetByID(_ context.Context, biteID string) (*model.Bite, error) {
	return nil, apperror.NotFound("bite", biteID)
}

func (Unavailable) ListPublic(context.Context, int, int) ([]model.Bite, error) {
	return []model.Bite{}, nil
}

func (Unavailable) ListByUser(context.Context, int64) ([]model.Bite, error) {
	return []model.Bite{}, nil
}

func (Unavailable) Update(context.Context, string, BiteChanges) error {
	return apperror.Unavailable("update bite")
}

func (Unavailable) IncrementDownloads(context.Context, string) error {
	return apperror.Unavailable("count download")
}

func (Unavailable) CreateFile(context.Context, *model.BiteFile) error {
	return apperror.Unavailable("create file")
}

func (Unavailable) ListFiles(context.Context, string) ([]model.BiteFile, error) {
	return []model.BiteFile{}, nil
}

func (Unavailable) UpdateFile(context.Context, string, string, string) error {
	return apperror.Unavailable("update file")
}

func (Unavailable) DeleteFile(context.Context, string, string) error {
	return apperror.Unavailable("delete file")
}

func (Unavailable) GetMetadata(_ context.Context, biteID string) (*model.BiteMetadata, error) {
	return nil, apperror.NotFound("bite metadata", biteID)
}

func (Unavailable) AddPermission(context.Context, *model.BitePermission) error {
	return apperror.Unavailable("add permission")
}

func (Unavailable) ListPermissions(context.Context, string) ([]model.BitePermission, error) {
	return []model.BitePermission{}, nil
}

func (Unavailable) RemovePermission(context.Context, string, int64) error {
	return apperror.Unavailable("remove permission")
}
