package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/bite/internal/apperror"
	"github.com/sakif/bite/internal/model"
)

func TestUnavailable_ReadsDegradeToEmpty(t *testing.T) {
	repo := Unavailable{}
	ctx := context.Background()

	bites, err := repo.ListPublic(ctx, 20, 0)
	if err != nil || len(bites) != 0 {
		t.Errorf("ListPublic() = %v, %v; want empty, nil", bites, err)
	}

	files, err := repo.ListFiles(ctx, "abc123XYZ0")
	if err != nil || len(files) != 0 {
		t.Errorf("ListFiles() = %v, %v; want empty, nil", files, err)
	}

	_, err = repo.GetByID(ctx, "abc123XYZ0")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestUnavailable_WritesFailLoudly(t *testing.T) {
	repo := Unavailable{}
	ctx := context.Background()

	err := repo.UpdateFile(ctx, "abc123XYZ0", "index.html", "x")
	if !errors.Is(err, apperror.ErrUnavailable) {
		t.Errorf("UpdateFile() error = %v, want ErrUnavailable", err)
	}
	if errors.Is(err, apperror.ErrNotFound) {
		t.Error("write failure must not look like not-found")
	}

	err = repo.AddPermission(ctx, &model.BitePermission{})
	if !errors.Is(err, apperror.ErrUnavailable) {
		t.Errorf("AddPermission() error = %v, want ErrUnavailable", err)
	}

	_, err = repo.Upsert(ctx, UserUpsert{GitHubID: 1})
	if !errors.Is(err, apperror.ErrUnavailable) {
		t.Errorf("Upsert() error = %v, want ErrUnavailable", err)
	}
}
