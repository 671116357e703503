package services

import (
	"context"
	"errors"
	"net/http"

	"famstore/models"
	"famstore/repositories"

	"gorm.io/gorm"
)

// ParentRef is the tagged form of a client-supplied parent reference.
// Handlers parse the wire value once; below that layer there are no
// sentinel strings.
type ParentRef struct {
	ID   string
	Root bool
}

// ParseParentRef maps the wire encoding to a ParentRef: an empty value
// or the literal "root" means the caller's root folder.
func ParseParentRef(raw string) ParentRef {
	if raw == "" || raw == "root" {
		return ParentRef{Root: true}
	}
	return ParentRef{ID: raw}
}

type parentResolver struct {
	users repositories.UserRepository
	items repositories.ItemRepository
}

// resolve turns a ParentRef into the id of an existing folder item
// owned by the caller. A reference that points at a missing item, an
// item of another owner, or a file yields an invalid-parent error with
// nothing written.
func (r parentResolver) resolve(ctx context.Context, tx *gorm.DB, ownerID string, parent ParentRef) (string, error) {
	if parent.Root {
		user, err := r.users.GetByID(ctx, tx, ownerID)
		if err != nil {
			return "", newAppError(http.StatusInternalServerError, "failed to load user", err)
		}
		return user.RootFolderID, nil
	}

	item, err := r.items.GetByIDAndOwner(ctx, tx, parent.ID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", newAppError(http.StatusBadRequest, "parent folder does not exist", nil)
		}
		return "", newAppError(http.StatusInternalServerError, "failed to resolve parent folder", err)
	}
	if item.Kind != models.ItemKindFolder {
		return "", newAppError(http.StatusBadRequest, "parent is not a folder", nil)
	}
	return item.ID, nil
}
