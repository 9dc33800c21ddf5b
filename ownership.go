package auth

import (
	"github.com/google/uuid"
)

// Owned is implemented by resources that record their owning user
type Owned interface {
	OwnerID() uuid.UUID
}

// AuthorizeOwner allows the mutation only when actorID is the owner
func AuthorizeOwner(actorID, ownerID uuid.UUID) error {
	if actorID == uuid.Nil || actorID != ownerID {
		return ErrForbidden.WithMetadata(map[string]any{
			"actor_id": actorID.String(),
			"owner_id": ownerID.String(),
		})
	}
	return nil
}

// AuthorizeResource applies AuthorizeOwner to the resource's owner
func AuthorizeResource(actorID uuid.UUID, resource Owned) error {
	if resource == nil {
		return ErrNotFound
	}
	return AuthorizeOwner(actorID, resource.OwnerID())
}
