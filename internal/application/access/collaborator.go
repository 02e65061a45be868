// Package access grants and revokes GitHub collaborator permissions on
// behalf of completed purchases.
package access

import "context"

// CollaboratorAPI is the minimal GitHub surface the grant service needs.
// Implemented by infrastructure/github over the REST API.
type CollaboratorAPI interface {
	// CheckUserExists reports whether the username resolves to a GitHub
	// account.
	CheckUserExists(ctx context.Context, username string) (bool, error)

	// AddCollaborator invites username to owner/repo with the given
	// permission ("pull" for read access).
	AddCollaborator(ctx context.Context, owner, repo, username, permission string) error

	// RemoveCollaborator removes username from owner/repo. Removing a
	// user who is not a collaborator is not an error.
	RemoveCollaborator(ctx context.Context, owner, repo, username string) error
}
