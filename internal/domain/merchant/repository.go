package merchant

import "context"

// CredentialsRepository loads and stores per-merchant provider credentials.
// Implementations are responsible for the encrypt-at-rest boundary; domain
// code only ever sees decrypted Credentials values.
type CredentialsRepository interface {
	// GetByOwnerID returns the credentials configured by the given
	// repository owner. A zero Credentials value with nil error means the
	// owner has not configured a provider.
	GetByOwnerID(ctx context.Context, ownerID uint) (Credentials, error)

	// Save persists (encrypting) the credentials for the owner,
	// replacing any previous provider configuration.
	Save(ctx context.Context, ownerID uint, creds Credentials) error

	// Delete removes the owner's provider configuration.
	Delete(ctx context.Context, ownerID uint) error
}
