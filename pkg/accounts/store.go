package accounts

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"resdex/pkg/problems"
)

var (
	// ErrNotFound: no record for the id.
	ErrNotFound = fmt.Errorf("account not found: %w", problems.ErrNotFound)
	// ErrDeleted: record exists but was soft-deleted. Callers treat it the
	// same as not found; the distinction only matters for audit logging.
	ErrDeleted = fmt.Errorf("account deleted: %w", problems.ErrNotFound)
	// ErrExists: create collided with an existing id.
	ErrExists = fmt.Errorf("account already exists")
)

// Store is the tenant store: point lookups by account id plus the
// provisioning and access-grant operations the dashboard needs. This core
// only ever reads through Get; writes belong to provisioning flows.
type Store interface {
	Get(ctx context.Context, id string) (Account, error)
	Create(ctx context.Context, a Account, by uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]Account, error)
	SoftDelete(ctx context.Context, id string, by uuid.UUID) error
	GrantAccess(ctx context.Context, userID uuid.UUID, accountID string) error
	HasAccess(ctx context.Context, userID uuid.UUID, accountID string) (bool, error)
}
