package ports

import (
	"context"
	"errors"

	"github.com/act-community/steward/modules/contacts/domain/types"
)

// ErrNotFound is the store-level miss signal; callers above the port
// translate it into their own typed errors.
var ErrNotFound = errors.New("contact not found")

type ContactStore interface {
	Load(ctx context.Context, id string) (types.Contact, error)
	Save(ctx context.Context, contact types.Contact) (types.Contact, error)
	Query(ctx context.Context, predicate types.Predicate) ([]types.Contact, error)
}
