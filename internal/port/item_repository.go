package port

import (
	"context"
	"errors"

	"github.com/rl1809/stockroom/internal/core/domain"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrOptimisticLock   = errors.New("optimistic lock conflict")
	ErrDuplicateBarcode = errors.New("duplicate barcode")
)

type ItemRepository interface {
	// FindByBarcode returns the item stored under the exact barcode, or nil if none
	FindByBarcode(ctx context.Context, barcode string) (*domain.Item, error)

	// InsertItem stores a new item and returns it with its store-assigned ID and timestamps.
	// Returns ErrDuplicateBarcode if the barcode is already taken
	InsertItem(ctx context.Context, item domain.Item) (*domain.Item, error)

	// AddQuantity adds delta to the quantity if the stored version still equals version.
	// Returns ErrOptimisticLock on a version mismatch and ErrNotFound if the item is gone
	AddQuantity(ctx context.Context, id string, delta, version int) (*domain.Item, error)

	// UpdateItem overwrites the patched fields and stamps the update time
	UpdateItem(ctx context.Context, id string, patch domain.ItemPatch) error

	// DeleteItem removes the item permanently, ErrNotFound if absent
	DeleteItem(ctx context.Context, id string) error

	// ListItems returns every stored item as persisted, without listing defaults
	ListItems(ctx context.Context) ([]domain.Item, error)

	// ListItemsAtOrBelow returns items whose quantity is <= threshold
	ListItemsAtOrBelow(ctx context.Context, threshold int) ([]domain.Item, error)
}
