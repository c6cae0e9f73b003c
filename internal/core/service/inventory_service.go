package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/stockroom/internal/core/domain"
	"github.com/rl1809/stockroom/internal/port"
)

const DefaultMergeRetries = 10

type AddResult struct {
	Item    domain.Item
	Created bool
}

type InventoryService struct {
	items      port.ItemRepository
	audit      *AuditLogger
	log        logrus.FieldLogger
	maxRetries int
}

func NewInventoryService(items port.ItemRepository, audit *AuditLogger, log logrus.FieldLogger, maxRetries int) *InventoryService {
	if maxRetries <= 0 {
		maxRetries = DefaultMergeRetries
	}
	return &InventoryService{
		items:      items,
		audit:      audit,
		log:        log,
		maxRetries: maxRetries,
	}
}

// AddOrMerge inserts the item, or adds its quantity to the item already
// stored under the same normalized barcode. The merge is a compare-and-set
// on the stored version, retried when another writer got there first.
func (s *InventoryService) AddOrMerge(ctx context.Context, item domain.Item) (AddResult, error) {
	item.Barcode = domain.NormalizeBarcode(item.Barcode)
	if item.Barcode == "" {
		return AddResult{}, fmt.Errorf("%w: barcode is required", ErrInvalidItem)
	}
	if item.Quantity < 0 {
		return AddResult{}, fmt.Errorf("%w: quantity must not be negative", ErrInvalidItem)
	}

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		existing, err := s.items.FindByBarcode(ctx, item.Barcode)
		if err != nil {
			return AddResult{}, fmt.Errorf("%w: find item: %w", ErrStorage, err)
		}

		if existing == nil {
			created, err := s.items.InsertItem(ctx, item)
			if errors.Is(err, port.ErrDuplicateBarcode) {
				s.log.WithFields(logrus.Fields{"barcode": item.Barcode, "attempt": attempt}).Debug("concurrent insert, retrying as merge")
				continue
			}
			if err != nil {
				return AddResult{}, fmt.Errorf("%w: insert item: %w", ErrStorage, err)
			}

			s.log.WithField("barcode", created.Barcode).Info("added new item")
			s.audit.Record(ctx, domain.LogActionAdded, created.Name)
			return AddResult{Item: *created, Created: true}, nil
		}

		merged, err := s.items.AddQuantity(ctx, existing.ID, item.Quantity, existing.Version)
		if errors.Is(err, port.ErrOptimisticLock) || errors.Is(err, port.ErrNotFound) {
			s.log.WithFields(logrus.Fields{"barcode": item.Barcode, "attempt": attempt}).Debug("stale version, retrying merge")
			continue
		}
		if err != nil {
			return AddResult{}, fmt.Errorf("%w: merge quantity: %w", ErrStorage, err)
		}

		s.log.WithFields(logrus.Fields{"barcode": merged.Barcode, "quantity": merged.Quantity}).Info("merged quantity")
		s.audit.Record(ctx, domain.LogActionRestocked, merged.Name)
		return AddResult{Item: *merged, Created: false}, nil
	}

	return AddResult{}, fmt.Errorf("%w: barcode %s after %d attempts", ErrConflict, item.Barcode, s.maxRetries)
}

// UpdateByBarcode overwrites the patched fields of the item stored under
// the exact barcode given.
func (s *InventoryService) UpdateByBarcode(ctx context.Context, barcode string, patch domain.ItemPatch) error {
	if patch.Quantity != nil && *patch.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", ErrInvalidItem)
	}

	existing, err := s.find(ctx, barcode)
	if err != nil {
		return err
	}

	if err := s.items.UpdateItem(ctx, existing.ID, patch); err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return fmt.Errorf("%w: barcode %s", ErrNotFound, barcode)
		}
		return fmt.Errorf("%w: update item: %w", ErrStorage, err)
	}

	s.log.WithField("barcode", barcode).Info("updated item")
	s.audit.Record(ctx, domain.LogActionUpdated, existing.Name)
	return nil
}

func (s *InventoryService) DeleteByBarcode(ctx context.Context, barcode string) (bool, error) {
	existing, err := s.find(ctx, barcode)
	if err != nil {
		return false, err
	}

	if err := s.items.DeleteItem(ctx, existing.ID); err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return false, fmt.Errorf("%w: barcode %s", ErrNotFound, barcode)
		}
		return false, fmt.Errorf("%w: delete item: %w", ErrStorage, err)
	}

	s.log.WithField("barcode", barcode).Info("deleted item")
	s.audit.Record(ctx, domain.LogActionDeleted, existing.Name)
	return true, nil
}

func (s *InventoryService) GetByBarcode(ctx context.Context, barcode string) (domain.Item, error) {
	item, err := s.find(ctx, barcode)
	if err != nil {
		return domain.Item{}, err
	}
	return item.WithDefaults(), nil
}

// ListAll never fails: a storage error yields an empty list.
func (s *InventoryService) ListAll(ctx context.Context) []domain.Item {
	items, err := s.items.ListItems(ctx)
	if err != nil {
		s.log.WithError(err).Error("list items failed")
		return []domain.Item{}
	}
	return withDefaults(items)
}

// ListLowStock returns items at or below threshold; a negative threshold
// falls back to domain.LowStockThreshold. Never fails, like ListAll.
func (s *InventoryService) ListLowStock(ctx context.Context, threshold int) []domain.Item {
	if threshold < 0 {
		threshold = domain.LowStockThreshold
	}

	items, err := s.items.ListItemsAtOrBelow(ctx, threshold)
	if err != nil {
		s.log.WithError(err).WithField("threshold", threshold).Error("list low stock failed")
		return []domain.Item{}
	}
	return withDefaults(items)
}

func (s *InventoryService) Search(ctx context.Context, term string) []domain.Item {
	all := s.ListAll(ctx)

	matched := make([]domain.Item, 0, len(all))
	for _, item := range all {
		if item.Matches(term) {
			matched = append(matched, item)
		}
	}
	return matched
}

func (s *InventoryService) find(ctx context.Context, barcode string) (*domain.Item, error) {
	item, err := s.items.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, fmt.Errorf("%w: find item: %w", ErrStorage, err)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: barcode %s", ErrNotFound, barcode)
	}
	return item, nil
}

func withDefaults(items []domain.Item) []domain.Item {
	out := make([]domain.Item, len(items))
	for i, item := range items {
		out[i] = item.WithDefaults()
	}
	return out
}
