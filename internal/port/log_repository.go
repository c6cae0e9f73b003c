package port

import (
	"context"

	"github.com/rl1809/stockroom/internal/core/domain"
)

type LogRepository interface {
	// AppendLog stores an audit entry stamped with the store's clock
	AppendLog(ctx context.Context, action domain.LogAction, itemName string) error

	// ListLogs returns the most recent entries first, at most limit of them
	ListLogs(ctx context.Context, limit int) ([]domain.LogEntry, error)
}

// Store is a backend serving both items and audit logs.
type Store interface {
	ItemRepository
	LogRepository
	Close() error
}
