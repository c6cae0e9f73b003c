package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/stockroom/internal/core/domain"
	"github.com/rl1809/stockroom/internal/port"
)

const defaultAuditTimeout = 2 * time.Second

// AuditLogger appends best-effort activity records. Record never returns an
// error; failures show up only in the diagnostic log.
type AuditLogger struct {
	logs    port.LogRepository
	log     logrus.FieldLogger
	timeout time.Duration
}

func NewAuditLogger(logs port.LogRepository, log logrus.FieldLogger, timeout time.Duration) *AuditLogger {
	if timeout <= 0 {
		timeout = defaultAuditTimeout
	}
	return &AuditLogger{logs: logs, log: log, timeout: timeout}
}

// Record runs under its own deadline so a caller that gives up on the
// request does not drop the entry for a write that already happened.
func (a *AuditLogger) Record(ctx context.Context, action domain.LogAction, itemName string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	defer cancel()

	if err := a.logs.AppendLog(ctx, action, itemName); err != nil {
		a.log.WithFields(logrus.Fields{
			"action": action,
			"item":   itemName,
		}).WithError(fmt.Errorf("%w: %w", ErrAuditLog, err)).Warn("audit log dropped")
		return
	}

	a.log.WithFields(logrus.Fields{"action": action, "item": itemName}).Debug("audit logged")
}
