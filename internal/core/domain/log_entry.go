package domain

import "time"

type LogAction string

const (
	LogActionAdded     LogAction = "added"
	LogActionRestocked LogAction = "restocked"
	LogActionUpdated   LogAction = "updated"
	LogActionDeleted   LogAction = "deleted"
)

// LogEntry is an append-only audit record. ItemName is a snapshot of the
// name at the time of the action, not a reference to the item.
type LogEntry struct {
	ID        string
	Action    LogAction
	ItemName  string
	Timestamp time.Time
}
