package runstore

import "time"

// Status is the lifecycle of one menu within a run.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusNoButtons  Status = "no_buttons"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusNoButtons,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// IsValidStatus reports whether value is a known menu status.
func IsValidStatus(value Status) bool {
	_, ok := statusSet[value]
	return ok
}

// MenuRun is one menu's processing record within a run.
type MenuRun struct {
	ID            int64
	RunID         string
	MenuID        string
	Status        Status
	PageCount     int
	RectCount     int
	FallbackCount int
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Summary aggregates menu counts per lifecycle state for one run.
type Summary struct {
	Total     int
	Pending   int
	Completed int
	NoButtons int
	Failed    int
}
