package domain

// DefaultGoodsIDMapping pins early identities to fixed sequence numbers.
var DefaultGoodsIDMapping = map[int64]int64{
	999999:  0,
	1020698: 1,
	1044526: 2,
}

// BackfillResult summarizes a sequence-number backfill.
type BackfillResult struct {
	Count   int    `json:"count"`
	LastID  int64  `json:"lastId,omitempty"`
	Message string `json:"message,omitempty"`
}

// RemoveFieldResult summarizes a legacy field removal.
type RemoveFieldResult struct {
	Field   string `json:"field"`
	Removed int    `json:"removed"`
	Scanned int    `json:"scanned"`
}

// ResetResult summarizes a sequence-number reset.
type ResetResult struct {
	ManualAssignments int   `json:"manualAssignments"`
	AutoAssignments   int   `json:"autoAssignments"`
	TotalUsers        int   `json:"totalUsers"`
	MaxID             int64 `json:"maxId"`
}

// NotificationRunResult summarizes a daily notification run.
type NotificationRunResult struct {
	Success      bool  `json:"success"`
	SentCount    int64 `json:"sentCount"`
	TotalEnabled int   `json:"totalEnabled"`
	Skipped      int64 `json:"skipped"`
}
