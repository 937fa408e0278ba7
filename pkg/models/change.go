package models

// ChangeRecord is one detected status transition for a (theater, event)
// pair. Exactly one is produced per pair per run when the merge step writes
// a new or different status; it feeds both the run log and the dispatcher.
type ChangeRecord struct {
	TheaterID   string
	TheaterName string
	EventID     string
	MovieTitle  string
	EventTitle  string
	OldStatus   string
	HasOld      bool
	NewStatus   string
}

// RunResult is the end-of-run summary. It is always produced, even for a
// zero-change run.
type RunResult struct {
	EventsProcessed int
	EventsFailed    int
	RowsSeen        int
	RowsSkipped     int // theater name not in reference data
	Changes         []ChangeRecord
	NotifySent      int
	NotifyTotal     int
}
