package loader

// Classification is the outcome of comparing an incoming status against
// the stored one for a (theater, event) pair.
type Classification int

const (
	// Unchanged: stored status equals the incoming one, nothing to do.
	Unchanged Classification = iota
	// NewRow: no row exists yet for the pair.
	NewRow
	// Changed: a row exists with a different status.
	Changed
)

func (c Classification) String() string {
	switch c {
	case Unchanged:
		return "unchanged"
	case NewRow:
		return "new"
	case Changed:
		return "changed"
	default:
		return "unknown"
	}
}

// Classify compares statuses by exact string equality. Both NewRow and
// Changed trigger a write and a notification; only Unchanged suppresses
// them.
func Classify(oldStatus string, hasOld bool, newStatus string) Classification {
	switch {
	case !hasOld:
		return NewRow
	case oldStatus == newStatus:
		return Unchanged
	default:
		return Changed
	}
}
