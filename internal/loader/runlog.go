package loader

import (
	"fmt"
	"strings"
	"time"

	"cinewatch/pkg/models"
)

const logTimeLayout = "20060102_150405"

// FormatChange renders one audit line:
//
//	[20260101_090000] Movie A | Yongsan | [AVAILABLE]→[SOLDOUT]
//
// First sightings use a "newly registered" marker instead of the arrow.
func FormatChange(c models.ChangeRecord, at time.Time) string {
	diff := fmt.Sprintf("[%s]→[%s]", c.OldStatus, c.NewStatus)
	if !c.HasOld {
		diff = fmt.Sprintf("[newly registered: %s]", c.NewStatus)
	}
	return fmt.Sprintf("[%s] %s | %s | %s", at.Format(logTimeLayout), c.MovieTitle, c.TheaterName, diff)
}

// BuildRunLog renders the whole run's change log. A zero-change run still
// produces a single "no changes" line so the artifact always exists.
func BuildRunLog(changes []models.ChangeRecord, at time.Time) string {
	if len(changes) == 0 {
		return fmt.Sprintf("[%s] no changes (store already up to date)\n", at.Format(logTimeLayout))
	}

	var b strings.Builder
	for _, c := range changes {
		b.WriteString(FormatChange(c, at))
		b.WriteByte('\n')
	}
	return b.String()
}
