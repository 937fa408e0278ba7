package models

// EventInfo is what the discovery phase knows about a promotional event
// before its per-theater availability has been fetched: the source event
// number plus the split title and the run dates as reported by the source.
type EventInfo struct {
	No         string `json:"no"`
	MovieTitle string `json:"movie_title"`
	EventTitle string `json:"event_title"`
	StartDate  string `json:"start_date"` // YYYYMMDD, may be empty
	EndDate    string `json:"end_date"`   // YYYYMMDD, may be empty
}

// DisplayTitle is the combined title stored on the events row.
func (e EventInfo) DisplayTitle() string {
	return e.MovieTitle + " - " + e.EventTitle
}

// Listing is one (theater name, status) pair as scraped from an event page.
// The status is free text from the source and is compared verbatim.
type Listing struct {
	Theater string `json:"theater"`
	Status  string `json:"status"`
}

// EventSnapshot is one event's full region -> theater -> status listing for
// a single collection run. It is the unit the merge step consumes; it is
// persisted only as part of the raw snapshot artifact, never as a DB entity.
type EventSnapshot struct {
	EventInfo
	EventNo string               `json:"event_no"`
	Regions map[string][]Listing `json:"regions"`
}
