package models

// Theater is reference data owned by the theater loader. The sync engine
// only ever reads it, to resolve scraped theater names to stable ids.
type Theater struct {
	ID      string  `json:"id"`
	Brand   string  `json:"brand"`
	Name    string  `json:"name"`
	Address string  `json:"address,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lng     float64 `json:"lng,omitempty"`
}
