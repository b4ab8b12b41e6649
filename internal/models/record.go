package models

// UnknownDate is the placeholder used for Record.Date. None of the upstream
// sources report a timestamp for their payloads.
const UnknownDate = "unknown"

// Source identifies one upstream JSON endpoint.
type Source struct {
	URL  string `json:"url" yaml:"url"`
	Name string `json:"name" yaml:"name"`
}

// Record is the canonical shape every source response is normalized into.
type Record struct {
	Title   string `json:"title"`
	Date    string `json:"date"`
	Content string `json:"content"`
}
