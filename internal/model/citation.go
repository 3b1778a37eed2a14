package model

// Citation is a uniquely numbered reference to a source, shared across
// the whole document. Ids are assigned in strictly increasing order of
// first appearance and are never reused or gapped.
type Citation struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	URL           string `json:"url"`
	Publisher     string `json:"publisher,omitempty"`
	PublishedDate string `json:"published_date,omitempty"`
	UpdatedDate   string `json:"updated_date,omitempty"`
}
