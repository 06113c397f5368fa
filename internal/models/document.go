package models

import "time"

// TrackedDocument is an externally hosted spreadsheet whose modification time is polled.
type TrackedDocument struct {
	ID           string    `json:"id"` // external document identifier
	Title        string    `json:"title"`
	AddedAt      time.Time `json:"addedAt"`
	LastModified time.Time `json:"lastModified"`
	AddedBy      string    `json:"addedBy"` // employee email
}
