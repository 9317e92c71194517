package model

import "time"

// StoredFile describes one uploaded archive held by the content store.
// Stored files are immutable once written; Name is the key the email index points at.
type StoredFile struct {
	Name         string    `json:"fileName"`
	OriginalName string    `json:"originalName"`
	Path         string    `json:"filePath"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"contentType"`
	CreatedAt    time.Time `json:"createdAt"`
}
