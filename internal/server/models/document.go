// Package models defines the records persisted by the server.
package models

import "time"

// Document is one uploaded PDF. The bytes live in object storage under
// FilePath; the row carries the metadata and the download counter.
type Document struct {
	ID            string    `json:"id"`
	Year          int       `json:"year"`
	Subject       string    `json:"subject"`
	Title         string    `json:"title"`
	FilePath      string    `json:"file_path"`
	FileSize      int64     `json:"file_size"`
	DownloadCount int64     `json:"download_count"`
	CreatedAt     time.Time `json:"created_at"`
	OwnerID       string    `json:"owner_id"`
}
