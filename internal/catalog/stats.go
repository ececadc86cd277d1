package catalog

import (
	"fmt"

	"github.com/dmitrijs2005/studyshelf/internal/server/models"
)

// FormatFileSize renders a byte count as B, KB or MB with one decimal.
func FormatFileSize(bytes int64) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	}
}

// Stats summarises one owner's uploads for the profile page.
type Stats struct {
	TotalUploads   int    `json:"total_uploads"`
	TotalDownloads int64  `json:"total_downloads"`
	TotalFileSize  int64  `json:"total_file_size"`
	FormattedSize  string `json:"formatted_size"`
}

func SummarizeOwner(docs []models.Document) Stats {
	s := Stats{TotalUploads: len(docs)}
	for _, d := range docs {
		s.TotalDownloads += d.DownloadCount
		s.TotalFileSize += d.FileSize
	}
	s.FormattedSize = FormatFileSize(s.TotalFileSize)
	return s
}
