package model

import "time"

// UploadProgress tracks a chunked upload between requests.
type UploadProgress struct {
	Identifier     string       `json:"identifier"`
	Filename       string       `json:"filename"`
	TotalChunks    int          `json:"total_chunks"`
	UploadedChunks int          `json:"uploaded_chunks"`
	FileSize       int64        `json:"file_size"`
	Chunks         map[int]bool `json:"chunks"`
	CreatedAt      time.Time    `json:"created_at"`
}

func (p *UploadProgress) Complete() bool {
	return p.TotalChunks > 0 && p.UploadedChunks >= p.TotalChunks
}

// UploadedFile describes a stored upload.
type UploadedFile struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Path         string `json:"path"`
	Size         int64  `json:"size"`
	MimeType     string `json:"mime_type,omitempty"`
	DurationSec  int    `json:"duration_sec,omitempty"`
	ThumbnailURI string `json:"thumbnail_uri,omitempty"`
}
