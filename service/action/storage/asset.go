package storage

import "time"

// Asset represents a stored object
type Asset struct {
	URL     string    `json:"url"`
	Name    string    `json:"name"`
	Size    int64     `json:"size,omitempty"`
	ModTime time.Time `json:"modTime,omitempty"`
}
