package invert

import (
	"context"
	"time"
)

// InvertRequest is one uploaded image held in memory.
type InvertRequest struct {
	Filename string `json:"filename"`
	Data     []byte `json:"-"`
}

type InvertResponse struct {
	OriginalFile  string `json:"original_file"`
	ProcessedFile string `json:"processed_file"`
	OriginalURL   string `json:"original_url"`
	ProcessedURL  string `json:"processed_url"`
	Hash          string `json:"hash"`
	HashAlgorithm string `json:"hash_algorithm"`
	Policy        string `json:"policy"`
	CacheHit      bool   `json:"cache_hit"`
}

// StoredFile is a previously stored original or artifact.
type StoredFile struct {
	Name        string
	ContentType string
	Data        []byte
	ModTime     time.Time
}

type IInvertUsecase interface {
	// Process runs the whole upload pipeline: validation, retention sweep,
	// original persistence and the cached transform.
	Process(ctx context.Context, request InvertRequest) (InvertResponse, error)
	// Open returns a stored file by its exact name.
	Open(ctx context.Context, name string) (StoredFile, error)
}
