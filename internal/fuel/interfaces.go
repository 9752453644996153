package fuel

import (
	"context"
	"io"
)

// Cache records which raw files are already present locally.
type Cache interface {
	Exists(ctx context.Context, locator string) (bool, error)
	Write(ctx context.Context, locator string, data []byte) error
}

// Source enumerates and opens stored files.
type Source interface {
	// List returns the locators directly under dir whose name ends in ext, sorted.
	List(ctx context.Context, dir string, ext string) ([]string, error)
	Open(ctx context.Context, locator string) (io.ReadCloser, error)
}

// Store is the full storage surface used by the pipeline.
type Store interface {
	Cache
	Source
}

// Downloader fetches a remote file in a single attempt.
// Implementations return an error wrapping ErrResourceAbsent for missing files
// and a *TransferError for everything else.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewID() (string, error)
}
