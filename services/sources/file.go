package sources

import (
	"context"
	"fmt"
	"os"
)

// FileSource reads a JSON or YAML batch document from disk on every fetch.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (*FileSource) Name() string { return "file" }

func (f *FileSource) FetchBatch(ctx context.Context) ([]RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	return Decode(data)
}
