// Package export writes analysis snapshots to their destinations: plain
// JSON files, snappy-compressed files, or an S3 bucket.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/snappy"

	"github.com/dd0wney/cluso-transit/pkg/analysis"
	"github.com/dd0wney/cluso-transit/pkg/logging"
	"github.com/dd0wney/cluso-transit/pkg/metrics"
)

// Exporter publishes one snapshot to one destination.
type Exporter interface {
	// Name identifies the destination in logs and metrics.
	Name() string

	// Export writes the snapshot.
	Export(ctx context.Context, snapshot *analysis.Snapshot) error
}

// FileExporter writes the snapshot as indented JSON to a file.
type FileExporter struct {
	Path   string
	logger logging.Logger
}

// NewFileExporter creates a plain JSON file exporter.
func NewFileExporter(path string) *FileExporter {
	return &FileExporter{Path: path, logger: logging.DefaultLogger()}
}

func (e *FileExporter) Name() string { return "file" }

func (e *FileExporter) Export(ctx context.Context, snapshot *analysis.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := snapshot.Encode()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := writeAtomic(e.Path, data); err != nil {
		return err
	}
	e.logger.Info("snapshot exported",
		logging.Component("export"),
		logging.RunID(snapshot.RunID),
		logging.Path(e.Path),
		logging.Int("bytes", len(data)),
	)
	return nil
}

// CompressedFileExporter writes the snapshot as snappy-compressed JSON,
// conventionally with a .json.sz extension.
type CompressedFileExporter struct {
	Path   string
	logger logging.Logger
}

// NewCompressedFileExporter creates a snappy-compressed file exporter.
func NewCompressedFileExporter(path string) *CompressedFileExporter {
	return &CompressedFileExporter{Path: path, logger: logging.DefaultLogger()}
}

func (e *CompressedFileExporter) Name() string { return "compressed_file" }

func (e *CompressedFileExporter) Export(ctx context.Context, snapshot *analysis.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := snapshot.Encode()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	compressed := snappy.Encode(nil, data)
	if err := writeAtomic(e.Path, compressed); err != nil {
		return err
	}
	e.logger.Info("snapshot exported",
		logging.Component("export"),
		logging.RunID(snapshot.RunID),
		logging.Path(e.Path),
		logging.Int("bytes", len(compressed)),
		logging.Int("uncompressed_bytes", len(data)),
	)
	return nil
}

// ReadCompressed reads back a snappy-compressed snapshot file, mainly for
// downstream consumers and tests.
func ReadCompressed(path string) ([]byte, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", path, err)
	}
	return data, nil
}

// ExportAll runs every exporter, recording per-destination outcomes, and
// returns the first error encountered after all have been attempted.
func ExportAll(ctx context.Context, registry *metrics.Registry, snapshot *analysis.Snapshot, exporters ...Exporter) error {
	var firstErr error
	for _, e := range exporters {
		status := "success"
		if err := e.Export(ctx, snapshot); err != nil {
			status = "error"
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", e.Name(), err)
			}
		}
		registry.RecordExport(e.Name(), status)
	}
	return firstErr
}

// writeAtomic writes via a temp file and rename so a crashed export never
// leaves a truncated snapshot behind.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
