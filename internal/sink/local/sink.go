// Package local implements a local filesystem result sink.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/opendatahub-br/dadosgov-harvester/internal/catalog"
)

// Config captures the parameters for the local filesystem sink.
type Config struct {
	// OutputDir is the directory where chunk files are written.
	OutputDir string `mapstructure:"output_dir"`
	// ChunkSize is the number of records per file (default 500).
	ChunkSize int `mapstructure:"chunk_size"`
}

// Sink writes the deduplicated record set as numbered JSON chunk files named
// "<start>-<end>.json" by 1-based record index.
type Sink struct {
	outputDir string
	chunkSize int
	logger    *zap.Logger
}

// New creates the output directory if needed and returns a Sink.
func New(cfg Config, logger *zap.Logger) (*Sink, error) {
	if strings.TrimSpace(cfg.OutputDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 500
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", cfg.OutputDir, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{
		outputDir: cfg.OutputDir,
		chunkSize: cfg.ChunkSize,
		logger:    logger,
	}, nil
}

// WriteRecords persists the records in chunk files and returns how many were
// written. A mid-write failure reports the count persisted so far.
func (s *Sink) WriteRecords(ctx context.Context, records []catalog.DatasetRecord) (int, error) {
	written := 0
	for start := 0; start < len(records); start += s.chunkSize {
		if err := ctx.Err(); err != nil {
			return written, fmt.Errorf("context canceled: %w", err)
		}
		end := min(start+s.chunkSize, len(records))
		chunk := records[start:end]
		name := fmt.Sprintf("%d-%d.json", start+1, end)
		if err := s.writeChunk(name, chunk); err != nil {
			return written, err
		}
		written += len(chunk)
		s.logger.Debug("wrote chunk file",
			zap.String("file", name),
			zap.Int("records", len(chunk)),
		)
	}
	return written, nil
}

func (s *Sink) writeChunk(name string, chunk []catalog.DatasetRecord) error {
	docs := make([]json.RawMessage, 0, len(chunk))
	for _, rec := range chunk {
		docs = append(docs, rec.Raw)
	}
	payload, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal chunk %s: %w", name, err)
	}
	target := filepath.Join(s.outputDir, name)
	if err := os.WriteFile(target, payload, 0o600); err != nil {
		return fmt.Errorf("write chunk %s: %w", target, err)
	}
	return nil
}

// Close does nothing; files are closed per chunk.
func (s *Sink) Close() error { return nil }
