// Package gcs provides a result sink backed by Google Cloud Storage.
package gcs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/opendatahub-br/dadosgov-harvester/internal/catalog"
)

// Config captures the parameters required to write to GCS.
type Config struct {
	Bucket string `mapstructure:"bucket"`
	// Prefix is prepended to every object name.
	Prefix string `mapstructure:"prefix"`
	// ChunkSize is the number of records per object (default 500).
	ChunkSize int `mapstructure:"chunk_size"`
}

// Sink writes record chunks as JSON objects into a configured bucket.
type Sink struct {
	client    *storage.Client
	bucket    string
	prefix    string
	chunkSize int
	logger    *zap.Logger
}

// New creates a GCS-backed sink.
func New(client *storage.Client, cfg Config, logger *zap.Logger) (*Sink, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 500
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{
		client:    client,
		bucket:    cfg.Bucket,
		prefix:    strings.Trim(cfg.Prefix, "/"),
		chunkSize: cfg.ChunkSize,
		logger:    logger,
	}, nil
}

// WriteRecords uploads the records as numbered chunk objects and returns how
// many records were written.
func (s *Sink) WriteRecords(ctx context.Context, records []catalog.DatasetRecord) (int, error) {
	written := 0
	for start := 0; start < len(records); start += s.chunkSize {
		end := min(start+s.chunkSize, len(records))
		chunk := records[start:end]
		name := fmt.Sprintf("%d-%d.json", start+1, end)
		if s.prefix != "" {
			name = s.prefix + "/" + name
		}
		uri, err := s.putChunk(ctx, name, chunk)
		if err != nil {
			return written, err
		}
		written += len(chunk)
		s.logger.Debug("uploaded chunk object", zap.String("uri", uri), zap.Int("records", len(chunk)))
	}
	return written, nil
}

func (s *Sink) putChunk(ctx context.Context, name string, chunk []catalog.DatasetRecord) (string, error) {
	docs := make([]json.RawMessage, 0, len(chunk))
	for _, rec := range chunk {
		docs = append(docs, rec.Raw)
	}
	payload, err := json.Marshal(docs)
	if err != nil {
		return "", fmt.Errorf("marshal chunk %s: %w", name, err)
	}

	writer := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	writer.ContentType = "application/json"
	if _, err := io.Copy(writer, bytes.NewReader(payload)); err != nil {
		closeErr := writer.Close()
		if closeErr != nil {
			return "", fmt.Errorf("copy object: %w (close writer: %v)", err, closeErr)
		}
		return "", fmt.Errorf("copy object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close writer: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, name), nil
}

// Close releases the underlying client.
func (s *Sink) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("close storage client: %w", err)
	}
	return nil
}
