// Package archive stores call transcripts in S3-compatible object storage.
package archive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"leadline_backend/platform/config"
	"leadline_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Service struct {
	client *minio.Client
	bucket string
	log    *logger.Logger
}

// NewService builds the transcript archive. Returns nil when object storage
// is not configured; archival is best-effort and the transcript always stays
// on the lead row regardless.
func NewService(cfg config.StorageConfig, log *logger.Logger) *Service {
	if !cfg.IsMinIOEnabled() {
		return nil
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		log.Error("object storage setup failed", "error", err)
		return nil
	}

	return &Service{
		client: client,
		bucket: cfg.GetMinioBucketCallTranscripts(),
		log:    log,
	}
}

// EnsureBucket creates the transcript bucket when it does not exist yet.
// Called once at startup.
func (s *Service) EnsureBucket(ctx context.Context) error {
	if s == nil {
		return nil
	}

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check transcript bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create transcript bucket: %w", err)
	}
	return nil
}

// StoreTranscript uploads a call transcript and returns its object key.
func (s *Service) StoreTranscript(ctx context.Context, tenantID, leadID uuid.UUID, callID, transcript string) (string, error) {
	if s == nil {
		return "", nil
	}

	key := fmt.Sprintf("%s/%s/%s-%s.txt",
		tenantID, leadID, time.Now().UTC().Format("20060102T150405Z"), callID)

	reader := strings.NewReader(transcript)
	_, err := s.client.PutObject(ctx, s.bucket, key, reader, int64(reader.Len()), minio.PutObjectOptions{
		ContentType: "text/plain; charset=utf-8",
	})
	if err != nil {
		return "", fmt.Errorf("upload transcript: %w", err)
	}

	s.log.Info("transcript archived", "object_key", key, "call_id", callID)
	return key, nil
}
