package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jstepanek/textlens/internal/core/ingestion_engine"
	"github.com/jstepanek/textlens/internal/models"
)

type DocumentService struct {
	ingestor ingestion_engine.Ingestor
	log      *zap.Logger
}

func NewDocumentService(ingestor ingestion_engine.Ingestor, log *zap.Logger) *DocumentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &DocumentService{ingestor: ingestor, log: log}
}

// Extract turns an upload into text. Nothing about the upload outlives the
// call.
func (s *DocumentService) Extract(ctx context.Context, filename, contentType string, data []byte) (models.ExtractedText, error) {
	start := time.Now()
	text, err := s.ingestor.Extract(ctx, models.UploadedDocument{
		Name:     filename,
		Raw:      data,
		MimeHint: contentType,
	})
	if err != nil {
		s.log.Info("document rejected",
			zap.String("filename", filename),
			zap.String("content_type", contentType),
			zap.Int("bytes", len(data)),
			zap.Error(err),
		)
		return models.ExtractedText{}, err
	}

	s.log.Info("document extracted",
		zap.String("filename", filename),
		zap.Int("bytes", len(data)),
		zap.Int("chars", len(text.Content)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return text, nil
}
