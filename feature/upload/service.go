package upload

import (
	"context"

	"stub-server/core/metrics"

	"go.uber.org/zap"
)

// Service persists upload bodies and fans them out to the configured sinks.
type Service struct {
	persister *Persister
	sinks     []Sink
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewService creates a new upload service.
func NewService(persister *Persister, logger *zap.Logger, m *metrics.Metrics, sinks ...Sink) *Service {
	return &Service{
		persister: persister,
		sinks:     sinks,
		logger:    logger,
		metrics:   m,
	}
}

// Store writes body for the command named by rawURL into dir.
// A URL without path segments is skipped and returns a zero Record and no error.
// Sink failures are logged; the file on disk is what counts.
func (s *Service) Store(ctx context.Context, rawURL, body, dir string) (Record, error) {
	rec, ok, err := s.persister.Persist(rawURL, body, dir)
	if err != nil {
		s.metrics.ObserveUpload(metrics.UploadFailed)
		return Record{}, err
	}
	if !ok {
		s.metrics.ObserveUpload(metrics.UploadSkipped)
		s.logger.Debug("Upload skipped, no command segment", zap.String("url", rawURL))
		return Record{}, nil
	}
	s.metrics.ObserveUpload(metrics.UploadStored)
	s.logger.Info("Upload stored", zap.String("file", rec.Path()))

	for _, sink := range s.sinks {
		if err := sink.Record(ctx, rec); err != nil {
			s.logger.Warn("Upload sink failed", zap.String("sink", sink.Name()), zap.Error(err))
		}
	}
	return rec, nil
}
