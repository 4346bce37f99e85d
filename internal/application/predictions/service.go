package predictions

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/plantvision/leafscan/internal/application"
	engdomain "github.com/plantvision/leafscan/internal/domain/engine"
	domain "github.com/plantvision/leafscan/internal/domain/predictions"
	"github.com/plantvision/leafscan/internal/imaging"
)

const (
	defaultWorkers       = 4
	defaultEngineTimeout = 30 * time.Second
	archiveTimeLayout    = "20060102_150405"
)

// Service implements the batch-processing use cases and the read
// surface over stored outcomes.
// Service is designed to be used concurrently and is thread-safe.
type Service struct {
	Repo    domain.Repository
	Engine  engdomain.Engine
	Archive domain.ArchiveStore
	Clock   application.Clock

	// Workers bounds per-item pipeline concurrency; 1 means sequential.
	Workers int
	// EngineTimeout caps each Engine.PredictOne call; expiry becomes
	// a per-item failure, never a batch failure.
	EngineTimeout time.Duration
}

// ProcessBatch runs the per-item pipeline for every item and returns
// exactly len(items) results, result[i] corresponding to items[i]
// regardless of completion order. Item failures are isolated: every
// error is converted to a failure variant and no error escapes.
func (s *Service) ProcessBatch(ctx context.Context, items []domain.BatchItem) []domain.BatchItemResult {
	results := make([]domain.BatchItemResult, len(items))

	sem := semaphore.NewWeighted(int64(s.workers()))
	var wg sync.WaitGroup
	for i := range items {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context gone while waiting for a slot; fail the
			// remaining items instead of dropping them.
			for j := i; j < len(items); j++ {
				results[j] = failure(items[j].Filename, err)
			}
			break
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = s.processOne(ctx, items[i])
		}(i)
	}
	wg.Wait()

	return results
}

// processOne executes decode → classify → archive → persist for a
// single item. Every step failure stops the item and yields a failure
// variant; later steps never run for a failed item.
func (s *Service) processOne(ctx context.Context, item domain.BatchItem) domain.BatchItemResult {
	img, err := imaging.Decode(item.Data)
	if err != nil {
		return failure(item.Filename, err)
	}

	engCtx, cancel := context.WithTimeout(ctx, s.engineTimeout())
	defer cancel()
	pred, err := s.Engine.PredictOne(engCtx, img)
	if err != nil {
		return failure(item.Filename, fmt.Errorf("predict: %w", err))
	}

	imagePath, err := s.Archive.SaveImage(ctx, s.archiveName(item.Filename), img)
	if err != nil {
		return failure(item.Filename, fmt.Errorf("archive image: %w", err))
	}

	classInfo := fmt.Sprintf("model: %s, confidence: %.3f", pred.Picked.Model, pred.Picked.Confidence)

	record, err := s.Repo.Insert(ctx, domain.RecordInput{
		ClassName:      pred.Picked.Label,
		ClassInfo:      classInfo,
		Recommendation: domain.Recommend(pred.Picked.Label),
		ImagePath:      imagePath,
	})
	if err != nil {
		return failure(item.Filename, fmt.Errorf("save result: %w", err))
	}

	return domain.BatchItemResult{
		Filename:    item.Filename,
		Success:     true,
		Prediction:  pred,
		SavedRecord: record,
	}
}

// archiveName builds `<timestamp>_<uuid8>_<original>.jpg`. The uuid
// suffix keeps two uploads of the same filename within one second from
// overwriting each other.
func (s *Service) archiveName(original string) string {
	ts := s.Clock.Now().Format(archiveTimeLayout)
	suffix := uuid.New().String()[:8]
	return fmt.Sprintf("%s_%s_%s.jpg", ts, suffix, sanitizeBase(original))
}

// sanitizeBase strips any path component and the extension from an
// uploaded filename and keeps a conservative character set.
func sanitizeBase(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "upload"
	}
	return b.String()
}

func (s *Service) workers() int {
	if s.Workers <= 0 {
		return defaultWorkers
	}
	return s.Workers
}

func (s *Service) engineTimeout() time.Duration {
	if s.EngineTimeout <= 0 {
		return defaultEngineTimeout
	}
	return s.EngineTimeout
}

func failure(filename string, err error) domain.BatchItemResult {
	return domain.BatchItemResult{
		Filename: filename,
		Success:  false,
		Error:    err.Error(),
	}
}
