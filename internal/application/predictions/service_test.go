package predictions

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engdomain "github.com/plantvision/leafscan/internal/domain/engine"
	domain "github.com/plantvision/leafscan/internal/domain/predictions"
)

// ---- test doubles ----

type fakeRepo struct {
	mu      sync.Mutex
	nextID  domain.RecordID
	records map[domain.RecordID]*domain.PredictionRecord
	failing bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[domain.RecordID]*domain.PredictionRecord)}
}

func (r *fakeRepo) Insert(ctx context.Context, in domain.RecordInput) (*domain.PredictionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return nil, errors.New("database unavailable")
	}
	r.nextID++
	now := time.Now()
	rec := &domain.PredictionRecord{
		ID:             r.nextID,
		ClassName:      in.ClassName,
		ClassInfo:      in.ClassInfo,
		Recommendation: in.Recommendation,
		ImagePath:      in.ImagePath,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.records[rec.ID] = rec
	return rec, nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id domain.RecordID) (*domain.PredictionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

func (r *fakeRepo) Latest(ctx context.Context, limit int) ([]*domain.PredictionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit == 0 {
		return []*domain.PredictionRecord{}, nil
	}
	var out []*domain.PredictionRecord
	for id := r.nextID; id > 0 && len(out) < limit; id-- {
		if rec, ok := r.records[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

type fakeEngine struct {
	predict func(ctx context.Context, img image.Image) (*engdomain.Prediction, error)
}

func (e *fakeEngine) PredictOne(ctx context.Context, img image.Image) (*engdomain.Prediction, error) {
	return e.predict(ctx, img)
}

type fakeArchive struct {
	mu     sync.Mutex
	saved  []string
	failing bool
}

func (a *fakeArchive) SaveImage(ctx context.Context, name string, img image.Image) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failing {
		return "", errors.New("disk full")
	}
	a.saved = append(a.saved, name)
	return "images/" + name, nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func staticEngine(label, model string, confidence float64) *fakeEngine {
	return &fakeEngine{predict: func(ctx context.Context, img image.Image) (*engdomain.Prediction, error) {
		return &engdomain.Prediction{
			Picked: engdomain.Candidate{Label: label, Model: model, Confidence: confidence},
		}, nil
	}}
}

func validPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{G: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestService(repo *fakeRepo, eng *fakeEngine, archive *fakeArchive) *Service {
	return &Service{
		Repo:    repo,
		Engine:  eng,
		Archive: archive,
		Clock:   fixedClock{t: time.Date(2025, 6, 1, 12, 30, 45, 0, time.UTC)},
	}
}

// ---- tests ----

func TestProcessBatchSingleHealthyImage(t *testing.T) {
	repo := newFakeRepo()
	archive := &fakeArchive{}
	svc := newTestService(repo, staticEngine("Tomato_healthy", "m1", 0.987), archive)

	results := svc.ProcessBatch(context.Background(), []domain.BatchItem{
		{Filename: "leaf.png", Data: validPNG(t)},
	})

	require.Len(t, results, 1)
	res := results[0]
	require.True(t, res.Success, "unexpected failure: %s", res.Error)
	assert.Equal(t, "leaf.png", res.Filename)
	require.NotNil(t, res.SavedRecord)
	assert.NotZero(t, res.SavedRecord.ID)
	assert.Equal(t, "Tomato_healthy", res.SavedRecord.ClassName)
	assert.Equal(t, domain.RecommendHealthy, res.SavedRecord.Recommendation)
	assert.Contains(t, res.SavedRecord.ClassInfo, "m1")
	assert.Contains(t, res.SavedRecord.ClassInfo, "0.987")
	assert.Contains(t, res.SavedRecord.ImagePath, "20250601_123045")
	assert.False(t, res.SavedRecord.CreatedAt.IsZero())
}

func TestProcessBatchIsolatesCorruptedItem(t *testing.T) {
	repo := newFakeRepo()
	archive := &fakeArchive{}
	svc := newTestService(repo, staticEngine("Potato_disease", "ensemble", 0.75), archive)

	results := svc.ProcessBatch(context.Background(), []domain.BatchItem{
		{Filename: "good.png", Data: validPNG(t)},
		{Filename: "bad.png", Data: []byte("corrupted bytes")},
	})

	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Equal(t, "bad.png", results[1].Filename)
	assert.NotEmpty(t, results[1].Error)
	assert.Nil(t, results[1].SavedRecord)

	// only the good item was persisted and archived
	assert.Equal(t, 1, repo.count())
	assert.Len(t, archive.saved, 1)
}

func TestProcessBatchPreservesInputOrder(t *testing.T) {
	repo := newFakeRepo()
	archive := &fakeArchive{}

	// Finish later items first to make completion order differ from
	// input order.
	var n int
	var mu sync.Mutex
	eng := &fakeEngine{predict: func(ctx context.Context, img image.Image) (*engdomain.Prediction, error) {
		mu.Lock()
		n++
		delay := time.Duration(50-n*10) * time.Millisecond
		mu.Unlock()
		time.Sleep(delay)
		return &engdomain.Prediction{Picked: engdomain.Candidate{Label: "Tomato_healthy", Model: "m1", Confidence: 0.9}}, nil
	}}

	svc := newTestService(repo, eng, archive)
	svc.Workers = 4

	items := make([]domain.BatchItem, 4)
	for i := range items {
		items[i] = domain.BatchItem{Filename: fmt.Sprintf("leaf_%d.png", i), Data: validPNG(t)}
	}

	results := svc.ProcessBatch(context.Background(), items)
	require.Len(t, results, 4)
	for i, res := range results {
		assert.Equal(t, fmt.Sprintf("leaf_%d.png", i), res.Filename)
		assert.True(t, res.Success)
	}
}

func TestProcessBatchEngineFailure(t *testing.T) {
	repo := newFakeRepo()
	eng := &fakeEngine{predict: func(ctx context.Context, img image.Image) (*engdomain.Prediction, error) {
		return nil, errors.New("model backend down")
	}}
	svc := newTestService(repo, eng, &fakeArchive{})

	results := svc.ProcessBatch(context.Background(), []domain.BatchItem{
		{Filename: "leaf.png", Data: validPNG(t)},
	})

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "model backend down")
	assert.Equal(t, 0, repo.count(), "no record should be persisted on engine failure")
}

func TestProcessBatchEngineTimeout(t *testing.T) {
	repo := newFakeRepo()
	eng := &fakeEngine{predict: func(ctx context.Context, img image.Image) (*engdomain.Prediction, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return &engdomain.Prediction{}, nil
		}
	}}
	svc := newTestService(repo, eng, &fakeArchive{})
	svc.EngineTimeout = 20 * time.Millisecond

	results := svc.ProcessBatch(context.Background(), []domain.BatchItem{
		{Filename: "slow.png", Data: validPNG(t)},
	})

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, context.DeadlineExceeded.Error())
}

func TestProcessBatchArchiveFailure(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, staticEngine("Tomato_healthy", "m1", 0.9), &fakeArchive{failing: true})

	results := svc.ProcessBatch(context.Background(), []domain.BatchItem{
		{Filename: "leaf.png", Data: validPNG(t)},
	})

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "archive image")
	assert.Equal(t, 0, repo.count(), "archive failure must not leave a record behind")
}

func TestProcessBatchStoreFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.failing = true
	svc := newTestService(repo, staticEngine("Tomato_healthy", "m1", 0.9), &fakeArchive{})

	results := svc.ProcessBatch(context.Background(), []domain.BatchItem{
		{Filename: "leaf.png", Data: validPNG(t)},
	})

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "save result")
}

func TestProcessBatchEmpty(t *testing.T) {
	svc := newTestService(newFakeRepo(), staticEngine("x", "m", 0.5), &fakeArchive{})
	results := svc.ProcessBatch(context.Background(), nil)
	assert.Empty(t, results)
}

func TestArchiveNameShape(t *testing.T) {
	svc := newTestService(newFakeRepo(), staticEngine("x", "m", 0.5), &fakeArchive{})

	name := svc.archiveName("My Leaf (1).JPG")
	assert.True(t, strings.HasPrefix(name, "20250601_123045_"), name)
	assert.True(t, strings.HasSuffix(name, "_My_Leaf__1_.jpg"), name)

	// same original name twice must still yield distinct archive names
	other := svc.archiveName("My Leaf (1).JPG")
	assert.NotEqual(t, name, other)
}

func TestSanitizeBase(t *testing.T) {
	assert.Equal(t, "leaf", sanitizeBase("leaf.png"))
	assert.Equal(t, "passwd", sanitizeBase("../../etc/passwd"))
	assert.Equal(t, "upload", sanitizeBase(".png"))
}
