package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darvell/inkmill/internal/cache"
	"github.com/darvell/inkmill/internal/config"
	"github.com/darvell/inkmill/internal/domain"
	"github.com/darvell/inkmill/internal/governor"
	"github.com/darvell/inkmill/internal/store"
)

// fakeArtifactStore is a map-backed ArtifactStore.
type fakeArtifactStore struct {
	mu      sync.Mutex
	entries map[string]*domain.Artifact
}

func newFakeArtifactStore() *fakeArtifactStore {
	return &fakeArtifactStore{entries: make(map[string]*domain.Artifact)}
}

func (f *fakeArtifactStore) Get(_ context.Context, subjectID string, kind domain.ArtifactType) (*domain.Artifact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.entries[subjectID+"/"+string(kind)]
	if !ok {
		return nil, store.ErrArtifactNotFound
	}
	return a, nil
}

func (f *fakeArtifactStore) Put(_ context.Context, a *domain.Artifact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[a.SubjectID+"/"+string(a.Type)] = a
	return nil
}

func (f *fakeArtifactStore) Invalidate(_ context.Context, subjectID string, kind domain.ArtifactType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, subjectID+"/"+string(kind))
	return nil
}

// kindGateway answers per artifact type by inspecting the system prompt,
// counting calls. failKinds makes the named kinds fail at the transport.
type kindGateway struct {
	mu        sync.Mutex
	calls     int
	failKinds map[string]bool
}

func (g *kindGateway) Generate(_ context.Context, systemPrompt, _ string) (string, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()

	kind := "summary"
	switch {
	case strings.Contains(systemPrompt, "tagging"):
		kind = "tags"
	case strings.Contains(systemPrompt, "classifier"):
		kind = "category"
	case strings.Contains(systemPrompt, "SEO"):
		kind = "seo"
	}

	if g.failKinds[kind] {
		return "", errors.New("gateway unavailable")
	}

	switch kind {
	case "tags":
		return "go,concurrency", nil
	case "category":
		return "Tech", nil
	case "seo":
		return `{"description": "A page description.", "keywords": "go,llm"}`, nil
	default:
		return "Each word here differs completely.", nil
	}
}

func (g *kindGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func testGenerateConfig() config.GenerateConfig {
	return config.GenerateConfig{
		Features:          []string{"summary", "tags", "category", "seo"},
		Language:          "en",
		MaxSummaryLength:  500,
		MaxTags:           5,
		SEOLength:         150,
		DefaultCategory:   "Tech",
		Categories:        []string{"Tech", "Life"},
		QualityThreshold:  0.8,
		MaxRefineAttempts: 2,
		SegmentMaxLength:  2000,
	}
}

func testGovernor() *governor.Governor {
	return governor.New(map[string]int64{
		governor.ResourceConcurrency: 4,
		governor.ResourceMemory:      16 << 20,
	})
}

func newTestOrchestrator(gw *kindGateway, cfg config.GenerateConfig) (*Orchestrator, *fakeArtifactStore) {
	fs := newFakeArtifactStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := cache.New(fs, cache.Policy{TTLSeconds: 0}, log)
	govCfg := config.GovernorConfig{MaxConcurrent: 4, TimeLimitSeconds: 60}
	return NewOrchestrator(c, gw, testGovernor(), cfg, govCfg, log), fs
}

func TestAugmentGeneratesAllConfiguredTypes(t *testing.T) {
	gw := &kindGateway{}
	o, _ := newTestOrchestrator(gw, testGenerateConfig())

	res, err := o.Augment(context.Background(), "post-1", "Some content worth augmenting.", nil)
	require.NoError(t, err)

	require.Empty(t, res.Errors)
	require.Len(t, res.Artifacts, 4)
	assert.Equal(t, "Each word here differs completely.", res.Artifacts[domain.ArtifactSummary].Content)
	assert.Equal(t, "go,concurrency", res.Artifacts[domain.ArtifactTags].Content)
	assert.Equal(t, "Tech", res.Artifacts[domain.ArtifactCategory].Content)
	assert.Contains(t, res.Artifacts[domain.ArtifactSEO].Content, "A page description.")
	for kind, hit := range res.CacheHits {
		assert.False(t, hit, "first run must not hit cache for %s", kind)
	}
}

func TestAugmentServesSecondRunFromCache(t *testing.T) {
	gw := &kindGateway{}
	o, _ := newTestOrchestrator(gw, testGenerateConfig())
	ctx := context.Background()

	_, err := o.Augment(ctx, "post-1", "Some content worth augmenting.", nil)
	require.NoError(t, err)
	callsAfterFirst := gw.callCount()

	res, err := o.Augment(ctx, "post-1", "Some content worth augmenting.", nil)
	require.NoError(t, err)

	assert.Equal(t, callsAfterFirst, gw.callCount(), "second run must not call the gateway")
	for kind, hit := range res.CacheHits {
		assert.True(t, hit, "second run must hit cache for %s", kind)
	}
}

func TestAugmentIsolatesPerTypeFailures(t *testing.T) {
	gw := &kindGateway{failKinds: map[string]bool{"tags": true}}
	o, _ := newTestOrchestrator(gw, testGenerateConfig())

	res, err := o.Augment(context.Background(), "post-1", "Some content worth augmenting.", nil)
	require.NoError(t, err)

	assert.Len(t, res.Artifacts, 3)
	assert.Contains(t, res.Errors, domain.ArtifactTags)
	assert.NotContains(t, res.Artifacts, domain.ArtifactTags)
	assert.False(t, res.AllFailed())
}

func TestAugmentCombinesSegmentOutputs(t *testing.T) {
	cfg := testGenerateConfig()
	cfg.SegmentMaxLength = 100

	gw := &kindGateway{}
	o, _ := newTestOrchestrator(gw, cfg)

	para := strings.Repeat("Sentences fill this paragraph with text. ", 2)
	content := strings.TrimSpace(para) + "\n\n" + strings.TrimSpace(para) + "\n\n" + strings.TrimSpace(para)

	res, err := o.Augment(context.Background(), "post-2", content,
		[]domain.ArtifactType{domain.ArtifactSummary, domain.ArtifactTags})
	require.NoError(t, err)
	require.Empty(t, res.Errors)

	// Three segments, each summarized; the parts are joined in order.
	summary := res.Artifacts[domain.ArtifactSummary].Content
	assert.Equal(t, 3, strings.Count(summary, "Each word here differs completely."))

	// Identical per-segment tags collapse into one set.
	assert.Equal(t, "go,concurrency", res.Artifacts[domain.ArtifactTags].Content)
}

func TestAugmentValidation(t *testing.T) {
	gw := &kindGateway{}
	o, _ := newTestOrchestrator(gw, testGenerateConfig())
	ctx := context.Background()

	_, err := o.Augment(ctx, "post-1", "   ", nil)
	assert.ErrorIs(t, err, ErrEmptyContent)

	_, err = o.Augment(ctx, "post-1", "content", []domain.ArtifactType{"bogus"})
	assert.ErrorIs(t, err, domain.ErrInvalidArtifact)
}

func TestAugmentRefusedWhenGovernorSaturated(t *testing.T) {
	gw := &kindGateway{}
	fs := newFakeArtifactStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := cache.New(fs, cache.Policy{TTLSeconds: 0}, log)

	gov := governor.New(map[string]int64{
		governor.ResourceConcurrency: 0,
		governor.ResourceMemory:      16 << 20,
	})
	o := NewOrchestrator(c, gw, gov, testGenerateConfig(),
		config.GovernorConfig{MaxConcurrent: 4, TimeLimitSeconds: 60}, log)

	_, err := o.Augment(context.Background(), "post-1", "content", nil)
	assert.ErrorIs(t, err, ErrBusy)
	assert.Zero(t, gw.callCount())
}
