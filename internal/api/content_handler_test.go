package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darvell/inkmill/internal/domain"
	"github.com/darvell/inkmill/internal/service"
	"github.com/darvell/inkmill/internal/store"
)

// stubSubjectStore records upserts and serves stored content.
type stubSubjectStore struct {
	contents map[string]string
	upserts  int
}

func newStubSubjectStore() *stubSubjectStore {
	return &stubSubjectStore{contents: make(map[string]string)}
}

func (s *stubSubjectStore) Upsert(_ context.Context, subjectID, content string) error {
	s.contents[subjectID] = content
	s.upserts++
	return nil
}

func (s *stubSubjectStore) GetContent(_ context.Context, subjectID string) (string, error) {
	content, ok := s.contents[subjectID]
	if !ok {
		return "", store.ErrSubjectNotFound
	}
	return content, nil
}

// stubAugmenter returns a canned result and remembers the requested kinds.
type stubAugmenter struct {
	res      *service.AugmentResult
	err      error
	gotKinds []domain.ArtifactType
}

func (a *stubAugmenter) Augment(
	_ context.Context,
	_ string,
	_ string,
	kinds []domain.ArtifactType,
) (*service.AugmentResult, error) {
	a.gotKinds = kinds
	if a.err != nil {
		return nil, a.err
	}
	return a.res, nil
}

// stubArtifactReader is a map-backed ArtifactReader.
type stubArtifactReader struct {
	artifacts map[string]*domain.Artifact
}

func (r *stubArtifactReader) Get(_ context.Context, subjectID string, kind domain.ArtifactType) (*domain.Artifact, error) {
	a, ok := r.artifacts[subjectID+"/"+string(kind)]
	if !ok {
		return nil, store.ErrArtifactNotFound
	}
	return a, nil
}

func testArtifact(subjectID string, kind domain.ArtifactType, content string) *domain.Artifact {
	return &domain.Artifact{
		SubjectID: subjectID,
		Type:      kind,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

func newContentRouter(subjects *stubSubjectStore, aug *stubAugmenter, reader *stubArtifactReader) http.Handler {
	handler := NewContentHandler(subjects, aug, reader, nil)
	tasks := NewTaskHandler(nil, subjects, nil, nil)
	return NewRouter(handler, tasks, nil)
}

func TestAugmentSuccess(t *testing.T) {
	subjects := newStubSubjectStore()
	aug := &stubAugmenter{
		res: &service.AugmentResult{
			Artifacts: map[domain.ArtifactType]*domain.Artifact{
				domain.ArtifactSummary: testArtifact("post-1", domain.ArtifactSummary, "A short summary."),
				domain.ArtifactTags:    testArtifact("post-1", domain.ArtifactTags, "go,http"),
			},
			CacheHits: map[domain.ArtifactType]bool{
				domain.ArtifactSummary: false,
				domain.ArtifactTags:    true,
			},
			Errors: map[domain.ArtifactType]error{},
		},
	}
	router := newContentRouter(subjects, aug, &stubArtifactReader{})

	body, _ := json.Marshal(AugmentRequest{
		Content: "Some content.",
		Types:   []string{"summary", "tags"},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/content/post-1/augment", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, subjects.upserts)
	assert.Equal(t, "Some content.", subjects.contents["post-1"])
	assert.Equal(t,
		[]domain.ArtifactType{domain.ArtifactSummary, domain.ArtifactTags},
		aug.gotKinds)

	var resp AugmentResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "post-1", resp.SubjectID)
	require.Len(t, resp.Artifacts, 2)

	// Sorted by type: summary before tags.
	assert.Equal(t, "summary", resp.Artifacts[0].Type)
	assert.Equal(t, "A short summary.", resp.Artifacts[0].Content)
	assert.False(t, resp.Artifacts[0].CacheHit)
	assert.Equal(t, "tags", resp.Artifacts[1].Type)
	assert.True(t, resp.Artifacts[1].CacheHit)
	assert.Empty(t, resp.Errors)
}

func TestAugmentPartialFailure(t *testing.T) {
	subjects := newStubSubjectStore()
	aug := &stubAugmenter{
		res: &service.AugmentResult{
			Artifacts: map[domain.ArtifactType]*domain.Artifact{
				domain.ArtifactSummary: testArtifact("post-1", domain.ArtifactSummary, "A short summary."),
			},
			CacheHits: map[domain.ArtifactType]bool{domain.ArtifactSummary: false},
			Errors: map[domain.ArtifactType]error{
				domain.ArtifactTags: service.ErrBusy,
			},
		},
	}
	router := newContentRouter(subjects, aug, &stubArtifactReader{})

	body, _ := json.Marshal(AugmentRequest{Content: "Some content."})
	req := httptest.NewRequest(http.MethodPost, "/api/content/post-1/augment", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp AugmentResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.Artifacts, 1)
	assert.Equal(t, "Engine is at capacity, try again later", resp.Errors["tags"])
}

func TestAugmentAllFailed(t *testing.T) {
	subjects := newStubSubjectStore()
	aug := &stubAugmenter{
		res: &service.AugmentResult{
			Artifacts: map[domain.ArtifactType]*domain.Artifact{},
			CacheHits: map[domain.ArtifactType]bool{},
			Errors: map[domain.ArtifactType]error{
				domain.ArtifactSummary: service.ErrBusy,
			},
		},
	}
	router := newContentRouter(subjects, aug, &stubArtifactReader{})

	body, _ := json.Marshal(AugmentRequest{Content: "Some content."})
	req := httptest.NewRequest(http.MethodPost, "/api/content/post-1/augment", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestAugmentRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: "{not json"},
		{name: "missing content", body: `{"types": ["summary"]}`},
		{name: "unknown type", body: `{"content": "x", "types": ["haiku"]}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			subjects := newStubSubjectStore()
			aug := &stubAugmenter{}
			router := newContentRouter(subjects, aug, &stubArtifactReader{})

			req := httptest.NewRequest(
				http.MethodPost, "/api/content/post-1/augment", bytes.NewReader([]byte(tc.body)))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Zero(t, subjects.upserts)
		})
	}
}

func TestAugmentRefusedWhenBusy(t *testing.T) {
	subjects := newStubSubjectStore()
	aug := &stubAugmenter{err: service.ErrBusy}
	router := newContentRouter(subjects, aug, &stubArtifactReader{})

	body, _ := json.Marshal(AugmentRequest{Content: "Some content."})
	req := httptest.NewRequest(http.MethodPost, "/api/content/post-1/augment", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusTooManyRequests, rr.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Engine is at capacity, try again later", resp["error"])
}

func TestGetArtifact(t *testing.T) {
	reader := &stubArtifactReader{artifacts: map[string]*domain.Artifact{
		"post-1/summary": testArtifact("post-1", domain.ArtifactSummary, "A short summary."),
	}}
	router := newContentRouter(newStubSubjectStore(), &stubAugmenter{}, reader)

	req := httptest.NewRequest(http.MethodGet, "/api/content/post-1/artifacts/summary", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp ArtifactResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "post-1", resp.SubjectID)
	assert.Equal(t, "summary", resp.Type)
	assert.Equal(t, "A short summary.", resp.Content)
}

func TestGetArtifactNotFound(t *testing.T) {
	router := newContentRouter(newStubSubjectStore(), &stubAugmenter{}, &stubArtifactReader{})

	req := httptest.NewRequest(http.MethodGet, "/api/content/post-1/artifacts/summary", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetArtifactInvalidType(t *testing.T) {
	router := newContentRouter(newStubSubjectStore(), &stubAugmenter{}, &stubArtifactReader{})

	req := httptest.NewRequest(http.MethodGet, "/api/content/post-1/artifacts/haiku", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHealthEndpoint(t *testing.T) {
	router := newContentRouter(newStubSubjectStore(), &stubAugmenter{}, &stubArtifactReader{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())
}
