package api

import (
	"context"
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/darvell/inkmill/internal/api/shared"
	"github.com/darvell/inkmill/internal/domain"
	"github.com/darvell/inkmill/internal/platform/logger"
	"github.com/darvell/inkmill/internal/service"
	"github.com/darvell/inkmill/internal/store"
)

// Augmenter runs the synchronous generation flow for a content body.
type Augmenter interface {
	Augment(
		ctx context.Context,
		subjectID string,
		content string,
		kinds []domain.ArtifactType,
	) (*service.AugmentResult, error)
}

// ArtifactReader serves cached artifacts under the freshness policy.
type ArtifactReader interface {
	Get(ctx context.Context, subjectID string, kind domain.ArtifactType) (*domain.Artifact, error)
}

// ContentHandler handles content augmentation HTTP requests.
type ContentHandler struct {
	subjects  store.SubjectStore
	augmenter Augmenter
	artifacts ArtifactReader
	validator *validator.Validate
	logger    *slog.Logger
}

// NewContentHandler creates a ContentHandler.
func NewContentHandler(
	subjects store.SubjectStore,
	augmenter Augmenter,
	artifacts ArtifactReader,
	log *slog.Logger,
) *ContentHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ContentHandler{
		subjects:  subjects,
		augmenter: augmenter,
		artifacts: artifacts,
		validator: validator.New(),
		logger:    log.With("component", "content_handler"),
	}
}

// Augment handles POST /api/content/{id}/augment requests. The content body
// is stored for the subject so deferred tasks can reach it later, then the
// requested artifact types are generated synchronously.
func (h *ContentHandler) Augment(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	subjectID := chi.URLParam(r, "id")
	if subjectID == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Subject ID is required")
		return
	}

	var req AugmentRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	kinds := make([]domain.ArtifactType, 0, len(req.Types))
	for _, t := range req.Types {
		kinds = append(kinds, domain.ArtifactType(t))
	}

	if err := h.subjects.Upsert(r.Context(), subjectID, req.Content); err != nil {
		log.Error("failed to store subject content", "error", err, "subject_id", subjectID)
		HandleAPIError(w, r, err, "Failed to store content")
		return
	}

	res, err := h.augmenter.Augment(r.Context(), subjectID, req.Content, kinds)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	resp := AugmentResponse{SubjectID: subjectID}
	for kind, a := range res.Artifacts {
		resp.Artifacts = append(resp.Artifacts, artifactToResponse(a, res.CacheHits[kind]))
	}
	sort.Slice(resp.Artifacts, func(i, j int) bool {
		return resp.Artifacts[i].Type < resp.Artifacts[j].Type
	})
	if len(res.Errors) > 0 {
		resp.Errors = make(map[string]string, len(res.Errors))
		for kind, kindErr := range res.Errors {
			resp.Errors[string(kind)] = GetSafeErrorMessage(kindErr)
		}
	}

	status := http.StatusOK
	if res.AllFailed() {
		status = http.StatusBadGateway
	}
	shared.RespondWithJSON(w, r, status, resp)
}

// GetArtifact handles GET /api/content/{id}/artifacts/{type} requests. Only
// artifacts still fresh under the configured policy are returned.
func (h *ContentHandler) GetArtifact(w http.ResponseWriter, r *http.Request) {
	subjectID := chi.URLParam(r, "id")
	if subjectID == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Subject ID is required")
		return
	}

	kind := domain.ArtifactType(chi.URLParam(r, "type"))
	if !domain.IsValidArtifactType(kind) {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid artifact type")
		return
	}

	a, err := h.artifacts.Get(r.Context(), subjectID, kind)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, artifactToResponse(a, false))
}
