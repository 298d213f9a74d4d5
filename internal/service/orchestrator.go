package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/darvell/inkmill/internal/cache"
	"github.com/darvell/inkmill/internal/config"
	"github.com/darvell/inkmill/internal/domain"
	"github.com/darvell/inkmill/internal/executor"
	"github.com/darvell/inkmill/internal/generation"
	"github.com/darvell/inkmill/internal/governor"
	"github.com/darvell/inkmill/internal/platform/logger"
	"github.com/darvell/inkmill/internal/segment"
)

// Common orchestrator errors.
var (
	// ErrEmptyContent is returned when there is no content to augment.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrNoArtifactTypes is returned when neither the request nor the
	// configuration names an artifact type to generate.
	ErrNoArtifactTypes = errors.New("no artifact types to generate")

	// ErrBusy is returned when the resource governor refuses the run.
	ErrBusy = errors.New("engine is at capacity")
)

// AugmentResult carries the per-type outcome of one augmentation run.
// A type appears in exactly one of Artifacts or Errors.
type AugmentResult struct {
	Artifacts map[domain.ArtifactType]*domain.Artifact
	CacheHits map[domain.ArtifactType]bool
	Errors    map[domain.ArtifactType]error
}

// AllFailed reports whether no artifact was produced at all.
func (r *AugmentResult) AllFailed() bool {
	return len(r.Artifacts) == 0 && len(r.Errors) > 0
}

// Orchestrator drives the augmentation flow: segment the content, serve
// each requested type from cache when fresh, and generate the misses
// concurrently through the refinement loop.
type Orchestrator struct {
	cache         *cache.Cache
	refiner       *generation.Refiner
	gov           *governor.Governor
	cfg           config.GenerateConfig
	timeLimit     time.Duration
	maxConcurrent int
	logger        *slog.Logger
}

// NewOrchestrator wires the orchestration dependencies together. The
// refinement loop and executors are created here from configuration.
func NewOrchestrator(
	artifactCache *cache.Cache,
	gateway generation.Gateway,
	gov *governor.Governor,
	cfg config.GenerateConfig,
	govCfg config.GovernorConfig,
	log *slog.Logger,
) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}

	return &Orchestrator{
		cache:         artifactCache,
		refiner:       generation.NewRefiner(gateway, cfg.QualityThreshold, log),
		gov:           gov,
		cfg:           cfg,
		timeLimit:     time.Duration(govCfg.TimeLimitSeconds) * time.Second,
		maxConcurrent: govCfg.MaxConcurrent,
		logger:        log.With("component", "orchestrator"),
	}
}

// Augment generates the requested artifact types for the content,
// consulting the cache first. When kinds is empty, the configured feature
// list is used. Per-type failures land in the result's Errors map; Augment
// itself fails only on invalid input or governor refusal.
func (o *Orchestrator) Augment(
	ctx context.Context,
	subjectID string,
	content string,
	kinds []domain.ArtifactType,
) (*AugmentResult, error) {
	log := logger.FromContextOrDefault(ctx, o.logger).With("subject_id", subjectID)

	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	if len(kinds) == 0 {
		for _, f := range o.cfg.Features {
			kinds = append(kinds, domain.ArtifactType(f))
		}
	}
	if len(kinds) == 0 {
		return nil, ErrNoArtifactTypes
	}
	for _, k := range kinds {
		if !domain.IsValidArtifactType(k) {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidArtifact, k)
		}
	}

	if err := o.gov.Acquire(governor.ResourceConcurrency, 1); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBusy, err)
	}
	defer o.gov.Release(governor.ResourceConcurrency, 1)

	memCost := int64(len(content))
	if err := o.gov.Acquire(governor.ResourceMemory, memCost); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBusy, err)
	}
	defer o.gov.Release(governor.ResourceMemory, memCost)

	if o.timeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeLimit)
		defer cancel()
	}

	segments := segment.Split(content, o.segmentStrategy())
	vars := o.promptVars()

	log.Info("augmenting content",
		"content_length", len(content),
		"segment_count", len(segments),
		"artifact_types", len(kinds))

	// One slot per requested type; each task writes only its own index.
	artifacts := make([]*domain.Artifact, len(kinds))
	hits := make([]bool, len(kinds))

	tasks := make([]executor.Func, len(kinds))
	for i, kind := range kinds {
		i, kind := i, kind
		tasks[i] = func(ctx context.Context) (string, error) {
			a, hit, err := o.cache.GetOrGenerate(ctx, subjectID, kind, func(ctx context.Context) (string, error) {
				return o.generateKind(ctx, kind, content, segments, vars)
			})
			if err != nil {
				return "", err
			}
			artifacts[i] = a
			hits[i] = hit
			return a.Content, nil
		}
	}

	kindExec := executor.New(len(kinds), o.logger)
	results := kindExec.Run(ctx, tasks)

	out := &AugmentResult{
		Artifacts: make(map[domain.ArtifactType]*domain.Artifact),
		CacheHits: make(map[domain.ArtifactType]bool),
		Errors:    make(map[domain.ArtifactType]error),
	}
	for i, kind := range kinds {
		if results[i].Err != nil {
			log.Warn("artifact generation failed",
				"artifact_type", string(kind),
				"error", results[i].Err)
			out.Errors[kind] = results[i].Err
			continue
		}
		out.Artifacts[kind] = artifacts[i]
		out.CacheHits[kind] = hits[i]
	}

	return out, nil
}

// generateKind produces the content for one artifact type. Summaries and
// tags are generated per segment and combined; the category comes from the
// first segment; SEO metadata is generated from the full text.
func (o *Orchestrator) generateKind(
	ctx context.Context,
	kind domain.ArtifactType,
	content string,
	segments []string,
	vars generation.PromptVars,
) (string, error) {
	override := o.cfg.Prompts[string(kind)]

	switch kind {
	case domain.ArtifactSummary:
		parts, err := o.generatePerSegment(ctx, kind, override, segments, vars)
		if err != nil {
			return "", err
		}
		return generation.CombineSummaries(parts, vars.MaxLength), nil

	case domain.ArtifactTags:
		parts, err := o.generatePerSegment(ctx, kind, override, segments, vars)
		if err != nil {
			return "", err
		}
		merged := generation.NormalizeTags(strings.Split(strings.Join(parts, ","), ","), vars.MaxTags)
		if len(merged) == 0 {
			return "", fmt.Errorf("%w: no usable tags across segments", generation.ErrInvalidResponse)
		}
		return strings.Join(merged, ","), nil

	case domain.ArtifactCategory:
		suggested, err := o.refineOne(ctx, kind, override, segments[0], vars)
		if err != nil {
			return "", err
		}
		if matched := generation.MatchCategory(suggested, o.cfg.DefaultCategory, vars.Categories); matched != "" {
			return matched, nil
		}
		return suggested, nil

	case domain.ArtifactSEO:
		return o.refineOne(ctx, kind, override, content, vars)

	default:
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidArtifact, kind)
	}
}

// generatePerSegment runs the refinement loop once per segment through the
// concurrent executor and returns the per-segment outputs in input order.
func (o *Orchestrator) generatePerSegment(
	ctx context.Context,
	kind domain.ArtifactType,
	override string,
	segments []string,
	vars generation.PromptVars,
) ([]string, error) {
	tasks := make([]executor.Func, len(segments))
	for i, seg := range segments {
		seg := seg
		tasks[i] = func(ctx context.Context) (string, error) {
			return o.refineOne(ctx, kind, override, seg, vars)
		}
	}

	segExec := executor.New(o.segmentConcurrency(), o.logger)
	results := segExec.Run(ctx, tasks)

	parts := make([]string, len(results))
	for i, res := range results {
		if res.Err != nil {
			return nil, fmt.Errorf("segment %d of %d failed: %w", i+1, len(results), res.Err)
		}
		parts[i] = res.Value
	}
	return parts, nil
}

func (o *Orchestrator) refineOne(
	ctx context.Context,
	kind domain.ArtifactType,
	override string,
	text string,
	vars generation.PromptVars,
) (string, error) {
	systemPrompt, err := generation.RenderPrompt(kind, override, vars, text)
	if err != nil {
		return "", err
	}
	return o.refiner.Refine(ctx, kind, systemPrompt, text, vars, o.cfg.MaxRefineAttempts)
}

func (o *Orchestrator) promptVars() generation.PromptVars {
	return generation.PromptVars{
		Language:   o.cfg.Language,
		MaxLength:  o.cfg.MaxSummaryLength,
		MaxTags:    o.cfg.MaxTags,
		SEOLength:  o.cfg.SEOLength,
		Categories: o.cfg.Categories,
	}
}

func (o *Orchestrator) segmentStrategy() segment.Strategy {
	method := segment.MethodHybrid
	if o.cfg.SegmentOverlap > 0 {
		method = segment.MethodSmart
	}
	return segment.Strategy{
		MaxLength: o.cfg.SegmentMaxLength,
		MinLength: o.cfg.SegmentMinLength,
		Overlap:   o.cfg.SegmentOverlap,
		Method:    method,
	}
}

// segmentConcurrency bounds the per-kind segment fan-out so one run cannot
// saturate the gateway on its own.
func (o *Orchestrator) segmentConcurrency() int {
	if o.maxConcurrent > 0 {
		return o.maxConcurrent
	}
	return 4
}
