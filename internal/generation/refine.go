package generation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/darvell/inkmill/internal/domain"
	"github.com/darvell/inkmill/internal/platform/logger"
)

// Instructions appended to the user prompt when an attempt scores poorly.
const (
	strongerConstraintHint = "\n\nThe previous answer did not satisfy the requirements. " +
		"Follow the system instructions exactly: respect the length and format limits, " +
		"and output nothing beyond what was asked."
	refinementHint = "\n\nRefine the previous answer: keep what is accurate, " +
		"tighten the wording, and make sure the format constraints are met."
)

// Refiner drives the quality refinement loop: generate, score, adjust the
// prompt, and keep the best attempt within a bounded budget.
type Refiner struct {
	gateway   Gateway
	threshold float64
	logger    *slog.Logger
}

// NewRefiner creates a Refiner. threshold is the early-exit quality score;
// values outside (0,1] fall back to the package default.
func NewRefiner(gateway Gateway, threshold float64, log *slog.Logger) *Refiner {
	if threshold <= 0 || threshold > 1 {
		threshold = qualityGoodEnough
	}
	if log == nil {
		log = slog.Default()
	}
	return &Refiner{
		gateway:   gateway,
		threshold: threshold,
		logger:    log.With("component", "refiner"),
	}
}

// Refine generates an artifact of the given type, re-prompting up to
// maxAttempts times while the quality score stays below the threshold.
// It returns the best-scoring attempt observed; later regressions never
// replace an earlier better result. Attempts that fail at the transport
// or post-processing layer still consume the budget. Only total exhaustion
// with zero usable attempts returns ErrGenerationFailed.
func (r *Refiner) Refine(
	ctx context.Context,
	kind domain.ArtifactType,
	systemPrompt, userPrompt string,
	vars PromptVars,
	maxAttempts int,
) (string, error) {
	if userPrompt == "" {
		return "", ErrEmptyPrompt
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	log := logger.FromContextOrDefault(ctx, r.logger).With("artifact_type", string(kind))

	var (
		best      string
		bestScore = -1.0
		lastErr   error
	)

	prompt := userPrompt
	for attempt := 0; attempt < maxAttempts; attempt++ {
		raw, err := r.gateway.Generate(ctx, systemPrompt, prompt)
		if err != nil {
			lastErr = err
			log.Warn("generation attempt failed",
				"attempt", attempt+1,
				"max_attempts", maxAttempts,
				"error", err)
			continue
		}

		processed, err := PostProcess(kind, raw, vars)
		if err != nil {
			lastErr = err
			log.Warn("generated output failed post-processing",
				"attempt", attempt+1,
				"error", err)
			continue
		}

		score := Score(kind, processed, vars)
		log.Debug("scored generation attempt",
			"attempt", attempt+1,
			"score", score)

		if score > bestScore {
			best = processed
			bestScore = score
		}

		if score >= r.threshold {
			// Good enough, stop early.
			return best, nil
		}

		prompt = adjustPrompt(userPrompt, score)
	}

	if bestScore < 0 {
		return "", fmt.Errorf("%w: %d attempts, last error: %v",
			ErrGenerationFailed, maxAttempts, lastErr)
	}

	log.Info("refinement budget exhausted, returning best attempt",
		"best_score", bestScore,
		"max_attempts", maxAttempts)
	return best, nil
}

// adjustPrompt derives the next attempt's user prompt from the original
// one based on the latest score: strong constraints below qualityPoor, a
// refinement hint up to qualityMediocre, unchanged above that.
func adjustPrompt(original string, score float64) string {
	switch {
	case score < qualityPoor:
		return original + strongerConstraintHint
	case score < qualityMediocre:
		return original + refinementHint
	default:
		return original
	}
}
