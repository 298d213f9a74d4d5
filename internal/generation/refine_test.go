package generation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darvell/inkmill/internal/domain"
)

// scriptedGateway replays a fixed sequence of responses and errors,
// recording the prompts it received.
type scriptedGateway struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (g *scriptedGateway) Generate(_ context.Context, _, userPrompt string) (string, error) {
	idx := g.calls
	g.calls++
	g.prompts = append(g.prompts, userPrompt)

	if idx < len(g.errs) && g.errs[idx] != nil {
		return "", g.errs[idx]
	}
	if idx < len(g.responses) {
		return g.responses[idx], nil
	}
	return "", errors.New("gateway script exhausted")
}

func TestRefineStopsEarlyOnGoodScore(t *testing.T) {
	t.Parallel()

	gw := &scriptedGateway{
		responses: []string{"Each word here differs completely."},
	}
	r := NewRefiner(gw, 0.8, nil)

	got, err := r.Refine(context.Background(), domain.ArtifactSummary,
		"system", "summarize this", PromptVars{MaxLength: 100}, 3)

	require.NoError(t, err)
	assert.Equal(t, "Each word here differs completely.", got)
	assert.Equal(t, 1, gw.calls)
}

func TestRefineReturnsBestAttemptWhenBudgetExhausted(t *testing.T) {
	t.Parallel()

	// Scores ~0.79 then ~0.44; the loop must run both attempts and keep the
	// first, better one.
	gw := &scriptedGateway{
		responses: []string{
			"word word word word word word word.",
			"word word word word word word word",
		},
	}
	r := NewRefiner(gw, 0.8, nil)

	got, err := r.Refine(context.Background(), domain.ArtifactSummary,
		"system", "summarize this", PromptVars{MaxLength: 100}, 2)

	require.NoError(t, err)
	assert.Equal(t, "word word word word word word word.", got)
	assert.Equal(t, 2, gw.calls)
}

func TestRefineTransportFailuresConsumeBudget(t *testing.T) {
	t.Parallel()

	transportErr := errors.New("connection reset")
	gw := &scriptedGateway{
		errs: []error{transportErr, transportErr, transportErr},
	}
	r := NewRefiner(gw, 0.8, nil)

	_, err := r.Refine(context.Background(), domain.ArtifactSummary,
		"system", "summarize this", PromptVars{MaxLength: 100}, 3)

	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.Equal(t, 3, gw.calls)
}

func TestRefineRecoversAfterTransportFailure(t *testing.T) {
	t.Parallel()

	gw := &scriptedGateway{
		errs:      []error{errors.New("timeout"), nil},
		responses: []string{"", "Each word here differs completely."},
	}
	r := NewRefiner(gw, 0.8, nil)

	got, err := r.Refine(context.Background(), domain.ArtifactSummary,
		"system", "summarize this", PromptVars{MaxLength: 100}, 3)

	require.NoError(t, err)
	assert.Equal(t, "Each word here differs completely.", got)
	assert.Equal(t, 2, gw.calls)
}

func TestRefineAppliesStrongConstraintsAfterPoorScore(t *testing.T) {
	t.Parallel()

	// A rambling multi-line category scores 0.2, below the poor threshold,
	// so the second prompt must carry the strong constraint suffix.
	gw := &scriptedGateway{
		responses: []string{
			"this first line alone runs well past fifty characters in length\nextra",
			"Tech",
		},
	}
	r := NewRefiner(gw, 0.8, nil)

	got, err := r.Refine(context.Background(), domain.ArtifactCategory,
		"system", "pick a category", PromptVars{Categories: []string{"Tech", "Life"}}, 3)

	require.NoError(t, err)
	assert.Equal(t, "Tech", got)
	require.Len(t, gw.prompts, 2)
	assert.Equal(t, "pick a category", gw.prompts[0])
	assert.True(t, strings.HasPrefix(gw.prompts[1], "pick a category"))
	assert.Contains(t, gw.prompts[1], "Follow the system instructions exactly")
}

func TestRefineAppliesRefinementHintAfterMediocreScore(t *testing.T) {
	t.Parallel()

	// Scores 0.46 (mediocre band) then 1.0.
	gw := &scriptedGateway{
		responses: []string{
			"word word word word word",
			"Each word here differs completely.",
		},
	}
	r := NewRefiner(gw, 0.8, nil)

	_, err := r.Refine(context.Background(), domain.ArtifactSummary,
		"system", "summarize this", PromptVars{MaxLength: 100}, 3)

	require.NoError(t, err)
	require.Len(t, gw.prompts, 2)
	assert.Contains(t, gw.prompts[1], "Refine the previous answer")
}

func TestRefineEmptyPrompt(t *testing.T) {
	t.Parallel()

	r := NewRefiner(&scriptedGateway{}, 0.8, nil)
	_, err := r.Refine(context.Background(), domain.ArtifactSummary,
		"system", "", PromptVars{}, 3)

	assert.ErrorIs(t, err, ErrEmptyPrompt)
}
