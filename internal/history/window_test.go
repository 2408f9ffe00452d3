package history

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/interviewd/internal/domain"
	"github.com/soyeahso/interviewd/internal/logging"
)

func silentLog() *logging.Logger {
	return logging.New(nil, "silent")
}

// fixedEstimator makes every turn cost exactly n tokens so tests can reason
// about the budget without depending on the real heuristic.
func fixedEstimator(n int) Estimator {
	return func(string) int { return n }
}

func turn(role string, i int) domain.Turn {
	return domain.Turn{
		Role:      role,
		Content:   fmt.Sprintf("turn %d", i),
		Index:     i,
		Timestamp: time.Now(),
	}
}

func fillAlternating(w *Window, n int) {
	for i := 0; i < n; i++ {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAgent
		}
		w.Append(turn(role, i))
	}
}

func TestAppendAndMaterialize(t *testing.T) {
	w := NewWindow(Budget{MaxTokens: 1000, MaxMessages: 20, MinMessages: 6}, fixedEstimator(1), silentLog())
	w.SetInstructions("You are the interviewer.")

	fillAlternating(w, 4)

	instructions, turns := w.Materialize()
	assert.Equal(t, "You are the interviewer.", instructions)
	require.Len(t, turns, 4)
	for i, tr := range turns {
		assert.Equal(t, i, tr.Index, "order must be preserved")
	}
}

func TestSystemTurnsExcluded(t *testing.T) {
	w := NewWindow(Budget{MaxTokens: 1000, MaxMessages: 20, MinMessages: 6}, fixedEstimator(1), silentLog())

	w.Append(domain.Turn{Role: domain.RoleSystem, Content: "instructions"})
	assert.Equal(t, 0, w.Len())
}

func TestMessageLimitEvictsOldest(t *testing.T) {
	w := NewWindow(Budget{MaxTokens: 100000, MaxMessages: 20, MinMessages: 6}, fixedEstimator(1), silentLog())

	// Appending a 21st turn evicts exactly the oldest one.
	fillAlternating(w, 21)

	_, turns := w.Materialize()
	require.Len(t, turns, 20)
	assert.Equal(t, 1, turns[0].Index, "lowest remaining index is the 2nd-oldest original turn")
	assert.Equal(t, 20, turns[len(turns)-1].Index)
}

func TestTokenBudgetEvictsOldest(t *testing.T) {
	w := NewWindow(Budget{MaxTokens: 10, MaxMessages: 100, MinMessages: 2}, fixedEstimator(1), silentLog())

	fillAlternating(w, 15)

	_, turns := w.Materialize()
	assert.Len(t, turns, 10)
	assert.Equal(t, 5, turns[0].Index)
	assert.LessOrEqual(t, w.TokenCount(), 10)
}

func TestMinMessagesFloorWinsOverTokenBudget(t *testing.T) {
	// Every turn costs 100 tokens against a 10 token budget; the floor
	// must still hold and the overflow be accepted.
	w := NewWindow(Budget{MaxTokens: 10, MaxMessages: 20, MinMessages: 6}, fixedEstimator(100), silentLog())

	fillAlternating(w, 12)

	_, turns := w.Materialize()
	assert.Len(t, turns, 6, "truncation never removes below the floor")
	assert.Greater(t, w.TokenCount(), w.budget.MaxTokens, "overflow is accepted, not dropped")
}

func TestInvariantAfterEveryAppend(t *testing.T) {
	w := NewWindow(Budget{MaxTokens: 30, MaxMessages: 20, MinMessages: 6}, nil, silentLog())

	for i := 0; i < 60; i++ {
		w.Append(domain.Turn{Role: domain.RoleUser, Content: strings.Repeat("word ", i%7+1), Index: i})
		if w.Len() > w.budget.MinMessages {
			assert.LessOrEqual(t, w.TokenCount(), 30,
				"token budget must hold whenever above the floor")
		}
		assert.LessOrEqual(t, w.Len(), 20)
	}
}

func TestMaterializeIdempotent(t *testing.T) {
	w := NewWindow(Budget{MaxTokens: 1000, MaxMessages: 20, MinMessages: 6}, nil, silentLog())
	w.SetInstructions("sys")
	fillAlternating(w, 8)

	i1, t1 := w.Materialize()
	i2, t2 := w.Materialize()
	assert.Equal(t, i1, i2)
	assert.Equal(t, t1, t2)
}

func TestMaterializeReturnsCopy(t *testing.T) {
	w := NewWindow(Budget{MaxTokens: 1000, MaxMessages: 20, MinMessages: 6}, nil, silentLog())
	fillAlternating(w, 4)

	_, turns := w.Materialize()
	turns[0].Content = "mutated"

	_, again := w.Materialize()
	assert.Equal(t, "turn 0", again[0].Content, "caller mutations must not leak into the window")
}
