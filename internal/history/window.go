package history

import (
	"sync"

	"github.com/soyeahso/interviewd/internal/domain"
	"github.com/soyeahso/interviewd/internal/logging"
)

// Budget bounds one conversation window.
type Budget struct {
	MaxTokens   int
	MaxMessages int
	MinMessages int
}

// Window is the bounded, ordered store of user/agent turns for one session.
// System instructions are held separately and never evicted. Eviction is
// strictly oldest-first and never shrinks the window below MinMessages,
// even under token pressure; in that case the overflow is logged and
// accepted rather than losing conversational continuity.
type Window struct {
	budget   Budget
	estimate Estimator
	log      *logging.Logger

	mu           sync.Mutex
	instructions string
	turns        []domain.Turn
	tokens       []int
	totalTokens  int
}

// NewWindow creates a window with the given budget. A nil estimator
// defaults to EstimateTokens.
func NewWindow(budget Budget, estimate Estimator, log *logging.Logger) *Window {
	if estimate == nil {
		estimate = EstimateTokens
	}
	return &Window{
		budget:   budget,
		estimate: estimate,
		log:      log.Sub("history"),
	}
}

// SetInstructions stores the fixed system instructions. They are tracked
// outside the window and excluded from the truncation budget.
func (w *Window) SetInstructions(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.instructions = text
}

// Append inserts a user or agent turn at the end of the window and then
// truncates. System turns are ignored; they have no place in the window.
func (w *Window) Append(turn domain.Turn) {
	if turn.Role != domain.RoleUser && turn.Role != domain.RoleAgent {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	tokens := w.estimate(turn.Content)
	w.turns = append(w.turns, turn)
	w.tokens = append(w.tokens, tokens)
	w.totalTokens += tokens

	w.truncateLocked()
}

// truncateLocked evicts oldest-first until both budgets hold or the
// MinMessages floor is reached.
func (w *Window) truncateLocked() {
	evicted := 0
	for len(w.turns) > w.budget.MinMessages &&
		(w.totalTokens > w.budget.MaxTokens || len(w.turns) > w.budget.MaxMessages) {
		w.totalTokens -= w.tokens[0]
		w.turns = w.turns[1:]
		w.tokens = w.tokens[1:]
		evicted++
	}

	if evicted > 0 {
		w.log.Debug().Int("evicted", evicted).Int("remaining", len(w.turns)).Msg("window truncated")
	}
	if w.totalTokens > w.budget.MaxTokens {
		// Floor wins over budget: overflow is recorded, never dropped
		// silently and never raised as an error.
		w.log.Warn().
			Int("tokens", w.totalTokens).
			Int("maxTokens", w.budget.MaxTokens).
			Int("turns", len(w.turns)).
			Msg("window over token budget at minimum size, accepting overflow")
	}
}

// Materialize returns the system instructions and a copy of the current
// window in order. It is called immediately before every generation call;
// two calls without an intervening Append return identical content.
func (w *Window) Materialize() (string, []domain.Turn) {
	w.mu.Lock()
	defer w.mu.Unlock()

	turns := make([]domain.Turn, len(w.turns))
	copy(turns, w.turns)
	return w.instructions, turns
}

// Len returns the number of turns currently in the window.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.turns)
}

// TokenCount returns the current estimated token total of the window.
func (w *Window) TokenCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.totalTokens
}
