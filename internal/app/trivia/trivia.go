/*
Package trivia scores a lobby trivia round.

The registry forwards every lobby chat line here while a question is open; the
first correct answer wins the round and banks a point.
*/
package trivia

import (
	"strings"
	"sync"

	"krelay/internal/pkg/logx"
)

// Scorer judges lobby chat lines against the open trivia question.
type Scorer interface {
	// IsAnswered reports whether the current question has already been won.
	IsAnswered() bool

	// IsCorrect reports whether the chat line answers the open question.
	IsCorrect(message string) bool

	// AddScore banks a point for the winning user and closes the question.
	AddScore(username, address, answer string)
}

// Game is the in-process Scorer. A nil *Game is a disabled scorer: every
// question reads as answered, so the registry's forwarding becomes a no-op.
type Game struct {
	mu       sync.Mutex
	answers  []string
	answered bool
	scores   map[string]int
}

// NewGame returns a scorer with no question open.
func NewGame() *Game {
	return &Game{answered: true, scores: make(map[string]int)}
}

// AskQuestion opens a new round with the accepted answers.
func (g *Game) AskQuestion(answers ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.answers = answers
	g.answered = false
}

func (g *Game) IsAnswered() bool {
	if g == nil {
		return true
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.answered
}

func (g *Game) IsCorrect(message string) bool {
	if g == nil {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	guess := strings.TrimSpace(strings.ToLower(message))
	for _, answer := range g.answers {
		if guess == strings.ToLower(answer) {
			return true
		}
	}
	return false
}

func (g *Game) AddScore(username, address, answer string) {
	if g == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scores[username]++
	g.answered = true
	logx.Info("trivia round won",
		"username", username, "address", address, "answer", answer)
}

// Score returns a user's banked points.
func (g *Game) Score(username string) int {
	if g == nil {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.scores[username]
}
