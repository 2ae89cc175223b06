package prompt

import (
	"strings"
	"unicode/utf8"

	"github.com/jstepanek/textlens/internal/models"
)

const (
	DefaultCharBudget   = 4000
	DefaultHistoryTurns = 6

	// TruncationMarker is appended to a document cut at the character budget.
	TruncationMarker = "..."
)

const instructions = "You are a helpful assistant that answers questions about a document. " +
	"Use the following document content to answer the user's questions accurately and helpfully. " +
	"If the answer isn't in the document, say so clearly."

// Composer builds the single text prompt sent to a backend.
//
// CharBudget:   maximum number of document characters (code points) embedded.
// HistoryTurns: number of trailing conversation turns embedded.
type Composer struct {
	CharBudget   int
	HistoryTurns int
}

func NewComposer(charBudget, historyTurns int) Composer {
	return Composer{CharBudget: charBudget, HistoryTurns: historyTurns}
}

// Compose is pure: identical inputs always produce an identical prompt.
func (c Composer) Compose(documentText string, history []models.ConversationTurn, newMessage string) string {
	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\nDocument Content:\n")
	b.WriteString(Truncate(documentText, c.charBudget()))
	b.WriteString("\n\nRecent conversation history:\n")
	b.WriteString(RenderHistory(history, c.historyTurns()))
	b.WriteString("\n\nPlease answer the user's question based on the document content above.")
	b.WriteString("\n\nUser: ")
	b.WriteString(newMessage)
	b.WriteString("\nAssistant:")
	return b.String()
}

func (c Composer) charBudget() int {
	if c.CharBudget <= 0 {
		return DefaultCharBudget
	}
	return c.CharBudget
}

func (c Composer) historyTurns() int {
	if c.HistoryTurns <= 0 {
		return DefaultHistoryTurns
	}
	return c.HistoryTurns
}

// Truncate keeps the first budget characters of text and appends
// TruncationMarker when anything was cut. The cut always lands on a rune
// boundary.
func Truncate(text string, budget int) string {
	if utf8.RuneCountInString(text) <= budget {
		return text
	}
	n := 0
	for i := range text {
		if n == budget {
			return text[:i] + TruncationMarker
		}
		n++
	}
	return text
}

// RenderHistory renders the last n turns, oldest first, one per line.
func RenderHistory(history []models.ConversationTurn, n int) string {
	if len(history) > n {
		history = history[len(history)-n:]
	}
	lines := make([]string, 0, len(history))
	for _, turn := range history {
		lines = append(lines, turn.Role.Label()+": "+turn.Content)
	}
	return strings.Join(lines, "\n")
}
