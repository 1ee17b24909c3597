// Package prompt holds the static prompt tables and selection rules for
// benchmark conversations. Starters are deterministic per conversation so a
// re-run issues the same opening request; continuations are drawn at random to
// vary the short follow-up turns.
package prompt

import (
	"math/rand/v2"
	"sync"

	"github.com/corvohq/turnbench/internal/seed"
)

var codeStarters = []string{
	"Review this code and identify any bugs or issues that need to be fixed:",
	"Add detailed comments to explain what each function does in this code:",
	"Refactor this code to improve readability and maintainability:",
	"Identify potential security vulnerabilities in this code:",
	"Suggest performance optimizations for this code:",
	"Write unit tests for the main functions in this code:",
	"Explain the overall architecture and design patterns used in this code:",
	"Find any code smells or anti-patterns in this code:",
}

var textStarters = []string{
	"Summarize the main points of this document:",
	"Create a bulleted list of the key takeaways from this document:",
	"Explain the most important concepts discussed in this document:",
	"What are the main arguments or findings presented in this document?",
	"Create an executive summary of this document:",
	"Identify the key themes and topics covered in this document:",
	"What conclusions can be drawn from this document?",
	"Extract the most important facts and figures from this document:",
}

var codeContinuations = []string{
	"The code still has issues. Can you look more carefully?",
	"Can you explain that fix in more detail?",
	"Are there any other bugs you might have missed?",
	"How would you improve the error handling?",
	"What about edge cases - are those handled properly?",
	"Can you show me what the fixed code would look like?",
	"Is there a more efficient way to implement this?",
	"What tests would you write to verify these fixes?",
	"Are there any security concerns I should be aware of?",
	"How would you refactor this to be more maintainable?",
}

var textContinuations = []string{
	"Can you make that summary longer and more detailed?",
	"That's too long. Can you make it more concise?",
	"Can you focus more on the technical aspects?",
	"What are the practical implications of these findings?",
	"Can you explain that in simpler terms?",
	"Are there any counterarguments to consider?",
	"How does this compare to other work in the field?",
	"What are the limitations mentioned in the document?",
	"Can you highlight the most surprising or novel findings?",
	"What questions does this document leave unanswered?",
}

// WarmupPrompts are short standalone questions used by the warm-up phase.
// They deliberately share no prefix with the benchmark prompts.
var WarmupPrompts = []string{
	"What is the capital of France?",
	"How many planets are in the solar system?",
	"What color is the sky?",
	"Who wrote Romeo and Juliet?",
	"What is 2 + 2?",
	"Name a popular programming language",
	"What is the largest ocean?",
	"How many days are in a week?",
	"What is the speed of light?",
	"Name a famous scientist",
	"What is photosynthesis?",
	"How many continents are there?",
	"What is the capital of Japan?",
	"Name a famous painter",
	"What is gravity?",
	"How many hours in a day?",
	"What is the largest mammal?",
	"Name a famous composer",
	"What causes rain?",
	"What is the smallest planet?",
}

// Provider selects prompt text for conversation turns. Safe for concurrent use.
type Provider struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Provider with a randomly seeded source.
func New() *Provider {
	return NewSeeded(rand.Uint64())
}

// NewSeeded returns a Provider with a fixed seed, for reproducible selection.
func NewSeeded(s uint64) *Provider {
	return &Provider{rng: rand.New(rand.NewPCG(s, s))}
}

// Starter returns the opening prompt for a conversation: an instruction picked
// deterministically by conversation ID, followed by the seed document content
// in a fenced block.
func (p *Provider) Starter(doc *seed.Document, convID int) string {
	table := textStarters
	if doc.Category == seed.CategoryCode {
		table = codeStarters
	}
	instruction := table[convID%len(table)]
	return instruction + "\n\n```\n" + doc.Content + "\n```"
}

// Continuation returns a follow-up prompt chosen uniformly at random from the
// category's table.
func (p *Provider) Continuation(cat seed.Category) string {
	table := textContinuations
	if cat == seed.CategoryCode {
		table = codeContinuations
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return table[p.rng.IntN(len(table))]
}
