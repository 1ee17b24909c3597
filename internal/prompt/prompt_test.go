package prompt

import (
	"strings"
	"testing"

	"github.com/corvohq/turnbench/internal/seed"
)

func TestStarterDeterministic(t *testing.T) {
	doc := &seed.Document{Name: "x.go", Content: "package x", Category: seed.CategoryCode}
	p := New()

	a := p.Starter(doc, 3)
	b := p.Starter(doc, 3)
	if a != b {
		t.Error("starter for the same conversation ID differs between calls")
	}
	if !strings.Contains(a, doc.Content) {
		t.Error("starter does not embed the document content")
	}
	if !strings.HasPrefix(a, codeStarters[3%len(codeStarters)]) {
		t.Errorf("starter instruction = %q, want table entry %d", a, 3%len(codeStarters))
	}
}

func TestStarterWrapsAroundTable(t *testing.T) {
	doc := &seed.Document{Name: "n.md", Content: "notes", Category: seed.CategoryText}
	p := New()

	n := len(textStarters)
	if got, want := p.Starter(doc, n+2), p.Starter(doc, 2); got != want {
		t.Error("conversation IDs differing by table length should select the same starter")
	}
}

func TestContinuationFromCategoryTable(t *testing.T) {
	p := NewSeeded(1)

	seen := map[string]bool{}
	for range 100 {
		c := p.Continuation(seed.CategoryCode)
		seen[c] = true
		found := false
		for _, entry := range codeContinuations {
			if c == entry {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("continuation %q not in code table", c)
		}
	}
	if len(seen) < 2 {
		t.Error("continuation selection never varied across 100 draws")
	}
}

func TestTablesNonEmpty(t *testing.T) {
	for name, table := range map[string][]string{
		"codeStarters":      codeStarters,
		"textStarters":      textStarters,
		"codeContinuations": codeContinuations,
		"textContinuations": textContinuations,
		"WarmupPrompts":     WarmupPrompts,
	} {
		if len(table) == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}
