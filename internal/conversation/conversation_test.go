package conversation

import (
	"testing"

	"github.com/corvohq/turnbench/internal/seed"
)

func testDoc() *seed.Document {
	return &seed.Document{Name: "d.go", Content: "package d", Category: seed.CategoryCode}
}

func TestRecordSampleOrderingAndCompletion(t *testing.T) {
	c := New(0, testDoc())
	budget := 3

	for i := range budget {
		if c.Completed() {
			t.Fatalf("completed before turn %d", i)
		}
		done := c.RecordSample(TurnSample{TotalMs: float64(i)}, budget)
		if wantDone := i == budget-1; done != wantDone {
			t.Errorf("turn %d: done = %v, want %v", i, done, wantDone)
		}
		if c.TurnsCompleted() != i+1 {
			t.Errorf("turn %d: turnsCompleted = %d, want %d", i, c.TurnsCompleted(), i+1)
		}
	}

	samples := c.Samples()
	if len(samples) != budget {
		t.Fatalf("len(samples) = %d, want %d", len(samples), budget)
	}
	for i, s := range samples {
		if s.Turn != i {
			t.Errorf("samples[%d].Turn = %d, want %d (monotonic, no gaps)", i, s.Turn, i)
		}
	}
	if c.TurnsCompleted() != len(samples) {
		t.Error("turnsCompleted diverged from len(samples)")
	}
	if !c.Completed() {
		t.Error("conversation not complete after exhausting budget")
	}
}

func TestMessageHistoryOrder(t *testing.T) {
	c := New(1, testDoc())
	c.AppendUser("q1")
	c.AppendAssistant("a1")
	c.AppendUser("q2")

	msgs := c.Messages()
	if len(msgs) != 3 {
		t.Fatalf("len(messages) = %d, want 3", len(msgs))
	}
	wantRoles := []string{"user", "assistant", "user"}
	for i, m := range msgs {
		if m.Role != wantRoles[i] {
			t.Errorf("messages[%d].Role = %q, want %q", i, m.Role, wantRoles[i])
		}
	}
}

func TestNewSetCyclesDocuments(t *testing.T) {
	docs := []seed.Document{
		{Name: "a.go", Category: seed.CategoryCode},
		{Name: "b.md", Category: seed.CategoryText},
	}
	convs := NewSet(5, docs)

	if len(convs) != 5 {
		t.Fatalf("len(convs) = %d, want 5", len(convs))
	}
	for i, c := range convs {
		if c.ID != i {
			t.Errorf("convs[%d].ID = %d", i, c.ID)
		}
		if want := docs[i%2].Name; c.Document.Name != want {
			t.Errorf("convs[%d].Document = %q, want %q", i, c.Document.Name, want)
		}
	}
}

func TestAllComplete(t *testing.T) {
	convs := NewSet(2, []seed.Document{{Name: "a.go", Category: seed.CategoryCode}})
	if AllComplete(convs) {
		t.Error("AllComplete true for fresh conversations")
	}
	convs[0].RecordSample(TurnSample{}, 1)
	if AllComplete(convs) {
		t.Error("AllComplete true with one conversation outstanding")
	}
	convs[1].RecordSample(TurnSample{}, 1)
	if !AllComplete(convs) {
		t.Error("AllComplete false after all budgets exhausted")
	}
}
