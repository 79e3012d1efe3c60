package retrieval

import (
	"strings"
	"testing"

	"github.com/worksheet-gen/backend/internal/tabular"
)

func bankTable() tabular.Table {
	return tabular.Table{
		Columns: []string{"grade", "skill", "topic", "objective", "example"},
		Rows: [][]string{
			{"3", "Grammar", "Past tense", "Use regular past tense verbs", "walked, played"},
			{"3", "Grammar", "Articles", "Choose a vs an", ""},
			{"3", "Writing", "Paragraphs", "Write a topic sentence", "My cat is lazy."},
			{"4", "Grammar", "Prepositions", "Use in, on, at", "at noon"},
		},
	}
}

func TestRetrieve_CaseInsensitiveSkillMatch(t *testing.T) {
	entries := Load(bankTable())

	bullets := Retrieve(entries, "grammar", 3)

	if len(bullets) != 2 {
		t.Fatalf("expected 2 bullets, got %d: %v", len(bullets), bullets)
	}
	for i, b := range bullets {
		if !strings.HasPrefix(b, "- Grade 3, Skill Grammar:") {
			t.Errorf("bullet %d = %q, want prefix %q", i, b, "- Grade 3, Skill Grammar:")
		}
	}
}

func TestRetrieve_BulletFormat(t *testing.T) {
	entries := Load(bankTable())

	bullets := Retrieve(entries, "Grammar", 3)
	if len(bullets) < 2 {
		t.Fatalf("expected at least 2 bullets, got %d", len(bullets))
	}

	want := "- Grade 3, Skill Grammar: topic: Past tense | objective: Use regular past tense verbs | example: walked, played"
	if bullets[0] != want {
		t.Errorf("bullet = %q\nwant     %q", bullets[0], want)
	}

	// Second entry has an empty example, so the field is omitted entirely.
	if strings.Contains(bullets[1], "example") {
		t.Errorf("empty field should be omitted: %q", bullets[1])
	}
}

func TestRetrieve_NoMatches(t *testing.T) {
	entries := Load(bankTable())

	if got := Retrieve(entries, "Grammar", 6); len(got) != 0 {
		t.Errorf("expected empty context for grade 6, got %v", got)
	}
	if got := Retrieve(entries, "Listening", 3); len(got) != 0 {
		t.Errorf("expected empty context for unknown skill, got %v", got)
	}
}

func TestRetrieve_Truncation(t *testing.T) {
	table := tabular.Table{Columns: []string{"grade", "skill", "topic"}}
	for i := 0; i < 12; i++ {
		table.Rows = append(table.Rows, []string{"3", "Grammar", "Topic"})
	}

	bullets := Retrieve(Load(table), "Grammar", 3)
	if len(bullets) != MaxBullets {
		t.Errorf("expected %d bullets, got %d", MaxBullets, len(bullets))
	}
}

func TestLoad_MissingGradeColumn(t *testing.T) {
	table := tabular.Table{
		Columns: []string{"level", "skill", "topic"},
		Rows:    [][]string{{"3", "Grammar", "Past tense"}},
	}

	entries := Load(table)
	if len(entries) != 0 {
		t.Errorf("table without grade column should yield an empty bank, got %d entries", len(entries))
	}

	// Retrieval over the empty bank degrades silently.
	if got := Retrieve(entries, "Grammar", 3); len(got) != 0 {
		t.Errorf("expected empty context, got %v", got)
	}
}

func TestLoad_ColumnHeadersCaseInsensitive(t *testing.T) {
	table := tabular.Table{
		Columns: []string{"Grade", "Skill", "Topic"},
		Rows:    [][]string{{"2", "Writing", "Sentences"}},
	}

	entries := Load(table)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Grade != "2" || entries[0].Skill != "Writing" {
		t.Errorf("entry = %+v", entries[0])
	}
}

func TestRetrieve_OriginalOrderPreserved(t *testing.T) {
	table := tabular.Table{
		Columns: []string{"grade", "skill", "topic"},
		Rows: [][]string{
			{"3", "Grammar", "First"},
			{"3", "Grammar", "Second"},
			{"3", "Grammar", "Third"},
		},
	}

	bullets := Retrieve(Load(table), "Grammar", 3)
	if len(bullets) != 3 {
		t.Fatalf("expected 3 bullets, got %d", len(bullets))
	}
	for i, topic := range []string{"First", "Second", "Third"} {
		if !strings.Contains(bullets[i], topic) {
			t.Errorf("bullet %d = %q, want topic %q", i, bullets[i], topic)
		}
	}
}
