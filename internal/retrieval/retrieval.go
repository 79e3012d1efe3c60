package retrieval

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/worksheet-gen/backend/internal/tabular"
)

// MaxBullets bounds the context injected into a generation request.
const MaxBullets = 8

// Field is one descriptive column of a reference entry. Fields keep
// the source table's column order so bullets read the same way the
// curriculum sheet does.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Entry is one row of the curriculum reference bank: the grade and
// skill it applies to, plus whatever descriptive columns the sheet
// happened to carry (topic, objective, example, ...).
type Entry struct {
	Grade  string  `json:"grade"`
	Skill  string  `json:"skill"`
	Fields []Field `json:"fields"`
}

// Load extracts reference entries from an uploaded table. A table
// without both a grade and a skill column is unusable and yields an
// empty bank, which is normal, not an error. Every column other than
// grade and skill becomes a descriptive field.
func Load(t tabular.Table) []Entry {
	gradeIdx := findColumn(t, "grade")
	skillIdx := findColumn(t, "skill")
	if gradeIdx < 0 || skillIdx < 0 {
		return nil
	}

	entries := make([]Entry, 0, len(t.Rows))
	for _, row := range t.Rows {
		e := Entry{Grade: row[gradeIdx], Skill: row[skillIdx]}
		for i, col := range t.Columns {
			if i == gradeIdx || i == skillIdx {
				continue
			}
			e.Fields = append(e.Fields, Field{Name: col, Value: row[i]})
		}
		entries = append(entries, e)
	}
	return entries
}

func findColumn(t tabular.Table, name string) int {
	for i, c := range t.Columns {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}

// Retrieve filters the bank down to entries matching the target grade
// and skill and formats each as one context bullet, in bank order,
// truncated to MaxBullets. Grades are compared as strings to tolerate
// numeric/text mismatches in the sheet; skills are compared
// case-insensitively. Retrieval is best-effort enrichment: an empty or
// unusable bank simply produces no bullets.
func Retrieve(entries []Entry, skill string, targetGrade int) []string {
	grade := strconv.Itoa(targetGrade)

	var bullets []string
	for _, e := range entries {
		if strings.TrimSpace(e.Grade) != grade {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(e.Skill), strings.TrimSpace(skill)) {
			continue
		}
		bullets = append(bullets, formatBullet(e))
		if len(bullets) == MaxBullets {
			break
		}
	}
	return bullets
}

func formatBullet(e Entry) string {
	var parts []string
	for _, f := range e.Fields {
		if strings.TrimSpace(f.Value) == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", f.Name, f.Value))
	}
	return fmt.Sprintf("- Grade %s, Skill %s: %s", e.Grade, e.Skill, strings.Join(parts, " | "))
}
