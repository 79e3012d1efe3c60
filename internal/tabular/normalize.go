package tabular

// Canonical long-table column names.
const (
	ColStudentID   = "student_id"
	ColStudentName = "student_name"
	ColSkill       = "skill"
	ColScore       = "score"
)

// Wide-schema column names produced by the score export.
const (
	WideStudentID   = "StudentID"
	WideStudentName = "StudentName"
)

// SkillColumns are the four fixed per-skill score columns of the wide
// schema, in export order.
var SkillColumns = []string{
	"LanguageFunction",
	"ReadingComprehension",
	"Grammar",
	"Writing",
}

// Normalize reshapes a wide per-skill score table into the canonical
// long form: each wide row yields one row per skill column, carrying
// the same student id and name. The decision is structural only: if
// the full wide schema is not present the input is assumed to already
// be canonical and returned unchanged. Score cells are copied verbatim,
// never parsed, and no row is ever dropped.
func Normalize(t Table) Table {
	required := append([]string{WideStudentID, WideStudentName}, SkillColumns...)
	if !t.HasColumns(required...) {
		return t
	}

	idIdx := t.ColumnIndex(WideStudentID)
	nameIdx := t.ColumnIndex(WideStudentName)

	out := Table{
		Columns: []string{ColStudentID, ColStudentName, ColSkill, ColScore},
		Rows:    make([][]string, 0, len(t.Rows)*len(SkillColumns)),
	}
	for _, row := range t.Rows {
		for _, skill := range SkillColumns {
			out.Rows = append(out.Rows, []string{
				row[idIdx],
				row[nameIdx],
				skill,
				row[t.ColumnIndex(skill)],
			})
		}
	}
	return out
}
