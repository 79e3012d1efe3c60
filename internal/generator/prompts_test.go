package generator

import (
	"strings"
	"testing"

	"github.com/worksheet-gen/backend/internal/models"
)

func TestSkillInstruction_KeywordMatch(t *testing.T) {
	tests := []struct {
		skill string
		want  string
	}{
		{"Grammar", skillRules[0].instruction},
		{"Reading Comprehension", skillRules[1].instruction},
		{"Writing", skillRules[2].instruction},
		{"Language Function", skillRules[3].instruction},
		{"Spelling", genericSkillInstruction},
		{"", genericSkillInstruction},
	}

	for _, tt := range tests {
		if got := SkillInstruction(tt.skill); got != tt.want {
			t.Errorf("SkillInstruction(%q) = %q, want %q", tt.skill, got, tt.want)
		}
	}
}

// A skill name containing several keywords resolves to the earliest
// rule, so "Grammar and Writing" is treated as grammar practice.
func TestSkillInstruction_FirstMatchWins(t *testing.T) {
	got := SkillInstruction("Grammar and Writing")
	if got != skillRules[0].instruction {
		t.Errorf("multi-keyword skill resolved to %q, want grammar instruction", got)
	}

	got = SkillInstruction("Reading and Language Use")
	if got != skillRules[1].instruction {
		t.Errorf("multi-keyword skill resolved to %q, want reading instruction", got)
	}
}

func TestWordBand(t *testing.T) {
	if got := WordBand(1); got != "40-60" {
		t.Errorf("WordBand(1) = %q", got)
	}
	if got := WordBand(6); got != "170-200" {
		t.Errorf("WordBand(6) = %q", got)
	}
	// Out-of-range grades fall back to the grade 3 band.
	if got := WordBand(9); got != wordBands[3] {
		t.Errorf("WordBand(9) = %q, want %q", got, wordBands[3])
	}
}

func TestRoleInstruction_TargetsCurriculumGrade(t *testing.T) {
	role := RoleInstruction(2)
	if !strings.Contains(role, "Grade 2") {
		t.Errorf("role instruction missing target grade: %q", role)
	}
	if !strings.Contains(role, "not to the student's own grade") {
		t.Errorf("role instruction missing calibration note")
	}
}

func TestBuildTaskInstruction_Template(t *testing.T) {
	req := models.GenerationRequest{
		StudentID:     "S1",
		StudentName:   "Amal",
		ActualGrade:   4,
		TargetGrade:   3,
		Skill:         "Grammar",
		Tier:          models.TierLow,
		QuestionCount: 5,
	}

	prompt := BuildTaskInstruction(req)

	for _, heading := range []string{"PASSAGE:", "QUESTIONS:", "ANSWER KEY:"} {
		if !strings.Contains(prompt, heading) {
			t.Errorf("prompt missing heading %q", heading)
		}
	}
	if !strings.Contains(prompt, "Student name: Amal") {
		t.Errorf("prompt missing student name")
	}
	if !strings.Contains(prompt, "Target curriculum grade: 3") {
		t.Errorf("prompt missing target grade")
	}
	if !strings.Contains(prompt, "exactly 5 multiple-choice questions") {
		t.Errorf("prompt missing question count")
	}
	if !strings.Contains(prompt, "80-110 words") {
		t.Errorf("prompt missing word band for grade 3")
	}
	if !strings.Contains(prompt, skillRules[0].instruction) {
		t.Errorf("prompt missing grammar instruction")
	}
}

func TestBuildTaskInstruction_RetrievalContext(t *testing.T) {
	req := models.GenerationRequest{
		StudentName:   "Lina",
		ActualGrade:   3,
		TargetGrade:   3,
		Skill:         "Reading Comprehension",
		Tier:          models.TierMedium,
		QuestionCount: 5,
	}

	without := BuildTaskInstruction(req)
	if strings.Contains(without, "curriculum reference material") {
		t.Errorf("empty context should omit the reference section")
	}

	req.RetrievalContext = []string{
		"- Grade 3, Skill Reading Comprehension: topic: animals",
		"- Grade 3, Skill Reading Comprehension: topic: seasons",
	}
	with := BuildTaskInstruction(req)
	if !strings.Contains(with, "curriculum reference material") {
		t.Errorf("non-empty context should add the reference section")
	}
	for _, bullet := range req.RetrievalContext {
		if !strings.Contains(with, bullet) {
			t.Errorf("prompt missing bullet %q", bullet)
		}
	}
}
