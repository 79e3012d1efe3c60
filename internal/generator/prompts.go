package generator

import (
	"fmt"
	"strings"

	"github.com/worksheet-gen/backend/internal/models"
)

// skillRule pairs a keyword with the practice instruction used when the
// skill name contains it. Rules are checked in order and the first
// match wins: a skill name containing several keywords always gets the
// earliest rule, so the order here is load-bearing.
type skillRule struct {
	keyword     string
	instruction string
}

var skillRules = []skillRule{
	{"grammar", "Focus the passage and every question on applying grammar rules in context: verb tenses, subject-verb agreement, articles, and sentence structure appropriate to the target grade."},
	{"reading", "Build the questions around comprehension of the passage: main idea, specific details, sequence of events, and simple inference grounded in the text."},
	{"writing", "Center the questions on writing mechanics and organization: choosing topic sentences, ordering ideas, punctuation, and picking the clearest phrasing."},
	{"language", "Practice everyday language functions: greetings, requests, asking for and giving information, invitations, and polite responses in short dialogues."},
}

const genericSkillInstruction = "Design the passage and questions to give focused practice in the specified skill at the target grade level."

// wordBands gives the passage word-count band per target curriculum
// grade.
var wordBands = map[int]string{
	1: "40-60",
	2: "60-80",
	3: "80-110",
	4: "110-140",
	5: "140-170",
	6: "170-200",
}

// SkillInstruction selects the practice instruction for a skill name by
// case-insensitive substring match against the keyword rules, falling
// back to the generic instruction.
func SkillInstruction(skill string) string {
	lower := strings.ToLower(skill)
	for _, rule := range skillRules {
		if strings.Contains(lower, rule.keyword) {
			return rule.instruction
		}
	}
	return genericSkillInstruction
}

// WordBand returns the passage word-count band for a target grade.
func WordBand(targetGrade int) string {
	if band, ok := wordBands[targetGrade]; ok {
		return band
	}
	return wordBands[3]
}

// RoleInstruction is the fixed persona block. The generator is told to
// write at the target curriculum grade, which for a remedial or
// advanced student deliberately differs from the grade they sit in.
func RoleInstruction(targetGrade int) string {
	return fmt.Sprintf(`You are an experienced primary-school English teacher who writes practice worksheets for grades 1 through 6.

You write material pitched exactly at Grade %d of the curriculum. Calibrate vocabulary, sentence length, and question complexity to Grade %d, not to the student's own grade, which may be different. Keep every passage and question age-appropriate, positive in tone, and free of culturally sensitive or frightening content.

Follow the requested output format exactly. Do not add commentary before or after the worksheet.`, targetGrade, targetGrade)
}

// BuildTaskInstruction assembles the per-student task prompt from the
// resolved generation request.
func BuildTaskInstruction(req models.GenerationRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, `Create a practice worksheet for this student:

Student name: %s
Student's actual grade: %d
Target curriculum grade: %d
Skill to practice: %s
Proficiency level: %s

%s
`, req.StudentName, req.ActualGrade, req.TargetGrade, req.Skill, req.Tier, SkillInstruction(req.Skill))

	if len(req.RetrievalContext) > 0 {
		b.WriteString("\nAlign the passage topic, vocabulary, and question focus with this curriculum reference material:\n")
		for _, bullet := range req.RetrievalContext {
			b.WriteString(bullet)
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, `
Tasks:
1. Write a short reading passage of %s words suitable for Grade %d.
2. Make sure the passage and all questions practice the skill: %s.
3. Write exactly %d multiple-choice questions, each with four options.
4. Provide an answer key.

Use exactly this output template:

PASSAGE:
<the passage>

QUESTIONS:
1) <question text>
A) <option>
B) <option>
C) <option>
D) <option>

ANSWER KEY:
1) <letter>
2) <letter>

Number the questions 1) through %d), letter the options A) through D), and write each answer key line as the question number followed by the correct letter.`,
		WordBand(req.TargetGrade), req.TargetGrade, req.Skill, req.QuestionCount, req.QuestionCount)

	return b.String()
}
