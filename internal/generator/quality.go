package generator

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	questionLine  = regexp.MustCompile(`(?m)^\s*(\d+)\)\s`)
	answerKeyLine = regexp.MustCompile(`(?m)^\s*(\d+)\)\s*([A-Da-d])\s*$`)
	optionLine    = regexp.MustCompile(`(?m)^\s*[A-D]\)\s`)
)

// CheckWorksheet evaluates a split worksheet against the structure the
// prompt mandates and returns human-readable warnings. Deviations are
// logged, never fatal: a slightly off-template worksheet is still
// usable.
func CheckWorksheet(body, answerKey string, questionCount int) []string {
	var warnings []string

	if !strings.Contains(strings.ToUpper(body), "PASSAGE:") {
		warnings = append(warnings, "body missing PASSAGE: heading")
	}
	if !strings.Contains(strings.ToUpper(body), "QUESTIONS:") {
		warnings = append(warnings, "body missing QUESTIONS: heading")
	}

	questions := questionLine.FindAllString(body, -1)
	if len(questions) != questionCount {
		warnings = append(warnings, fmt.Sprintf("expected %d questions, found %d", questionCount, len(questions)))
	}

	options := optionLine.FindAllString(body, -1)
	if len(questions) > 0 && len(options) != len(questions)*4 {
		warnings = append(warnings, fmt.Sprintf("expected %d options for %d questions, found %d", len(questions)*4, len(questions), len(options)))
	}

	if answerKey == MissingKeyPlaceholder {
		warnings = append(warnings, "answer key missing from generated text")
		return warnings
	}

	keyLines := answerKeyLine.FindAllStringSubmatch(answerKey, -1)
	if len(keyLines) != questionCount {
		warnings = append(warnings, fmt.Sprintf("expected %d answer key lines, found %d", questionCount, len(keyLines)))
	}

	return warnings
}
