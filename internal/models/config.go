package models

import "fmt"

type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

var ValidTiers = map[Tier]bool{
	TierLow:    true,
	TierMedium: true,
	TierHigh:   true,
}

// Curriculum grade range served by the generator.
const (
	MinCurriculumGrade = 1
	MaxCurriculumGrade = 6
)

// Question count bounds per worksheet.
const (
	MinQuestionCount     = 3
	MaxQuestionCount     = 10
	DefaultQuestionCount = 5
)

// ThresholdConfig holds the two score cutoffs that split 0-100 scores
// into proficiency tiers. A score below Low is low tier, below High is
// medium, and High and above is high.
type ThresholdConfig struct {
	Low  float64 `json:"low_threshold"`
	High float64 `json:"high_threshold"`
}

func (c ThresholdConfig) Validate() error {
	if c.Low < 0 || c.Low > 100 {
		return fmt.Errorf("low_threshold %.1f outside range [0, 100]", c.Low)
	}
	if c.High < 0 || c.High > 100 {
		return fmt.Errorf("high_threshold %.1f outside range [0, 100]", c.High)
	}
	if c.Low >= c.High {
		return fmt.Errorf("low_threshold %.1f must be less than high_threshold %.1f", c.Low, c.High)
	}
	return nil
}

// CurriculumMapping assigns a target curriculum grade to each tier.
// The three grades are independent: a teacher may assign them
// non-monotonically, so no ordering is enforced between them.
type CurriculumMapping struct {
	LowGrade    int `json:"low_grade"`
	MediumGrade int `json:"medium_grade"`
	HighGrade   int `json:"high_grade"`
}

func (m CurriculumMapping) Validate() error {
	for _, g := range []struct {
		name  string
		grade int
	}{
		{"low_grade", m.LowGrade},
		{"medium_grade", m.MediumGrade},
		{"high_grade", m.HighGrade},
	} {
		if g.grade < MinCurriculumGrade || g.grade > MaxCurriculumGrade {
			return fmt.Errorf("%s %d outside range [%d, %d]", g.name, g.grade, MinCurriculumGrade, MaxCurriculumGrade)
		}
	}
	return nil
}
