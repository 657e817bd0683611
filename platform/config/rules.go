package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rules are the business knobs for matching and scout eligibility. They are
// read from RULES_FILE (YAML) on top of DefaultRules.
type Rules struct {
	Matching    MatchingRules    `yaml:"matching"`
	Eligibility EligibilityRules `yaml:"eligibility"`
}

// MatchingWeights weight each similarity signal in the final score.
type MatchingWeights struct {
	Date  float64 `yaml:"date"`
	Phone float64 `yaml:"phone"`
	Name  float64 `yaml:"name"`
}

// MatchingRules configure the lead / scout registration matcher.
type MatchingRules struct {
	Threshold           float64         `yaml:"threshold"`
	DateToleranceDays   int             `yaml:"dateToleranceDays"`
	DateMarginDays      int             `yaml:"dateMarginDays"`
	Weights             MatchingWeights `yaml:"weights"`
	MinWordsMatched     int             `yaml:"minWordsMatched"`
	IgnoreSecondSurname bool            `yaml:"ignoreSecondSurname"`
}

// EligibilityRules configure scout payment eligibility.
type EligibilityRules struct {
	WindowDays               int           `yaml:"windowDays"`
	MinRegistrationsRequired int           `yaml:"minRegistrationsRequired"`
	MinConnectionSeconds     int64         `yaml:"minConnectionSeconds"`
	MilestoneTypes           []int         `yaml:"milestoneTypes"`
	AmountsCents             map[int]int64 `yaml:"amountsCents"`
}

// DefaultRules returns the rules used when no file is configured.
func DefaultRules() Rules {
	return Rules{
		Matching: MatchingRules{
			Threshold:         0.7,
			DateToleranceDays: 2,
			DateMarginDays:    7,
			Weights: MatchingWeights{
				Date:  0.3,
				Phone: 0.4,
				Name:  0.3,
			},
			MinWordsMatched:     2,
			IgnoreSecondSurname: true,
		},
		Eligibility: EligibilityRules{
			WindowDays:               14,
			MinRegistrationsRequired: 3,
			MinConnectionSeconds:     3600,
			MilestoneTypes:           []int{1, 5, 25},
			AmountsCents: map[int]int64{
				1:  1000,
				5:  2500,
				25: 10000,
			},
		},
	}
}

// LoadRules reads a YAML rules file over the defaults. An empty path returns
// the defaults unchanged.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if strings.TrimSpace(path) == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes YAML rules over the defaults and validates the result.
func ParseRules(data []byte) (Rules, error) {
	rules := DefaultRules()
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("parse rules file: %w", err)
	}
	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

// Validate checks that the rules are internally consistent.
func (r Rules) Validate() error {
	m := r.Matching
	if m.Threshold <= 0 || m.Threshold > 1 {
		return errors.New("matching.threshold must be in (0, 1]")
	}
	if m.DateToleranceDays < 0 || m.DateMarginDays < m.DateToleranceDays {
		return errors.New("matching.dateMarginDays must be >= dateToleranceDays >= 0")
	}
	if m.Weights.Date < 0 || m.Weights.Phone < 0 || m.Weights.Name < 0 {
		return errors.New("matching.weights must not be negative")
	}
	if m.Weights.Date+m.Weights.Phone+m.Weights.Name <= 0 {
		return errors.New("matching.weights must not all be zero")
	}
	if m.MinWordsMatched < 0 {
		return errors.New("matching.minWordsMatched must not be negative")
	}

	e := r.Eligibility
	if e.WindowDays != 7 && e.WindowDays != 14 {
		return errors.New("eligibility.windowDays must be 7 or 14")
	}
	if e.MinRegistrationsRequired < 0 || e.MinConnectionSeconds < 0 {
		return errors.New("eligibility minimums must not be negative")
	}
	if len(e.MilestoneTypes) == 0 {
		return errors.New("eligibility.milestoneTypes must not be empty")
	}
	for _, t := range e.MilestoneTypes {
		if t != 1 && t != 5 && t != 25 {
			return fmt.Errorf("eligibility.milestoneTypes: unsupported type %d", t)
		}
	}
	return nil
}
