package domain

import "onboarding_backend/platform/phone"

// Weights weight each signal in the final score.
type Weights struct {
	Date  float64
	Phone float64
	Name  float64
}

// Config tunes scoring and candidate generation.
type Config struct {
	Threshold           float64
	DateToleranceDays   int
	DateMarginDays      int
	Weights             Weights
	MinWordsMatched     int
	IgnoreSecondSurname bool
	PhoneRegion         string
}

// DefaultConfig mirrors the shipped rules file.
func DefaultConfig() Config {
	return Config{
		Threshold:           0.7,
		DateToleranceDays:   2,
		DateMarginDays:      7,
		Weights:             Weights{Date: 0.3, Phone: 0.4, Name: 0.3},
		MinWordsMatched:     2,
		IgnoreSecondSurname: true,
		PhoneRegion:         phone.DefaultRegion,
	}
}
