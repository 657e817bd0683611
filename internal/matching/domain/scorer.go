package domain

import (
	"math"
	"sort"

	"onboarding_backend/platform/phone"
	"onboarding_backend/platform/textnorm"
)

// Reason codes explain which signals fired.
const (
	ReasonDateWithinTolerance = "date_within_tolerance"
	ReasonDateNear            = "date_near"
	ReasonDateOutOfRange      = "date_out_of_range"
	ReasonPhoneMatch          = "phone_match"
	ReasonPhoneMismatch       = "phone_mismatch"
	ReasonPhoneMissing        = "phone_missing"
	ReasonNameMatch           = "name_match"
	ReasonNamePartial         = "name_partial"
	ReasonNameMismatch        = "name_mismatch"
	ReasonNameMissing         = "name_missing"
)

// Score is the explained similarity between a record and a driver.
type Score struct {
	Value         float64
	Reasons       []string
	DateDeltaDays int
	DateSignal    float64
	PhoneSignal   float64
	NameSignal    float64
	AutoMatch     bool
}

// ScoreRecord compares a record against one candidate driver. The date signal
// is a hard gate: a zero date signal never auto-matches regardless of value.
func ScoreRecord(r Record, d Driver, cfg Config) Score {
	reasons := make([]string, 0, 3)

	delta := DaysBetween(r.ReferenceDate, d.HireDate)
	dateSignal := dateProximity(delta, cfg)
	switch {
	case dateSignal == 1:
		reasons = append(reasons, ReasonDateWithinTolerance)
	case dateSignal > 0:
		reasons = append(reasons, ReasonDateNear)
	default:
		reasons = append(reasons, ReasonDateOutOfRange)
	}

	phoneSignal, phoneReason := phoneEquality(r.Phone, d.Phone, cfg.PhoneRegion)
	reasons = append(reasons, phoneReason)

	nameSignal, nameReason := nameSimilarity(r.FullName, d.FullName, cfg)
	reasons = append(reasons, nameReason)

	w := cfg.Weights
	total := w.Date + w.Phone + w.Name
	value := 0.0
	if total > 0 {
		value = (w.Date*dateSignal + w.Phone*phoneSignal + w.Name*nameSignal) / total
	}
	value = math.Round(value*10000) / 10000

	sort.Strings(reasons)
	return Score{
		Value:         value,
		Reasons:       reasons,
		DateDeltaDays: delta,
		DateSignal:    dateSignal,
		PhoneSignal:   phoneSignal,
		NameSignal:    nameSignal,
		AutoMatch:     value >= cfg.Threshold && dateSignal > 0,
	}
}

// dateProximity is 1 inside the tolerance, decays linearly to the margin and
// is 0 beyond it.
func dateProximity(delta int, cfg Config) float64 {
	tol := cfg.DateToleranceDays
	margin := cfg.DateMarginDays
	if margin < tol {
		margin = tol
	}
	switch {
	case delta <= tol:
		return 1
	case delta <= margin:
		return float64(margin+1-delta) / float64(margin+1-tol)
	default:
		return 0
	}
}

func phoneEquality(a, b, region string) (float64, string) {
	da := phone.Digits(a, region)
	db := phone.Digits(b, region)
	if da == "" || db == "" {
		return 0, ReasonPhoneMissing
	}
	if da == db {
		return 1, ReasonPhoneMatch
	}
	return 0, ReasonPhoneMismatch
}

func nameSimilarity(a, b string, cfg Config) (float64, string) {
	ta := nameTokens(a, cfg.IgnoreSecondSurname)
	tb := nameTokens(b, cfg.IgnoreSecondSurname)
	if len(ta) == 0 || len(tb) == 0 {
		return 0, ReasonNameMissing
	}

	small, large := ta, tb
	if len(small) > len(large) {
		small, large = large, small
	}
	present := make(map[string]struct{}, len(large))
	for _, t := range large {
		present[t] = struct{}{}
	}
	matched := 0
	for _, t := range small {
		if _, ok := present[t]; ok {
			matched++
			delete(present, t)
		}
	}

	need := cfg.MinWordsMatched
	if need > len(small) {
		need = len(small)
	}
	if matched == 0 || matched < need {
		return 0, ReasonNameMismatch
	}

	ratio := float64(matched) / float64(len(small))
	if ratio == 1 {
		return 1, ReasonNameMatch
	}
	return ratio, ReasonNamePartial
}

func nameTokens(name string, ignoreSecondSurname bool) []string {
	tokens := textnorm.Tokens(name)
	if ignoreSecondSurname && len(tokens) >= 3 {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}
