package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Candidate is a scored driver for one record.
type Candidate struct {
	DriverID string
	HireDate time.Time
	Score    Score
}

// Outcome is what reconciliation decided for a record.
type Outcome string

const (
	OutcomeMatched          Outcome = "matched"
	OutcomeUnmatched        Outcome = "unmatched"
	OutcomeSkippedManual    Outcome = "skipped_manual"
	OutcomeSkippedDiscarded Outcome = "skipped_discarded"
)

// Decision is the reconciliation verdict for a single record. Changed is set
// when the persisted auto state differs from the verdict.
type Decision struct {
	RecordID         uuid.UUID
	Source           Source
	Outcome          Outcome
	PreviousDriverID string
	DriverID         string
	Score            float64
	Reasons          []string
	Changed          bool
}

// Result aggregates the decisions of one reconciliation pass.
type Result struct {
	Decisions []Decision
	Matched   int
	Unmatched int
	Cleared   int
	Skipped   int
}

// Changes returns only the decisions that must be persisted.
func (r Result) Changes() []Decision {
	out := make([]Decision, 0)
	for _, d := range r.Decisions {
		if d.Changed {
			out = append(out, d)
		}
	}
	return out
}

// RankCandidates scores every driver whose hire date lies within the date
// margin of the record and orders them best first: higher score, then smaller
// date delta, then driver id.
func RankCandidates(r Record, drivers []Driver, cfg Config) []Candidate {
	out := make([]Candidate, 0)
	for _, d := range drivers {
		if DaysBetween(r.ReferenceDate, d.HireDate) > cfg.DateMarginDays {
			continue
		}
		out = append(out, Candidate{DriverID: d.ID, HireDate: d.HireDate, Score: ScoreRecord(r, d, cfg)})
	}
	sortCandidates(out)
	return out
}

func sortCandidates(c []Candidate) {
	sort.SliceStable(c, func(i, j int) bool {
		a, b := c[i].Score, c[j].Score
		if a.Value != b.Value {
			return a.Value > b.Value
		}
		if a.DateDeltaDays != b.DateDeltaDays {
			return a.DateDeltaDays < b.DateDeltaDays
		}
		return c[i].DriverID < c[j].DriverID
	})
}

// Reconcile decides the auto-match state of every record. Manual and
// discarded records are reported and left alone. Running it twice over the
// same inputs yields the same decisions, and the second run has no changes.
func Reconcile(records []Record, drivers []Driver, cfg Config) Result {
	byHire := make([]Driver, len(drivers))
	copy(byHire, drivers)
	sort.Slice(byHire, func(i, j int) bool {
		if !byHire[i].HireDate.Equal(byHire[j].HireDate) {
			return byHire[i].HireDate.Before(byHire[j].HireDate)
		}
		return byHire[i].ID < byHire[j].ID
	})

	res := Result{Decisions: make([]Decision, 0, len(records))}
	for _, r := range records {
		d := Decision{RecordID: r.ID, Source: r.Source, PreviousDriverID: r.DriverID, DriverID: r.DriverID, Score: r.Score, Reasons: r.Reasons}

		switch {
		case r.IsDiscarded:
			d.Outcome = OutcomeSkippedDiscarded
			res.Skipped++
		case r.IsManual:
			d.Outcome = OutcomeSkippedManual
			res.Skipped++
		default:
			ranked := RankCandidates(r, inMargin(byHire, r.ReferenceDate, cfg.DateMarginDays), cfg)
			if len(ranked) > 0 && ranked[0].Score.AutoMatch {
				best := ranked[0]
				d.Outcome = OutcomeMatched
				d.DriverID = best.DriverID
				d.Score = best.Score.Value
				d.Reasons = best.Score.Reasons
				d.Changed = r.DriverID != best.DriverID || r.Score != best.Score.Value || !equalStrings(r.Reasons, best.Score.Reasons)
				res.Matched++
			} else {
				d.Outcome = OutcomeUnmatched
				d.DriverID = ""
				d.Score = 0
				d.Reasons = nil
				d.Changed = r.DriverID != "" || r.Score != 0 || len(r.Reasons) > 0
				if r.DriverID != "" {
					res.Cleared++
				}
				res.Unmatched++
			}
		}
		res.Decisions = append(res.Decisions, d)
	}
	return res
}

// inMargin returns the drivers hired within margin days of ref. drivers must
// be sorted by hire date.
func inMargin(drivers []Driver, ref time.Time, margin int) []Driver {
	lo := civilDate(ref).AddDate(0, 0, -margin)
	hi := civilDate(ref).AddDate(0, 0, margin)
	start := sort.Search(len(drivers), func(i int) bool {
		return !civilDate(drivers[i].HireDate).Before(lo)
	})
	end := start
	for end < len(drivers) && !civilDate(drivers[end].HireDate).After(hi) {
		end++
	}
	return drivers[start:end]
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// DoubleMatch is a driver claimed by more than one live record of a source.
type DoubleMatch struct {
	Source    Source
	DriverID  string
	RecordIDs []uuid.UUID
}

// FindDoubleMatches groups live resolved records by (source, driver) and
// reports every group with more than one record. Output is ordered by source
// then driver id.
func FindDoubleMatches(records []Record) []DoubleMatch {
	type key struct {
		source Source
		driver string
	}
	groups := make(map[key][]Record)
	for _, r := range records {
		if r.IsDiscarded || !r.HasDriver() {
			continue
		}
		k := key{r.Source, r.DriverID}
		groups[k] = append(groups[k], r)
	}

	out := make([]DoubleMatch, 0)
	for k, rs := range groups {
		if len(rs) < 2 {
			continue
		}
		sort.Slice(rs, func(i, j int) bool { return rs[i].ID.String() < rs[j].ID.String() })
		ids := make([]uuid.UUID, len(rs))
		for i, r := range rs {
			ids[i] = r.ID
		}
		out = append(out, DoubleMatch{Source: k.source, DriverID: k.driver, RecordIDs: ids})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].DriverID < out[j].DriverID
	})
	return out
}
