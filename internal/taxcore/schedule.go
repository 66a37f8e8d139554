package taxcore

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// DefaultScheduleYear is the Gregorian year the default table takes effect (2567 BE).
const DefaultScheduleYear = 2024

// Schedule binds a bracket table and personal allowance to the first tax year
// (Gregorian) it applies to.
type Schedule struct {
	Year              int             `json:"year"`
	Label             string          `json:"label"`
	PersonalAllowance decimal.Decimal `json:"personal_allowance"`
	Brackets          []Bracket       `json:"brackets"`
}

// DefaultSchedule returns the 2567 BE schedule.
func DefaultSchedule() Schedule {
	return Schedule{
		Year:              DefaultScheduleYear,
		Label:             BuddhistYearLabel(DefaultScheduleYear),
		PersonalAllowance: DefaultPersonalAllowance,
		Brackets:          DefaultBrackets(),
	}
}

// BuddhistYearLabel converts a Gregorian year to its Buddhist Era label.
func BuddhistYearLabel(year int) string {
	return fmt.Sprintf("%d", year+543)
}

// Validate checks the allowance and the bracket table.
func (s Schedule) Validate() error {
	if s.PersonalAllowance.IsNegative() {
		return fmt.Errorf("schedule %d: personal allowance must not be negative", s.Year)
	}
	if err := ValidateBrackets(s.Brackets); err != nil {
		return fmt.Errorf("schedule %d: %w", s.Year, err)
	}
	return nil
}

// ProgressiveTax runs the bracket walk against this schedule's table.
func (s Schedule) ProgressiveTax(taxableIncome decimal.Decimal) decimal.Decimal {
	return progressiveTax(s.Brackets, taxableIncome)
}

// TaxPayable reconciles with this schedule's table and allowance.
func (s Schedule) TaxPayable(yearlyNet, yearlyWithholding decimal.Decimal) TaxPayableResult {
	return taxPayable(s.Brackets, yearlyNet, yearlyWithholding, s.PersonalAllowance)
}

// ScheduleSet is an ordered set of schedules keyed by effective year.
type ScheduleSet struct {
	schedules []Schedule
}

// NewScheduleSet validates and orders schedules. An empty input yields a set
// holding only the default schedule.
func NewScheduleSet(schedules ...Schedule) (*ScheduleSet, error) {
	if len(schedules) == 0 {
		schedules = []Schedule{DefaultSchedule()}
	}
	seen := make(map[int]bool, len(schedules))
	out := make([]Schedule, 0, len(schedules))
	for _, s := range schedules {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if seen[s.Year] {
			return nil, fmt.Errorf("duplicate schedule for year %d", s.Year)
		}
		seen[s.Year] = true
		if s.Label == "" {
			s.Label = BuddhistYearLabel(s.Year)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return &ScheduleSet{schedules: out}, nil
}

// For returns the latest schedule effective on or before year. Years before the
// earliest schedule fall back to the earliest one.
func (ss *ScheduleSet) For(year int) Schedule {
	if ss == nil || len(ss.schedules) == 0 {
		return DefaultSchedule()
	}
	chosen := ss.schedules[0]
	for _, s := range ss.schedules {
		if s.Year > year {
			break
		}
		chosen = s
	}
	return chosen
}

// All returns the schedules in ascending year order.
func (ss *ScheduleSet) All() []Schedule {
	if ss == nil {
		return nil
	}
	out := make([]Schedule, len(ss.schedules))
	copy(out, ss.schedules)
	return out
}

type yamlBracket struct {
	Upper *decimal.Decimal `yaml:"upper"`
	Rate  decimal.Decimal  `yaml:"rate"`
}

type yamlSchedule struct {
	Year              int              `yaml:"year"`
	Label             string           `yaml:"label"`
	PersonalAllowance *decimal.Decimal `yaml:"personal_allowance"`
	Brackets          []yamlBracket    `yaml:"brackets"`
}

type yamlFile struct {
	Schedules []yamlSchedule `yaml:"schedules"`
}

// ParseSchedules decodes a YAML document of the form
//
//	schedules:
//	  - year: 2024
//	    personal_allowance: 60000
//	    brackets:
//	      - {upper: 150000, rate: 0}
//	      - {rate: 35}
//
// A bracket without upper is the unbounded top bracket.
func ParseSchedules(data []byte) (*ScheduleSet, error) {
	var doc yamlFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse tax schedules: %w", err)
	}
	if len(doc.Schedules) == 0 {
		return nil, errors.New("tax schedule file defines no schedules")
	}

	schedules := make([]Schedule, 0, len(doc.Schedules))
	for _, ys := range doc.Schedules {
		s := Schedule{
			Year:              ys.Year,
			Label:             ys.Label,
			PersonalAllowance: DefaultPersonalAllowance,
		}
		if ys.PersonalAllowance != nil {
			s.PersonalAllowance = *ys.PersonalAllowance
		}
		for _, yb := range ys.Brackets {
			b := Bracket{RatePercent: yb.Rate}
			if yb.Upper == nil {
				b.Unbounded = true
			} else {
				b.UpperBound = *yb.Upper
			}
			s.Brackets = append(s.Brackets, b)
		}
		schedules = append(schedules, s)
	}
	return NewScheduleSet(schedules...)
}
