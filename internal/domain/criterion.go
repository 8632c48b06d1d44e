package domain

import "fmt"

// CriterionKind names what a criterion measures.
type CriterionKind string

const (
	KindWPM         CriterionKind = "wpm"
	KindAccuracy    CriterionKind = "accuracy"
	KindGamesPlayed CriterionKind = "games_played"
	KindTimePlayed  CriterionKind = "time_played"
	KindStreak      CriterionKind = "streak"
)

// Comparator is how a measured value is held against a threshold.
type Comparator string

const (
	AtLeast     Comparator = ">="
	EqualTo     Comparator = "=="
	Consecutive Comparator = "consecutive"
)

// StreakAccuracyBar is the accuracy a session needs to count toward a
// consecutive-session streak.
const StreakAccuracyBar = 95.0

// Criterion is the unlock rule of a badge. The set of implementations is
// closed: WPMCriterion, AccuracyCriterion, GamesPlayedCriterion,
// TimePlayedCriterion and StreakCriterion.
type Criterion interface {
	Kind() CriterionKind
	Comparator() Comparator
	Threshold() float64
	isCriterion()
}

// WPMCriterion compares the session's words per minute.
type WPMCriterion struct {
	Cmp    Comparator
	Target float64
}

// AccuracyCriterion compares the session's accuracy percentage.
type AccuracyCriterion struct {
	Cmp    Comparator
	Target float64
}

// GamesPlayedCriterion compares the user's lifetime race count.
type GamesPlayedCriterion struct {
	Cmp   Comparator
	Games float64
}

// TimePlayedCriterion compares lifetime play time. Minutes is in minutes
// while the user counter is stored in seconds.
type TimePlayedCriterion struct {
	Cmp     Comparator
	Minutes float64
}

// StreakCriterion requires Length qualifying sessions in a row, the current
// one included.
type StreakCriterion struct {
	Cmp    Comparator
	Length int
}

func (c WPMCriterion) Kind() CriterionKind         { return KindWPM }
func (c WPMCriterion) Comparator() Comparator      { return c.Cmp }
func (c WPMCriterion) Threshold() float64          { return c.Target }
func (WPMCriterion) isCriterion()                  {}
func (c AccuracyCriterion) Kind() CriterionKind    { return KindAccuracy }
func (c AccuracyCriterion) Comparator() Comparator { return c.Cmp }
func (c AccuracyCriterion) Threshold() float64     { return c.Target }
func (AccuracyCriterion) isCriterion()             {}

func (c GamesPlayedCriterion) Kind() CriterionKind    { return KindGamesPlayed }
func (c GamesPlayedCriterion) Comparator() Comparator { return c.Cmp }
func (c GamesPlayedCriterion) Threshold() float64     { return c.Games }
func (GamesPlayedCriterion) isCriterion()             {}
func (c TimePlayedCriterion) Kind() CriterionKind     { return KindTimePlayed }
func (c TimePlayedCriterion) Comparator() Comparator  { return c.Cmp }
func (c TimePlayedCriterion) Threshold() float64      { return c.Minutes }
func (TimePlayedCriterion) isCriterion()              {}

func (c StreakCriterion) Kind() CriterionKind    { return KindStreak }
func (c StreakCriterion) Comparator() Comparator { return c.Cmp }
func (c StreakCriterion) Threshold() float64     { return float64(c.Length) }
func (StreakCriterion) isCriterion()             {}

// ─── Validation ─────────────────────────────────────────────────────────────

// UnsupportedCriterionError names a kind/comparator pair no evaluator accepts.
type UnsupportedCriterionError struct {
	Kind       CriterionKind
	Comparator Comparator
}

func (e *UnsupportedCriterionError) Error() string {
	return fmt.Sprintf("unsupported criterion: kind %q with condition %q", e.Kind, e.Comparator)
}

func (e *UnsupportedCriterionError) Unwrap() error { return ErrUnsupportedCriterion }

// ValidateCriterion checks that the comparator is legal for the kind and
// that the threshold is usable as a progress denominator.
func ValidateCriterion(c Criterion) error {
	if c == nil {
		return &UnsupportedCriterionError{}
	}
	switch c.(type) {
	case WPMCriterion, AccuracyCriterion, GamesPlayedCriterion, TimePlayedCriterion:
		if c.Comparator() != AtLeast && c.Comparator() != EqualTo {
			return &UnsupportedCriterionError{Kind: c.Kind(), Comparator: c.Comparator()}
		}
	case StreakCriterion:
		if c.Comparator() != Consecutive {
			return &UnsupportedCriterionError{Kind: c.Kind(), Comparator: c.Comparator()}
		}
	default:
		return &UnsupportedCriterionError{Kind: c.Kind(), Comparator: c.Comparator()}
	}
	if c.Threshold() <= 0 {
		return fmt.Errorf("criterion %s: threshold must be positive, got %v: %w",
			c.Kind(), c.Threshold(), ErrUnsupportedCriterion)
	}
	return nil
}

// ─── Wire Form ──────────────────────────────────────────────────────────────

// CriterionSpec is the flat {type, condition, threshold} form of a criterion.
type CriterionSpec struct {
	Type      CriterionKind `json:"type"`
	Condition Comparator    `json:"condition"`
	Threshold float64       `json:"threshold"`
}

// SpecOf flattens a criterion.
func SpecOf(c Criterion) CriterionSpec {
	return CriterionSpec{Type: c.Kind(), Condition: c.Comparator(), Threshold: c.Threshold()}
}

// Criterion builds and validates the concrete criterion from the flat form.
func (s CriterionSpec) Criterion() (Criterion, error) {
	var c Criterion
	switch s.Type {
	case KindWPM:
		c = WPMCriterion{Cmp: s.Condition, Target: s.Threshold}
	case KindAccuracy:
		c = AccuracyCriterion{Cmp: s.Condition, Target: s.Threshold}
	case KindGamesPlayed:
		c = GamesPlayedCriterion{Cmp: s.Condition, Games: s.Threshold}
	case KindTimePlayed:
		c = TimePlayedCriterion{Cmp: s.Condition, Minutes: s.Threshold}
	case KindStreak:
		c = StreakCriterion{Cmp: s.Condition, Length: int(s.Threshold)}
	default:
		return nil, &UnsupportedCriterionError{Kind: s.Type, Comparator: s.Condition}
	}
	if err := ValidateCriterion(c); err != nil {
		return nil, err
	}
	return c, nil
}
