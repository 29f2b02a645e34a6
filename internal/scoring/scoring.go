// Package scoring turns a final-evaluation rubric into the completion
// percentage stored with the evaluation.
//
// The rubric has three groups. General performance and personal skills each
// hold five categories scored 0..5 and are worth 25 points. The professional
// group holds three 0..5 categories plus responsibility (0..15) and team
// quality (0..20) and is worth 50 points. All arithmetic is integral so the
// result is reproducible from the fifteen inputs alone.
package scoring

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	MaxCategory       = 5
	MaxResponsibility = 15
	MaxTeamQuality    = 20
)

type Rubric struct {
	// General performance
	Attendance  int `json:"attendance"`
	Punctuality int `json:"punctuality"`
	Appearance  int `json:"appearance"`
	Discipline  int `json:"discipline"`
	Initiative  int `json:"initiative"`

	// Personal skills
	Communication    int `json:"communication"`
	Cooperation      int `json:"cooperation"`
	Adaptability     int `json:"adaptability"`
	SelfConfidence   int `json:"selfConfidence"`
	AcceptsCriticism int `json:"acceptsCriticism"`

	// Professional skills
	TechnicalKnowledge int `json:"technicalKnowledge"`
	WorkQuality        int `json:"workQuality"`
	ProblemSolving     int `json:"problemSolving"`
	Responsibility     int `json:"responsibility"`
	TeamQuality        int `json:"teamQuality"`
}

type group struct {
	weight int
	max    int
	sum    func(r Rubric) int
}

var groups = []group{
	{
		weight: 25,
		max:    5 * MaxCategory,
		sum: func(r Rubric) int {
			return r.Attendance + r.Punctuality + r.Appearance + r.Discipline + r.Initiative
		},
	},
	{
		weight: 25,
		max:    5 * MaxCategory,
		sum: func(r Rubric) int {
			return r.Communication + r.Cooperation + r.Adaptability + r.SelfConfidence + r.AcceptsCriticism
		},
	},
	{
		weight: 50,
		max:    3*MaxCategory + MaxResponsibility + MaxTeamQuality,
		sum: func(r Rubric) int {
			return r.TechnicalKnowledge + r.WorkQuality + r.ProblemSolving + r.Responsibility + r.TeamQuality
		},
	},
}

// FieldError lists every rubric field that is outside its bounds.
type FieldError struct {
	Fields []string
}

func (e *FieldError) Error() string {
	return "rubric scores out of range: " + strings.Join(e.Fields, ", ")
}

type field struct {
	name string
	max  int
	ptr  func(r *Rubric) *int
}

var fields = []field{
	{"attendance", MaxCategory, func(r *Rubric) *int { return &r.Attendance }},
	{"punctuality", MaxCategory, func(r *Rubric) *int { return &r.Punctuality }},
	{"appearance", MaxCategory, func(r *Rubric) *int { return &r.Appearance }},
	{"discipline", MaxCategory, func(r *Rubric) *int { return &r.Discipline }},
	{"initiative", MaxCategory, func(r *Rubric) *int { return &r.Initiative }},
	{"communication", MaxCategory, func(r *Rubric) *int { return &r.Communication }},
	{"cooperation", MaxCategory, func(r *Rubric) *int { return &r.Cooperation }},
	{"adaptability", MaxCategory, func(r *Rubric) *int { return &r.Adaptability }},
	{"selfConfidence", MaxCategory, func(r *Rubric) *int { return &r.SelfConfidence }},
	{"acceptsCriticism", MaxCategory, func(r *Rubric) *int { return &r.AcceptsCriticism }},
	{"technicalKnowledge", MaxCategory, func(r *Rubric) *int { return &r.TechnicalKnowledge }},
	{"workQuality", MaxCategory, func(r *Rubric) *int { return &r.WorkQuality }},
	{"problemSolving", MaxCategory, func(r *Rubric) *int { return &r.ProblemSolving }},
	{"responsibility", MaxResponsibility, func(r *Rubric) *int { return &r.Responsibility }},
	{"teamQuality", MaxTeamQuality, func(r *Rubric) *int { return &r.TeamQuality }},
}

// Validate checks every field against its bound.
func (r Rubric) Validate() error {
	var bad []string
	for _, f := range fields {
		v := *f.ptr(&r)
		if v < 0 || v > f.max {
			bad = append(bad, fmt.Sprintf("%s must be between 0 and %d", f.name, f.max))
		}
	}
	if len(bad) > 0 {
		return &FieldError{Fields: bad}
	}
	return nil
}

// Percentage returns the weighted completion percentage in [0,100], rounded
// half up. The rubric must already be valid.
func Percentage(r Rubric) int {
	// Sum weight*raw/max over a common denominator to stay in integers.
	den := 1
	for _, g := range groups {
		den *= g.max
	}
	num := 0
	for _, g := range groups {
		num += g.weight * g.sum(r) * (den / g.max)
	}

	pct := (2*num + den) / (2 * den)
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}

// Score validates r and returns its percentage.
func Score(r Rubric) (int, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	return Percentage(r), nil
}

var errUnknownField = errors.New("unknown rubric field")

// FromScores builds a rubric from named scores. Names match the JSON field
// names; any field not present is zero.
func FromScores(scores map[string]int) (Rubric, error) {
	var r Rubric
	index := make(map[string]field, len(fields))
	for _, f := range fields {
		index[f.name] = f
	}

	var unknown []string
	for name, v := range scores {
		f, found := index[name]
		if !found {
			unknown = append(unknown, name)
			continue
		}
		*f.ptr(&r) = v
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Rubric{}, fmt.Errorf("%w: %s", errUnknownField, strings.Join(unknown, ", "))
	}
	return r, nil
}

// FieldNames returns the rubric field names in canonical order.
func FieldNames() []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.name
	}
	return out
}
