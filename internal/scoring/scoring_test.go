package scoring

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func maxRubric() Rubric {
	return Rubric{
		Attendance: 5, Punctuality: 5, Appearance: 5, Discipline: 5, Initiative: 5,
		Communication: 5, Cooperation: 5, Adaptability: 5, SelfConfidence: 5, AcceptsCriticism: 5,
		TechnicalKnowledge: 5, WorkQuality: 5, ProblemSolving: 5,
		Responsibility: 15, TeamQuality: 20,
	}
}

func TestPercentage_Bounds(t *testing.T) {
	assert.Equal(t, 0, Percentage(Rubric{}))
	assert.Equal(t, 100, Percentage(maxRubric()))
}

func TestPercentage_Weighted(t *testing.T) {
	tests := []struct {
		name string
		r    Rubric
		want int
	}{
		{
			name: "general group only",
			r:    Rubric{Attendance: 5, Punctuality: 5, Appearance: 5, Discipline: 5, Initiative: 5},
			want: 25,
		},
		{
			name: "professional group only",
			r:    Rubric{TechnicalKnowledge: 5, WorkQuality: 5, ProblemSolving: 5, Responsibility: 15, TeamQuality: 20},
			want: 50,
		},
		{
			name: "mixed",
			r: Rubric{
				Attendance: 4, Punctuality: 3, Appearance: 2, Discipline: 3, Initiative: 1,
				Communication: 2, Cooperation: 1, Adaptability: 1, SelfConfidence: 2, AcceptsCriticism: 1,
				TechnicalKnowledge: 4, WorkQuality: 3, ProblemSolving: 2, Responsibility: 10, TeamQuality: 12,
			},
			want: 13 + 7 + 31,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Percentage(tt.r))
		})
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, maxRubric().Validate())

	r := maxRubric()
	r.TeamQuality = 21
	r.Attendance = -1
	err := r.Validate()
	require.Error(t, err)

	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Len(t, fe.Fields, 2)

	_, err = Score(r)
	assert.Error(t, err)
}

func TestFromScores_OrderInvariant(t *testing.T) {
	values := map[string]int{
		"attendance": 3, "punctuality": 4, "appearance": 5, "discipline": 2, "initiative": 1,
		"communication": 5, "cooperation": 4, "adaptability": 3, "selfConfidence": 2, "acceptsCriticism": 1,
		"technicalKnowledge": 5, "workQuality": 4, "problemSolving": 3, "responsibility": 9, "teamQuality": 17,
	}

	names := FieldNames()
	want := -1
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		rng.Shuffle(len(names), func(a, b int) { names[a], names[b] = names[b], names[a] })

		// Rebuild the input map following the shuffled insertion order.
		ordered := make(map[string]int, len(names))
		for _, n := range names {
			ordered[n] = values[n]
		}
		r, err := FromScores(ordered)
		require.NoError(t, err)

		got, err := Score(r)
		require.NoError(t, err)
		if want == -1 {
			want = got
		}
		assert.Equal(t, want, got)
	}
}

func TestFromScores_UnknownField(t *testing.T) {
	_, err := FromScores(map[string]int{"charisma": 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "charisma")
}
