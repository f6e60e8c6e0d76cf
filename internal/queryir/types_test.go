package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsColumn(t *testing.T) {
	for _, c := range Columns {
		assert.True(t, IsColumn(c), c)
	}
	assert.False(t, IsColumn("id"))
	assert.False(t, IsColumn("v6"))
	assert.False(t, IsColumn("v0; DROP TABLE casbin_rule"))
}

func TestRuleMatch(t *testing.T) {
	got := RuleMatch("p", []string{"alice", "", "read"})

	assert.Equal(t, And{Predicates: []Predicate{
		Equals{Column: "ptype", Value: "p"},
		Equals{Column: "v0", Value: "alice"},
		IsEmpty{Column: "v1"},
		Equals{Column: "v2", Value: "read"},
		IsEmpty{Column: "v3"},
		IsEmpty{Column: "v4"},
		IsEmpty{Column: "v5"},
	}}, got)
}

func TestRuleMatch_TrailingEmptyEqualsShorter(t *testing.T) {
	assert.Equal(t,
		RuleMatch("g", []string{"alice", "admin"}),
		RuleMatch("g", []string{"alice", "admin", "", ""}))
}

func TestFieldWindow(t *testing.T) {
	testCases := []struct {
		name        string
		fieldIndex  int
		fieldValues []string
		want        []Predicate
	}{
		{
			name:        "single value at index 1",
			fieldIndex:  1,
			fieldValues: []string{"data2"},
			want:        []Predicate{Equals{Column: "v1", Value: "data2"}},
		},
		{
			name:        "empty values are wildcards",
			fieldIndex:  0,
			fieldValues: []string{"alice", "", "read"},
			want: []Predicate{
				Equals{Column: "v0", Value: "alice"},
				Equals{Column: "v2", Value: "read"},
			},
		},
		{
			name:        "window past v5 is clipped",
			fieldIndex:  4,
			fieldValues: []string{"a", "b", "c", "d"},
			want: []Predicate{
				Equals{Column: "v4", Value: "a"},
				Equals{Column: "v5", Value: "b"},
			},
		},
		{
			name:        "negative index only keeps in-range positions",
			fieldIndex:  -1,
			fieldValues: []string{"ignored", "alice"},
			want:        []Predicate{Equals{Column: "v0", Value: "alice"}},
		},
		{
			name:        "no values matches whole ptype",
			fieldIndex:  0,
			fieldValues: nil,
			want:        nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := FieldWindow("p", tc.fieldIndex, tc.fieldValues...)
			want := append([]Predicate{Equals{Column: "ptype", Value: "p"}}, tc.want...)
			assert.Equal(t, want, got.Predicates)
		})
	}
}

func TestConjunction(t *testing.T) {
	got := Conjunction([]Equals{{Column: "ptype", Value: "p"}, {Column: "v0", Value: "bob"}})
	assert.Len(t, got.Predicates, 2)
	assert.Equal(t, Equals{Column: "v0", Value: "bob"}, got.Predicates[1])
}
