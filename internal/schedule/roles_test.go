package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSequence(t *testing.T) {
	s := DefaultSequence()
	assert.Equal(t, 11, s.Len())
	assert.Equal(t, "Driver", s.Terminal())
	assert.True(t, s.IsTerminal("Driver"))
	assert.False(t, s.IsTerminal("Manifester"))
	assert.Len(t, s.NonTerminal(), 10)
	assert.NotContains(t, s.NonTerminal(), "Driver")
}

func TestRoleSequence_Lookups(t *testing.T) {
	s := DefaultSequence()

	tests := []struct {
		role     string
		index    int
		found    bool
		previous string
		hasPrev  bool
		next     string
		hasNext  bool
	}{
		{"Procurement", 0, true, "", false, "Inventory QC - IN", true},
		{"QC - Preppers", 2, true, "Inventory QC - IN", true, "Pre-stagers", true},
		{"Driver", 10, true, "Manifester", true, "", false},
		{"Janitor", 0, false, "", false, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			idx, ok := s.Index(tt.role)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.index, idx)
			assert.Equal(t, tt.found, s.Contains(tt.role))

			prev, ok := s.Previous(tt.role)
			assert.Equal(t, tt.hasPrev, ok)
			assert.Equal(t, tt.previous, prev)

			next, ok := s.Next(tt.role)
			assert.Equal(t, tt.hasNext, ok)
			assert.Equal(t, tt.next, next)
		})
	}
}

func TestNewRoleSequence_Errors(t *testing.T) {
	_, err := NewRoleSequence(nil, "Driver")
	assert.Error(t, err)

	_, err = NewRoleSequence([]string{"A", "A", "Driver"}, "Driver")
	assert.Error(t, err)

	_, err = NewRoleSequence([]string{"A", "B"}, "Driver")
	assert.Error(t, err)
}

func TestRoleSequence_IsImmutable(t *testing.T) {
	src := []string{"Pick", "Pack", "Ship"}
	s, err := NewRoleSequence(src, "Ship")
	require.NoError(t, err)

	src[0] = "Changed"
	roles := s.Roles()
	roles[1] = "Changed"

	assert.Equal(t, []string{"Pick", "Pack", "Ship"}, s.Roles())
}
