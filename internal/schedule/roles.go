package schedule

import "fmt"

// DriverRole is the terminal role that reports delivery figures.
const DriverRole = "Driver"

// DefaultRoles is the recommended execution order of a batch.
var DefaultRoles = []string{
	"Procurement",
	"Inventory QC - IN",
	"QC - Preppers",
	"Pre-stagers",
	"Extra Service Preppers",
	"Pickers and Packers",
	"QC-out",
	"Stock handler 1",
	"Stock handler 2",
	"Manifester",
	DriverRole,
}

// RoleSequence is an immutable ordered role list with O(1) position lookups.
type RoleSequence struct {
	roles    []string
	index    map[string]int
	terminal string
}

// NewRoleSequence requires unique names and a terminal role that is part of the list.
func NewRoleSequence(roles []string, terminal string) (*RoleSequence, error) {
	if len(roles) == 0 {
		return nil, fmt.Errorf("role sequence is empty")
	}
	s := &RoleSequence{
		roles:    make([]string, len(roles)),
		index:    make(map[string]int, len(roles)),
		terminal: terminal,
	}
	copy(s.roles, roles)
	for i, r := range s.roles {
		if _, dup := s.index[r]; dup {
			return nil, fmt.Errorf("duplicate role %q", r)
		}
		s.index[r] = i
	}
	if _, ok := s.index[terminal]; !ok {
		return nil, fmt.Errorf("terminal role %q not in sequence", terminal)
	}
	return s, nil
}

// DefaultSequence returns the fulfillment-center role order.
func DefaultSequence() *RoleSequence {
	s, err := NewRoleSequence(DefaultRoles, DriverRole)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *RoleSequence) Len() int         { return len(s.roles) }
func (s *RoleSequence) Terminal() string { return s.terminal }

// Roles returns a copy of the sequence.
func (s *RoleSequence) Roles() []string {
	out := make([]string, len(s.roles))
	copy(out, s.roles)
	return out
}

func (s *RoleSequence) Contains(role string) bool {
	_, ok := s.index[role]
	return ok
}

// Index returns the 0-based position of role.
func (s *RoleSequence) Index(role string) (int, bool) {
	i, ok := s.index[role]
	return i, ok
}

// Previous returns the role before role; false for the first role or an unknown one.
func (s *RoleSequence) Previous(role string) (string, bool) {
	i, ok := s.index[role]
	if !ok || i == 0 {
		return "", false
	}
	return s.roles[i-1], true
}

// Next returns the role after role; false for the last role or an unknown one.
func (s *RoleSequence) Next(role string) (string, bool) {
	i, ok := s.index[role]
	if !ok || i == len(s.roles)-1 {
		return "", false
	}
	return s.roles[i+1], true
}

func (s *RoleSequence) IsTerminal(role string) bool {
	return role == s.terminal
}

// NonTerminal lists every role except the terminal one, in order.
func (s *RoleSequence) NonTerminal() []string {
	out := make([]string, 0, len(s.roles)-1)
	for _, r := range s.roles {
		if r != s.terminal {
			out = append(out, r)
		}
	}
	return out
}
