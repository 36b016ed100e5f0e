// Package role defines the closed role hierarchy CLIENT < ADMIN < SUPER_ADMIN and the
// pure permission rules derived from it. Nothing in this package touches storage.
package role

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is one tag of the hierarchy. Its numeric value is its permission level.
type Role uint8

const (
	Client Role = iota
	Admin
	SuperAdmin
)

var names = [...]string{
	Client:     "CLIENT",
	Admin:      "ADMIN",
	SuperAdmin: "SUPER_ADMIN",
}

// All lists every role, lowest level first.
var All = []Role{Client, Admin, SuperAdmin}

// String returns the wire tag of the role.
func (r Role) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
	return names[r]
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	return r <= SuperAdmin
}

// Level is the integer ordering used for management comparisons.
func (r Role) Level() Level {
	return Level(r)
}

// Parse converts a wire tag (case-insensitive) into a Role.
func Parse(s string) (Role, error) {
	tag := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range names {
		if n == tag {
			return Role(i), nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("unknown role %d", uint8(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Level orders role sets: CLIENT=0, ADMIN=1, SUPER_ADMIN=2.
type Level int

const (
	LevelClient     = Level(Client)
	LevelAdmin      = Level(Admin)
	LevelSuperAdmin = Level(SuperAdmin)
)

// Set is a set of roles stored as a bitmask. The zero value is the empty set.
type Set uint8

// NewSet builds a set from the given roles. Invalid roles are ignored.
func NewSet(roles ...Role) Set {
	var s Set
	for _, r := range roles {
		s = s.With(r)
	}
	return s
}

// ParseSet builds a set from wire tags.
func ParseSet(tags []string) (Set, error) {
	var s Set
	for _, t := range tags {
		r, err := Parse(t)
		if err != nil {
			return 0, err
		}
		s = s.With(r)
	}
	return s, nil
}

// With returns s plus r.
func (s Set) With(r Role) Set {
	if !r.Valid() {
		return s
	}
	return s | 1<<r
}

// Has reports whether r is in the set.
func (s Set) Has(r Role) bool {
	return r.Valid() && s&(1<<r) != 0
}

// IsEmpty reports whether no role is stored.
func (s Set) IsEmpty() bool {
	return s == 0
}

// Roles returns the members ordered by level, lowest first.
func (s Set) Roles() []Role {
	out := make([]Role, 0, len(All))
	for _, r := range All {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

// Strings returns the wire tags ordered by level.
func (s Set) Strings() []string {
	roles := s.Roles()
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = r.String()
	}
	return out
}

// String implements fmt.Stringer.
func (s Set) String() string {
	return "{" + strings.Join(s.Strings(), ",") + "}"
}

// Effective returns the set as it must be read: an empty set means {CLIENT}.
func (s Set) Effective() Set {
	if s.IsEmpty() {
		return NewSet(Client)
	}
	return s
}

// IsPureClient reports whether the effective set is exactly {CLIENT}.
func (s Set) IsPureClient() bool {
	return s.Effective() == NewSet(Client)
}

// MarshalJSON encodes the effective set as a sorted array of tags.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Effective().Strings())
}

// UnmarshalJSON decodes an array of tags.
func (s *Set) UnmarshalJSON(b []byte) error {
	var tags []string
	if err := json.Unmarshal(b, &tags); err != nil {
		return err
	}
	parsed, err := ParseSet(tags)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Canonical returns the storage form of the set: the JSON array of its effective tags.
// Two equal sets always produce the same string.
func (s Set) Canonical() string {
	b, _ := json.Marshal(s.Effective().Strings())
	return string(b)
}

// ParseCanonical reads a stored JSON array of tags. Empty input reads as {CLIENT}.
func ParseCanonical(raw string) (Set, error) {
	if strings.TrimSpace(raw) == "" {
		return NewSet(Client), nil
	}
	var s Set
	if err := s.UnmarshalJSON([]byte(raw)); err != nil {
		return 0, fmt.Errorf("parse roles %q: %w", raw, err)
	}
	return s.Effective(), nil
}

// Pattern returns the LIKE pattern matching a stored set that holds r.
func Pattern(r Role) string {
	return `%"` + r.String() + `"%`
}
