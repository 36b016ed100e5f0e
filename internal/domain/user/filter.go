package user

import "user-reputation-service/internal/domain/role"

// Scope restricts a listing to a class of role sets.
type Scope int

const (
	// ScopeAll places no restriction on roles.
	ScopeAll Scope = iota
	// ScopePureClients keeps users whose effective roles are exactly {CLIENT}.
	ScopePureClients
	// ScopeNonAdmins drops users holding ADMIN or SUPER_ADMIN.
	ScopeNonAdmins
)

// ListFilter is the storage query behind every user listing.
type ListFilter struct {
	ExcludeID  int64      // ExcludeID drops one user, normally the requester
	ExcludeIDs []int64    // ExcludeIDs drops additional users
	Search     string     // Search matches email OR name, case-insensitive substring
	Role       *role.Role // Role keeps users holding that exact tag
	Exact      role.Set   // Exact keeps users whose effective roles equal this set; zero disables it
	Scope      Scope      // Scope restricts the candidate set
	OrderBy    OrderBy    // OrderBy selects the ordering
	Page       int64      // Page is 1-based; zero disables pagination
	Limit      int64      // Limit is the page size
}

// OrderBy selects how listings are sorted.
type OrderBy int

const (
	// OrderCreatedDesc sorts newest accounts first.
	OrderCreatedDesc OrderBy = iota
	// OrderNameAsc sorts alphabetically by name.
	OrderNameAsc
)

// Counts summarises the whole user table.
type Counts struct {
	Total   int64
	Active  int64
	Blocked int64
	Admins  int64
}
