package role

import (
	pkgerrors "user-reputation-service/pkg/errors"
)

// EffectiveRoles returns the roles a user holds when read. Always non-empty.
func EffectiveRoles(stored Set) Set {
	return stored.Effective()
}

// PermissionLevel is the highest level present in the effective set.
func PermissionLevel(s Set) Level {
	level := LevelClient
	for _, r := range s.Effective().Roles() {
		if r.Level() > level {
			level = r.Level()
		}
	}
	return level
}

// CanManage reports whether an actor may view, edit, block or delete a target account.
// SUPER_ADMIN manages anyone, ADMIN manages only pure clients, CLIENT manages no one.
func CanManage(actor, target Set) bool {
	switch PermissionLevel(actor) {
	case LevelSuperAdmin:
		return true
	case LevelAdmin:
		return target.IsPureClient()
	default:
		return false
	}
}

// CanAssignRole reports whether an actor may give r to an account.
func CanAssignRole(actor Set, r Role) bool {
	if !r.Valid() {
		return false
	}
	switch PermissionLevel(actor) {
	case LevelSuperAdmin:
		return true
	case LevelAdmin:
		return r == Client
	default:
		return false
	}
}

// AuthorizeManage is CanManage returning a PermissionDenied error.
func AuthorizeManage(actor, target Set) error {
	if !CanManage(actor, target) {
		return pkgerrors.NewPermissionDeniedError("you are not allowed to manage this account")
	}
	return nil
}

// AuthorizeAssign checks every role of the requested set against CanAssignRole.
func AuthorizeAssign(actor Set, requested Set) error {
	for _, r := range requested.Effective().Roles() {
		if !CanAssignRole(actor, r) {
			return pkgerrors.NewPermissionDeniedError("you are not allowed to assign role " + r.String())
		}
	}
	return nil
}
