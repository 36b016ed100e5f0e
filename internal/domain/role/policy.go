package role

import (
	pkgerrors "user-reputation-service/pkg/errors"
)

// Action describes the kind of operation an actor wants to perform on accounts.
type Action string

const (
	ActionList   Action = "list"
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionBlock  Action = "block"
	ActionDelete Action = "delete"
	ActionStats  Action = "stats"
)

// Authorize is the single checkpoint for account actions.
// For ActionCreate the target is the role set requested for the new account.
// For ActionList and ActionStats the target is ignored.
func Authorize(actor Set, action Action, target Set) error {
	switch action {
	case ActionList, ActionStats:
		if PermissionLevel(actor) < LevelAdmin {
			return pkgerrors.NewPermissionDeniedError("administrator role required")
		}
		return nil
	case ActionCreate:
		if PermissionLevel(actor) < LevelAdmin {
			return pkgerrors.NewPermissionDeniedError("administrator role required")
		}
		return AuthorizeAssign(actor, target)
	case ActionView, ActionUpdate, ActionBlock, ActionDelete:
		return AuthorizeManage(actor, target)
	default:
		return pkgerrors.NewPermissionDeniedError("unknown action " + string(action))
	}
}

// Can is Authorize as a bool.
func Can(actor Set, action Action, target Set) bool {
	return Authorize(actor, action, target) == nil
}
