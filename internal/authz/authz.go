// Package authz centralizes authorization rules as pure functions over the
// actor, the action and an optional target. Handlers translate the returned
// errors into HTTP responses; nothing in here touches the database or the
// request.
package authz

import (
	"basecamp/internal/models"
)

// Action identifies an operation subject to authorization.
type Action string

const (
	ActionCreatePost          Action = "post.create"
	ActionDeletePost          Action = "post.delete"
	ActionTogglePublish       Action = "user.toggle_publish"
	ActionChangeRole          Action = "user.change_role"
	ActionManageTaxonomy      Action = "taxonomy.manage"
	ActionViewAdmin           Action = "admin.view"
	ActionListOtherUsersLikes Action = "likes.list_other_users"
)

// Authorize reports whether actor may perform action, optionally against a
// target user. A nil error means the action is allowed. Errors carry the
// taxonomy code the handler should respond with.
func Authorize(actor *models.User, action Action, target *models.User) error {
	if actor == nil {
		return models.NewUnauthenticatedError("Authentication required")
	}

	switch action {
	case ActionCreatePost:
		if !models.ValidRole(actor.Role) {
			return models.NewUnauthorizedError("Only users with publishing rights can create posts")
		}
		if !actor.CanPublish {
			return models.NewUnauthorizedError("Only users with publishing rights can create posts")
		}
		return nil

	case ActionDeletePost:
		// Ownership is checked by the caller against the post record; this
		// rule only exists so admins cannot bypass it silently.
		return nil

	case ActionTogglePublish:
		if !actor.IsStaff() {
			return models.NewUnauthorizedError("Admin or moderator access required")
		}
		if target == nil {
			return models.NewNotFoundError("User not found")
		}
		if target.ID == actor.ID {
			return models.NewValidationError("Cannot change your own publishing status")
		}
		if actor.Role == models.RoleModerator && target.Role != models.RoleUser {
			return models.NewUnauthorizedError("Moderators can only update regular users")
		}
		return nil

	case ActionChangeRole:
		if !actor.IsAdmin() {
			return models.NewUnauthorizedError("Admin access required")
		}
		if target == nil {
			return models.NewNotFoundError("User not found")
		}
		if target.ID == actor.ID {
			return models.NewValidationError("Cannot change your own role")
		}
		return nil

	case ActionManageTaxonomy:
		if !actor.IsAdmin() {
			return models.NewUnauthorizedError("Admin access required")
		}
		return nil

	case ActionViewAdmin:
		if !actor.IsStaff() {
			return models.NewUnauthorizedError("Admin or moderator access required")
		}
		return nil

	case ActionListOtherUsersLikes:
		if !actor.IsStaff() {
			return models.NewUnauthorizedError("Admin or moderator access required")
		}
		return nil
	}

	return models.NewUnauthorizedError("Action not permitted")
}

// CanFilterLikesByUser reports whether actor may scope the like listing to an
// arbitrary user. Non-staff callers always see their own likes; the filter is
// silently ignored rather than rejected.
func CanFilterLikesByUser(actor *models.User) bool {
	return actor != nil && actor.IsStaff()
}
