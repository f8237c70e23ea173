// Package policy is the role table deciding who may do what.
package policy

import "github.com/Congregate/models"

type Action string

const (
	ActionViewContent           Action = "view_content"
	ActionViewDirectory         Action = "view_directory"
	ActionViewPrayerRequests    Action = "view_prayer_requests"
	ActionCreatePrayerRequest   Action = "create_prayer_request"
	ActionRsvp                  Action = "rsvp"
	ActionManageOwnFamily       Action = "manage_own_family"
	ActionManageEvents          Action = "manage_events"
	ActionManageAnnouncements   Action = "manage_announcements"
	ActionModeratePrayers       Action = "moderate_prayers"
	ActionViewUnpublished       Action = "view_unpublished"
	ActionManageTags            Action = "manage_tags"
	ActionApproveUsers          Action = "approve_users"
	ActionManageAnyPerson       Action = "manage_any_person"
	ActionManageAnyFamily       Action = "manage_any_family"
	ActionFilterDirectoryByRole Action = "filter_directory_by_role"
	ActionBroadcast             Action = "broadcast"
)

var actionMinRole = map[Action]string{
	ActionViewContent:           models.RoleMember,
	ActionViewDirectory:         models.RoleMember,
	ActionViewPrayerRequests:    models.RoleMember,
	ActionCreatePrayerRequest:   models.RoleMember,
	ActionRsvp:                  models.RoleMember,
	ActionManageOwnFamily:       models.RoleMember,
	ActionManageEvents:          models.RoleLeader,
	ActionManageAnnouncements:   models.RoleLeader,
	ActionModeratePrayers:       models.RoleLeader,
	ActionViewUnpublished:       models.RoleLeader,
	ActionManageTags:            models.RoleAdmin,
	ActionApproveUsers:          models.RoleAdmin,
	ActionManageAnyPerson:       models.RoleAdmin,
	ActionManageAnyFamily:       models.RoleAdmin,
	ActionFilterDirectoryByRole: models.RoleAdmin,
	ActionBroadcast:             models.RoleAdmin,
}

// CanPerform is the single role check used by routes and handlers.
// Unknown roles and unknown actions are denied.
func CanPerform(role string, action Action) bool {
	min, ok := actionMinRole[action]
	if !ok {
		return false
	}
	return models.RoleAtLeast(role, min)
}

// CanAssignTag applies a tag's assign_min_role. Self-assignable tags may be
// attached by any approved member to their own person record.
func CanAssignTag(role string, tag models.Tag, toSelf bool) bool {
	if !tag.Is_Active {
		return models.RoleAtLeast(role, models.RoleAdmin)
	}
	if toSelf && tag.Self_Assignable && models.RoleAtLeast(role, models.RoleMember) {
		return true
	}
	minRole := tag.Assign_Min_Role
	if minRole == "" {
		minRole = models.RoleAdmin
	}
	return models.RoleAtLeast(role, minRole)
}
