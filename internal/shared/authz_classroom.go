package shared

// Classroom permissions declared for the authorization registry.
const (
	PermAttendanceView = "attendance.view"
	PermAttendanceMark = "attendance.mark"

	PermEventsView   = "events.view"
	PermEventsManage = "events.manage"

	PermGroupsView   = "groups.view"
	PermGroupsManage = "groups.manage"

	PermProvisionUsers = "provision.users"
)

// ClassroomScopes lists all permissions related to the classroom modules.
func ClassroomScopes() []string {
	return []string{
		PermAttendanceView,
		PermAttendanceMark,
		PermEventsView,
		PermEventsManage,
		PermGroupsView,
		PermGroupsManage,
		PermProvisionUsers,
	}
}
