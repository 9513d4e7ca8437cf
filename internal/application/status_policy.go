package application

// StatusPolicy decides which status values a principal may record.
type StatusPolicy interface {
	CanSetStatus(principal Principal, status StatusValue) bool
}

// AllowAllStatuses permits every principal to record any status.
type AllowAllStatuses struct{}

// CanSetStatus implements StatusPolicy.
func (AllowAllStatuses) CanSetStatus(Principal, StatusValue) bool {
	return true
}

// RolePolicy grants status values per role. Roles missing from the map may
// not record any status.
type RolePolicy struct {
	Allowed map[Role][]StatusValue
}

// NewRolePolicy returns the default grants: administrators and assistant
// administrators may record anything, teachers may mark rooms occupied, free
// or rescheduled, and students may not record statuses.
func NewRolePolicy() RolePolicy {
	return RolePolicy{Allowed: map[Role][]StatusValue{
		RoleAdmin:          StatusValues,
		RoleAssistantAdmin: StatusValues,
		RoleTeacher:        {StatusOccupied, StatusFree, StatusRescheduled},
	}}
}

// CanSetStatus implements StatusPolicy.
func (p RolePolicy) CanSetStatus(principal Principal, status StatusValue) bool {
	for _, allowed := range p.Allowed[principal.Role] {
		if allowed == status {
			return true
		}
	}
	return false
}
