package stream

// Filter decides which events a subscriber receives. It is a pure predicate;
// the same filter and event always produce the same answer.
type Filter struct {
	GroupID       string
	TenantGroupID string
	TenantID      string
	// Scope, when set, additionally requires scope equality.
	Scope string
}

// NewFilter builds the filter for a subscriber identified by the
// (workflow, participant, tenant) triple.
func NewFilter(workflowID, participantID, tenantID, scope string) Filter {
	return Filter{
		GroupID:       GroupID(workflowID, participantID, tenantID),
		TenantGroupID: TenantGroupID(workflowID, tenantID),
		TenantID:      tenantID,
		Scope:         scope,
	}
}

// Matches reports whether the event should be delivered. An event matches
// when either routing key lines up, the tenant is the same, and the optional
// scope restriction holds.
func (f Filter) Matches(ev Event) bool {
	if ev.TenantID != f.TenantID {
		return false
	}
	if ev.GroupID != f.GroupID && ev.TenantGroupID != f.TenantGroupID {
		return false
	}
	if f.Scope != "" && ev.Scope != f.Scope {
		return false
	}
	return true
}
