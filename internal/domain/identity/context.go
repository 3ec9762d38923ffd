package identity

import "github.com/google/uuid"

type Role string

const (
	RoleSystemOwner  Role = "system_owner"
	RoleAdmin        Role = "admin"
	RoleQAManager    Role = "qa_manager"
	RoleQCSupervisor Role = "qc_supervisor"
	RoleLabAnalyst   Role = "lab_analyst"
	RoleMicroAnalyst Role = "micro_analyst"
	RoleOperator     Role = "operator"
	// RoleSystem marks internally triggered actions (scheduler ticks,
	// automatic NC creation). It bypasses role lists but is still audited.
	RoleSystem Role = "system"
)

// Context is the tenant and actor scope threaded explicitly through every
// operation. It is always passed as a value, never read from globals.
type Context struct {
	OrganizationID uuid.UUID
	PlantID        uuid.UUID
	UserID         uuid.UUID
	Role           Role
	CorrelationID  string
}

// Allows reports whether the actor's role is in the allow-list.
// System owner and the internal system role are always allowed.
func (c Context) Allows(roles ...Role) bool {
	if c.Role == RoleSystemOwner || c.Role == RoleSystem {
		return true
	}
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}

// OwnsOrganization reports whether the actor may touch a resource owned by
// orgID. System owner crosses tenants; everyone else is pinned.
func (c Context) OwnsOrganization(orgID uuid.UUID) bool {
	if c.Role == RoleSystemOwner {
		return true
	}
	return c.OrganizationID == orgID
}
