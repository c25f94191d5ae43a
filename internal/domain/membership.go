package domain

import "context"

// Membership is the identity service's answer for a user's standing in an
// organization.
type Membership struct {
	IsMember bool   `json:"is_member"`
	Role     string `json:"role"`
}

// CanManage reports whether the membership grants event management rights.
func (m Membership) CanManage() bool {
	if !m.IsMember {
		return false
	}
	switch m.Role {
	case "owner", "admin", "organizer":
		return true
	}
	return false
}

// MembershipVerifier is the external identity/membership service. Group
// membership gates private-event registration; the organization role gates
// management operations.
type MembershipVerifier interface {
	IsGroupMember(ctx context.Context, groupID, userID string) (bool, error)
	MembershipRole(ctx context.Context, orgID, userID string) (Membership, error)
}
