package domain

import (
	"context"
	"time"
)

// MembershipStatus is the state of a user's membership in an organization.
type MembershipStatus string

const (
	MembershipActive      MembershipStatus = "active"
	MembershipPending     MembershipStatus = "pending"
	MembershipBlacklisted MembershipStatus = "blacklisted"
)

// Organization represents a community that hosts events. The owner is a single
// user; staff is a separate set managed alongside memberships.
// swagger:model Organization
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Membership represents a user's membership record in an organization.
// swagger:model Membership
type Membership struct {
	OrgID     string           `json:"org_id"`
	UserID    string           `json:"user_id"`
	Status    MembershipStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}

// IsActive reports whether the membership admits the user to members-only events.
func (m *Membership) IsActive() bool {
	return m != nil && m.Status == MembershipActive
}

// OrganizationRepository defines storage operations for organizations and
// their membership/staff relations. The admission engine only reads these;
// organization management lives elsewhere.
type OrganizationRepository interface {
	GetByID(ctx context.Context, id string) (*Organization, error)
	GetMembership(ctx context.Context, orgID, userID string) (*Membership, error)
	IsStaff(ctx context.Context, orgID, userID string) (bool, error)
}
