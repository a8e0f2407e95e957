package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventadmission/internal/domain"
)

type organizationRepository struct {
	DB *sql.DB
}

func NewOrganizationRepository(db *sql.DB) domain.OrganizationRepository {
	return &organizationRepository{
		DB: db,
	}
}

func (r *organizationRepository) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	query := `
		SELECT id, name, owner_id, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`
	o := &domain.Organization{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&o.ID, &o.Name, &o.OwnerID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return o, nil
}

func (r *organizationRepository) GetMembership(ctx context.Context, orgID, userID string) (*domain.Membership, error) {
	query := `
		SELECT org_id, user_id, status, created_at
		FROM memberships
		WHERE org_id = $1 AND user_id = $2
	`
	m := &domain.Membership{}
	err := r.DB.QueryRowContext(ctx, query, orgID, userID).Scan(&m.OrgID, &m.UserID, &m.Status, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *organizationRepository) IsStaff(ctx context.Context, orgID, userID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM organization_staff
			WHERE org_id = $1 AND user_id = $2
		)
	`
	var staff bool
	if err := r.DB.QueryRowContext(ctx, query, orgID, userID).Scan(&staff); err != nil {
		return false, err
	}
	return staff, nil
}
