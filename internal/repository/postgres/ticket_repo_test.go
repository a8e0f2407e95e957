package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"eventadmission/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var ticketColumns = []string{
	"id", "tier_id", "event_id", "user_id", "status", "created_at", "updated_at",
}

func TestTicketRepository_ActivatePending(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		mock       func(mock sqlmock.Sqlmock)
		wantStatus domain.TicketStatus
		wantErr    error
	}{
		{
			name: "activates pending ticket",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`UPDATE tickets SET status = 'ACTIVE'`).
					WithArgs("tk-1").
					WillReturnRows(sqlmock.NewRows(ticketColumns).
						AddRow("tk-1", "tier-1", "ev-1", "u-1", string(domain.TicketActive), now, now))
			},
			wantStatus: domain.TicketActive,
		},
		{
			name: "cancelled ticket stays cancelled",
			mock: func(mock sqlmock.Sqlmock) {
				// The status guard in the WHERE clause matches no row.
				mock.ExpectQuery(`UPDATE tickets SET status = 'ACTIVE'`).
					WithArgs("tk-1").
					WillReturnRows(sqlmock.NewRows(ticketColumns))
			},
			wantErr: domain.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewTicketRepository(db)

			ticket, err := repo.ActivatePending(ctx, "tk-1")
			if tt.wantErr != nil {
				require.True(t, errors.Is(err, tt.wantErr), "expected %v, got %v", tt.wantErr, err)
			} else {
				require.NoError(t, err)
				require.Equal(t, tt.wantStatus, ticket.Status)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTicketRepository_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, tier_id, event_id, user_id, status, created_at, updated_at`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(ticketColumns))

	_, err = NewTicketRepository(db).GetByID(context.Background(), "missing")
	require.True(t, errors.Is(err, domain.ErrNotFound), "expected ErrNotFound, got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}
