package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"eventadmission/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var eventColumns = []string{
	"id", "org_id", "name", "status", "type", "starts_at", "ends_at",
	"requires_ticket", "rsvp_before", "max_attendees", "waitlist_enabled", "potluck_enabled",
	"created_at", "updated_at",
}

func TestEventRepository_Create(t *testing.T) {
	ctx := context.Background()
	createdAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		event   *domain.Event
		mock    func(mock sqlmock.Sqlmock)
		wantID  string
		wantErr bool
	}{
		{
			name: "success",
			event: &domain.Event{
				OrgID:     "org-1",
				Name:      "Spring Social",
				Status:    domain.EventDraft,
				Type:      domain.EventPublic,
				StartsAt:  createdAt.Add(24 * time.Hour),
				EndsAt:    createdAt.Add(30 * time.Hour),
				CreatedAt: createdAt,
				UpdatedAt: createdAt,
			},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO events`).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ev-uuid-1"))
			},
			wantID:  "ev-uuid-1",
			wantErr: false,
		},
		{
			name:  "db error",
			event: &domain.Event{OrgID: "org-1", Name: "Spring Social"},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO events`).
					WillReturnError(sql.ErrConnDone)
			},
			wantID:  "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewEventRepository(db)
			err = repo.Create(ctx, tt.event)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantID, tt.event.ID)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	startsAt := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	endsAt := startsAt.Add(4 * time.Hour)
	createdAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		id         string
		mock       func(mock sqlmock.Sqlmock)
		want       *domain.Event
		wantErr    bool
		isNotFound bool
	}{
		{
			name: "success with nullable fields set",
			id:   "ev-1",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, org_id, name, status, type`).
					WithArgs("ev-1").
					WillReturnRows(sqlmock.NewRows(eventColumns).
						AddRow("ev-1", "org-1", "Spring Social", "OPEN", "PUBLIC", startsAt, endsAt,
							false, startsAt.Add(-time.Hour), 50, true, false, createdAt, createdAt))
			},
			want: &domain.Event{
				ID:              "ev-1",
				OrgID:           "org-1",
				Name:            "Spring Social",
				Status:          domain.EventOpen,
				Type:            domain.EventPublic,
				StartsAt:        startsAt,
				EndsAt:          endsAt,
				RSVPBefore:      timePtr(startsAt.Add(-time.Hour)),
				MaxAttendees:    intPtr(50),
				WaitlistEnabled: true,
				CreatedAt:       createdAt,
				UpdatedAt:       createdAt,
			},
			wantErr: false,
		},
		{
			name: "success with nulls",
			id:   "ev-2",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, org_id, name, status, type`).
					WithArgs("ev-2").
					WillReturnRows(sqlmock.NewRows(eventColumns).
						AddRow("ev-2", "org-1", "Open Mic", "OPEN", "PUBLIC", startsAt, endsAt,
							true, nil, nil, false, false, createdAt, createdAt))
			},
			want: &domain.Event{
				ID:             "ev-2",
				OrgID:          "org-1",
				Name:           "Open Mic",
				Status:         domain.EventOpen,
				Type:           domain.EventPublic,
				StartsAt:       startsAt,
				EndsAt:         endsAt,
				RequiresTicket: true,
				CreatedAt:      createdAt,
				UpdatedAt:      createdAt,
			},
			wantErr: false,
		},
		{
			name: "not found",
			id:   "ev-missing",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, org_id, name, status, type`).
					WithArgs("ev-missing").
					WillReturnError(sql.ErrNoRows)
			},
			want:       nil,
			wantErr:    true,
			isNotFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewEventRepository(db)
			got, err := repo.GetByID(ctx, tt.id)
			if tt.wantErr {
				require.Error(t, err)
				if tt.isNotFound {
					require.True(t, errors.Is(err, domain.ErrNotFound))
				}
				require.Nil(t, got)
				require.NoError(t, mock.ExpectationsWereMet())
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	startsAt := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	createdAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`UPDATE events SET status`).
		WithArgs(domain.EventOpen, "ev-1").
		WillReturnRows(sqlmock.NewRows(eventColumns).
			AddRow("ev-1", "org-1", "Spring Social", "OPEN", "PUBLIC", startsAt, startsAt.Add(time.Hour),
				false, nil, nil, false, false, createdAt, createdAt))

	repo := NewEventRepository(db)
	got, err := repo.UpdateStatus(ctx, "ev-1", domain.EventOpen)
	require.NoError(t, err)
	require.Equal(t, domain.EventOpen, got.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_ListQuestionnaireIDs(t *testing.T) {
	ctx := context.Background()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT questionnaire_id`).
		WithArgs("ev-1").
		WillReturnRows(sqlmock.NewRows([]string{"questionnaire_id"}).
			AddRow("q-1").
			AddRow("q-2"))

	repo := NewEventRepository(db)
	ids, err := repo.ListQuestionnaireIDs(ctx, "ev-1")
	require.NoError(t, err)
	require.Equal(t, []string{"q-1", "q-2"}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

func intPtr(v int) *int              { return &v }
func timePtr(t time.Time) *time.Time { return &t }
