package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	donormodels "lifelink/internal/donor/models"
	"lifelink/internal/donorlist/models"
	"lifelink/pkg/platform/sentinel"
)

// PostgresListStore persists availability entries. Schema:
//
//	CREATE TABLE donor_list (
//	    id            UUID PRIMARY KEY,
//	    donor_id      UUID NOT NULL UNIQUE REFERENCES donors (id),
//	    full_name     TEXT NOT NULL,
//	    blood_group   TEXT NOT NULL,
//	    latitude      DOUBLE PRECISION NOT NULL,
//	    longitude     DOUBLE PRECISION NOT NULL,
//	    address       TEXT NOT NULL,
//	    last_donation TIMESTAMPTZ NOT NULL,
//	    is_available  BOOLEAN NOT NULL,
//	    added_at      TIMESTAMPTZ NOT NULL
//	);
type PostgresListStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresListStore {
	return &PostgresListStore{db: db}
}

const entryColumns = `id, donor_id, full_name, blood_group, latitude, longitude,
	address, last_donation, is_available, added_at`

func (s *PostgresListStore) Create(ctx context.Context, entry *models.Entry) error {
	query := `
		INSERT INTO donor_list (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.DonorID, entry.FullName, string(entry.BloodGroup),
		entry.Location.Latitude, entry.Location.Longitude, entry.Location.Address,
		entry.LastDonation, entry.IsAvailable, entry.AddedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("insert donor list entry: %w", err)
	}
	return nil
}

func (s *PostgresListStore) GetByID(ctx context.Context, id string) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM donor_list WHERE id = $1`
	return scanEntry(s.db.QueryRowContext(ctx, query, id))
}

func (s *PostgresListStore) GetByDonorID(ctx context.Context, donorID string) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM donor_list WHERE donor_id = $1`
	return scanEntry(s.db.QueryRowContext(ctx, query, donorID))
}

func (s *PostgresListStore) DeleteByDonorID(ctx context.Context, donorID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM donor_list WHERE donor_id = $1`, donorID)
	if err != nil {
		return fmt.Errorf("delete donor list entry: %w", err)
	}
	return nil
}

func (s *PostgresListStore) Delete(ctx context.Context, id string) (*models.Entry, error) {
	query := `DELETE FROM donor_list WHERE id = $1 RETURNING ` + entryColumns
	return scanEntry(s.db.QueryRowContext(ctx, query, id))
}

func (s *PostgresListStore) SetAvailability(ctx context.Context, id string, isAvailable bool) (*models.Entry, error) {
	query := `
		UPDATE donor_list SET is_available = $2
		WHERE id = $1
		RETURNING ` + entryColumns
	return scanEntry(s.db.QueryRowContext(ctx, query, id, isAvailable))
}

func (s *PostgresListStore) ListAvailable(ctx context.Context) ([]*models.Entry, error) {
	query := `
		SELECT ` + entryColumns + ` FROM donor_list
		WHERE is_available ORDER BY added_at DESC
	`
	return s.queryEntries(ctx, query)
}

func (s *PostgresListStore) FindAvailableByBloodGroup(ctx context.Context, group donormodels.BloodGroup) ([]*models.Entry, error) {
	query := `
		SELECT ` + entryColumns + ` FROM donor_list
		WHERE is_available AND blood_group = $1 ORDER BY added_at DESC
	`
	return s.queryEntries(ctx, query, string(group))
}

func (s *PostgresListStore) queryEntries(ctx context.Context, query string, args ...any) ([]*models.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query donor list: %w", err)
	}
	defer rows.Close()

	var out []*models.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.Entry, error) {
	var (
		e     models.Entry
		group string
	)
	err := row.Scan(
		&e.ID, &e.DonorID, &e.FullName, &group,
		&e.Location.Latitude, &e.Location.Longitude, &e.Location.Address,
		&e.LastDonation, &e.IsAvailable, &e.AddedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan donor list entry: %w", err)
	}
	e.BloodGroup = donormodels.BloodGroup(group)
	return &e, nil
}
