package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"lifelink/internal/donor/models"
	"lifelink/pkg/platform/sentinel"
)

// PostgresDonorStore persists donors. Schema:
//
//	CREATE TABLE donors (
//	    id               UUID PRIMARY KEY,
//	    full_name        TEXT NOT NULL,
//	    age              INT NOT NULL,
//	    gender           TEXT NOT NULL,
//	    blood_group      TEXT NOT NULL,
//	    mobile_number    TEXT NOT NULL UNIQUE,
//	    email            TEXT NOT NULL UNIQUE,
//	    password_hash    TEXT NOT NULL,
//	    latitude         DOUBLE PRECISION NOT NULL,
//	    longitude        DOUBLE PRECISION NOT NULL,
//	    address          TEXT NOT NULL,
//	    is_eligible      BOOLEAN NOT NULL,
//	    is_in_donor_list BOOLEAN NOT NULL,
//	    last_donation    TIMESTAMPTZ,
//	    donation_history JSONB NOT NULL DEFAULT '[]',
//	    created_at       TIMESTAMPTZ NOT NULL,
//	    updated_at       TIMESTAMPTZ NOT NULL
//	);
type PostgresDonorStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresDonorStore {
	return &PostgresDonorStore{db: db}
}

const donorColumns = `id, full_name, age, gender, blood_group, mobile_number, email,
	password_hash, latitude, longitude, address, is_eligible, is_in_donor_list,
	last_donation, donation_history, created_at, updated_at`

func (s *PostgresDonorStore) Create(ctx context.Context, donor *models.Donor) error {
	history, err := json.Marshal(donor.DonationHistory)
	if err != nil {
		return fmt.Errorf("marshal donation history: %w", err)
	}
	query := `
		INSERT INTO donors (` + donorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err = s.db.ExecContext(ctx, query,
		donor.ID, donor.FullName, donor.Age, string(donor.Gender), string(donor.BloodGroup),
		donor.MobileNumber, donor.Email, donor.PasswordHash,
		donor.Location.Latitude, donor.Location.Longitude, donor.Location.Address,
		donor.IsEligible, donor.IsInDonorList, donor.LastDonation, history,
		donor.CreatedAt, donor.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("insert donor: %w", err)
	}
	return nil
}

func (s *PostgresDonorStore) GetByID(ctx context.Context, id string) (*models.Donor, error) {
	query := `SELECT ` + donorColumns + ` FROM donors WHERE id = $1`
	return scanDonor(s.db.QueryRowContext(ctx, query, id))
}

func (s *PostgresDonorStore) GetByEmail(ctx context.Context, email string) (*models.Donor, error) {
	query := `SELECT ` + donorColumns + ` FROM donors WHERE lower(email) = lower($1)`
	return scanDonor(s.db.QueryRowContext(ctx, query, email))
}

func (s *PostgresDonorStore) Update(ctx context.Context, donor *models.Donor) error {
	history, err := json.Marshal(donor.DonationHistory)
	if err != nil {
		return fmt.Errorf("marshal donation history: %w", err)
	}
	query := `
		UPDATE donors SET
			full_name = $2, age = $3, gender = $4, blood_group = $5,
			mobile_number = $6, email = $7, password_hash = $8,
			latitude = $9, longitude = $10, address = $11,
			is_eligible = $12, is_in_donor_list = $13, last_donation = $14,
			donation_history = $15, updated_at = $16
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		donor.ID, donor.FullName, donor.Age, string(donor.Gender), string(donor.BloodGroup),
		donor.MobileNumber, donor.Email, donor.PasswordHash,
		donor.Location.Latitude, donor.Location.Longitude, donor.Location.Address,
		donor.IsEligible, donor.IsInDonorList, donor.LastDonation, history,
		donor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update donor: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresDonorStore) SetInDonorList(ctx context.Context, donorID string, inList bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE donors SET is_in_donor_list = $2, updated_at = now() WHERE id = $1`,
		donorID, inList,
	)
	if err != nil {
		return fmt.Errorf("set in donor list: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDonor(row rowScanner) (*models.Donor, error) {
	var (
		d       models.Donor
		gender  string
		group   string
		last    sql.NullTime
		history []byte
	)
	err := row.Scan(
		&d.ID, &d.FullName, &d.Age, &gender, &group, &d.MobileNumber, &d.Email,
		&d.PasswordHash, &d.Location.Latitude, &d.Location.Longitude, &d.Location.Address,
		&d.IsEligible, &d.IsInDonorList, &last, &history, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan donor: %w", err)
	}
	d.Gender = models.Gender(gender)
	d.BloodGroup = models.BloodGroup(group)
	if last.Valid {
		d.LastDonation = &last.Time
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &d.DonationHistory); err != nil {
			return nil, fmt.Errorf("unmarshal donation history: %w", err)
		}
	}
	return &d, nil
}
