package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	donormodels "lifelink/internal/donor/models"
	"lifelink/internal/emergency/models"
	"lifelink/pkg/platform/sentinel"
)

// PostgresRequestStore persists emergency requests. Schema:
//
//	CREATE TABLE emergency_requests (
//	    id               UUID PRIMARY KEY,
//	    requester_id     UUID NOT NULL REFERENCES donors (id),
//	    requester_name   TEXT NOT NULL,
//	    requester_mobile TEXT NOT NULL,
//	    blood_group      TEXT NOT NULL,
//	    units            INT NOT NULL CHECK (units BETWEEN 1 AND 10),
//	    latitude         DOUBLE PRECISION NOT NULL,
//	    longitude        DOUBLE PRECISION NOT NULL,
//	    address          TEXT NOT NULL,
//	    status           TEXT NOT NULL,
//	    accepted_by      JSONB NOT NULL DEFAULT '[]',
//	    notified_donors  TEXT[] NOT NULL DEFAULT '{}',
//	    created_at       TIMESTAMPTZ NOT NULL,
//	    updated_at       TIMESTAMPTZ NOT NULL
//	);
type PostgresRequestStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresRequestStore {
	return &PostgresRequestStore{db: db}
}

const requestColumns = `id, requester_id, requester_name, requester_mobile, blood_group,
	units, latitude, longitude, address, status, accepted_by, notified_donors,
	created_at, updated_at`

func (s *PostgresRequestStore) Create(ctx context.Context, req *models.Request) error {
	accepted, err := json.Marshal(req.AcceptedBy)
	if err != nil {
		return fmt.Errorf("marshal responses: %w", err)
	}
	query := `
		INSERT INTO emergency_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = s.db.ExecContext(ctx, query,
		req.ID, req.RequesterID, req.RequesterName, req.RequesterMobile,
		string(req.BloodGroup), req.Units,
		req.Location.Latitude, req.Location.Longitude, req.Location.Address,
		string(req.Status), accepted, pq.Array(req.NotifiedDonors),
		req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("insert emergency request: %w", err)
	}
	return nil
}

func (s *PostgresRequestStore) GetByID(ctx context.Context, id string) (*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM emergency_requests WHERE id = $1`
	return scanRequest(s.db.QueryRowContext(ctx, query, id))
}

func (s *PostgresRequestStore) SetNotified(ctx context.Context, id string, donorIDs []string, updatedAt time.Time) error {
	query := `
		UPDATE emergency_requests
		SET notified_donors = $2, updated_at = $3
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query, id, pq.Array(donorIDs), updatedAt)
	if err != nil {
		return fmt.Errorf("update notified donors: %w", err)
	}
	return requireRow(res)
}

// AppendResponse is a single conditional UPDATE: the WHERE clause re-checks
// pending status and absence of a prior response from this donor, the SET
// appends the response and flips the status when accepted decisions reach the
// unit count. Zero rows means a guard failed; a follow-up read classifies
// which one.
func (s *PostgresRequestStore) AppendResponse(ctx context.Context, id string, resp models.Response) (*models.Request, error) {
	payload, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}

	query := `
		UPDATE emergency_requests
		SET accepted_by = accepted_by || $2::jsonb,
		    status = CASE
		        WHEN $3 = 'accepted'
		             AND (SELECT count(*) FROM jsonb_array_elements(accepted_by) e
		                  WHERE e->>'status' = 'accepted') + 1 >= units
		        THEN 'accepted'
		        ELSE status
		    END,
		    updated_at = $4
		WHERE id = $1
		  AND status = 'pending'
		  AND NOT EXISTS (
		      SELECT 1 FROM jsonb_array_elements(accepted_by) e
		      WHERE e->>'donorId' = $5
		  )
		RETURNING ` + requestColumns

	req, err := scanRequest(s.db.QueryRowContext(ctx, query,
		id, payload, string(resp.Decision), resp.RespondedAt, resp.DonorID,
	))
	if err == nil {
		return req, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, err
	}

	// The update matched nothing: read the row to tell which guard failed.
	current, getErr := s.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	if current.Status != models.StatusPending {
		return nil, sentinel.ErrInvalidState
	}
	return nil, sentinel.ErrAlreadyResponded
}

func (s *PostgresRequestStore) ListPendingNotified(ctx context.Context, donorID string) ([]*models.Request, error) {
	query := `
		SELECT ` + requestColumns + ` FROM emergency_requests
		WHERE status = 'pending' AND $1 = ANY(notified_donors)
		ORDER BY created_at DESC
	`
	return s.queryRequests(ctx, query, donorID)
}

func (s *PostgresRequestStore) ListAll(ctx context.Context) ([]*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM emergency_requests ORDER BY created_at DESC`
	return s.queryRequests(ctx, query)
}

func (s *PostgresRequestStore) queryRequests(ctx context.Context, query string, args ...any) ([]*models.Request, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query emergency requests: %w", err)
	}
	defer rows.Close()

	var out []*models.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.Request, error) {
	var (
		r        models.Request
		group    string
		status   string
		accepted []byte
		notified pq.StringArray
	)
	err := row.Scan(
		&r.ID, &r.RequesterID, &r.RequesterName, &r.RequesterMobile, &group,
		&r.Units, &r.Location.Latitude, &r.Location.Longitude, &r.Location.Address,
		&status, &accepted, &notified, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan emergency request: %w", err)
	}
	r.BloodGroup = donormodels.BloodGroup(group)
	r.Status = models.Status(status)
	if err := json.Unmarshal(accepted, &r.AcceptedBy); err != nil {
		return nil, fmt.Errorf("decode responses: %w", err)
	}
	r.NotifiedDonors = notified
	return &r, nil
}
