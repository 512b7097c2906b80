// Package models defines the emergency blood request aggregate. The request
// owns its response log (AcceptedBy) and the fan-out record (NotifiedDonors).
package models

import (
	"time"

	donormodels "lifelink/internal/donor/models"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type Decision string

const (
	DecisionAccepted Decision = "accepted"
	DecisionRejected Decision = "rejected"
)

// Response is one donor's decision on a request. A donor appears at most once
// in a request's AcceptedBy; the store enforces this atomically.
type Response struct {
	DonorID     string    `json:"donorId"`
	Decision    Decision  `json:"status"`
	RespondedAt time.Time `json:"acceptedAt"`
}

// Request is an emergency blood request raised by a registered donor on
// behalf of a patient. Coordinates default to (0,0); matching is textual.
type Request struct {
	ID              string                 `json:"_id"`
	RequesterID     string                 `json:"requesterId"`
	RequesterName   string                 `json:"requesterName"`
	RequesterMobile string                 `json:"requesterMobile"`
	BloodGroup      donormodels.BloodGroup `json:"bloodGroup"`
	Units           int                    `json:"units"`
	Location        donormodels.Location   `json:"location"`
	Status          Status                 `json:"status"`
	AcceptedBy      []Response             `json:"acceptedBy"`
	NotifiedDonors  []string               `json:"notifiedDonors"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

// HasResponded reports whether the donor already has a decision recorded,
// accepted or rejected.
func (r *Request) HasResponded(donorID string) bool {
	for _, resp := range r.AcceptedBy {
		if resp.DonorID == donorID {
			return true
		}
	}
	return false
}

// AcceptedCount counts accepted decisions only; rejections never move a
// request toward fulfillment.
func (r *Request) AcceptedCount() int {
	n := 0
	for _, resp := range r.AcceptedBy {
		if resp.Decision == DecisionAccepted {
			n++
		}
	}
	return n
}

// Requester is the contact block shown to notified donors.
type Requester struct {
	Name     string `json:"name"`
	Mobile   string `json:"mobile"`
	Location string `json:"location"`
}

// DonorView is the projection of a pending request served to a notified
// donor's inbox.
type DonorView struct {
	ID         string                 `json:"_id"`
	BloodGroup donormodels.BloodGroup `json:"bloodGroup"`
	Units      int                    `json:"units"`
	Location   donormodels.Location   `json:"location"`
	Status     Status                 `json:"status"`
	CreatedAt  time.Time              `json:"createdAt"`
	Requester  Requester              `json:"requester"`
}
