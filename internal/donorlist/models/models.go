// Package models defines the donor availability entry: the derived record
// marking an eligible donor as currently solicitable for emergency requests.
package models

import (
	"time"

	donormodels "lifelink/internal/donor/models"
)

// Entry is a snapshot of an eligible donor. At most one entry exists per
// donor; the eligibility transaction creates and deletes entries, and the
// availability toggle flips IsAvailable.
type Entry struct {
	ID           string                 `json:"_id"`
	DonorID      string                 `json:"donorId"`
	FullName     string                 `json:"fullName"`
	BloodGroup   donormodels.BloodGroup `json:"bloodGroup"`
	Location     donormodels.Location   `json:"location"`
	LastDonation time.Time              `json:"lastDonation"`
	IsAvailable  bool                   `json:"isAvailable"`
	AddedAt      time.Time              `json:"addedAt"`
}
