// Package models defines the donor aggregate and its enums. Enum values match
// the persisted wire format exactly; validate membership at the boundary.
package models

import "time"

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

type BloodGroup string

const (
	BloodAPos  BloodGroup = "A+"
	BloodANeg  BloodGroup = "A-"
	BloodBPos  BloodGroup = "B+"
	BloodBNeg  BloodGroup = "B-"
	BloodABPos BloodGroup = "AB+"
	BloodABNeg BloodGroup = "AB-"
	BloodOPos  BloodGroup = "O+"
	BloodONeg  BloodGroup = "O-"
)

func (b BloodGroup) Valid() bool {
	switch b {
	case BloodAPos, BloodANeg, BloodBPos, BloodBNeg,
		BloodABPos, BloodABNeg, BloodOPos, BloodONeg:
		return true
	}
	return false
}

// Location is a donor's registered position. Address is free text and is what
// emergency matching actually compares; the coordinates are kept for profile
// completeness.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// HasCoordinates reports whether both coordinates are set. Zero values count
// as missing, matching how profiles have always been validated.
func (l Location) HasCoordinates() bool {
	return l.Latitude != 0 && l.Longitude != 0
}

type DonationStatus string

const (
	DonationPending   DonationStatus = "pending"
	DonationCompleted DonationStatus = "completed"
	DonationCancelled DonationStatus = "cancelled"
)

// DonationRecord is one entry in a donor's history.
type DonationRecord struct {
	Date     time.Time      `json:"date"`
	Location string         `json:"location"`
	Status   DonationStatus `json:"status"`
}

// Donor is the registered donor profile. IsEligible and IsInDonorList mirror
// one computed value; both are persisted for wire compatibility but written
// from a single place (the donor service).
type Donor struct {
	ID              string           `json:"_id"`
	FullName        string           `json:"fullName"`
	Age             int              `json:"age"`
	Gender          Gender           `json:"gender"`
	BloodGroup      BloodGroup       `json:"bloodGroup"`
	MobileNumber    string           `json:"mobileNumber"`
	Email           string           `json:"email"`
	PasswordHash    string           `json:"-"`
	Location        Location         `json:"location"`
	IsEligible      bool             `json:"isEligible"`
	LastDonation    *time.Time       `json:"lastDonation,omitempty"`
	IsInDonorList   bool             `json:"isInDonorList"`
	DonationHistory []DonationRecord `json:"donationHistory"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}
