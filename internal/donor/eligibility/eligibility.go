// Package eligibility holds the donation eligibility rules. Evaluate is pure;
// callers apply the result to donor and availability records.
package eligibility

import (
	"time"

	"lifelink/internal/donor/models"
)

const (
	minAge = 18
	// maxAge is stricter than the 65 accepted at registration. A donor can
	// register at 65 and never be eligible; that is the business rule.
	maxAge = 60

	minIntervalMonths       = 3
	minIntervalMonthsFemale = 4
)

// Evaluate reports whether a donor may donate as of now. Month distance is a
// calendar-month difference, not an exact day count: a donation on Jan 31
// counts one month old on Feb 1.
func Evaluate(age int, gender models.Gender, lastDonation *time.Time, now time.Time) bool {
	if age < minAge || age > maxAge {
		return false
	}
	if lastDonation == nil {
		return true
	}

	elapsed := monthsBetween(*lastDonation, now)
	return elapsed >= requiredInterval(gender)
}

// EvaluateDonor applies Evaluate to a donor record.
func EvaluateDonor(d *models.Donor, now time.Time) bool {
	return Evaluate(d.Age, d.Gender, d.LastDonation, now)
}

func requiredInterval(gender models.Gender) int {
	if gender == models.GenderFemale {
		return minIntervalMonthsFemale
	}
	return minIntervalMonths
}

func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}
