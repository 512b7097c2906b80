package eligibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"lifelink/internal/donor/models"
)

var now = time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)

func monthsAgo(n int) *time.Time {
	t := now.AddDate(0, -n, 0)
	return &t
}

func TestEvaluate_AgeBounds(t *testing.T) {
	cases := []struct {
		age  int
		want bool
	}{
		{17, false},
		{18, true},
		{25, true},
		{60, true},
		{61, false},
		{65, false},
	}
	for _, tc := range cases {
		got := Evaluate(tc.age, models.GenderMale, nil, now)
		assert.Equal(t, tc.want, got, "age %d", tc.age)
	}
}

func TestEvaluate_NoPriorDonationIsEligible(t *testing.T) {
	assert.True(t, Evaluate(30, models.GenderFemale, nil, now))
}

func TestEvaluate_GenderIntervals(t *testing.T) {
	cases := []struct {
		name   string
		gender models.Gender
		months int
		want   bool
	}{
		{"male below minimum", models.GenderMale, 2, false},
		{"male at minimum", models.GenderMale, 3, true},
		{"male above minimum", models.GenderMale, 12, true},
		{"female below minimum", models.GenderFemale, 3, false},
		{"female at minimum", models.GenderFemale, 4, true},
		{"other uses default minimum", models.GenderOther, 3, true},
		{"other below default minimum", models.GenderOther, 2, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(25, tc.gender, monthsAgo(tc.months), now)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEvaluate_CalendarMonthDifferenceNotDayCount(t *testing.T) {
	// Jan 31 -> Apr 1 is 3 calendar months even though it is barely 60 days.
	last := time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC)
	april1 := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, Evaluate(25, models.GenderMale, &last, april1))

	// Same-month donation is zero months old.
	march20 := time.Date(2026, time.March, 20, 0, 0, 0, 0, time.UTC)
	march25 := time.Date(2026, time.March, 25, 0, 0, 0, 0, time.UTC)
	assert.False(t, Evaluate(25, models.GenderMale, &march20, march25))
}

func TestEvaluate_YearBoundary(t *testing.T) {
	// Nov 2025 -> Feb 2026 is 3 months across the year boundary.
	last := time.Date(2025, time.November, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, time.February, 2, 0, 0, 0, 0, time.UTC)
	assert.True(t, Evaluate(40, models.GenderMale, &last, feb))
	assert.False(t, Evaluate(40, models.GenderFemale, &last, feb))
}

func TestEvaluateDonor(t *testing.T) {
	d := &models.Donor{Age: 25, Gender: models.GenderFemale, LastDonation: monthsAgo(4)}
	assert.True(t, EvaluateDonor(d, now))

	d.LastDonation = monthsAgo(3)
	assert.False(t, EvaluateDonor(d, now))
}
