package entities

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionUser_UnmarshalLegacyName(t *testing.T) {
	var u SessionUser
	require.NoError(t, json.Unmarshal([]byte(`{"id":"p1","name":"Ana Pop","email":"ana@example.com","role":"PATIENT"}`), &u))
	assert.Equal(t, "Ana Pop", u.Name)
	assert.Equal(t, RolePatient, u.Role)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"d1","fullName":"Dr. Ionescu","role":"DOCTOR","createdAt":"2025-10-01T08:00:00Z"}`), &u))
	assert.Equal(t, "Dr. Ionescu", u.Name)
	assert.Equal(t, 2025, u.CreatedAt.Year())
}

func TestDoctorProfile_NormalizesSpeciality(t *testing.T) {
	var p DoctorProfile
	require.NoError(t, json.Unmarshal([]byte(`{"id":"d1","fullName":"Dr. A","speciality":"Cardiology","bio":"hi","priceMinCents":10000,"priceMaxCents":20000}`), &p))
	assert.Equal(t, "Cardiology", p.Specialty)
	assert.Equal(t, "hi", p.Bio)
	assert.Equal(t, int64(20000), p.PriceMaxCents)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"d2","specialty":"Dermatology","speciality":"ignored"}`), &p))
	assert.Equal(t, "Dermatology", p.Specialty)
}

func TestSortRating_UnratedIsZero(t *testing.T) {
	assert.Equal(t, 0.0, DoctorRecord{RatingAvg: 4.9, RatingCount: 0}.SortRating())
	assert.Equal(t, 4.9, DoctorRecord{RatingAvg: 4.9, RatingCount: 3}.SortRating())
}

func TestFormatPriceRON(t *testing.T) {
	assert.Equal(t, "150 RON", FormatPriceRON(15000))
	assert.Equal(t, "0 RON", FormatPriceRON(0))
}

func TestParseSortMode(t *testing.T) {
	m, err := ParseSortMode("")
	require.NoError(t, err)
	assert.Equal(t, SortRelevance, m)

	m, err = ParseSortMode("priceDesc")
	require.NoError(t, err)
	assert.Equal(t, SortPriceDesc, m)

	_, err = ParseSortMode("distance")
	assert.Error(t, err)
}

func TestFilterCriteria_EqualComparesBoundValues(t *testing.T) {
	a := FilterCriteria{MinPriceRON: PriceBound(100)}
	b := FilterCriteria{MinPriceRON: PriceBound(100)}
	assert.True(t, a.Equal(b))

	b.MinPriceRON = PriceBound(101)
	assert.False(t, a.Equal(b))

	b.MinPriceRON = nil
	assert.False(t, a.Equal(b))
}

func TestAppointment_ScheduledAt(t *testing.T) {
	a := Appointment{Date: "2025-10-30", Time: "14:30"}
	at, err := a.ScheduledAt(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 10, 30, 14, 30, 0, 0, time.UTC), at)

	a.Time = "09:05:30"
	at, err = a.ScheduledAt(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 30, at.Second())

	a.Time = "later"
	_, err = a.ScheduledAt(time.UTC)
	assert.Error(t, err)
}

func TestRoleSet(t *testing.T) {
	set := NewRoleSet(RoleDoctor, RoleAdmin)
	assert.True(t, set.Contains(RoleDoctor))
	assert.False(t, set.Contains(RolePatient))
	assert.True(t, RolePatient.Valid())
	assert.False(t, Role("NURSE").Valid())
}
