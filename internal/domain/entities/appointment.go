package entities

import (
	"fmt"
	"time"
)

// AppointmentStatus is owned by the server after submission
type AppointmentStatus string

const (
	AppointmentStatusPending AppointmentStatus = "Pending"
)

// AppointmentRequest is the body sent once per booking attempt
type AppointmentRequest struct {
	PatientID string            `json:"patientId" validate:"required"`
	DoctorID  string            `json:"doctorId" validate:"required"`
	Date      string            `json:"date" validate:"required,datetime=2006-01-02"`
	Time      string            `json:"time" validate:"required,len=5,datetime=15:04"`
	Status    AppointmentStatus `json:"status" validate:"required"`
}

// Appointment is a stored appointment as listed for a doctor
type Appointment struct {
	ID        string            `json:"id"`
	PatientID string            `json:"patientId"`
	DoctorID  string            `json:"doctorId"`
	Date      string            `json:"date"`
	Time      string            `json:"time"`
	Status    AppointmentStatus `json:"status"`
}

// ScheduledAt combines Date and Time in loc. Time may carry seconds.
func (a Appointment) ScheduledAt(loc *time.Location) (time.Time, error) {
	clock := a.Time
	if len(clock) == len("15:04") {
		clock += ":00"
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", a.Date+"T"+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid appointment time %q %q: %w", a.Date, a.Time, err)
	}
	return t, nil
}
