package providers

import (
	"context"

	"github.com/zatekoja/doctorconnect/internal/domain/entities"
)

// AppointmentProvider submits appointment requests and lists a doctor's appointments
type AppointmentProvider interface {
	// CreateAppointment sends one appointment request
	CreateAppointment(ctx context.Context, req entities.AppointmentRequest) error

	// ListDoctorAppointments returns the appointments addressed to a doctor
	ListDoctorAppointments(ctx context.Context, doctorID string) ([]entities.Appointment, error)
}
