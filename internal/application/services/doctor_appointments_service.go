package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/zatekoja/doctorconnect/internal/domain/entities"
	"github.com/zatekoja/doctorconnect/internal/domain/providers"
	"github.com/zatekoja/doctorconnect/internal/infrastructure/clients/doctorapi"
	"github.com/zatekoja/doctorconnect/internal/session"
	apperrors "github.com/zatekoja/doctorconnect/pkg/errors"
)

var doctorsOnly = entities.NewRoleSet(entities.RoleDoctor)

// Inbox is a doctor's incoming appointment requests
type Inbox struct {
	// SessionLoading is set while the session is still being restored; nothing was fetched
	SessionLoading bool
	Appointments   []entities.Appointment
}

// DoctorAppointmentsService lists the signed-in doctor's appointments
type DoctorAppointmentsService struct {
	sessions     session.Reader
	appointments providers.AppointmentProvider
	logger       zerolog.Logger
}

func NewDoctorAppointmentsService(sessions session.Reader, appointments providers.AppointmentProvider, logger zerolog.Logger) *DoctorAppointmentsService {
	return &DoctorAppointmentsService{
		sessions:     sessions,
		appointments: appointments,
		logger:       logger.With().Str("component", "doctor_appointments").Logger(),
	}
}

// List fetches the inbox for the doctor in the session. Only DOCTOR sessions
// may read it.
func (s *DoctorAppointmentsService) List(ctx context.Context) (*Inbox, error) {
	if s.sessions.Loading() {
		return &Inbox{SessionLoading: true}, nil
	}

	user := s.sessions.Current()
	if err := session.Require(user, doctorsOnly); err != nil {
		return nil, err
	}

	items, err := s.appointments.ListDoctorAppointments(ctx, user.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("doctor_id", user.ID).Msg("failed to load appointments")
		return nil, apperrors.NewExternalError(inboxFailureMessage(err), err)
	}
	if items == nil {
		items = []entities.Appointment{}
	}
	return &Inbox{Appointments: items}, nil
}

// Refresh re-fetches the inbox. Failures are never retried on their own.
func (s *DoctorAppointmentsService) Refresh(ctx context.Context) (*Inbox, error) {
	s.logger.Debug().Msg("refreshing appointments")
	return s.List(ctx)
}

// inboxFailureMessage prefers the server's own message, then the transport error
func inboxFailureMessage(err error) string {
	var statusErr *doctorapi.StatusError
	if errors.As(err, &statusErr) {
		if body := strings.TrimSpace(statusErr.Body); body != "" {
			return body
		}
		return "Failed to load appointments"
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Failed to load appointments"
}
