// Package booking drives one appointment request at a time from a selected
// doctor to a submitted request, gated on the signed-in patient.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/zatekoja/doctorconnect/internal/domain/entities"
	"github.com/zatekoja/doctorconnect/internal/domain/providers"
	"github.com/zatekoja/doctorconnect/internal/infrastructure/clients/doctorapi"
	"github.com/zatekoja/doctorconnect/internal/infrastructure/observability"
	"github.com/zatekoja/doctorconnect/internal/session"
	apperrors "github.com/zatekoja/doctorconnect/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// Status is the position of an attempt in the booking state machine
type Status string

const (
	StatusIdle          Status = "Idle"
	StatusAwaitingInput Status = "AwaitingInput"
	StatusSubmitting    Status = "Submitting"
	StatusSucceeded     Status = "Succeeded"
	StatusFailed        Status = "Failed"
)

// Terminal reports whether no further transition is possible
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

var patientsOnly = entities.NewRoleSet(entities.RolePatient)

// When is the single date/time value an attempt waits for
type When struct {
	Date string
	Time string
}

func (w When) withheld() bool {
	return strings.TrimSpace(w.Date) == "" || strings.TrimSpace(w.Time) == ""
}

// State is a point-in-time copy of an attempt
type State struct {
	AttemptID string
	DoctorID  string
	Status    Status
	// Reason is set when Status is Failed
	Reason string
	// Redirect is the login entry point when the attempt was refused for lack of a session
	Redirect string
	Err      error
	// Request is what was (or is being) submitted
	Request *entities.AppointmentRequest
}

// NeedsLogin reports whether the attempt was refused because nobody is signed in
func (s State) NeedsLogin() bool {
	return s.Redirect != ""
}

// Options configures a Workflow
type Options struct {
	// LoginPath is where callers send a user who tried to book while logged out
	LoginPath string
	Logger    zerolog.Logger
	Metrics   *observability.Metrics
	// OnChange receives every state an attempt moves through
	OnChange func(State)
}

type pairKey struct {
	patientID string
	doctorID  string
}

// Workflow starts booking attempts and enforces at most one submission in
// flight per patient/doctor pair.
type Workflow struct {
	sessions     session.Reader
	appointments providers.AppointmentProvider
	validate     *validator.Validate
	loginPath    string
	logger       zerolog.Logger
	metrics      *observability.Metrics
	onChange     func(State)

	mu       sync.Mutex
	inflight map[pairKey]*Attempt
	closed   bool
}

// NewWorkflow creates a booking workflow reading the session from sessions
func NewWorkflow(sessions session.Reader, appointments providers.AppointmentProvider, opts Options) *Workflow {
	loginPath := opts.LoginPath
	if loginPath == "" {
		loginPath = "/"
	}
	return &Workflow{
		sessions:     sessions,
		appointments: appointments,
		validate:     validator.New(),
		loginPath:    loginPath,
		logger:       opts.Logger.With().Str("component", "booking").Logger(),
		metrics:      opts.Metrics,
		onChange:     opts.OnChange,
		inflight:     make(map[pairKey]*Attempt),
	}
}

// Attempt is one pass through the state machine. Succeeded and Failed are
// terminal; a new booking always goes through Start again.
type Attempt struct {
	w         *Workflow
	id        string
	doctorID  string
	patientID string

	// guarded by w.mu
	status   Status
	reason   string
	redirect string
	err      error
	request  *entities.AppointmentRequest
	cancel   context.CancelFunc
	closed   bool
}

// Start begins an attempt for doctorID. Without a session the attempt stays
// Idle and carries the login redirect; a non-patient session stays Idle with
// a Forbidden error. While a submission for the same patient and doctor is in
// flight, Start returns that attempt unchanged.
func (w *Workflow) Start(doctorID string) *Attempt {
	a := &Attempt{w: w, id: uuid.New().String(), doctorID: strings.TrimSpace(doctorID), status: StatusIdle}

	user := w.sessions.Current()
	if user == nil {
		a.redirect = w.loginPath
		w.logger.Debug().Str("doctor_id", a.doctorID).Msg("booking requires a session, redirecting to login")
		w.publish(a.State())
		return a
	}
	a.patientID = user.ID

	if err := session.Require(user, patientsOnly); err != nil {
		a.err = err
		w.logger.Debug().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("booking refused for non-patient")
		w.publish(a.State())
		return a
	}
	if a.doctorID == "" {
		a.err = apperrors.NewValidationError("doctor id is required")
		w.publish(a.State())
		return a
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return a
	}
	if existing, ok := w.inflight[pairKey{a.patientID, a.doctorID}]; ok {
		w.mu.Unlock()
		w.logger.Debug().Str("attempt_id", existing.id).Msg("booking already submitting, click ignored")
		return existing
	}
	a.status = StatusAwaitingInput
	st := a.stateLocked()
	w.mu.Unlock()

	w.publish(st)
	return a
}

// Close discards every in-flight submission and refuses new attempts.
// Attempts still waiting for input ignore anything captured afterwards.
func (w *Workflow) Close() {
	w.mu.Lock()
	w.closed = true
	attempts := make([]*Attempt, 0, len(w.inflight))
	for _, a := range w.inflight {
		attempts = append(attempts, a)
	}
	w.mu.Unlock()

	for _, a := range attempts {
		a.Close()
	}
}

func (a *Attempt) ID() string {
	return a.id
}

// State returns a copy of the attempt's current state
func (a *Attempt) State() State {
	a.w.mu.Lock()
	defer a.w.mu.Unlock()
	return a.stateLocked()
}

// Withhold abandons an attempt that is waiting for its date and time
func (a *Attempt) Withhold() State {
	a.w.mu.Lock()
	if a.status != StatusAwaitingInput || a.closed || a.w.closed {
		st := a.stateLocked()
		a.w.mu.Unlock()
		return st
	}
	a.status = StatusIdle
	st := a.stateLocked()
	a.w.mu.Unlock()

	a.w.logger.Debug().Str("attempt_id", a.id).Msg("booking abandoned before submission")
	a.w.publish(st)
	return st
}

// Capture takes the date and time and submits exactly one appointment
// request. A withheld value returns the attempt to Idle; a malformed one
// fails it without a network call. Capture blocks until the submission
// settles. After the attempt or its workflow is closed Capture does nothing.
// If ctx is cancelled or the attempt is closed meanwhile, the
// outcome is dropped and the returned state is the one before settling.
func (a *Attempt) Capture(ctx context.Context, when When) State {
	if when.withheld() {
		return a.Withhold()
	}

	w := a.w
	req := entities.AppointmentRequest{
		PatientID: a.patientID,
		DoctorID:  a.doctorID,
		Date:      strings.TrimSpace(when.Date),
		Time:      strings.TrimSpace(when.Time),
		Status:    entities.AppointmentStatusPending,
	}

	w.mu.Lock()
	if a.status != StatusAwaitingInput || a.closed || w.closed {
		st := a.stateLocked()
		w.mu.Unlock()
		return st
	}
	if err := w.validate.Struct(req); err != nil {
		a.fail(apperrors.NewValidationError(validationMessage(err)))
		st := a.stateLocked()
		w.mu.Unlock()
		w.publish(st)
		return st
	}
	key := pairKey{a.patientID, a.doctorID}
	if other, ok := w.inflight[key]; ok && other != a {
		a.status = StatusIdle
		st := a.stateLocked()
		w.mu.Unlock()
		w.logger.Debug().Str("attempt_id", a.id).Str("inflight_id", other.id).Msg("pair already submitting, attempt dropped")
		w.publish(st)
		return st
	}

	subCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.request = &req
	a.status = StatusSubmitting
	w.inflight[key] = a
	submitting := a.stateLocked()
	w.mu.Unlock()
	w.publish(submitting)

	defer cancel()

	subCtx, span := observability.StartSpan(subCtx, "booking.submit",
		attribute.String("booking.attempt_id", a.id),
		attribute.String("booking.doctor_id", a.doctorID),
	)
	defer span.End()

	err := w.appointments.CreateAppointment(subCtx, req)

	w.mu.Lock()
	if w.inflight[key] == a {
		delete(w.inflight, key)
	}
	a.cancel = nil
	if a.closed || subCtx.Err() != nil {
		w.mu.Unlock()
		w.logger.Debug().Str("attempt_id", a.id).Msg("booking submission cancelled, result discarded")
		return submitting
	}

	if err != nil {
		observability.RecordError(span, err)
		a.fail(apperrors.NewBookingSubmissionFailedError(failureReason(err), err))
	} else {
		a.status = StatusSucceeded
	}
	st := a.stateLocked()
	w.mu.Unlock()

	logger := observability.LoggerFromContext(subCtx, w.logger).With().Str("attempt_id", a.id).Str("doctor_id", a.doctorID).Logger()
	if err != nil {
		logger.Warn().Err(st.Err).Msg("appointment request failed")
		w.record(ctx, "failed")
	} else {
		logger.Info().Msg("appointment requested")
		w.record(ctx, "succeeded")
	}
	w.publish(st)
	return st
}

// Retry starts a fresh attempt for the same doctor. Only a Failed attempt can
// be retried; any other attempt is returned as is.
func (a *Attempt) Retry() *Attempt {
	a.w.mu.Lock()
	failed := a.status == StatusFailed
	a.w.mu.Unlock()
	if !failed {
		return a
	}
	return a.w.Start(a.doctorID)
}

// Close tears the attempt down. An in-flight submission is cancelled and its
// result discarded.
func (a *Attempt) Close() {
	a.w.mu.Lock()
	defer a.w.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	if a.cancel != nil {
		a.cancel()
	}
	key := pairKey{a.patientID, a.doctorID}
	if a.w.inflight[key] == a {
		delete(a.w.inflight, key)
	}
}

func (a *Attempt) fail(err *apperrors.AppError) {
	a.status = StatusFailed
	a.reason = err.Message
	a.err = err
}

func (a *Attempt) stateLocked() State {
	st := State{
		AttemptID: a.id,
		DoctorID:  a.doctorID,
		Status:    a.status,
		Reason:    a.reason,
		Redirect:  a.redirect,
		Err:       a.err,
	}
	if a.request != nil {
		req := *a.request
		st.Request = &req
	}
	return st
}

func (w *Workflow) publish(st State) {
	if w.onChange != nil {
		w.onChange(st)
	}
}

func (w *Workflow) record(ctx context.Context, outcome string) {
	if w.metrics == nil {
		return
	}
	observability.RecordOutcome(ctx, w.metrics.BookingSubmitCount, outcome)
}

func failureReason(err error) string {
	if code := doctorapi.StatusCode(err); code != 0 {
		return fmt.Sprintf("Request failed (%d)", code)
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Unknown error"
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Field() {
	case "Date":
		return fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", fe.Value())
	case "Time":
		return fmt.Sprintf("invalid time %q, expected HH:MM", fe.Value())
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}
