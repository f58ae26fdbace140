package providers

import (
	"context"

	"github.com/zatekoja/doctorconnect/internal/domain/entities"
)

// DirectoryProvider serves the doctor directory
type DirectoryProvider interface {
	// ListDoctors returns the full, unpaginated doctor list
	ListDoctors(ctx context.Context) ([]entities.DoctorRecord, error)

	// GetDoctor returns one doctor's profile
	GetDoctor(ctx context.Context, id string) (*entities.DoctorProfile, error)
}
