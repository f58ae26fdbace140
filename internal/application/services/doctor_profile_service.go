package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/zatekoja/doctorconnect/internal/domain/entities"
	"github.com/zatekoja/doctorconnect/internal/domain/providers"
	"github.com/zatekoja/doctorconnect/internal/infrastructure/clients/doctorapi"
	"github.com/zatekoja/doctorconnect/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/doctorconnect/pkg/errors"
)

const defaultProfileTTL = 5 * time.Minute

func doctorCacheKey(id string) string {
	return "doctor:" + id
}

// DoctorProfileService serves single doctor profiles through a read-through
// cache. The directory list itself never goes through the cache.
type DoctorProfileService struct {
	directory providers.DirectoryProvider
	cache     providers.CacheProvider
	ttl       time.Duration
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

// NewDoctorProfileService creates a profile service. cache may be nil.
func NewDoctorProfileService(
	directory providers.DirectoryProvider,
	cache providers.CacheProvider,
	ttl time.Duration,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *DoctorProfileService {
	if ttl <= 0 {
		ttl = defaultProfileTTL
	}
	return &DoctorProfileService{
		directory: directory,
		cache:     cache,
		ttl:       ttl,
		logger:    logger.With().Str("component", "doctor_profile").Logger(),
		metrics:   metrics,
	}
}

// GetProfile returns the doctor's profile, from cache when fresh
func (s *DoctorProfileService) GetProfile(ctx context.Context, id string) (*entities.DoctorProfile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.NewValidationError("doctor id is required")
	}
	key := doctorCacheKey(id)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			var profile entities.DoctorProfile
			if err := json.Unmarshal(cached, &profile); err == nil {
				observability.RecordCacheHit(ctx, s.metrics, key)
				return &profile, nil
			}
			s.logger.Warn().Err(err).Str("doctor_id", id).Msg("discarding unreadable cached profile")
		case errors.Is(err, providers.ErrCacheMiss):
		default:
			s.logger.Warn().Err(err).Str("doctor_id", id).Msg("profile cache unavailable")
		}
		observability.RecordCacheMiss(ctx, s.metrics, key)
	}

	profile, err := s.directory.GetDoctor(ctx, id)
	if err != nil {
		if doctorapi.StatusCode(err) == http.StatusNotFound {
			return nil, apperrors.NewNotFoundError("doctor " + id + " not found")
		}
		return nil, apperrors.NewExternalError("failed to load doctor profile", err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(profile); err == nil {
			if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
				s.logger.Warn().Err(err).Str("doctor_id", id).Msg("failed to cache doctor profile")
			}
		}
	}

	return profile, nil
}

// Invalidate drops the cached profile for id
func (s *DoctorProfileService) Invalidate(ctx context.Context, id string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, doctorCacheKey(id))
}
