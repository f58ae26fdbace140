package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zatekoja/doctorconnect/internal/domain/entities"
	apperrors "github.com/zatekoja/doctorconnect/pkg/errors"
)

func TestAllow(t *testing.T) {
	doctorsOnly := entities.NewRoleSet(entities.RoleDoctor)

	tests := []struct {
		name string
		user *entities.SessionUser
		want bool
	}{
		{name: "absent user", user: nil, want: false},
		{name: "patient", user: &entities.SessionUser{ID: "p1", Role: entities.RolePatient}, want: false},
		{name: "admin", user: &entities.SessionUser{ID: "a1", Role: entities.RoleAdmin}, want: false},
		{name: "doctor", user: &entities.SessionUser{ID: "d1", Role: entities.RoleDoctor}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Allow(tt.user, doctorsOnly))
		})
	}
}

func TestAllow_EmptySetDeniesEveryone(t *testing.T) {
	assert.False(t, Allow(&entities.SessionUser{ID: "d1", Role: entities.RoleDoctor}, entities.NewRoleSet()))
}

func TestRequire(t *testing.T) {
	err := Require(&entities.SessionUser{ID: "p1", Role: entities.RolePatient}, entities.NewRoleSet(entities.RoleDoctor))
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeForbidden))

	assert.NoError(t, Require(&entities.SessionUser{ID: "d1", Role: entities.RoleDoctor}, entities.NewRoleSet(entities.RoleDoctor)))
}

func TestLandingPath(t *testing.T) {
	assert.Equal(t, "/doctors", LandingPath(entities.RoleDoctor))
	assert.Equal(t, "/", LandingPath(entities.RolePatient))
}
