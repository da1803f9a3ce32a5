package auth

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smart-enid/booking-api/internal/model"
	"github.com/smart-enid/booking-api/internal/repository/memory"
	"github.com/smart-enid/booking-api/internal/service/audit"
	"github.com/smart-enid/booking-api/pkg/auth"
	apperrors "github.com/smart-enid/booking-api/pkg/errors"
	"github.com/smart-enid/booking-api/pkg/logger"
)

func newAuthFixture(t *testing.T) (*Service, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	jwt := auth.NewJWTService("test-secret", time.Hour)
	svc := NewService(store.Users(), jwt, audit.NewService(store.Audits()), log)
	return svc, store
}

func registerReq() *model.RegisterRequest {
	return &model.RegisterRequest{
		NationalID: "1199880012345678",
		Email:      "jean@example.com",
		Phone:      "+250780000001",
		FirstName:  "Jean",
		LastName:   "Uwimana",
		Password:   "correct horse battery",
	}
}

func TestRegisterCreatesCitizen(t *testing.T) {
	svc, store := newAuthFixture(t)

	user, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	assert.Equal(t, model.RoleCitizen, user.Role)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "correct horse battery", user.PasswordHash)
	assert.Equal(t, 1, store.AuditCount())
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerReq())
	require.NoError(t, err)

	dup := registerReq()
	dup.NationalID = "1199880099999999"
	_, err = svc.Register(ctx, dup)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))
}

func TestLoginIssuesValidToken(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, registerReq())
	require.NoError(t, err)

	token, err := svc.Login(ctx, &model.LoginRequest{
		Email:    "jean@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	assert.Equal(t, "bearer", token.TokenType)
	assert.Equal(t, int(time.Hour.Seconds()), token.ExpiresIn)
	assert.Equal(t, user.ID, token.User.ID)

	jwt := auth.NewJWTService("test-secret", time.Hour)
	claims, err := jwt.ValidateToken(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, string(model.RoleCitizen), claims.Role)
}

func TestLoginSameErrorForUnknownEmailAndWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerReq())
	require.NoError(t, err)

	_, errUnknown := svc.Login(ctx, &model.LoginRequest{
		Email: "nobody@example.com", Password: "whatever",
	})
	_, errWrong := svc.Login(ctx, &model.LoginRequest{
		Email: "jean@example.com", Password: "wrong password",
	})

	assert.True(t, apperrors.IsCode(errUnknown, apperrors.ErrUnauthorized))
	assert.True(t, apperrors.IsCode(errWrong, apperrors.ErrUnauthorized))
}

func TestLoginRejectsDisabledAccount(t *testing.T) {
	svc, store := newAuthFixture(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, registerReq())
	require.NoError(t, err)

	user.IsActive = false
	store.SeedUser(user)

	_, err = svc.Login(ctx, &model.LoginRequest{
		Email: "jean@example.com", Password: "correct horse battery",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrUnauthorized))
}
