package auth

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/smart-enid/booking-api/pkg/auth"
	apperrors "github.com/smart-enid/booking-api/pkg/errors"
)

func claimsUserID(claims *auth.Claims) (uuid.UUID, error) {
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, apperrors.Unauthorized(fmt.Errorf("invalid token subject: %w", err))
	}
	return id, nil
}
