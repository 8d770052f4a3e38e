package contexthelpers

import (
	"context"

	"github.com/kishanss4/corrupt-watch/internal/models"
)

func IsAuthenticated(ctx context.Context) bool {
	isAuthenticated, ok := ctx.Value(isAuthenticatedContextKey).(bool)
	if !ok {
		return false
	}

	return isAuthenticated
}

func AuthenticatedUserID(ctx context.Context) []byte {
	userID, ok := ctx.Value(authenticatedUserIDContextKey).([]byte)
	if !ok {
		return nil
	}

	return userID
}

func Role(ctx context.Context) models.Role {
	role, ok := ctx.Value(roleContextKey).(models.Role)
	if !ok {
		return models.RoleCitizen
	}

	return role
}

func CSRFToken(ctx context.Context) string {
	csrfToken, ok := ctx.Value(csrfTokenContextKey).(string)
	if !ok {
		return ""
	}

	return csrfToken
}
