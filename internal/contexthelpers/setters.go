package contexthelpers

import (
	"context"
	"net/http"

	"github.com/kishanss4/corrupt-watch/internal/models"
)

func AuthenticateContext(r *http.Request, userID []byte, role models.Role) *http.Request {
	ctx := r.Context()
	ctx = context.WithValue(ctx, isAuthenticatedContextKey, true)
	ctx = context.WithValue(ctx, authenticatedUserIDContextKey, userID)
	ctx = context.WithValue(ctx, roleContextKey, role)
	return r.WithContext(ctx)
}

func SetCSRFToken(r *http.Request, csrfToken string) *http.Request {
	ctx := context.WithValue(r.Context(), csrfTokenContextKey, csrfToken)
	return r.WithContext(ctx)
}
