package contexthelpers

type contextKey string

const isAuthenticatedContextKey = contextKey("isAuthenticated")
const authenticatedUserIDContextKey = contextKey("authenticatedUserID")
const roleContextKey = contextKey("role")
const csrfTokenContextKey = contextKey("csrfToken")
