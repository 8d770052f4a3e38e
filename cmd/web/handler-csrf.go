package main

import "net/http"

// csrfToken lets API clients pick up the CSRF token from the response
// header before their first mutating request.
func (app *application) csrfToken(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
