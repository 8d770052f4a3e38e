package main

import (
	"net/http"

	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	uploads := http.FileServer(http.Dir(app.uploadsDir))
	mux.Handle("GET /uploads/", cacheForeverHeaders(http.StripPrefix("/uploads", uploads)))

	session := alice.New(app.sessionManager.LoadAndSave, app.noSurf, app.webAuthnHandler.AuthenticateMiddleware)
	privileged := session.Append(app.requirePrivileged)
	// scs buffers responses which breaks streaming, so the event stream gets
	// a read-only session load instead of LoadAndSave.
	stream := alice.New(app.serverSentEventMiddleware, app.webAuthnHandler.AuthenticateMiddleware, app.requirePrivileged)

	mux.HandleFunc("GET /api/healthy", app.healthy)
	mux.Handle("GET /api/csrf", session.ThenFunc(app.csrfToken))

	mux.Handle("POST /api/complaints", session.ThenFunc(app.createComplaint))
	mux.Handle("GET /api/complaints", session.ThenFunc(app.listComplaints))
	mux.Handle("GET /api/complaints/{id}", session.ThenFunc(app.showComplaint))
	mux.Handle("PUT /api/complaints/{id}/status", privileged.ThenFunc(app.updateComplaintStatus))
	mux.Handle("POST /api/complaints/{id}/evidence", session.ThenFunc(app.attachEvidence))
	mux.Handle("GET /api/complaints/{id}/evidence", session.ThenFunc(app.listEvidence))
	mux.Handle("GET /api/complaints/{id}/audit", session.ThenFunc(app.auditTrail))
	mux.Handle("POST /api/complaints/{id}/notes", privileged.ThenFunc(app.addNote))
	mux.Handle("GET /api/complaints/{id}/notes", privileged.ThenFunc(app.listNotes))
	mux.Handle("POST /api/complaints/{id}/analyze", privileged.ThenFunc(app.analyzeComplaint))
	mux.Handle("GET /api/complaints/{id}/suggest-status", privileged.ThenFunc(app.suggestStatus))
	mux.Handle("GET /api/complaints/{id}/draft-note", privileged.ThenFunc(app.draftNote))
	mux.Handle("GET /api/track/{code}", session.ThenFunc(app.trackComplaint))

	mux.Handle("GET /api/feed", stream.ThenFunc(app.changeFeed))

	mux.Handle("POST /api/registration/start", session.ThenFunc(app.beginRegistration))
	mux.Handle("POST /api/registration/finish", session.ThenFunc(app.finishRegistration))
	mux.Handle("POST /api/login/start", session.ThenFunc(app.beginLogin))
	mux.Handle("POST /api/login/finish", session.ThenFunc(app.finishLogin))
	mux.Handle("POST /api/logout", session.ThenFunc(app.logout))

	return app.recoverPanic(app.logRequest(secureHeaders(mux)))
}
