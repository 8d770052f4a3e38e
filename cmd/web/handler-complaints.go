package main

import (
	"net/http"
	"strconv"

	"github.com/kishanss4/corrupt-watch/internal/complaints"
	"github.com/kishanss4/corrupt-watch/internal/errors"
	"github.com/kishanss4/corrupt-watch/internal/models"
)

const maxUploadBytes = 32 << 20

// createComplaint accepts a multipart form with the complaint fields and any
// number of evidence files under the "evidence" field, in submission order.
func (app *application) createComplaint(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		app.clientError(w, r, http.StatusBadRequest)
		return
	}

	submission := models.ComplaintSubmission{
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
		Category:    models.ComplaintCategory(r.PostFormValue("category")),
		Location:    r.PostFormValue("location"),
		IsAnonymous: r.PostFormValue("isAnonymous") == "true",
	}
	var ok bool
	if submission.Latitude, ok = parseCoordinate(r.PostFormValue("latitude")); !ok {
		app.clientError(w, r, http.StatusBadRequest)
		return
	}
	if submission.Longitude, ok = parseCoordinate(r.PostFormValue("longitude")); !ok {
		app.clientError(w, r, http.StatusBadRequest)
		return
	}

	var uploads []complaints.Upload
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["evidence"] {
			file, err := header.Open()
			if err != nil {
				app.serverError(w, r, errors.Wrap(err, "open multipart file"))
				return
			}
			defer file.Close()
			uploads = append(uploads, complaints.Upload{FileName: header.Filename, Contents: file})
		}
	}

	complaint, err := app.service.Submit(r.Context(), app.identity(r), submission, uploads)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, complaint)
}

func parseCoordinate(value string) (*float64, bool) {
	if value == "" {
		return nil, true
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, false
	}
	return &parsed, true
}

func (app *application) listComplaints(w http.ResponseWriter, r *http.Request) {
	list, err := app.service.List(r.Context(), app.identity(r))
	if err != nil {
		if errors.Is(err, complaints.ErrNotAuthorized) {
			app.clientError(w, r, http.StatusUnauthorized)
			return
		}
		app.serviceError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, list)
}

func (app *application) showComplaint(w http.ResponseWriter, r *http.Request) {
	complaint, err := app.service.Get(r.Context(), app.identity(r), r.PathValue("id"))
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, complaint)
}

// trackComplaint is the unauthenticated self-service lookup by tracking
// code.
func (app *application) trackComplaint(w http.ResponseWriter, r *http.Request) {
	complaint, err := app.service.Track(r.Context(), r.PathValue("code"))
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, complaint)
}

func (app *application) updateComplaintStatus(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Status models.ComplaintStatus `json:"status"`
	}
	if err := app.decodeJSON(w, r, &input); err != nil {
		app.clientError(w, r, http.StatusBadRequest)
		return
	}
	complaint, err := app.service.UpdateStatus(r.Context(), app.identity(r), r.PathValue("id"), input.Status)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, complaint)
}

// attachEvidence adds one file to an existing complaint. Anonymous
// complainants prove their claim with the tracking code in the form.
func (app *application) attachEvidence(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		app.clientError(w, r, http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("evidence")
	if err != nil {
		app.clientError(w, r, http.StatusBadRequest)
		return
	}
	defer file.Close()

	complaint, err := app.service.AttachEvidence(
		r.Context(),
		app.identity(r),
		r.PathValue("id"),
		r.PostFormValue("trackingCode"),
		complaints.Upload{FileName: header.Filename, Contents: file},
	)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, complaint)
}

func (app *application) listEvidence(w http.ResponseWriter, r *http.Request) {
	files, err := app.service.Evidence(r.Context(), app.identity(r), r.PathValue("id"))
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, files)
}

func (app *application) auditTrail(w http.ResponseWriter, r *http.Request) {
	entries, err := app.service.AuditTrail(r.Context(), r.PathValue("id"))
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, entries)
}

func (app *application) addNote(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Body string `json:"body"`
	}
	if err := app.decodeJSON(w, r, &input); err != nil {
		app.clientError(w, r, http.StatusBadRequest)
		return
	}
	note, err := app.service.AddNote(r.Context(), app.identity(r), r.PathValue("id"), input.Body)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, note)
}

func (app *application) listNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := app.service.Notes(r.Context(), app.identity(r), r.PathValue("id"))
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, notes)
}

func (app *application) analyzeComplaint(w http.ResponseWriter, r *http.Request) {
	analysis, err := app.service.Analyze(r.Context(), app.identity(r), r.PathValue("id"))
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, analysis)
}

func (app *application) suggestStatus(w http.ResponseWriter, r *http.Request) {
	status, err := app.service.SuggestStatus(r.Context(), app.identity(r), r.PathValue("id"))
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, envelope{"status": status})
}

func (app *application) draftNote(w http.ResponseWriter, r *http.Request) {
	draft, err := app.service.DraftNote(r.Context(), app.identity(r), r.PathValue("id"))
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, envelope{"draft": draft})
}
