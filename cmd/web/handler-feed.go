package main

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// changeFeed streams complaint changes as Server-Sent Events. Each event's
// data is a JSON {type, complaint} object. Subscribers that fall behind miss
// events and are expected to re-fetch the complaint list.
func (app *application) changeFeed(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		app.serverError(w, r, fmt.Errorf("streaming unsupported"))
		return
	}

	events := app.service.Subscribe()
	defer app.service.Unsubscribe(events)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-events:
			if !open {
				return
			}
			out, err := json.Marshal(event)
			if err != nil {
				app.serverError(w, r, err)
				return
			}
			if _, err = fmt.Fprintf(w, "event: change\ndata: %s\n\n", out); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
