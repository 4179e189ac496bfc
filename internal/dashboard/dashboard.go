// Package dashboard serves the comparison page and a JSON API over the
// shared location store.
package dashboard

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/agent-platform/tools/tzcompare/internal/clock"
	"github.com/agent-platform/tools/tzcompare/internal/display"
	"github.com/agent-platform/tools/tzcompare/internal/locations"
	"github.com/agent-platform/tools/tzcompare/internal/settings"
	"github.com/agent-platform/tools/tzcompare/internal/tz"
)

//go:embed static
var staticFiles embed.FS

const maxBodyBytes = 64 << 10

// Dashboard serves the web page and API endpoints.
type Dashboard struct {
	store  *locations.Store
	driver *clock.Driver
}

// New creates a Dashboard over st. drv supplies the displayed instant and
// takes manual clock changes.
func New(st *locations.Store, drv *clock.Driver) *Dashboard {
	return &Dashboard{store: st, driver: drv}
}

// Register adds dashboard routes to the given mux.
func (d *Dashboard) Register(mux *http.ServeMux) {
	staticFS, _ := fs.Sub(staticFiles, "static")
	mux.Handle("GET /", http.FileServer(http.FS(staticFS)))

	mux.HandleFunc("GET /api/locations", d.handleListLocations)
	mux.HandleFunc("POST /api/locations", d.handleAddLocation)
	mux.HandleFunc("PATCH /api/locations/{id}", d.handleUpdateLocation)
	mux.HandleFunc("DELETE /api/locations/{id}", d.handleRemoveLocation)
	mux.HandleFunc("POST /api/locations/{id}/notes", d.handleAddNote)
	mux.HandleFunc("DELETE /api/locations/{id}/notes/{index}", d.handleRemoveNote)

	mux.HandleFunc("GET /api/settings", d.handleGetSettings)
	mux.HandleFunc("PATCH /api/settings", d.handleUpdateSettings)

	mux.HandleFunc("POST /api/reset", d.handleReset)

	mux.HandleFunc("GET /api/clock", d.handleGetClock)
	mux.HandleFunc("PUT /api/clock", d.handleSetClock)
	mux.HandleFunc("DELETE /api/clock", d.handleResetClock)
}

type view struct {
	At       string            `json:"at"`
	Manual   bool              `json:"manual"`
	Settings settings.Settings `json:"settings"`
	Rows     []display.Row     `json:"rows"`
}

func (d *Dashboard) handleListLocations(w http.ResponseWriter, r *http.Request) {
	f := display.FrameOf(d.store, d.driver.Now(), d.driver.Manual())
	writeJSON(w, http.StatusOK, view{
		At:       f.At.UTC().Format(time.RFC3339),
		Manual:   f.Manual,
		Settings: f.Settings,
		Rows:     f.Rows,
	})
}

type addRequest struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

func (d *Dashboard) handleAddLocation(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		req.Name = tz.DisplayName(req.Label)
	}
	loc, err := d.store.Add(req.Name, req.Label)
	if err != nil {
		writeError(w, err)
		return
	}
	if !d.store.Resolver().IsValid(loc.Label) {
		log.Printf("WARN: location %q has unknown time zone %q", loc.Name, loc.Label)
	}
	writeJSON(w, http.StatusCreated, loc)
}

func (d *Dashboard) handleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	var patch locations.Patch
	if !decode(w, r, &patch) {
		return
	}
	loc, err := d.store.Update(r.PathValue("id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (d *Dashboard) handleRemoveLocation(w http.ResponseWriter, r *http.Request) {
	if err := d.store.Remove(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type noteRequest struct {
	Text string `json:"text"`
}

func (d *Dashboard) handleAddNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if !decode(w, r, &req) {
		return
	}
	loc, err := d.store.AddSecondaryLabel(r.PathValue("id"), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, loc)
}

func (d *Dashboard) handleRemoveNote(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeErrorStatus(w, http.StatusBadRequest, fmt.Errorf("bad note index %q", r.PathValue("index")))
		return
	}
	loc, err := d.store.RemoveSecondaryLabel(r.PathValue("id"), index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (d *Dashboard) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, d.store.Settings())
}

func (d *Dashboard) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch settings.Patch
	if !decode(w, r, &patch) {
		return
	}
	s, err := d.store.UpdateSettings(patch)
	if err != nil {
		writeError(w, err)
		return
	}
	d.driver.SetShowSeconds(s.ShowSeconds)
	writeJSON(w, http.StatusOK, s)
}

func (d *Dashboard) handleReset(w http.ResponseWriter, r *http.Request) {
	home := d.store.ResetToCurrentTimezone()
	writeJSON(w, http.StatusOK, home)
}

type clockState struct {
	At         string `json:"at"`
	Manual     bool   `json:"manual"`
	IntervalMS int64  `json:"intervalMs"`
}

func (d *Dashboard) clockState() clockState {
	return clockState{
		At:         d.driver.Now().UTC().Format(time.RFC3339),
		Manual:     d.driver.Manual(),
		IntervalMS: clock.Interval(d.store.Settings().ShowSeconds).Milliseconds(),
	}
}

func (d *Dashboard) handleGetClock(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, d.clockState())
}

type setClockRequest struct {
	Hour *int `json:"hour"`
	// ID selects the location whose wall clock Hour is read in; the home
	// entry when empty.
	ID string `json:"id,omitempty"`
}

func (d *Dashboard) handleSetClock(w http.ResponseWriter, r *http.Request) {
	var req setClockRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Hour == nil {
		writeErrorStatus(w, http.StatusBadRequest, errors.New("hour is required"))
		return
	}

	var (
		loc locations.Location
		err error
	)
	if req.ID != "" {
		loc, err = d.store.Get(req.ID)
	} else {
		var ok bool
		if loc, ok = d.store.Home(); !ok {
			err = locations.ErrNotFound
		}
	}
	if err != nil {
		writeError(w, err)
		return
	}

	zone := d.store.Resolver().LocationOrLocal(loc.Label)
	if err := d.driver.SetHour(*req.Hour, zone); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d.clockState())
}

func (d *Dashboard) handleResetClock(w http.ResponseWriter, r *http.Request) {
	d.driver.Reset()
	writeJSON(w, http.StatusOK, d.clockState())
}

// decode reads a JSON body into v, answering 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErrorStatus(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeErrorStatus(w, statusFor(err), err)
}

func writeErrorStatus(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, locations.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, locations.ErrDuplicateLabel),
		errors.Is(err, locations.ErrHomeNotRemovable):
		return http.StatusConflict
	case errors.Is(err, locations.ErrInvalidInput),
		errors.Is(err, settings.ErrInvalidTheme),
		errors.Is(err, clock.ErrInvalidHour):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
