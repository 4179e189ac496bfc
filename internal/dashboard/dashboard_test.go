package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/agent-platform/tools/tzcompare/internal/clock"
	"github.com/agent-platform/tools/tzcompare/internal/locations"
	"github.com/agent-platform/tools/tzcompare/internal/store"
)

var noon = time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)

type testServer struct {
	mux    *http.ServeMux
	store  *locations.Store
	driver *clock.Driver
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	st, err := locations.Open(context.Background(), store.NewMemory(),
		locations.WithHomeZone("UTC"),
		locations.WithNow(func() time.Time { return noon }),
	)
	if err != nil {
		t.Fatalf("locations.Open() error: %v", err)
	}
	drv := clock.NewDriver(st.SetCurrentTime, clock.WithSource(func() time.Time { return noon }))
	drv.Tick()

	mux := http.NewServeMux()
	New(st, drv).Register(mux)
	return &testServer{mux: mux, store: st, driver: drv}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to parse response %q: %v", w.Body.String(), err)
	}
	return v
}

func TestDashboardStaticFiles(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET / status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "Time Zones") {
		t.Error("index page missing title")
	}
}

func TestDashboardListLocations(t *testing.T) {
	s := newTestServer(t)
	if _, err := s.store.Add("Tokyo", "Asia/Tokyo"); err != nil {
		t.Fatal(err)
	}

	w := s.do(t, http.MethodGet, "/api/locations", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	v := decodeBody[view](t, w)
	if v.At != "2024-01-15T12:00:00Z" || v.Manual {
		t.Errorf("at = %q manual = %v, want live noon", v.At, v.Manual)
	}
	if len(v.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(v.Rows))
	}
	if !v.Rows[0].IsHome || v.Rows[1].Time != "21:00" || v.Rows[1].Relative != "+9h" {
		t.Errorf("unexpected rows: %+v", v.Rows)
	}
}

func TestDashboardAddLocation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"created", `{"name":"Tokyo","label":"Asia/Tokyo"}`, http.StatusCreated},
		{"duplicate", `{"name":"Tokyo again","label":"Asia/Tokyo"}`, http.StatusConflict},
		{"empty label", `{"name":"Nowhere","label":"  "}`, http.StatusBadRequest},
		{"bad json", `{"name":`, http.StatusBadRequest},
	}
	s := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/locations", tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
			if w.Code >= 400 {
				if e := decodeBody[map[string]string](t, w); e["error"] == "" {
					t.Error("error response missing error field")
				}
			}
		})
	}
	if n := len(s.store.Locations()); n != 2 {
		t.Errorf("locations = %d, want 2", n)
	}
}

func TestDashboardAddLocationDefaultsName(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/locations", `{"label":"America/New_York"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	loc := decodeBody[locations.Location](t, w)
	if loc.Name != "New York" {
		t.Errorf("name = %q, want %q", loc.Name, "New York")
	}
	if loc.Offset != -5 {
		t.Errorf("offset = %v, want -5", loc.Offset)
	}
}

func TestDashboardUpdateLocation(t *testing.T) {
	s := newTestServer(t)
	tokyo, _ := s.store.Add("Tokyo", "Asia/Tokyo")
	if _, err := s.store.Add("Paris", "Europe/Paris"); err != nil {
		t.Fatal(err)
	}

	w := s.do(t, http.MethodPatch, "/api/locations/"+tokyo.ID, `{"name":"Tokyo HQ","secondaryLabels":["Standup"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	loc := decodeBody[locations.Location](t, w)
	if loc.Name != "Tokyo HQ" || len(loc.SecondaryLabels) != 1 {
		t.Errorf("updated location = %+v", loc)
	}

	if w := s.do(t, http.MethodPatch, "/api/locations/"+tokyo.ID, `{"label":"Europe/Paris"}`); w.Code != http.StatusConflict {
		t.Errorf("duplicate label status = %d, want %d", w.Code, http.StatusConflict)
	}
	if w := s.do(t, http.MethodPatch, "/api/locations/nope", `{"name":"x"}`); w.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestDashboardRemoveLocation(t *testing.T) {
	s := newTestServer(t)
	tokyo, _ := s.store.Add("Tokyo", "Asia/Tokyo")
	home, _ := s.store.Home()

	if w := s.do(t, http.MethodDelete, "/api/locations/"+home.ID, ""); w.Code != http.StatusConflict {
		t.Errorf("remove home status = %d, want %d", w.Code, http.StatusConflict)
	}
	if w := s.do(t, http.MethodDelete, "/api/locations/nope", ""); w.Code != http.StatusNotFound {
		t.Errorf("remove unknown status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if w := s.do(t, http.MethodDelete, "/api/locations/"+tokyo.ID, ""); w.Code != http.StatusNoContent {
		t.Errorf("remove status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if n := len(s.store.Locations()); n != 1 {
		t.Errorf("locations = %d, want 1", n)
	}
}

func TestDashboardNotes(t *testing.T) {
	s := newTestServer(t)
	tokyo, _ := s.store.Add("Tokyo", "Asia/Tokyo")
	base := "/api/locations/" + tokyo.ID + "/notes"

	if w := s.do(t, http.MethodPost, base, `{"text":"Standup"}`); w.Code != http.StatusCreated {
		t.Fatalf("add note status = %d, want %d", w.Code, http.StatusCreated)
	}
	if w := s.do(t, http.MethodPost, base, `{"text":"  "}`); w.Code != http.StatusBadRequest {
		t.Errorf("empty note status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if w := s.do(t, http.MethodDelete, base+"/x", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad index status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	w := s.do(t, http.MethodDelete, base+"/3", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing note status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if msg := decodeBody[map[string]string](t, w)["error"]; !strings.Contains(msg, "index 3") {
		t.Errorf("missing note error = %q, want it to name index 3", msg)
	}

	w = s.do(t, http.MethodDelete, base+"/0", "")
	if w.Code != http.StatusOK {
		t.Fatalf("remove note status = %d, want %d", w.Code, http.StatusOK)
	}
	if loc := decodeBody[locations.Location](t, w); len(loc.SecondaryLabels) != 0 {
		t.Errorf("notes after removal = %v, want none", loc.SecondaryLabels)
	}
}

func TestDashboardSettings(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/settings", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := decodeBody[map[string]any](t, w); got["theme"] != "system" || got["use24HourFormat"] != true {
		t.Errorf("default settings = %v", got)
	}

	w = s.do(t, http.MethodPatch, "/api/settings", `{"theme":"dark","showSeconds":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("patch status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := s.store.Settings(); got.Theme != "dark" || !got.ShowSeconds {
		t.Errorf("settings after patch = %+v", got)
	}

	if w := s.do(t, http.MethodGet, "/api/clock", ""); decodeBody[clockState](t, w).IntervalMS != 500 {
		t.Error("showing seconds should tick every 500ms")
	}

	if w := s.do(t, http.MethodPatch, "/api/settings", `{"theme":"sepia"}`); w.Code != http.StatusBadRequest {
		t.Errorf("invalid theme status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestDashboardReset(t *testing.T) {
	s := newTestServer(t)
	s.store.Add("Tokyo", "Asia/Tokyo")
	s.store.Add("Paris", "Europe/Paris")

	w := s.do(t, http.MethodPost, "/api/reset", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if loc := decodeBody[locations.Location](t, w); !loc.IsCurrent || loc.Name != locations.HomeName {
		t.Errorf("reset returned %+v, want a home entry", loc)
	}
	if n := len(s.store.Locations()); n != 1 {
		t.Errorf("locations after reset = %d, want 1", n)
	}
}

func TestDashboardClock(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/clock", "")
	if got := decodeBody[clockState](t, w); got.Manual || got.IntervalMS != 1000 {
		t.Errorf("initial clock = %+v", got)
	}

	w = s.do(t, http.MethodPut, "/api/clock", `{"hour":9}`)
	if w.Code != http.StatusOK {
		t.Fatalf("set hour status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := decodeBody[clockState](t, w); !got.Manual || got.At != "2024-01-15T09:00:00Z" {
		t.Errorf("clock after set = %+v", got)
	}
	if !s.store.CurrentTime().Equal(time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)) {
		t.Error("manual time was not pushed to the store")
	}

	for _, body := range []string{`{"hour":24}`, `{"hour":-1}`, `{}`} {
		if w := s.do(t, http.MethodPut, "/api/clock", body); w.Code != http.StatusBadRequest {
			t.Errorf("PUT %s status = %d, want %d", body, w.Code, http.StatusBadRequest)
		}
	}

	w = s.do(t, http.MethodDelete, "/api/clock", "")
	if got := decodeBody[clockState](t, w); got.Manual || got.At != "2024-01-15T12:00:00Z" {
		t.Errorf("clock after reset = %+v", got)
	}
}

func TestDashboardClockInLocationZone(t *testing.T) {
	s := newTestServer(t)
	tokyo, _ := s.store.Add("Tokyo", "Asia/Tokyo")

	w := s.do(t, http.MethodPut, "/api/clock", `{"hour":9,"id":"`+tokyo.ID+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	// 09:00 in Tokyo is midnight UTC.
	if got := decodeBody[clockState](t, w); got.At != "2024-01-15T00:00:00Z" {
		t.Errorf("at = %q, want 2024-01-15T00:00:00Z", got.At)
	}

	if w := s.do(t, http.MethodPut, "/api/clock", `{"hour":9,"id":"nope"}`); w.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
