package web

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MobilityData/gtfs-validator-sub012/internal/config"
	"github.com/MobilityData/gtfs-validator-sub012/internal/core"
	"github.com/MobilityData/gtfs-validator-sub012/internal/metrics"
	"github.com/MobilityData/gtfs-validator-sub012/internal/schema"
	"github.com/MobilityData/gtfs-validator-sub012/internal/validator"
	"github.com/MobilityData/gtfs-validator-sub012/internal/validator/rules"
)

var feedFiles = map[string]string{
	"agency.txt": "agency_id,agency_name,agency_url,agency_timezone\n" +
		"a1,Metro,https://metro.example,Europe/Paris\n",
	"stops.txt": "stop_id,stop_name,stop_lat,stop_lon\n" +
		"s1,Central,48.85,2.35\n" +
		"s2,North,48.86,2.35\n",
	"routes.txt": "route_id,agency_id,route_short_name,route_type\n" +
		"r1,a1,1,3\n",
	"trips.txt": "route_id,service_id,trip_id\n" +
		"r1,wk,t1\n" +
		"r9,wk,t2\n",
	"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
		"t1,08:00:00,08:00:00,s1,1\n" +
		"t1,08:10:00,08:10:00,s2,2\n",
}

func zipFeed(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range feedFiles {
		f, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		f.Write([]byte(content))
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func testConfig() *config.Config {
	return &config.Config{
		Server:     config.ServerConfig{Port: 8080},
		Validation: config.ValidationConfig{MaxFeedSize: 1 << 20},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := validator.NewRegistry()
	rules.RegisterDefaults(reg, schema.All())
	promReg := prometheus.NewRegistry()
	svc := core.NewService(schema.Default(), reg, core.Options{
		Threads: 2,
		Metrics: metrics.New(promReg),
		Now:     func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
	})
	return NewServer(svc, cfg, promReg), promReg
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestValidate_RawBody(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/validate?name=metro.zip&country=fr", bytes.NewReader(zipFeed(t)))
	req.Header.Set("Content-Type", "application/zip")
	rec := do(s, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var summary core.RunSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Source != "metro.zip" || summary.CountryCode != "FR" {
		t.Errorf("summary source=%q country=%q", summary.Source, summary.CountryCode)
	}
	if !summary.HasErrors {
		t.Error("HasErrors = false, want true for a dangling route reference")
	}

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/runs/"+summary.RunID.String(), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET run status = %d", rec.Code)
	}

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	var runs []core.RunInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &runs); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != summary.RunID {
		t.Errorf("runs = %+v", runs)
	}
}

func TestValidate_Multipart(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("comment", "nightly")
	part, err := mw.CreateFormFile("file", "uploads/metro.zip")
	if err != nil {
		t.Fatal(err)
	}
	part.Write(zipFeed(t))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/validate", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := do(s, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var summary core.RunSummary
	json.Unmarshal(rec.Body.Bytes(), &summary)
	if summary.Source != "metro.zip" {
		t.Errorf("Source = %q, want metro.zip", summary.Source)
	}
}

func TestValidate_Errors(t *testing.T) {
	cfg := testConfig()
	cfg.Validation.MaxFeedSize = 64
	s, _ := newTestServer(t, cfg)

	tests := []struct {
		name       string
		body       []byte
		wantStatus int
		wantCode   string
	}{
		{"empty body", nil, http.StatusBadRequest, "FEED001"},
		{"not a zip", []byte("agency_id\na1\n"), http.StatusBadRequest, "FEED002"},
		{"too large", bytes.Repeat([]byte("x"), 1000), http.StatusRequestEntityTooLarge, "FEED004"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(s, httptest.NewRequest(http.MethodPost, "/api/validate", bytes.NewReader(tt.body)))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if got := decodeError(t, rec).Code; got != tt.wantCode {
				t.Errorf("code = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestValidate_MultipartWithoutFile(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("comment", "no archive")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/validate", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := do(s, req)
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Code != "FEED001" {
		t.Errorf("status = %d body = %s", rec.Code, rec.Body.String())
	}
}

func TestGetRun_Errors(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/runs/not-a-uuid", nil))
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Code != "RUN003" {
		t.Errorf("bad id: status = %d body = %s", rec.Code, rec.Body.String())
	}

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/runs/"+uuid.NewString(), nil))
	if rec.Code != http.StatusNotFound || decodeError(t, rec).Code != "RUN002" {
		t.Errorf("unknown id: status = %d body = %s", rec.Code, rec.Body.String())
	}

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/runs?limit=-1", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit: status = %d", rec.Code)
	}
}

func TestListings(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/tables", nil))
	var tables []core.TableInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &tables); err != nil {
		t.Fatalf("decode tables: %v", err)
	}
	if len(tables) != len(schema.All()) {
		t.Errorf("len(tables) = %d", len(tables))
	}

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/tables/Stop_Times.txt", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"filename":"stop_times.txt"`) {
		t.Errorf("table lookup: status = %d body = %s", rec.Code, rec.Body.String())
	}

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/tables/bikes.txt", nil))
	if rec.Code != http.StatusNotFound || decodeError(t, rec).Code != "TBL001" {
		t.Errorf("unknown table: status = %d body = %s", rec.Code, rec.Body.String())
	}

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/validators", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"stop_time_trip"`) {
		t.Errorf("validators: status = %d body = %s", rec.Code, rec.Body.String())
	}

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"max_concurrent"`) {
		t.Errorf("status: status = %d body = %s", rec.Code, rec.Body.String())
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	rec := do(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("health: status = %d headers = %v", rec.Code, rec.Header())
	}

	req := httptest.NewRequest(http.MethodPost, "/api/validate", bytes.NewReader(zipFeed(t)))
	do(s, req)

	rec = do(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `gtfs_validator_runs_total{outcome="invalid"} 1`) {
		t.Errorf("metrics missing run counter:\n%s", rec.Body.String())
	}
}

func TestAPIKeyProtectsAPIOnly(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"secret"}}
	s, _ := newTestServer(t, cfg)

	if rec := do(s, httptest.NewRequest(http.MethodGet, "/api/tables", nil)); rec.Code != http.StatusUnauthorized {
		t.Errorf("without key: status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/tables", nil)
	req.Header.Set("X-API-Key", "secret")
	if rec := do(s, req); rec.Code != http.StatusOK {
		t.Errorf("with key: status = %d, want 200", rec.Code)
	}

	if rec := do(s, httptest.NewRequest(http.MethodGet, "/health", nil)); rec.Code != http.StatusOK {
		t.Errorf("health: status = %d, want 200", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrTooManyValidations, http.StatusServiceUnavailable},
		{core.ErrUnknownTable, http.StatusNotFound},
		{zip.ErrFormat, http.StatusBadRequest},
		{http.ErrBodyNotAllowed, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
