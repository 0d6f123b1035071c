// Satomaru - Community Map Annotation Service
// Copyright 2026 Satomaru Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/satomaru-project/satomaru

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/satomaru-project/satomaru/internal/audit"
	"github.com/satomaru-project/satomaru/internal/config"
	"github.com/satomaru-project/satomaru/internal/pii"
	"github.com/satomaru-project/satomaru/internal/ratelimit"
	"github.com/satomaru-project/satomaru/internal/store"
)

// testEnvelope mirrors models.APIResponse with a raw data payload so each
// test can decode the part it cares about.
type testEnvelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 8000, Timeout: 5 * time.Second},
		Security: config.SecurityConfig{
			AllowedOrigins: []string{"http://localhost:5173"},
			CORSMaxAge:     86400,
		},
		RateLimit: config.RateLimitConfig{WindowSeconds: 60},
		HTTP:      config.HTTPConfig{RateLimitRequests: 10000, RateLimitWindow: time.Minute},
		API:       config.APIConfig{DefaultPageSize: 100, MaxPageSize: 200},
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	auditLog := audit.NewStore()
	pins := store.New(pii.New(), ratelimit.New(60*time.Second), auditLog)
	handler := NewHandler(pins, auditLog, testConfig())

	srv := httptest.NewServer(handler.NewRouter())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, testEnvelope) {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var env testEnvelope
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			t.Fatalf("decoding response envelope: %v", err)
		}
	}
	return resp, env
}

func createPinBody(lat, lng float64, tag, note string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"lat":        lat,
		"lng":        lng,
		"layer":      "kurashi",
		"tag":        tag,
		"note":       note,
		"visibility": "public",
	})
	return string(body)
}

func TestBanner(t *testing.T) {
	srv := newTestServer(t)

	resp, env := doJSON(t, http.MethodGet, srv.URL+"/", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var data map[string]string
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decoding banner: %v", err)
	}
	if data["message"] != ServiceName {
		t.Errorf("message = %q, want %q", data["message"], ServiceName)
	}
	if data["version"] != ServiceVersion {
		t.Errorf("version = %q, want %q", data["version"], ServiceVersion)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, env := doJSON(t, http.MethodGet, srv.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if env.Status != "success" {
		t.Errorf("envelope status = %q, want success", env.Status)
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/healthz", "")
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID response header")
	}
}

func TestCreatePin(t *testing.T) {
	srv := newTestServer(t)

	resp, env := doJSON(t, http.MethodPost, srv.URL+"/pins", createPinBody(35.68, 139.76, "danger", "broken light"))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var data struct {
		ID        string    `json:"id"`
		CreatedAt time.Time `json:"createdAt"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decoding create response: %v", err)
	}
	if data.ID != "pin_1" {
		t.Errorf("id = %q, want pin_1", data.ID)
	}
	if data.CreatedAt.IsZero() {
		t.Error("createdAt should be set")
	}
}

func TestCreatePinValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing tag", `{"lat":35,"lng":139,"layer":"kurashi","visibility":"public"}`},
		{"unknown layer", `{"lat":35,"lng":139,"layer":"bogus","tag":"t","visibility":"public"}`},
		{"unknown visibility", `{"lat":35,"lng":139,"layer":"kurashi","tag":"t","visibility":"everyone"}`},
		{"latitude out of range", `{"lat":91,"lng":139,"layer":"kurashi","tag":"t","visibility":"public"}`},
		{"longitude out of range", `{"lat":35,"lng":181,"layer":"kurashi","tag":"t","visibility":"public"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := doJSON(t, http.MethodPost, srv.URL+"/pins", tt.body)
			if resp.StatusCode != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422", resp.StatusCode)
			}
			if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
				t.Errorf("error = %+v, want VALIDATION_ERROR", env.Error)
			}
		})
	}
}

func TestCreatePinInvalidJSON(t *testing.T) {
	srv := newTestServer(t)

	resp, env := doJSON(t, http.MethodPost, srv.URL+"/pins", `{"lat": not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error = %+v, want VALIDATION_ERROR", env.Error)
	}
}

func TestCreatePinPIIRejected(t *testing.T) {
	srv := newTestServer(t)

	resp, env := doJSON(t, http.MethodPost, srv.URL+"/pins", createPinBody(35.68, 139.76, "danger", "contact test@example.com"))
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != "PII_DETECTED" {
		t.Fatalf("error = %+v, want PII_DETECTED", env.Error)
	}
	if env.Error.Message != msgPIIDetected {
		t.Errorf("message = %q, want %q", env.Error.Message, msgPIIDetected)
	}
}

func TestCreatePinRateLimited(t *testing.T) {
	srv := newTestServer(t)

	body := createPinBody(35.68, 139.76, "danger", "first")
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/pins", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first create status = %d, want 201", resp.StatusCode)
	}

	resp, env := doJSON(t, http.MethodPost, srv.URL+"/pins", createPinBody(35.68, 139.76, "danger", "second"))
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second create status = %d, want 429", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != "RATE_LIMIT" {
		t.Fatalf("error = %+v, want RATE_LIMIT", env.Error)
	}
	if env.Error.Message != msgRateLimited {
		t.Errorf("message = %q, want %q", env.Error.Message, msgRateLimited)
	}

	// Same spot, different tag: allowed.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/pins", createPinBody(35.68, 139.76, "favorite", "third"))
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("different tag status = %d, want 201", resp.StatusCode)
	}
}

func TestGetPin(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, http.MethodPost, srv.URL+"/pins", createPinBody(35.68, 139.76, "danger", "note"))

	resp, env := doJSON(t, http.MethodGet, srv.URL+"/pins/pin_1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var pin struct {
		ID  string  `json:"id"`
		Lat float64 `json:"lat"`
		Tag string  `json:"tag"`
	}
	if err := json.Unmarshal(env.Data, &pin); err != nil {
		t.Fatalf("decoding pin: %v", err)
	}
	if pin.ID != "pin_1" || pin.Tag != "danger" {
		t.Errorf("pin = %+v, want pin_1 with tag danger", pin)
	}
}

func TestGetPinNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, env := doJSON(t, http.MethodGet, srv.URL+"/pins/pin_999", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Errorf("error = %+v, want NOT_FOUND", env.Error)
	}
}

func TestUpdatePin(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, http.MethodPost, srv.URL+"/pins", createPinBody(35.68, 139.76, "danger", "original"))

	resp, env := doJSON(t, http.MethodPatch, srv.URL+"/pins/pin_1", `{"note":"revised","visibility":"group"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var pin struct {
		Note       string     `json:"note"`
		Visibility string     `json:"visibility"`
		Tag        string     `json:"tag"`
		UpdatedAt  *time.Time `json:"updatedAt"`
	}
	if err := json.Unmarshal(env.Data, &pin); err != nil {
		t.Fatalf("decoding pin: %v", err)
	}
	if pin.Note != "revised" || pin.Visibility != "group" {
		t.Errorf("pin = %+v, want revised note and group visibility", pin)
	}
	if pin.Tag != "danger" {
		t.Errorf("tag = %q, want unchanged danger", pin.Tag)
	}
	if pin.UpdatedAt == nil {
		t.Error("updatedAt should be set after update")
	}
}

func TestUpdatePinEmptyNoteClears(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, http.MethodPost, srv.URL+"/pins", createPinBody(35.68, 139.76, "danger", "original"))

	resp, env := doJSON(t, http.MethodPatch, srv.URL+"/pins/pin_1", `{"note":""}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var pin struct {
		Note string `json:"note"`
		Tag  string `json:"tag"`
	}
	if err := json.Unmarshal(env.Data, &pin); err != nil {
		t.Fatalf("decoding pin: %v", err)
	}
	if pin.Note != "" {
		t.Errorf("note = %q, want cleared", pin.Note)
	}
	if pin.Tag != "danger" {
		t.Errorf("tag = %q, want untouched", pin.Tag)
	}
}

func TestUpdatePinPIIRejected(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, http.MethodPost, srv.URL+"/pins", createPinBody(35.68, 139.76, "danger", "original"))

	resp, env := doJSON(t, http.MethodPatch, srv.URL+"/pins/pin_1", `{"note":"call 090-1234-5678"}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != "PII_DETECTED" {
		t.Fatalf("error = %+v, want PII_DETECTED", env.Error)
	}

	// The stored note is untouched.
	_, env = doJSON(t, http.MethodGet, srv.URL+"/pins/pin_1", "")
	var pin struct {
		Note string `json:"note"`
	}
	json.Unmarshal(env.Data, &pin)
	if pin.Note != "original" {
		t.Errorf("note = %q, want original after rejected update", pin.Note)
	}
}

func TestUpdatePinInvalidStatus(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, http.MethodPost, srv.URL+"/pins", createPinBody(35.68, 139.76, "danger", "n"))

	resp, env := doJSON(t, http.MethodPatch, srv.URL+"/pins/pin_1", `{"status":"archived"}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error = %+v, want VALIDATION_ERROR", env.Error)
	}
}

func TestUpdatePinNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPatch, srv.URL+"/pins/pin_999", `{"note":"x"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestDeletePin(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, http.MethodPost, srv.URL+"/pins", createPinBody(35.68, 139.76, "danger", "n"))

	resp, _ := doJSON(t, http.MethodDelete, srv.URL+"/pins/pin_1", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}

	// Hidden, not gone: GET still succeeds.
	_, env := doJSON(t, http.MethodGet, srv.URL+"/pins/pin_1", "")
	var pin struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(env.Data, &pin); err != nil {
		t.Fatalf("decoding pin: %v", err)
	}
	if pin.Status != "hidden" {
		t.Errorf("status = %q, want hidden", pin.Status)
	}

	// Deleting again is still a 204.
	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/pins/pin_1", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("repeat delete status = %d, want 204", resp.StatusCode)
	}
}

func TestDeletePinNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, env := doJSON(t, http.MethodDelete, srv.URL+"/pins/pin_999", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Errorf("error = %+v, want NOT_FOUND", env.Error)
	}
}

func listData(t *testing.T, env testEnvelope) (items []json.RawMessage, total int) {
	t.Helper()
	var data struct {
		Items []json.RawMessage `json:"items"`
		Total int               `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decoding list response: %v", err)
	}
	return data.Items, data.Total
}

func TestListPins(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, http.MethodPost, srv.URL+"/pins", createPinBody(35.0, 139.0, "danger", "a"))
	doJSON(t, http.MethodPost, srv.URL+"/pins", createPinBody(36.0, 139.0, "favorite", "b"))

	resp, env := doJSON(t, http.MethodGet, srv.URL+"/pins", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	items, total := listData(t, env)
	if total != 2 || len(items) != 2 {
		t.Errorf("total = %d, items = %d, want 2 and 2", total, len(items))
	}
}

func TestListPinsPagination(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, http.MethodPost, srv.URL+"/pins", createPinBody(35.0, 139.0, "danger", "a"))
	doJSON(t, http.MethodPost, srv.URL+"/pins", createPinBody(36.0, 139.0, "danger", "b"))

	_, env := doJSON(t, http.MethodGet, srv.URL+"/pins?page=1&page_size=1", "")
	items, total := listData(t, env)
	if len(items) != 1 {
		t.Errorf("items = %d, want 1", len(items))
	}
	if total != 2 {
		t.Errorf("total = %d, want 2 (count before pagination)", total)
	}

	// Past the end: empty page, same total.
	_, env = doJSON(t, http.MethodGet, srv.URL+"/pins?page=5&page_size=1", "")
	items, total = listData(t, env)
	if len(items) != 0 || total != 2 {
		t.Errorf("items = %d, total = %d, want 0 and 2", len(items), total)
	}
}

func TestListPinsPaginationValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []string{
		"?page=0",
		"?page_size=0",
		"?page_size=500",
	}
	for _, query := range tests {
		t.Run(query, func(t *testing.T) {
			resp, env := doJSON(t, http.MethodGet, srv.URL+"/pins"+query, "")
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
			if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
				t.Errorf("error = %+v, want VALIDATION_ERROR", env.Error)
			}
		})
	}
}

func TestListPinsExcludesHidden(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, http.MethodPost, srv.URL+"/pins", createPinBody(35.0, 139.0, "danger", "a"))
	doJSON(t, http.MethodPost, srv.URL+"/pins", createPinBody(36.0, 139.0, "danger", "b"))
	doJSON(t, http.MethodDelete, srv.URL+"/pins/pin_1", "")

	_, env := doJSON(t, http.MethodGet, srv.URL+"/pins", "")
	items, total := listData(t, env)
	if total != 1 || len(items) != 1 {
		t.Errorf("total = %d, items = %d, want 1 and 1 after hiding pin_1", total, len(items))
	}
}

func TestListPinsBBox(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, http.MethodPost, srv.URL+"/pins", createPinBody(35.68, 139.76, "danger", "inside"))
	doJSON(t, http.MethodPost, srv.URL+"/pins", createPinBody(40.0, 150.0, "danger", "outside"))

	_, env := doJSON(t, http.MethodGet, srv.URL+"/pins?bbox=139.0,35.0,140.0,36.0", "")
	_, total := listData(t, env)
	if total != 1 {
		t.Errorf("total = %d, want 1 pin inside the bbox", total)
	}
}

func TestListPinsBadBBox(t *testing.T) {
	srv := newTestServer(t)

	tests := []string{
		"139.0,35.0,140.0",       // three values
		"139.0,35.0,140.0,x",     // non-numeric
		"139.0,35.0,140.0,36,37", // five values
	}
	for _, bbox := range tests {
		t.Run(bbox, func(t *testing.T) {
			resp, env := doJSON(t, http.MethodGet, srv.URL+"/pins?bbox="+bbox, "")
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
			if env.Error == nil || env.Error.Message != "Invalid bbox format" {
				t.Errorf("error = %+v, want Invalid bbox format", env.Error)
			}
		})
	}
}

func TestListPinsLayerFilter(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, http.MethodPost, srv.URL+"/pins", createPinBody(35.0, 139.0, "danger", "a"))

	_, env := doJSON(t, http.MethodGet, srv.URL+"/pins?layer=kurashi", "")
	if _, total := listData(t, env); total != 1 {
		t.Errorf("layer=kurashi total = %d, want 1", total)
	}

	_, env = doJSON(t, http.MethodGet, srv.URL+"/pins?layer=asobi", "")
	if _, total := listData(t, env); total != 0 {
		t.Errorf("layer=asobi total = %d, want 0", total)
	}

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/pins?layer=bogus", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown layer status = %d, want 400", resp.StatusCode)
	}
}
