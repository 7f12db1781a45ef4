package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestSettingsAPIKeyRoundTrip(t *testing.T) {
	creds := &stubCredentials{}
	h := &SettingsHandler{Credentials: creds}
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/settings/apikey", nil)
	rec := httptest.NewRecorder()
	if err := h.getAPIKey(e.NewContext(req, rec)); err != nil {
		t.Fatalf("getAPIKey: %v", err)
	}
	var resp APIKeyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Configured {
		t.Fatalf("key reported configured before being set")
	}

	req = httptest.NewRequest(http.MethodPut, "/api/settings/apikey", strings.NewReader(`{"api_key":"secret-key"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	if err := h.putAPIKey(e.NewContext(req, rec)); err != nil {
		t.Fatalf("putAPIKey: %v", err)
	}
	if creds.key != "secret-key" {
		t.Fatalf("stored key = %q", creds.key)
	}

	// the value itself is never echoed back
	if strings.Contains(rec.Body.String(), "secret-key") {
		t.Fatalf("response leaked the key: %s", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/settings/apikey", nil)
	rec = httptest.NewRecorder()
	if err := h.getAPIKey(e.NewContext(req, rec)); err != nil {
		t.Fatalf("getAPIKey: %v", err)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Configured {
		t.Fatalf("key not reported configured after set")
	}
}
