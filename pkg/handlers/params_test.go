package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestParseProductID(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name       string
		pathValue  string
		wantOK     bool
		wantNilID  bool
		wantStatus int
		wantError  string
	}{
		{
			name:      "valid UUID",
			pathValue: "550e8400-e29b-41d4-a716-446655440000",
			wantOK:    true,
			wantNilID: false,
		},
		{
			name:       "invalid UUID",
			pathValue:  "not-a-uuid",
			wantOK:     false,
			wantNilID:  true,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid_product_id",
		},
		{
			name:       "empty UUID",
			pathValue:  "",
			wantOK:     false,
			wantNilID:  true,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid_product_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.SetPathValue("id", tt.pathValue)
			rec := httptest.NewRecorder()

			id, ok := ParseProductID(rec, req, logger)

			if ok != tt.wantOK {
				t.Errorf("ParseProductID() ok = %v, want %v", ok, tt.wantOK)
			}

			if tt.wantNilID && id != uuid.Nil {
				t.Errorf("ParseProductID() id = %v, want uuid.Nil", id)
			}

			if !tt.wantOK {
				if rec.Code != tt.wantStatus {
					t.Errorf("ParseProductID() status = %v, want %v", rec.Code, tt.wantStatus)
				}

				var resp map[string]string
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if resp["error"] != tt.wantError {
					t.Errorf("ParseProductID() error = %v, want %v", resp["error"], tt.wantError)
				}
			}
		})
	}
}

func TestParseLineID(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name       string
		pathValue  string
		wantOK     bool
		wantNilID  bool
		wantStatus int
		wantError  string
	}{
		{
			name:      "valid UUID",
			pathValue: "550e8400-e29b-41d4-a716-446655440000",
			wantOK:    true,
			wantNilID: false,
		},
		{
			name:       "invalid UUID",
			pathValue:  "not-a-uuid",
			wantOK:     false,
			wantNilID:  true,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid_production_line_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.SetPathValue("id", tt.pathValue)
			rec := httptest.NewRecorder()

			id, ok := ParseLineID(rec, req, logger)

			if ok != tt.wantOK {
				t.Errorf("ParseLineID() ok = %v, want %v", ok, tt.wantOK)
			}

			if tt.wantNilID && id != uuid.Nil {
				t.Errorf("ParseLineID() id = %v, want uuid.Nil", id)
			}

			if !tt.wantOK {
				if rec.Code != tt.wantStatus {
					t.Errorf("ParseLineID() status = %v, want %v", rec.Code, tt.wantStatus)
				}

				var resp map[string]string
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if resp["error"] != tt.wantError {
					t.Errorf("ParseLineID() error = %v, want %v", resp["error"], tt.wantError)
				}
			}
		})
	}
}

func TestParseUUIDQuery(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name       string
		url        string
		wantOK     bool
		wantNilID  bool
		wantStatus int
		wantError  string
	}{
		{
			name:      "valid UUID",
			url:       "/test?production_line_id=550e8400-e29b-41d4-a716-446655440000",
			wantOK:    true,
			wantNilID: false,
		},
		{
			name:      "absent parameter",
			url:       "/test",
			wantOK:    true,
			wantNilID: true,
		},
		{
			name:       "malformed UUID",
			url:        "/test?production_line_id=nope",
			wantOK:     false,
			wantNilID:  true,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid_production_line_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			rec := httptest.NewRecorder()

			id, ok := ParseUUIDQuery(rec, req, "production_line_id", logger)

			if ok != tt.wantOK {
				t.Errorf("ParseUUIDQuery() ok = %v, want %v", ok, tt.wantOK)
			}

			if tt.wantNilID && id != uuid.Nil {
				t.Errorf("ParseUUIDQuery() id = %v, want uuid.Nil", id)
			}

			if !tt.wantOK {
				if rec.Code != tt.wantStatus {
					t.Errorf("ParseUUIDQuery() status = %v, want %v", rec.Code, tt.wantStatus)
				}

				var resp map[string]string
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if resp["error"] != tt.wantError {
					t.Errorf("ParseUUIDQuery() error = %v, want %v", resp["error"], tt.wantError)
				}
			}
		})
	}
}

func TestParseIntQuery(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name       string
		url        string
		def        int
		want       int
		wantOK     bool
		wantStatus int
		wantError  string
	}{
		{
			name:   "valid value",
			url:    "/test?limit=25",
			def:    0,
			want:   25,
			wantOK: true,
		},
		{
			name:   "absent parameter uses default",
			url:    "/test",
			def:    50,
			want:   50,
			wantOK: true,
		},
		{
			name:   "zero is allowed",
			url:    "/test?limit=0",
			def:    50,
			want:   0,
			wantOK: true,
		},
		{
			name:       "not a number",
			url:        "/test?limit=ten",
			def:        0,
			wantOK:     false,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid_limit",
		},
		{
			name:       "negative value",
			url:        "/test?limit=-1",
			def:        0,
			wantOK:     false,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid_limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			rec := httptest.NewRecorder()

			n, ok := ParseIntQuery(rec, req, "limit", tt.def, logger)

			if ok != tt.wantOK {
				t.Errorf("ParseIntQuery() ok = %v, want %v", ok, tt.wantOK)
			}

			if tt.wantOK && n != tt.want {
				t.Errorf("ParseIntQuery() n = %v, want %v", n, tt.want)
			}

			if !tt.wantOK {
				if rec.Code != tt.wantStatus {
					t.Errorf("ParseIntQuery() status = %v, want %v", rec.Code, tt.wantStatus)
				}

				var resp map[string]string
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if resp["error"] != tt.wantError {
					t.Errorf("ParseIntQuery() error = %v, want %v", resp["error"], tt.wantError)
				}
			}
		})
	}
}
