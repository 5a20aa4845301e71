package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"
)

func ok(context.Context) error { return nil }

func failing(context.Context) error { return errors.New("down") }

func TestReadiness(t *testing.T) {
	tests := []struct {
		name     string
		required CheckFunc
		observed CheckFunc
		want     string
	}{
		{"all ok", ok, ok, StatusReady},
		{"observed failing", ok, failing, StatusDegraded},
		{"required failing", failing, ok, StatusUnhealthy},
		{"both failing", failing, failing, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(time.Second)
			c.Require("rules", tt.required)
			c.Observe("evidence", tt.observed)

			report := c.Readiness(context.Background())
			if report.Status != tt.want {
				t.Errorf("Status = %q, want %q", report.Status, tt.want)
			}
			if len(report.Checks) != 2 {
				t.Errorf("len(Checks) = %d, want 2", len(report.Checks))
			}
		})
	}
}

func TestReadiness_NoChecks(t *testing.T) {
	report := New(0).Readiness(context.Background())
	if report.Status != StatusReady {
		t.Errorf("Status = %q, want ready", report.Status)
	}
}

func TestReadiness_Timeout(t *testing.T) {
	c := New(20 * time.Millisecond)
	c.Require("slow", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return nil
	})

	report := c.Readiness(context.Background())
	if report.Checks["slow"].Message != "health check timeout" {
		t.Errorf("Message = %q, want timeout", report.Checks["slow"].Message)
	}
	if report.Ready() {
		t.Error("Ready() = true after required check timed out")
	}
}

func TestNames(t *testing.T) {
	c := New(0)
	c.Observe("b", ok)
	c.Require("a", ok)
	c.Observe("c", ok)
	c.Unregister("c")

	if got, want := c.Names(), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestHandlers(t *testing.T) {
	c := New(time.Second)
	c.Require("rules", failing)

	tests := []struct {
		name    string
		handler http.Handler
		method  string
		code    int
	}{
		{"liveness", c.LivenessHandler(), http.MethodGet, http.StatusOK},
		{"readiness unready", c.ReadinessHandler(), http.MethodGet, http.StatusServiceUnavailable},
		{"readiness head", c.ReadinessHandler(), http.MethodHead, http.StatusServiceUnavailable},
		{"post rejected", c.LivenessHandler(), http.MethodPost, http.StatusMethodNotAllowed},
		{"version", VersionHandler("1.0.0", "abc", "now"), http.MethodGet, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, httptest.NewRequest(tt.method, "/", nil))
			if rec.Code != tt.code {
				t.Errorf("status = %d, want %d", rec.Code, tt.code)
			}
			if tt.method == http.MethodHead && rec.Body.Len() != 0 {
				t.Errorf("HEAD response has a body: %q", rec.Body.String())
			}
		})
	}
}

func TestReadinessHandler_Body(t *testing.T) {
	c := New(time.Second)
	c.Observe("evidence", failing)

	rec := httptest.NewRecorder()
	c.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var report Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if report.Status != StatusDegraded {
		t.Errorf("Status = %q, want degraded", report.Status)
	}
	if got := report.Checks["evidence"]; got.Message != "down" || got.Required {
		t.Errorf("evidence check = %+v", got)
	}
}
