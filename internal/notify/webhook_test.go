package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kestrelops/worksafe/internal/config"
	"github.com/kestrelops/worksafe/internal/logging"
	"github.com/kestrelops/worksafe/internal/types"
)

func quietLogger() *logging.Logger {
	logger := logging.New(types.LogLevelDebug, false)
	logger.SetOutput(&bytes.Buffer{})
	return logger
}

func webhookConfig(url string) *config.Config {
	cfg := config.Default()
	cfg.WebhookEnabled = true
	cfg.WebhookURL = url
	return cfg
}

func TestNewWebhookNotifierDisabled(t *testing.T) {
	notifier, err := NewWebhookNotifier(config.Default(), quietLogger())
	if err != nil {
		t.Fatalf("NewWebhookNotifier: %v", err)
	}
	if notifier != nil {
		t.Error("disabled webhook should yield a nil notifier")
	}
}

func TestNewWebhookNotifierInvalidURL(t *testing.T) {
	if _, err := NewWebhookNotifier(webhookConfig("not a url"), quietLogger()); err == nil {
		t.Error("expected error for invalid URL")
	}
}

func TestSendSyncResultSuccessPayload(t *testing.T) {
	var received webhookPayload
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("invalid payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier, err := NewWebhookNotifier(webhookConfig(server.URL), quietLogger())
	if err != nil {
		t.Fatalf("NewWebhookNotifier: %v", err)
	}

	result := types.SyncResult{Success: true, LastSync: "2026-08-23T10:30:00Z"}
	if err := notifier.SendSyncResult(context.Background(), result, 2500*time.Millisecond); err != nil {
		t.Fatalf("SendSyncResult: %v", err)
	}

	if contentType != "application/json" {
		t.Errorf("Content-Type = %q", contentType)
	}
	if received.Event != "sync" || received.Status != "success" {
		t.Errorf("payload = %+v", received)
	}
	if received.LastSync != "2026-08-23T10:30:00Z" {
		t.Errorf("LastSync = %q", received.LastSync)
	}
	if received.DurationS != 2.5 {
		t.Errorf("DurationS = %v", received.DurationS)
	}
}

func TestSendSyncResultStatusMapping(t *testing.T) {
	var status string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p webhookPayload
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &p)
		status = p.Status
	}))
	defer server.Close()

	notifier, err := NewWebhookNotifier(webhookConfig(server.URL), quietLogger())
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		result types.SyncResult
		want   string
	}{
		{types.SyncResult{Success: true}, "success"},
		{types.SyncResult{Success: true, Warnings: []string{"rotation failed"}}, "warning"},
		{types.SyncResult{Success: false, Error: "Sync failed"}, "failure"},
	}
	for _, tc := range cases {
		if err := notifier.SendSyncResult(context.Background(), tc.result, time.Second); err != nil {
			t.Fatalf("SendSyncResult: %v", err)
		}
		if status != tc.want {
			t.Errorf("status for %+v = %q, want %q", tc.result, status, tc.want)
		}
	}
}

func TestSendSyncResultServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	notifier, err := NewWebhookNotifier(webhookConfig(server.URL), quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := notifier.SendSyncResult(context.Background(), types.SyncResult{}, time.Second); err == nil {
		t.Error("expected error for a 500 response")
	}
}

func TestSendSyncResultNilReceiver(t *testing.T) {
	var notifier *WebhookNotifier
	if err := notifier.SendSyncResult(context.Background(), types.SyncResult{}, time.Second); err != nil {
		t.Errorf("nil notifier must be a silent no-op: %v", err)
	}
}
