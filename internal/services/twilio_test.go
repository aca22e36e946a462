package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/songshare/internal/shared"
	tu "github.com/desertthunder/songshare/internal/testing"
)

func testTwilioCredentials(apiURL string) map[string]string {
	return map[string]string{
		"account_sid": "AC123",
		"auth_token":  "secret",
		"from":        `"+15550009999"`,
		"api_url":     apiURL,
	}
}

func TestTwilioService(t *testing.T) {
	ctx := context.Background()

	t.Run("NewTwilioService", func(t *testing.T) {
		tc := []struct {
			name    string
			missing string
		}{
			{name: "missing account sid", missing: "account_sid"},
			{name: "missing auth token", missing: "auth_token"},
			{name: "missing from", missing: "from"},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				creds := testTwilioCredentials("")
				delete(creds, tt.missing)

				if _, err := NewTwilioService(creds, nil); !errors.Is(err, shared.ErrMissingCredentials) {
					t.Errorf("expected ErrMissingCredentials, got %v", err)
				}
			})
		}

		t.Run("cleans from number", func(t *testing.T) {
			svc, err := NewTwilioService(testTwilioCredentials(""), nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if svc.From() != "+15550009999" {
				t.Errorf("expected cleaned from number, got %q", svc.From())
			}
			if svc.Name() != "Twilio" {
				t.Errorf("expected name Twilio, got %s", svc.Name())
			}
		})
	})

	t.Run("Send", func(t *testing.T) {
		t.Run("posts message form", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.URL.Path != "/Accounts/AC123/Messages.json" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}

				user, pass, ok := r.BasicAuth()
				if !ok || user != "AC123" || pass != "secret" {
					t.Errorf("unexpected basic auth %q %q", user, pass)
				}

				if err := r.ParseForm(); err != nil {
					t.Fatalf("failed to parse form: %v", err)
				}
				if got := r.PostForm.Get("To"); got != "+15550001111" {
					t.Errorf("unexpected To %q", got)
				}
				if got := r.PostForm.Get("From"); got != "+15550009999" {
					t.Errorf("unexpected From %q", got)
				}
				if got := r.PostForm.Get("Body"); got != "hello\nthere" {
					t.Errorf("unexpected Body %q", got)
				}

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusCreated)
				w.Write([]byte(`{"sid": "SM123", "status": "queued"}`))
			}))
			defer server.Close()

			svc, err := NewTwilioService(testTwilioCredentials(server.URL), server.Client())
			if err != nil {
				t.Fatalf("failed to create service: %v", err)
			}

			sid, err := svc.Send(ctx, "+15550001111", "hello\nthere")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if sid != "SM123" {
				t.Errorf("expected sid SM123, got %s", sid)
			}
		})

		t.Run("rejected message", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"code": 21211, "message": "The 'To' number is not a valid phone number."}`))
			}))
			defer server.Close()

			svc, _ := NewTwilioService(testTwilioCredentials(server.URL), server.Client())

			_, err := svc.Send(ctx, "bogus", "hi")
			if !errors.Is(err, shared.ErrDeliveryFailed) {
				t.Fatalf("expected ErrDeliveryFailed, got %v", err)
			}
			if !strings.Contains(err.Error(), "21211") {
				t.Errorf("expected twilio error code in message, got %v", err)
			}
		})

		t.Run("transport failure", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
			svc, _ := NewTwilioService(testTwilioCredentials("http://twilio.invalid"), client)

			if _, err := svc.Send(ctx, "+15550001111", "hi"); !errors.Is(err, shared.ErrDeliveryFailed) {
				t.Errorf("expected ErrDeliveryFailed, got %v", err)
			}
		})

		t.Run("unreadable body", func(t *testing.T) {
			resp := &http.Response{StatusCode: http.StatusCreated, Body: &tu.FCloser{}, Header: http.Header{}}
			client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}
			svc, _ := NewTwilioService(testTwilioCredentials("http://twilio.invalid"), client)

			if _, err := svc.Send(ctx, "+15550001111", "hi"); !errors.Is(err, shared.ErrDeliveryFailed) {
				t.Errorf("expected ErrDeliveryFailed, got %v", err)
			}
		})

		t.Run("empty recipient", func(t *testing.T) {
			svc, _ := NewTwilioService(testTwilioCredentials("http://twilio.invalid"), nil)
			if _, err := svc.Send(ctx, `""`, "hi"); !errors.Is(err, shared.ErrDeliveryFailed) {
				t.Errorf("expected ErrDeliveryFailed, got %v", err)
			}
		})
	})
}
