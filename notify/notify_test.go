package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storewatch/config"
)

func TestSlackSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewSlack(srv.URL)
	if err := s.Send(context.Background(), "Store Status Report", "2 online, 1 offline"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	text := got["text"]
	if !strings.Contains(text, "Store Status Report") {
		t.Fatalf("subject missing from payload %q", text)
	}
	if !strings.Contains(text, "2 online, 1 offline") {
		t.Fatalf("body missing from payload %q", text)
	}
}

func TestSlackSend_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_token", http.StatusForbidden)
	}))
	defer srv.Close()

	s := NewSlack(srv.URL)
	if err := s.Send(context.Background(), "subject", "body"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

type stubNotifier struct {
	name  string
	err   error
	sends int
}

func (s *stubNotifier) Name() string { return s.name }

func (s *stubNotifier) Send(ctx context.Context, subject, body string) error {
	s.sends++
	return s.err
}

func TestMulti_TriesEveryTransport(t *testing.T) {
	a := &stubNotifier{name: "a", err: errors.New("boom")}
	b := &stubNotifier{name: "b"}

	m := NewMulti(a, b)
	err := m.Send(context.Background(), "subject", "body")
	if err == nil {
		t.Fatal("expected first transport's failure to surface")
	}
	if !strings.Contains(err.Error(), "a:") {
		t.Fatalf("expected error attributed to transport a, got %v", err)
	}
	if a.sends != 1 || b.sends != 1 {
		t.Fatalf("expected both transports tried, got %d and %d", a.sends, b.sends)
	}
}

func TestFromConfig_TransportSelection(t *testing.T) {
	email := config.NotifierConfig{
		SMTPHost: "smtp.gmail.com", SMTPPort: 587,
		SMTPUser: "monitor@example.com", SMTPPass: "secret",
		ToAddress: "ops@example.com",
	}
	if _, ok := FromConfig(email).(*Email); !ok {
		t.Fatal("expected email transport for full SMTP config")
	}

	slack := config.NotifierConfig{SlackWebhook: "https://hooks.slack.com/services/T/B/x"}
	if _, ok := FromConfig(slack).(*Slack); !ok {
		t.Fatal("expected slack transport for webhook-only config")
	}

	both := email
	both.SlackWebhook = slack.SlackWebhook
	if _, ok := FromConfig(both).(*Multi); !ok {
		t.Fatal("expected multi transport when both are configured")
	}
}

// A partial SMTP config (validation satisfied by the webhook) must not build
// a half-configured email transport.
func TestFromConfig_PartialEmailExcluded(t *testing.T) {
	cfg := config.NotifierConfig{
		SMTPUser:     "monitor@example.com", // TO_ADDRESS missing
		SlackWebhook: "https://hooks.slack.com/services/T/B/x",
	}
	if _, ok := FromConfig(cfg).(*Slack); !ok {
		t.Fatal("expected slack-only transport when email config is partial")
	}
}

func TestMulti_AllSucceed(t *testing.T) {
	a := &stubNotifier{name: "a"}
	b := &stubNotifier{name: "b"}

	m := NewMulti(a, b)
	if err := m.Send(context.Background(), "subject", "body"); err != nil {
		t.Fatalf("send failed: %v", err)
	}
}
