package email

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSendRedemptionApproved(t *testing.T) {
	var received postmarkEmail
	var gotToken string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"MessageID": "test-id"}`))
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@example.com", "https://greenpoints.test/",
		WithHTTPClient(&http.Client{Transport: &rewriteTransport{base: http.DefaultTransport, target: server.URL}}))

	err := client.SendRedemptionDecision(context.Background(), "alice@example.com", RedemptionDecision{
		Name:         "Alice",
		RedemptionID: 7,
		RewardTitle:  "Coffee Voucher",
		PointsCost:   50,
		Approved:     true,
	})
	if err != nil {
		t.Fatalf("send decision: %v", err)
	}

	if gotToken != "test-token" {
		t.Errorf("server token = %q, want %q", gotToken, "test-token")
	}
	if received.To != "alice@example.com" {
		t.Errorf("To = %q, want %q", received.To, "alice@example.com")
	}
	if received.Subject != "Your Coffee Voucher redemption was approved" {
		t.Errorf("Subject = %q", received.Subject)
	}
	if !strings.Contains(received.TextBody, "https://greenpoints.test/redemptions/7") {
		t.Errorf("TextBody missing link: %q", received.TextBody)
	}
	if received.Tag != "redemption-decision" {
		t.Errorf("Tag = %q", received.Tag)
	}
}

func TestSendRedemptionRejectedEscapesHTML(t *testing.T) {
	var received postmarkEmail

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@example.com", "https://greenpoints.test")
	client.httpClient = &http.Client{Transport: &rewriteTransport{base: http.DefaultTransport, target: server.URL}}

	err := client.SendRedemptionDecision(context.Background(), "bob@example.com", RedemptionDecision{
		RedemptionID: 3,
		RewardTitle:  "Tote",
		Reason:       "<b>stock</b> ran out",
	})
	if err != nil {
		t.Fatalf("send decision: %v", err)
	}

	if received.Subject != "Your Tote redemption was rejected" {
		t.Errorf("Subject = %q", received.Subject)
	}
	if !strings.Contains(received.TextBody, "Reason: <b>stock</b> ran out") {
		t.Errorf("TextBody = %q", received.TextBody)
	}
	if strings.Contains(received.HtmlBody, "<b>") {
		t.Errorf("HtmlBody not escaped: %q", received.HtmlBody)
	}
}

func TestSendRedemptionNotConfigured(t *testing.T) {
	client := NewClient("", "noreply@example.com", "https://greenpoints.test")

	if err := client.SendRedemptionDecision(context.Background(), "alice@example.com", RedemptionDecision{}); err == nil {
		t.Fatal("expected error for unconfigured client")
	}
}

func TestSendRedemptionAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@example.com", "https://greenpoints.test")
	client.httpClient = &http.Client{Transport: &rewriteTransport{base: http.DefaultTransport, target: server.URL}}

	if err := client.SendRedemptionDecision(context.Background(), "alice@example.com", RedemptionDecision{Approved: true}); err == nil {
		t.Fatal("expected error for API failure")
	}
}

func TestSendRedemptionHonoursContext(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	defer close(release)

	client := NewClient("test-token", "noreply@example.com", "https://greenpoints.test")
	client.httpClient = &http.Client{Transport: &rewriteTransport{base: http.DefaultTransport, target: server.URL}}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := client.SendRedemptionDecision(ctx, "alice@example.com", RedemptionDecision{Approved: true})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("send blocked for %v after the deadline", elapsed)
	}
}

func TestDefaultClientHasTimeout(t *testing.T) {
	client := NewClient("token", "from@test.com", "https://test.com")
	if client.httpClient == http.DefaultClient || client.httpClient.Timeout != requestTimeout {
		t.Errorf("http client timeout = %v, want %v", client.httpClient.Timeout, requestTimeout)
	}
}

func TestConfigured(t *testing.T) {
	if !NewClient("token", "from@test.com", "https://test.com").Configured() {
		t.Error("expected Configured() = true")
	}
	if NewClient("", "from@test.com", "https://test.com").Configured() {
		t.Error("expected Configured() = false")
	}
}

// rewriteTransport redirects all requests to a test server URL.
type rewriteTransport struct {
	base   http.RoundTripper
	target string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = "http"
	req.URL.Host = t.target[len("http://"):]
	return t.base.RoundTrip(req)
}
