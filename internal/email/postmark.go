package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"
)

const postmarkURL = "https://api.postmarkapp.com/email"

// requestTimeout bounds one Postmark call when no client is supplied.
const requestTimeout = 10 * time.Second

type Client struct {
	serverToken string
	fromEmail   string
	baseURL     string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func NewClient(serverToken, fromEmail, baseURL string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c != nil && c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
	Tag      string `json:"Tag,omitempty"`
}

// RedemptionDecision is the content of an approve/reject email.
type RedemptionDecision struct {
	Name         string
	RedemptionID int64
	RewardTitle  string
	PointsCost   int
	Approved     bool
	Reason       string
}

// SendRedemptionDecision tells a user their redemption was approved or rejected.
func (c *Client) SendRedemptionDecision(ctx context.Context, toEmail string, d RedemptionDecision) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	greeting := "Hi"
	if d.Name != "" {
		greeting = "Hi " + d.Name
	}
	link := fmt.Sprintf("%s/redemptions/%d", c.baseURL, d.RedemptionID)

	var subject, text string
	if d.Approved {
		subject = fmt.Sprintf("Your %s redemption was approved", d.RewardTitle)
		text = fmt.Sprintf("%s,\n\nYour redemption of %s for %d points was approved.\n\nDetails: %s",
			greeting, d.RewardTitle, d.PointsCost, link)
	} else {
		subject = fmt.Sprintf("Your %s redemption was rejected", d.RewardTitle)
		text = fmt.Sprintf("%s,\n\nYour redemption of %s was rejected. No points were deducted.\n\nReason: %s\n\nDetails: %s",
			greeting, d.RewardTitle, d.Reason, link)
	}

	htmlBody := "<p>" + strings.ReplaceAll(html.EscapeString(text), "\n\n", "</p><p>") + "</p>"

	return c.send(ctx, postmarkEmail{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: text,
		Tag:      "redemption-decision",
	})
}

func (c *Client) send(ctx context.Context, payload postmarkEmail) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, postmarkURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	return nil
}
