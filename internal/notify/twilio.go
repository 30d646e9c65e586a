package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const whatsappPrefix = "whatsapp:"

type twilioMessage struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

type twilioError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

// TwilioGateway posts WhatsApp messages to the Twilio Messages API.
type TwilioGateway struct {
	http       *resty.Client
	accountSID string
	from       string
}

// NewTwilioGateway builds a client with basic auth and no retries; a failed
// notification is never resent.
func NewTwilioGateway(baseURL, accountSID, authToken, from string, timeout time.Duration) *TwilioGateway {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetBasicAuth(accountSID, authToken).
		SetHeader("Accept", "application/json")

	return &TwilioGateway{
		http:       client,
		accountSID: accountSID,
		from:       whatsappAddress(from),
	}
}

func (g *TwilioGateway) Send(ctx context.Context, msg Message) (string, error) {
	form := map[string]string{
		"From": g.from,
		"To":   whatsappAddress(msg.To),
		"Body": msg.Body,
	}
	if msg.MediaURL != "" {
		form["MediaUrl"] = msg.MediaURL
	}

	var (
		out    twilioMessage
		apiErr twilioError
	)
	resp, err := g.http.R().
		SetContext(ctx).
		SetPathParam("account", g.accountSID).
		SetFormData(form).
		SetResult(&out).
		SetError(&apiErr).
		Post("/2010-04-01/Accounts/{account}/Messages.json")
	if err != nil {
		return "", fmt.Errorf("call twilio: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("twilio rejected message: status %d: %s (code %d)",
			resp.StatusCode(), apiErr.Message, apiErr.Code)
	}
	if out.SID == "" {
		return "", fmt.Errorf("twilio response missing message sid")
	}
	return out.SID, nil
}

func whatsappAddress(phone string) string {
	if strings.HasPrefix(phone, whatsappPrefix) {
		return phone
	}
	return whatsappPrefix + phone
}
