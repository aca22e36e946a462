// Twilio REST API implementation of [Messenger]
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/songshare/internal/shared"
)

const twilioBaseURL = "https://api.twilio.com/2010-04-01"

// TwilioMessage is the subset of a Message resource returned on create.
type TwilioMessage struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
	To     string `json:"to"`
	From   string `json:"from"`
}

type twilioErrorEnvelope struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
}

func twilioErrorMessage(body []byte) string {
	var envelope twilioErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Message == "" {
		return ""
	}
	if envelope.Code != 0 {
		return fmt.Sprintf("%s (code %d)", envelope.Message, envelope.Code)
	}
	return envelope.Message
}

// TwilioService implements [Messenger] for the Twilio Messages API.
type TwilioService struct {
	baseURL    string
	accountSID string
	authToken  string
	from       string
	httpClient *http.Client
}

// NewTwilioService creates a new Twilio service.
//
// Recognized keys are "account_sid", "auth_token", "from" (all required) and "api_url".
// The sending number is cleaned with [shared.CleanPhoneNumber]. A nil client uses [http.DefaultClient].
func NewTwilioService(credentials map[string]string, client *http.Client) (*TwilioService, error) {
	accountSID, err := requireCredential(credentials, "account_sid")
	if err != nil {
		return nil, err
	}

	authToken, err := requireCredential(credentials, "auth_token")
	if err != nil {
		return nil, err
	}

	from := shared.CleanPhoneNumber(credentials["from"])
	if from == "" {
		return nil, fmt.Errorf("%w: missing from in credentials", shared.ErrMissingCredentials)
	}

	if client == nil {
		client = http.DefaultClient
	}

	return &TwilioService{
		baseURL:    strings.TrimRight(credentialOr(credentials, "api_url", twilioBaseURL), "/"),
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		httpClient: client,
	}, nil
}

// Name returns the service name.
func (t *TwilioService) Name() string {
	return "Twilio"
}

// From returns the configured sending number.
func (t *TwilioService) From() string {
	return t.from
}

// Send creates an outbound message from the configured number to to.
//
// It returns the message SID. Every failure wraps [shared.ErrDeliveryFailed].
func (t *TwilioService) Send(ctx context.Context, to, body string) (string, error) {
	to = shared.CleanPhoneNumber(to)
	if to == "" {
		return "", fmt.Errorf("%w: empty recipient", shared.ErrDeliveryFailed)
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", t.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", t.baseURL, url.PathEscape(t.accountSID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %v", shared.ErrDeliveryFailed, err)
	}

	req.SetBasicAuth(t.accountSID, t.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: request failed: %v", shared.ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()

	if err := checkResponse("twilio", resp, twilioErrorMessage); err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrDeliveryFailed, err)
	}

	var message TwilioMessage
	if err := decodeResponse(resp, &message); err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrDeliveryFailed, err)
	}

	return message.SID, nil
}
