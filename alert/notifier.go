package alert

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/client"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Notifier delivers a message to a person.
type Notifier interface {
	Notify(ctx context.Context, msg string) error
}

// LogNotifier only logs messages. It is used when no SMS gateway is
// configured.
type LogNotifier struct {
	Log zerolog.Logger
}

func (n LogNotifier) Notify(_ context.Context, msg string) error {
	n.Log.Warn().Str("message", msg).Msg("alert")
	return nil
}

// TwilioNotifier sends messages as SMS through the Twilio REST API.
//
// BaseURL replaces the scheme and host of every API call; it is meant for
// test servers and regional gateways.
type TwilioNotifier struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	From       string
	To         string
	Timeout    time.Duration
}

// NewTwilioNotifier returns a notifier using the public Twilio endpoint.
func NewTwilioNotifier(sid, token, from, to string) *TwilioNotifier {
	return &TwilioNotifier{
		BaseURL:    defaultTwilioURL,
		AccountSID: sid,
		AuthToken:  token,
		From:       from,
		To:         to,
		Timeout:    10 * time.Second,
	}
}

const defaultTwilioURL = "https://api.twilio.com"

// Notify creates one message resource.
func (n *TwilioNotifier) Notify(ctx context.Context, msg string) error {
	rt := &twilioTransport{ctx: ctx, next: http.DefaultTransport}
	if n.BaseURL != "" && n.BaseURL != defaultTwilioURL {
		u, err := url.Parse(n.BaseURL)
		if err != nil {
			return errors.Wrap(err, "sms: base url")
		}
		rt.base = u
	}
	c := &client.Client{
		Credentials: client.NewCredentials(n.AccountSID, n.AuthToken),
		HTTPClient:  &http.Client{Timeout: n.Timeout, Transport: rt},
	}
	c.SetAccountSid(n.AccountSID)
	rest := twilio.NewRestClientWithParams(twilio.ClientParams{Client: c})

	params := &twilioapi.CreateMessageParams{}
	params.SetPathAccountSid(n.AccountSID)
	params.SetTo(n.To)
	params.SetFrom(n.From)
	params.SetBody(msg)
	if _, err := rest.Api.CreateMessage(params); err != nil {
		return errors.Wrap(err, "sms")
	}
	return nil
}

// twilioTransport binds the SDK's requests to the caller's context and
// optionally redirects them to base.
type twilioTransport struct {
	ctx  context.Context
	base *url.URL
	next http.RoundTripper
}

func (t *twilioTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(t.ctx)
	if t.base != nil {
		req.URL.Scheme = t.base.Scheme
		req.URL.Host = t.base.Host
		req.Host = t.base.Host
	}
	return t.next.RoundTrip(req)
}
