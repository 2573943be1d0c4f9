// services/whatsapp.go
package services

import (
	"errors"
	"fmt"

	"memberhub-backend/config"
	"memberhub-backend/models"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Send failure kinds the reminder pipeline tells apart.
var (
	ErrRecipientNotOptedIn = errors.New("phone number has not joined the WhatsApp sender")
	ErrInvalidNumber       = errors.New("invalid phone number format, include the country code")
)

// Messenger delivers one outbound message to one recipient.
type Messenger interface {
	Send(to, body string) error
}

// TwilioMessenger sends over the Twilio WhatsApp channel.
type TwilioMessenger struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioMessenger(settings config.Settings) *TwilioMessenger {
	return &TwilioMessenger{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: settings.TwilioAccountSID,
			Password: settings.TwilioAuthToken,
		}),
		from: settings.TwilioWhatsAppFrom,
	}
}

// Twilio error codes observed on WhatsApp sends
const (
	twilioCodeNotOptedIn    = 21614
	twilioCodeInvalidNumber = 20003
	twilioCodeInvalidTo     = 21211
)

// mapTwilioError folds provider error codes into the pipeline's kinds.
func mapTwilioError(err error) error {
	var restErr *twilioclient.TwilioRestError
	if errors.As(err, &restErr) {
		switch restErr.Code {
		case twilioCodeNotOptedIn:
			return ErrRecipientNotOptedIn
		case twilioCodeInvalidNumber, twilioCodeInvalidTo:
			return ErrInvalidNumber
		}
	}
	return fmt.Errorf("twilio send failed: %w", err)
}

func (m *TwilioMessenger) Send(to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(m.from)
	params.SetTo("whatsapp:" + to)
	params.SetBody(body)

	resp, err := m.client.Api.CreateMessage(params)
	if err != nil {
		return mapTwilioError(err)
	}

	if resp.Sid == nil {
		return errors.New("twilio send returned no message SID")
	}
	return nil
}

// ErrorKind buckets a send error for reporting and log rows.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRecipientNotOptedIn):
		return "recipient-not-opted-in"
	case errors.Is(err, ErrInvalidNumber):
		return "invalid-number-format"
	default:
		return "other"
	}
}

// ReminderMessage renders the fixed renewal reminder for a member. The
// expiry date is formatted day/month/year, zero-padded.
func ReminderMessage(member *models.Member) string {
	endDate := member.SubscriptionEndDate.Format("02/01/2006")
	return fmt.Sprintf("Hi %s,\n\nThis is a reminder that your subscription will expire on %s.\n\nPlease renew to continue enjoying our services.\n\nThank you!",
		member.FullName, endDate)
}
