package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type messageCreator interface {
	CreateMessage(params *twilioapi.CreateMessageParams) (*twilioapi.ApiV2010Message, error)
}

// TwilioSender sends SMS messages through the Twilio REST API.
type TwilioSender struct {
	api  messageCreator
	from string
}

func NewTwilioSender(accountSID, authToken, from string) (*TwilioSender, error) {
	accountSID = strings.TrimSpace(accountSID)
	authToken = strings.TrimSpace(authToken)
	from = strings.TrimSpace(from)

	if accountSID == "" || authToken == "" {
		return nil, errors.New("twilio account sid and auth token are required")
	}
	if from == "" {
		return nil, errors.New("twilio sender phone number is required")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioSender{api: client.Api, from: from}, nil
}

// Send delivers body to the given number and returns the message sid.
func (s *TwilioSender) Send(ctx context.Context, to, body string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	msg, err := s.api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("create twilio message: %w", err)
	}

	if msg == nil || msg.Sid == nil {
		return "", nil
	}
	return *msg.Sid, nil
}
