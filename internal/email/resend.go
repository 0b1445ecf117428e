package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
)

var errResendUnconfigured = errors.New("resend client not initialized")

// sendViaResend posts msg to the Resend API, tagged with its kind so alert and
// test mail can be told apart in the Resend dashboard. A 429 is returned to
// the caller; the next alert run retries the preference.
func (s *Service) sendViaResend(ctx context.Context, kind string, msg message) error {
	if s.resendClient == nil {
		return errResendUnconfigured
	}

	req := &resend.SendEmailRequest{
		From:    s.fromHeader(),
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
		Tags:    []resend.Tag{{Name: "kind", Value: kind}},
	}

	resp, err := s.resendClient.Emails.SendWithContext(ctx, req)
	var limited *resend.RateLimitError
	switch {
	case errors.As(err, &limited):
		s.logger.Warn().
			Str("kind", kind).
			Str("remaining", limited.Remaining).
			Str("reset", limited.Reset).
			Msg("resend rate limited")
		return fmt.Errorf("resend rate limit reached, resets in %ss: %w", limited.Reset, err)
	case err != nil:
		return fmt.Errorf("resend: %w", err)
	}

	s.logger.Debug().Str("resend_id", resp.Id).Str("kind", kind).Msg("email accepted by resend")
	return nil
}
