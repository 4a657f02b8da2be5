package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/adedoyinyusuf/CSIMS-sub005/outbox"
)

// PasswordResetHandler mails the reset link queued by auth.
func PasswordResetHandler(sender Sender, baseURL string) outbox.Handler {
	return outbox.HandlerFunc(func(ctx context.Context, msg outbox.Message) error {
		var payload struct {
			Email    string `json:"email"`
			FullName string `json:"full_name"`
			Token    string `json:"token"`
		}
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("mail: decode password reset payload: %w", err)
		}
		link := pageLink(baseURL, "/reset-password", payload.Token)
		body := fmt.Sprintf("Hello %s,\n\nUse the link below to choose a new password:\n\n%s\n\nIf you did not ask for this, ignore this email.\n",
			greetingName(payload.FullName), link)
		return sender.Send(ctx, Message{To: payload.Email, Subject: "Reset your password", Body: body})
	})
}

// GuarantorInviteHandler mails the sign-off link to a guarantor. Requests without
// an email address, or issued over SMS, are left to the SMS gateway.
func GuarantorInviteHandler(sender Sender, baseURL string) outbox.Handler {
	return outbox.HandlerFunc(func(ctx context.Context, msg outbox.Message) error {
		var payload struct {
			Token          string `json:"token"`
			Channel        string `json:"channel"`
			GuarantorName  string `json:"guarantor_name"`
			GuarantorEmail string `json:"guarantor_email"`
		}
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("mail: decode guarantor payload: %w", err)
		}
		if payload.Channel != "email" || payload.GuarantorEmail == "" {
			return nil
		}
		link := pageLink(baseURL, "/guarantor", payload.Token)
		body := fmt.Sprintf("Hello %s,\n\nA member has named you as guarantor for a loan. Review and confirm here:\n\n%s\n\nKeep this link private; anyone holding it can sign.\n",
			greetingName(payload.GuarantorName), link)
		return sender.Send(ctx, Message{To: payload.GuarantorEmail, Subject: "Guarantor confirmation request", Body: body})
	})
}

func pageLink(baseURL, path, token string) string {
	return strings.TrimRight(baseURL, "/") + path + "?" + url.Values{"token": {token}}.Encode()
}

func greetingName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "there"
	}
	return name
}
