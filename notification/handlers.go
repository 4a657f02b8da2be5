package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/adedoyinyusuf/CSIMS-sub005/outbox"
)

// GuarantorSignedHandler tells the loan owner that their guarantor confirmed.
// A nil logger falls back to log.Default.
func GuarantorSignedHandler(store Store, logger *log.Logger) outbox.Handler {
	if logger == nil {
		logger = log.Default()
	}
	return outbox.HandlerFunc(func(ctx context.Context, msg outbox.Message) error {
		var payload struct {
			LoanID        string `json:"loan_id"`
			GuarantorName string `json:"guarantor_name"`
		}
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("notification: decode signed payload: %w", err)
		}
		who := payload.GuarantorName
		if who == "" {
			who = "Your guarantor"
		}
		_, err := store.CreateForLoanOwner(ctx, payload.LoanID,
			"Guarantor confirmed",
			who+" has signed off on your loan.",
			"loan")
		if errors.Is(err, ErrNotFound) {
			logger.Printf("notification: loan %s vanished before guarantor notice", payload.LoanID)
			return nil
		}
		return err
	})
}
