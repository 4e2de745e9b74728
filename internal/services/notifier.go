package services

import (
	"context"
	"log"
	"time"

	"github.com/markjakearzadon/donation-gobackend/internal/models"
)

// Notifier delivers receipts and reviewer alerts. Delivery is best effort:
// failures are logged and never affect the donation outcome.
type Notifier interface {
	DonationConfirmed(ctx context.Context, s *Settlement) error
	SubmissionReceived(ctx context.Context, sub *models.BankTransferSubmission) error
}

type nopNotifier struct{}

func (nopNotifier) DonationConfirmed(context.Context, *Settlement) error { return nil }
func (nopNotifier) SubmissionReceived(context.Context, *models.BankTransferSubmission) error {
	return nil
}

const notifyTimeout = 15 * time.Second

// fireAndForget runs fn detached from the request so a slow mail server
// never holds up the response.
func fireAndForget(ctx context.Context, what string, fn func(ctx context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Printf("Notification %s failed: %v", what, err)
		}
	}()
}
