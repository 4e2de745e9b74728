package notify

import (
	"context"
	"errors"

	"github.com/markjakearzadon/donation-gobackend/internal/models"
	"github.com/markjakearzadon/donation-gobackend/internal/services"
)

// Multi fans an event out to every configured channel.
type Multi []services.Notifier

func (m Multi) DonationConfirmed(ctx context.Context, s *services.Settlement) error {
	var errs []error
	for _, n := range m {
		if err := n.DonationConfirmed(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) SubmissionReceived(ctx context.Context, sub *models.BankTransferSubmission) error {
	var errs []error
	for _, n := range m {
		if err := n.SubmissionReceived(ctx, sub); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
