package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/markjakearzadon/donation-gobackend/internal/models"
)

// Settlement is everything a confirmation event produced.
type Settlement struct {
	Donation    *models.Donation
	Donor       *models.User
	Certificate *models.Certificate
	Invoice     *models.Invoice
	Accrued     bool
}

// Settler runs the post-confirmation steps: accrue, issue, mark settled.
// Each step is idempotent, so a donation left confirmed but unsettled by a
// crash can be settled again by the reconciler.
type Settler struct {
	donations DonationRepository
	users     UserRepository
	accrual   *AccrualEngine
	issuer    *Issuer
	now       func() time.Time
}

func NewSettler(store Store) *Settler {
	return &Settler{
		donations: store.Donations,
		users:     store.Users,
		accrual:   NewAccrualEngine(store.Users, store.Accruals),
		issuer:    NewIssuer(store.Documents),
		now:       time.Now,
	}
}

// Settle accrues and issues documents for a confirmed donation, then marks
// it settled. Each step is safe to repeat.
func (s *Settler) Settle(ctx context.Context, d *models.Donation) (*Settlement, error) {
	if d.Status != models.DonationConfirmed {
		return nil, fmt.Errorf("donation %s is %s, not confirmed", d.ID.Hex(), d.Status)
	}

	accrued, err := s.accrual.Apply(ctx, d)
	if err != nil {
		return nil, err
	}
	cert, inv, err := s.issuer.Issue(ctx, d)
	if err != nil {
		return nil, err
	}
	if !d.Settled {
		if err := s.donations.MarkSettled(ctx, d.ID, s.now()); err != nil {
			log.Printf("Failed to mark donation %s settled: %v", d.ID.Hex(), err)
			return nil, fmt.Errorf("failed to mark donation settled: %w", err)
		}
		d.Settled = true
	}

	result := &Settlement{Donation: d, Certificate: cert, Invoice: inv, Accrued: accrued}
	if d.UserID != nil {
		if u, err := s.users.GetByID(ctx, *d.UserID); err == nil {
			result.Donor = u
		} else {
			log.Printf("Donor %s of donation %s not loaded: %v", d.UserID.Hex(), d.ID.Hex(), err)
		}
	}
	log.Printf("Donation settled: ref=%s id=%s accrued=%t", d.GeideaRef, d.ID.Hex(), accrued)
	return result, nil
}
