package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/markjakearzadon/donation-gobackend/internal/models"
)

// AccrualEngine credits confirmed donations to their owners. Every credit
// is an entry in the accrual log keyed by donation id; the totals on the
// user document are a cache recomputed from that log.
type AccrualEngine struct {
	users    UserRepository
	accruals AccrualRepository
	now      func() time.Time
}

func NewAccrualEngine(users UserRepository, accruals AccrualRepository) *AccrualEngine {
	return &AccrualEngine{users: users, accruals: accruals, now: time.Now}
}

// Apply credits d to its owner. It reports whether a new log entry was
// written; applying the same donation again is a no-op. Guest donations
// never accrue.
func (e *AccrualEngine) Apply(ctx context.Context, d *models.Donation) (bool, error) {
	if d.UserID == nil {
		return false, nil
	}
	if d.Status != models.DonationConfirmed {
		return false, fmt.Errorf("cannot accrue donation %s with status %s", d.ID.Hex(), d.Status)
	}

	entry := &models.AccrualEntry{
		ID:         primitive.NewObjectID(),
		DonationID: d.ID,
		UserID:     *d.UserID,
		Amount:     d.Amount,
		Points:     d.Amount.Points(),
		CreatedAt:  e.now(),
	}
	applied := true
	if err := e.accruals.Insert(ctx, entry); err != nil {
		if !errors.Is(err, ErrDuplicate) {
			log.Printf("Failed to record accrual for donation %s: %v", d.ID.Hex(), err)
			return false, fmt.Errorf("failed to record accrual: %w", err)
		}
		applied = false
		log.Printf("Accrual already recorded for donation %s", d.ID.Hex())
	}

	if err := e.Refresh(ctx, *d.UserID); err != nil {
		return applied, err
	}
	return applied, nil
}

// Refresh recomputes the user's cached totals from the accrual log.
func (e *AccrualEngine) Refresh(ctx context.Context, userID primitive.ObjectID) error {
	totals, err := e.accruals.Totals(ctx, userID)
	if err != nil {
		log.Printf("Failed to sum accruals for user %s: %v", userID.Hex(), err)
		return fmt.Errorf("failed to sum accruals: %w", err)
	}
	if err := e.users.SetTotals(ctx, userID, totals); err != nil {
		if errors.Is(err, ErrStaleState) {
			// A concurrent refresh already wrote these (or newer) totals.
			return nil
		}
		log.Printf("Failed to update totals for user %s: %v", userID.Hex(), err)
		return fmt.Errorf("failed to update totals: %w", err)
	}
	log.Printf("User totals refreshed: user=%s total=%s points=%d", userID.Hex(), totals.Total.String(), totals.Points)
	return nil
}
