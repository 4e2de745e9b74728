package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// DefaultReconcileGrace keeps the reconciler away from confirmations that
// are still in flight.
const DefaultReconcileGrace = time.Minute

type ReconcileReport struct {
	SubmissionsRepaired int      `json:"submissions_repaired"`
	DonationsScanned    int      `json:"donations_scanned"`
	DonationsSettled    int      `json:"donations_settled"`
	Failures            []string `json:"failures,omitempty"`
}

// Reconciler finishes confirmation events that stopped part way: approved
// submissions with no ledger entry, and confirmed donations whose accrual
// or documents were never completed.
type Reconciler struct {
	store   Store
	review  *ReviewService
	settler *Settler
	Grace   time.Duration
	now     func() time.Time
}

func NewReconciler(store Store, review *ReviewService, settler *Settler) *Reconciler {
	return &Reconciler{store: store, review: review, settler: settler, Grace: DefaultReconcileGrace, now: time.Now}
}

// Run repairs everything older than the grace period and reports what it did.
func (r *Reconciler) Run(ctx context.Context) (*ReconcileReport, error) {
	cutoff := r.now().Add(-r.Grace)
	report := &ReconcileReport{}

	subs, err := r.store.Submissions.ListApprovedBefore(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved submissions: %w", err)
	}
	for i := range subs {
		sub := &subs[i]
		_, err := r.store.Donations.GetBySubmission(ctx, sub.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			report.Failures = append(report.Failures, fmt.Sprintf("submission %s: %v", sub.ID.Hex(), err))
			continue
		}
		d, err := r.review.ledgerEntry(ctx, sub)
		if err != nil {
			report.Failures = append(report.Failures, fmt.Sprintf("submission %s: %v", sub.ID.Hex(), err))
			continue
		}
		report.SubmissionsRepaired++
		log.Printf("Reconciled approved submission without ledger entry: %s", sub.ID.Hex())
		if _, err := r.settler.Settle(ctx, d); err != nil {
			report.Failures = append(report.Failures, fmt.Sprintf("donation %s: %v", d.GeideaRef, err))
			continue
		}
		report.DonationsSettled++
	}

	donations, err := r.store.Donations.ListUnsettled(ctx, cutoff)
	if err != nil {
		return report, fmt.Errorf("failed to list unsettled donations: %w", err)
	}
	for i := range donations {
		d := &donations[i]
		report.DonationsScanned++
		if _, err := r.settler.Settle(ctx, d); err != nil {
			report.Failures = append(report.Failures, fmt.Sprintf("donation %s: %v", d.GeideaRef, err))
			continue
		}
		report.DonationsSettled++
		log.Printf("Reconciled unsettled donation: %s", d.GeideaRef)
	}

	log.Printf("Reconcile finished: submissions=%d scanned=%d settled=%d failures=%d",
		report.SubmissionsRepaired, report.DonationsScanned, report.DonationsSettled, len(report.Failures))
	return report, nil
}
