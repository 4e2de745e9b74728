package services_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/markjakearzadon/donation-gobackend/internal/memstore"
	"github.com/markjakearzadon/donation-gobackend/internal/models"
	"github.com/markjakearzadon/donation-gobackend/internal/services"
)

var mobiles atomic.Int64

type recorder struct {
	mu        sync.Mutex
	confirmed []*services.Settlement
	received  []*models.BankTransferSubmission
	signal    chan struct{}
}

func newRecorder() *recorder { return &recorder{signal: make(chan struct{}, 16)} }

func (r *recorder) DonationConfirmed(_ context.Context, s *services.Settlement) error {
	r.mu.Lock()
	r.confirmed = append(r.confirmed, s)
	r.mu.Unlock()
	r.notify()
	return nil
}

func (r *recorder) SubmissionReceived(_ context.Context, sub *models.BankTransferSubmission) error {
	r.mu.Lock()
	r.received = append(r.received, sub)
	r.mu.Unlock()
	r.notify()
	return nil
}

func (r *recorder) notify() {
	select {
	case r.signal <- struct{}{}:
	default:
	}
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.signal:
	case <-time.After(2 * time.Second):
		t.Fatal("notification not delivered")
	}
}

type harness struct {
	store      services.Store
	settler    *services.Settler
	ledger     *services.LedgerService
	review     *services.ReviewService
	reconciler *services.Reconciler
	notes      *recorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithStore(t, memstore.New().Store())
}

func newHarnessWithStore(t *testing.T, store services.Store) *harness {
	t.Helper()
	notes := newRecorder()
	settler := services.NewSettler(store)
	review := services.NewReviewService(store, settler, notes)
	return &harness{
		store:      store,
		settler:    settler,
		ledger:     services.NewLedgerService(store, settler, services.SimulatedGateway{CallbackURL: "http://localhost/api/donations/callback"}, notes),
		review:     review,
		reconciler: services.NewReconciler(store, review, settler),
		notes:      notes,
	}
}

func (h *harness) newUser(t *testing.T) *models.User {
	t.Helper()
	u := &models.User{
		ID:        primitive.NewObjectID(),
		FullName:  "Sara Ali",
		Mobile:    fmt.Sprintf("+96650%07d", mobiles.Add(1)),
		Role:      models.RoleUser,
		CreatedAt: time.Now(),
	}
	if err := h.store.Users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (h *harness) user(t *testing.T, id primitive.ObjectID) *models.User {
	t.Helper()
	u, err := h.store.Users.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	return u
}

func (h *harness) assertTotals(t *testing.T, id primitive.ObjectID, total string, points int64) {
	t.Helper()
	u := h.user(t, id)
	if !u.TotalDonations.Equal(decimal.RequireFromString(total)) || u.Points != points {
		t.Errorf("totals = %s/%d, want %s/%d", u.TotalDonations.String(), u.Points, total, points)
	}
}

// assertDocuments checks the donation has exactly one certificate and one
// invoice.
func (h *harness) assertDocuments(t *testing.T, d *models.Donation) {
	t.Helper()
	ctx := context.Background()
	if _, err := h.store.Documents.CertificateByDonation(ctx, d.ID); err != nil {
		t.Errorf("certificate for %s: %v", d.GeideaRef, err)
	}
	if _, err := h.store.Documents.InvoiceByDonation(ctx, d.ID); err != nil {
		t.Errorf("invoice for %s: %v", d.GeideaRef, err)
	}
	if d.UserID == nil {
		return
	}
	certs, _ := h.store.Documents.CertificatesByUser(ctx, *d.UserID)
	invoices, _ := h.store.Documents.InvoicesByUser(ctx, *d.UserID)
	var nc, ni int
	for _, c := range certs {
		if c.DonationID == d.ID {
			nc++
		}
	}
	for _, i := range invoices {
		if i.DonationID == d.ID {
			ni++
		}
	}
	if nc != 1 || ni != 1 {
		t.Errorf("donation %s has %d certificates and %d invoices, want 1 and 1", d.GeideaRef, nc, ni)
	}
}

var onlineOnly = []models.PaymentMethod{models.PaymentOnline}

func online(amount string, userID *primitive.ObjectID) services.DonationIntent {
	return services.DonationIntent{
		Amount:        amount,
		Type:          "general",
		PaymentMethod: models.PaymentOnline,
		UserID:        userID,
	}
}
