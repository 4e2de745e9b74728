// Package memstore keeps every collection in process memory behind one
// lock. It enforces the same unique keys and conditional updates as the
// MongoDB repositories and is used for tests and STORAGE=memory.
package memstore

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/markjakearzadon/donation-gobackend/internal/models"
	"github.com/markjakearzadon/donation-gobackend/internal/services"
)

type DB struct {
	mu           sync.RWMutex
	users        map[primitive.ObjectID]models.User
	donations    map[primitive.ObjectID]models.Donation
	submissions  map[primitive.ObjectID]models.BankTransferSubmission
	certificates map[primitive.ObjectID]models.Certificate
	invoices     map[primitive.ObjectID]models.Invoice
	accruals     map[primitive.ObjectID]models.AccrualEntry
}

func New() *DB {
	return &DB{
		users:        make(map[primitive.ObjectID]models.User),
		donations:    make(map[primitive.ObjectID]models.Donation),
		submissions:  make(map[primitive.ObjectID]models.BankTransferSubmission),
		certificates: make(map[primitive.ObjectID]models.Certificate),
		invoices:     make(map[primitive.ObjectID]models.Invoice),
		accruals:     make(map[primitive.ObjectID]models.AccrualEntry),
	}
}

// Store wires every repository to db.
func (db *DB) Store() services.Store {
	return services.Store{
		Users:       Users{db},
		Donations:   Donations{db},
		Submissions: Submissions{db},
		Documents:   Documents{db},
		Accruals:    Accruals{db},
		Tx:          db,
	}
}

// WithTransaction runs fn directly: like MongoDB without a replica set,
// each repository call is atomic on its own.
func (db *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (db *DB) withWrite(ctx context.Context, fn func() error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn()
}

func (db *DB) withRead(ctx context.Context, fn func() error) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn()
}

// newestFirst orders by creation time, then by id for equal timestamps.
func newestFirst(aAt, bAt time.Time, aID, bID primitive.ObjectID) bool {
	if !aAt.Equal(bAt) {
		return aAt.After(bAt)
	}
	return bytes.Compare(aID[:], bID[:]) > 0
}

func sameID(a *primitive.ObjectID, b primitive.ObjectID) bool {
	return a != nil && *a == b
}

type Users struct{ db *DB }

func (r Users) Create(ctx context.Context, u *models.User) error {
	return r.db.withWrite(ctx, func() error {
		if _, ok := r.db.users[u.ID]; ok {
			return services.ErrDuplicate
		}
		for _, existing := range r.db.users {
			if existing.Mobile == u.Mobile {
				return services.ErrDuplicate
			}
		}
		r.db.users[u.ID] = *u
		return nil
	})
}

func (r Users) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var out models.User
	err := r.db.withRead(ctx, func() error {
		u, ok := r.db.users[id]
		if !ok {
			return services.ErrNotFound
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r Users) GetByMobile(ctx context.Context, mobile string) (*models.User, error) {
	var out *models.User
	err := r.db.withRead(ctx, func() error {
		for _, u := range r.db.users {
			if u.Mobile == mobile {
				u := u
				out = &u
				return nil
			}
		}
		return services.ErrNotFound
	})
	return out, err
}

func (r Users) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd models.ProfileUpdate) (*models.User, error) {
	var out models.User
	err := r.db.withWrite(ctx, func() error {
		u, ok := r.db.users[id]
		if !ok {
			return services.ErrNotFound
		}
		if upd.FullName != nil {
			u.FullName = *upd.FullName
		}
		if upd.Email != nil {
			u.Email = *upd.Email
		}
		if upd.IsPublicDonor != nil {
			u.IsPublicDonor = *upd.IsPublicDonor
		}
		if upd.BankName != nil || upd.IBAN != nil {
			bank := models.BankProfile{}
			if u.Bank != nil {
				bank = *u.Bank
			}
			if upd.BankName != nil {
				bank.BankName = *upd.BankName
			}
			if upd.IBAN != nil {
				bank.IBAN = *upd.IBAN
			}
			u.Bank = &bank
		}
		u.UpdatedAt = time.Now()
		r.db.users[id] = u
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r Users) SetTotals(ctx context.Context, id primitive.ObjectID, totals models.AccrualTotals) error {
	return r.db.withWrite(ctx, func() error {
		u, ok := r.db.users[id]
		if !ok || u.AccrualCount >= totals.Count {
			return services.ErrStaleState
		}
		u.TotalDonations = totals.Total
		u.Points = totals.Points
		u.AccrualCount = totals.Count
		r.db.users[id] = u
		return nil
	})
}

func (r Users) ListPublicDonors(ctx context.Context, limit int) ([]models.PublicDonor, error) {
	var users []models.User
	err := r.db.withRead(ctx, func() error {
		for _, u := range r.db.users {
			if u.IsPublicDonor {
				users = append(users, u)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].TotalDonations.GreaterThan(users[j].TotalDonations.Decimal)
	})
	if len(users) > limit {
		users = users[:limit]
	}
	donors := make([]models.PublicDonor, 0, len(users))
	for _, u := range users {
		donors = append(donors, models.PublicDonor{FullName: u.FullName, TotalDonations: u.TotalDonations})
	}
	return donors, nil
}

type Donations struct{ db *DB }

func (r Donations) Insert(ctx context.Context, d *models.Donation) error {
	return r.db.withWrite(ctx, func() error {
		if _, ok := r.db.donations[d.ID]; ok {
			return services.ErrDuplicate
		}
		for _, existing := range r.db.donations {
			if existing.GeideaRef == d.GeideaRef {
				return services.ErrDuplicate
			}
			if d.SubmissionID != nil && sameID(existing.SubmissionID, *d.SubmissionID) {
				return services.ErrDuplicate
			}
		}
		r.db.donations[d.ID] = *d
		return nil
	})
}

func (r Donations) find(match func(models.Donation) bool) (*models.Donation, error) {
	for _, d := range r.db.donations {
		if match(d) {
			d := d
			return &d, nil
		}
	}
	return nil, services.ErrNotFound
}

func (r Donations) GetByRef(ctx context.Context, ref string) (*models.Donation, error) {
	var out *models.Donation
	err := r.db.withRead(ctx, func() error {
		var err error
		out, err = r.find(func(d models.Donation) bool { return d.GeideaRef == ref })
		return err
	})
	return out, err
}

func (r Donations) GetBySubmission(ctx context.Context, submissionID primitive.ObjectID) (*models.Donation, error) {
	var out *models.Donation
	err := r.db.withRead(ctx, func() error {
		var err error
		out, err = r.find(func(d models.Donation) bool { return sameID(d.SubmissionID, submissionID) })
		return err
	})
	return out, err
}

func (r Donations) Transition(ctx context.Context, ref string, methods []models.PaymentMethod, from, to models.DonationStatus, at time.Time) (*models.Donation, error) {
	var out *models.Donation
	err := r.db.withWrite(ctx, func() error {
		d, err := r.find(func(d models.Donation) bool { return d.GeideaRef == ref })
		if err != nil {
			return err
		}
		if d.Status != from || !d.PaymentMethod.In(methods) {
			return services.ErrStaleState
		}
		d.Status = to
		d.ResolvedAt = &at
		d.UpdatedAt = at
		r.db.donations[d.ID] = *d
		out = d
		return nil
	})
	return out, err
}

func (r Donations) MarkSettled(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return r.db.withWrite(ctx, func() error {
		d, ok := r.db.donations[id]
		if !ok {
			return services.ErrNotFound
		}
		d.Settled = true
		d.SettledAt = &at
		r.db.donations[id] = d
		return nil
	})
}

func (r Donations) collect(ctx context.Context, match func(models.Donation) bool) ([]models.Donation, error) {
	var out []models.Donation
	err := r.db.withRead(ctx, func() error {
		for _, d := range r.db.donations {
			if match(d) {
				out = append(out, d)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, err
}

func (r Donations) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Donation, error) {
	return r.collect(ctx, func(d models.Donation) bool { return sameID(d.UserID, userID) })
}

func (r Donations) List(ctx context.Context, f models.DonationFilter) ([]models.Donation, error) {
	return r.collect(ctx, func(d models.Donation) bool {
		if f.Status != "" && d.Status != f.Status {
			return false
		}
		if f.From != nil && d.CreatedAt.Before(*f.From) {
			return false
		}
		if f.To != nil && d.CreatedAt.After(*f.To) {
			return false
		}
		return true
	})
}

func (r Donations) ListUnsettled(ctx context.Context, before time.Time) ([]models.Donation, error) {
	return r.collect(ctx, func(d models.Donation) bool {
		return d.Status == models.DonationConfirmed && !d.Settled && !d.UpdatedAt.After(before)
	})
}

type Submissions struct{ db *DB }

func (r Submissions) Insert(ctx context.Context, s *models.BankTransferSubmission) error {
	return r.db.withWrite(ctx, func() error {
		if _, ok := r.db.submissions[s.ID]; ok {
			return services.ErrDuplicate
		}
		r.db.submissions[s.ID] = *s
		return nil
	})
}

func (r Submissions) GetByID(ctx context.Context, id primitive.ObjectID) (*models.BankTransferSubmission, error) {
	var out models.BankTransferSubmission
	err := r.db.withRead(ctx, func() error {
		s, ok := r.db.submissions[id]
		if !ok {
			return services.ErrNotFound
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r Submissions) Resolve(ctx context.Context, id primitive.ObjectID, review models.Review) (*models.BankTransferSubmission, error) {
	var out models.BankTransferSubmission
	err := r.db.withWrite(ctx, func() error {
		s, ok := r.db.submissions[id]
		if !ok {
			return services.ErrNotFound
		}
		if s.Status != models.SubmissionPending {
			return services.ErrStaleState
		}
		reviewer, at := review.ReviewerID, review.At
		s.Status = review.Decision
		s.Notes = review.Notes
		s.ReviewedBy = &reviewer
		s.ReviewedAt = &at
		r.db.submissions[id] = s
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r Submissions) collect(ctx context.Context, match func(models.BankTransferSubmission) bool) ([]models.BankTransferSubmission, error) {
	var out []models.BankTransferSubmission
	err := r.db.withRead(ctx, func() error {
		for _, s := range r.db.submissions {
			if match(s) {
				out = append(out, s)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, err
}

func (r Submissions) List(ctx context.Context, status models.SubmissionStatus) ([]models.BankTransferSubmission, error) {
	return r.collect(ctx, func(s models.BankTransferSubmission) bool {
		return status == "" || s.Status == status
	})
}

func (r Submissions) ListApprovedBefore(ctx context.Context, before time.Time) ([]models.BankTransferSubmission, error) {
	return r.collect(ctx, func(s models.BankTransferSubmission) bool {
		return s.Status == models.SubmissionApproved && s.ReviewedAt != nil && !s.ReviewedAt.After(before)
	})
}

type Documents struct{ db *DB }

func (r Documents) InsertCertificate(ctx context.Context, c *models.Certificate) error {
	return r.db.withWrite(ctx, func() error {
		for _, existing := range r.db.certificates {
			if existing.DonationID == c.DonationID || existing.CertificateNumber == c.CertificateNumber {
				return services.ErrDuplicate
			}
		}
		r.db.certificates[c.ID] = *c
		return nil
	})
}

func (r Documents) InsertInvoice(ctx context.Context, i *models.Invoice) error {
	return r.db.withWrite(ctx, func() error {
		for _, existing := range r.db.invoices {
			if existing.DonationID == i.DonationID || existing.InvoiceNumber == i.InvoiceNumber {
				return services.ErrDuplicate
			}
		}
		r.db.invoices[i.ID] = *i
		return nil
	})
}

func (r Documents) CertificateByDonation(ctx context.Context, donationID primitive.ObjectID) (*models.Certificate, error) {
	var out *models.Certificate
	err := r.db.withRead(ctx, func() error {
		for _, c := range r.db.certificates {
			if c.DonationID == donationID {
				c := c
				out = &c
				return nil
			}
		}
		return services.ErrNotFound
	})
	return out, err
}

func (r Documents) InvoiceByDonation(ctx context.Context, donationID primitive.ObjectID) (*models.Invoice, error) {
	var out *models.Invoice
	err := r.db.withRead(ctx, func() error {
		for _, i := range r.db.invoices {
			if i.DonationID == donationID {
				i := i
				out = &i
				return nil
			}
		}
		return services.ErrNotFound
	})
	return out, err
}

func (r Documents) CertificateByID(ctx context.Context, id primitive.ObjectID) (*models.Certificate, error) {
	var out models.Certificate
	err := r.db.withRead(ctx, func() error {
		c, ok := r.db.certificates[id]
		if !ok {
			return services.ErrNotFound
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r Documents) CertificatesByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Certificate, error) {
	var out []models.Certificate
	err := r.db.withRead(ctx, func() error {
		for _, c := range r.db.certificates {
			if sameID(c.UserID, userID) {
				out = append(out, c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, err
}

func (r Documents) InvoicesByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Invoice, error) {
	var out []models.Invoice
	err := r.db.withRead(ctx, func() error {
		for _, i := range r.db.invoices {
			if sameID(i.UserID, userID) {
				out = append(out, i)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, err
}

type Accruals struct{ db *DB }

func (r Accruals) Insert(ctx context.Context, e *models.AccrualEntry) error {
	return r.db.withWrite(ctx, func() error {
		for _, existing := range r.db.accruals {
			if existing.DonationID == e.DonationID {
				return services.ErrDuplicate
			}
		}
		r.db.accruals[e.ID] = *e
		return nil
	})
}

func (r Accruals) Totals(ctx context.Context, userID primitive.ObjectID) (models.AccrualTotals, error) {
	var totals models.AccrualTotals
	err := r.db.withRead(ctx, func() error {
		for _, e := range r.db.accruals {
			if e.UserID == userID {
				totals.Total = totals.Total.Add(e.Amount)
				totals.Points += e.Points
				totals.Count++
			}
		}
		return nil
	})
	return totals, err
}
