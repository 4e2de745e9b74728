package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/markjakearzadon/donation-gobackend/internal/models"
)

// Repositories return ErrNotFound for missing documents, ErrDuplicate for
// unique key violations and ErrStaleState when a conditional update finds
// the document in a different state than expected.

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByMobile(ctx context.Context, mobile string) (*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, upd models.ProfileUpdate) (*models.User, error)
	// SetTotals writes the cached totals only if the stored accrual count is
	// lower than totals.Count.
	SetTotals(ctx context.Context, id primitive.ObjectID, totals models.AccrualTotals) error
	ListPublicDonors(ctx context.Context, limit int) ([]models.PublicDonor, error)
}

type DonationRepository interface {
	Insert(ctx context.Context, d *models.Donation) error
	GetByRef(ctx context.Context, ref string) (*models.Donation, error)
	GetBySubmission(ctx context.Context, submissionID primitive.ObjectID) (*models.Donation, error)
	// Transition moves a donation paid by one of methods from one status to
	// another atomically and returns the updated document.
	Transition(ctx context.Context, ref string, methods []models.PaymentMethod, from, to models.DonationStatus, at time.Time) (*models.Donation, error)
	MarkSettled(ctx context.Context, id primitive.ObjectID, at time.Time) error
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Donation, error)
	List(ctx context.Context, filter models.DonationFilter) ([]models.Donation, error)
	ListUnsettled(ctx context.Context, before time.Time) ([]models.Donation, error)
}

type SubmissionRepository interface {
	Insert(ctx context.Context, s *models.BankTransferSubmission) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.BankTransferSubmission, error)
	// Resolve applies the review only if the submission is still pending.
	Resolve(ctx context.Context, id primitive.ObjectID, review models.Review) (*models.BankTransferSubmission, error)
	List(ctx context.Context, status models.SubmissionStatus) ([]models.BankTransferSubmission, error)
	ListApprovedBefore(ctx context.Context, before time.Time) ([]models.BankTransferSubmission, error)
}

type DocumentRepository interface {
	InsertCertificate(ctx context.Context, c *models.Certificate) error
	InsertInvoice(ctx context.Context, i *models.Invoice) error
	CertificateByDonation(ctx context.Context, donationID primitive.ObjectID) (*models.Certificate, error)
	InvoiceByDonation(ctx context.Context, donationID primitive.ObjectID) (*models.Invoice, error)
	CertificateByID(ctx context.Context, id primitive.ObjectID) (*models.Certificate, error)
	CertificatesByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Certificate, error)
	InvoicesByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Invoice, error)
}

type AccrualRepository interface {
	Insert(ctx context.Context, e *models.AccrualEntry) error
	Totals(ctx context.Context, userID primitive.ObjectID) (models.AccrualTotals, error)
}

// Transactor runs fn as one unit when the store supports multi-document
// transactions and runs it directly otherwise.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store bundles the repositories a deployment provides.
type Store struct {
	Users       UserRepository
	Donations   DonationRepository
	Submissions SubmissionRepository
	Documents   DocumentRepository
	Accruals    AccrualRepository
	Tx          Transactor
}
