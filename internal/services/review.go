package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/markjakearzadon/donation-gobackend/internal/models"
)

type SubmissionInput struct {
	Amount       string
	Type         string
	BankName     string
	TransferDate string
	ReceiptImage string
	DonorName    string
	DonorPhone   string
	UserID       *primitive.ObjectID
}

// ReviewResult carries the ledger entry and documents an approval produced.
type ReviewResult struct {
	Submission  *models.BankTransferSubmission `json:"submission"`
	Donation    *models.Donation               `json:"donation,omitempty"`
	Certificate *models.Certificate            `json:"certificate,omitempty"`
	Invoice     *models.Invoice                `json:"invoice,omitempty"`
}

// ReviewService is the bank transfer review queue. Submissions move
// pending -> approved or pending -> rejected, never back.
type ReviewService struct {
	submissions SubmissionRepository
	donations   DonationRepository
	users       UserRepository
	tx          Transactor
	settler     *Settler
	notifier    Notifier
	now         func() time.Time

	// MaxAmount is the largest amount a single submission may declare.
	MaxAmount models.Money
}

func NewReviewService(store Store, settler *Settler, notifier Notifier) *ReviewService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &ReviewService{
		submissions: store.Submissions,
		donations:   store.Donations,
		users:       store.Users,
		tx:          store.Tx,
		settler:     settler,
		notifier:    notifier,
		now:         time.Now,
		MaxAmount:   DefaultMaxAmount,
	}
}

var transferDateLayouts = []string{"2006-01-02", time.RFC3339}

func parseTransferDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, invalid(CodeMissingField, "transfer_date")
	}
	for _, layout := range transferDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, invalid(CodeInvalidDate, "transfer_date")
}

// Submit validates a bank transfer and queues it for review.
func (s *ReviewService) Submit(ctx context.Context, in SubmissionInput) (*models.BankTransferSubmission, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	amount, err := parseAmount(in.Amount, s.MaxAmount)
	if err != nil {
		log.Printf("Invalid input: amount=%q", in.Amount)
		return nil, err
	}
	typ, err := normalizeType(in.Type)
	if err != nil {
		return nil, err
	}
	bank := strings.TrimSpace(in.BankName)
	if bank == "" {
		return nil, invalid(CodeMissingField, "bank_name")
	}
	transferDate, err := parseTransferDate(in.TransferDate)
	if err != nil {
		return nil, err
	}
	receipt := strings.TrimSpace(in.ReceiptImage)
	if receipt == "" {
		return nil, invalid(CodeMissingField, "receipt")
	}

	sub := &models.BankTransferSubmission{
		ID:           primitive.NewObjectID(),
		UserID:       in.UserID,
		DonorName:    donorName(ctx, s.users, in.DonorName, in.UserID),
		DonorPhone:   strings.TrimSpace(in.DonorPhone),
		Amount:       amount,
		Type:         typ,
		BankName:     bank,
		TransferDate: transferDate,
		ReceiptImage: receipt,
		Status:       models.SubmissionPending,
		CreatedAt:    s.now(),
	}
	if err := s.submissions.Insert(ctx, sub); err != nil {
		log.Printf("Failed to save bank transfer submission: %v", err)
		return nil, fmt.Errorf("failed to save submission: %w", err)
	}
	log.Printf("Bank transfer submitted: id=%s amount=%s type=%s", sub.ID.Hex(), sub.Amount.String(), sub.Type)

	fireAndForget(ctx, "submission alert "+sub.ID.Hex(), func(ctx context.Context) error {
		return s.notifier.SubmissionReceived(ctx, sub)
	})
	return sub, nil
}

// Review resolves a pending submission. Reviewing a submission that is no
// longer pending fails with ErrAlreadyProcessed and changes nothing.
func (s *ReviewService) Review(ctx context.Context, id primitive.ObjectID, decision models.SubmissionStatus, notes string, reviewerID primitive.ObjectID) (*ReviewResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if decision != models.SubmissionApproved && decision != models.SubmissionRejected {
		return nil, invalid(CodeInvalidDecision, "status")
	}

	review := models.Review{
		Decision:   decision,
		Notes:      strings.TrimSpace(notes),
		ReviewerID: reviewerID,
		At:         s.now(),
	}
	result := &ReviewResult{}
	var settlement *Settlement
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		*result, settlement = ReviewResult{}, nil
		sub, err := s.submissions.Resolve(ctx, id, review)
		if errors.Is(err, ErrStaleState) {
			current, getErr := s.submissions.GetByID(ctx, id)
			if getErr != nil {
				return getErr
			}
			log.Printf("Submission %s already %s, refusing %s", id.Hex(), current.Status, decision)
			return fmt.Errorf("submission %s is %s: %w", id.Hex(), current.Status, ErrAlreadyProcessed)
		}
		if err != nil {
			return err
		}
		result.Submission = sub
		log.Printf("Submission reviewed: id=%s status=%s reviewer=%s", id.Hex(), sub.Status, reviewerID.Hex())

		if sub.Status != models.SubmissionApproved {
			return nil
		}
		d, err := s.ledgerEntry(ctx, sub)
		if err != nil {
			return err
		}
		settlement, err = s.settler.Settle(ctx, d)
		if err != nil {
			return err
		}
		result.Donation = d
		result.Certificate = settlement.Certificate
		result.Invoice = settlement.Invoice
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("submission %s: %w", id.Hex(), ErrNotFound)
		}
		if !errors.Is(err, ErrAlreadyProcessed) {
			log.Printf("Failed to review submission %s: %v", id.Hex(), err)
		}
		return nil, err
	}

	if settlement != nil {
		confirmed := settlement
		fireAndForget(ctx, "donation receipt "+confirmed.Donation.GeideaRef, func(ctx context.Context) error {
			return s.notifier.DonationConfirmed(ctx, confirmed)
		})
	}
	return result, nil
}

// ledgerEntry returns the confirmed donation for an approved submission,
// inserting it if this is the first time. submission_id is unique in the
// ledger, so an approval maps to exactly one donation.
func (s *ReviewService) ledgerEntry(ctx context.Context, sub *models.BankTransferSubmission) (*models.Donation, error) {
	if existing, err := s.donations.GetBySubmission(ctx, sub.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to look up ledger entry: %w", err)
	}

	now := s.now()
	subID := sub.ID
	d := &models.Donation{
		ID:                primitive.NewObjectID(),
		UserID:            sub.UserID,
		DonorName:         sub.DonorName,
		Amount:            sub.Amount,
		Type:              sub.Type,
		PaymentMethod:     models.PaymentBankTransfer,
		Status:            models.DonationConfirmed,
		GeideaRef:         newBankTransferRef(now),
		BankTransferPhoto: sub.ReceiptImage,
		SubmissionID:      &subID,
		PointsEarned:      sub.Amount.Points(),
		ResolvedAt:        &now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.donations.Insert(ctx, d); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return s.donations.GetBySubmission(ctx, sub.ID)
		}
		log.Printf("Failed to save ledger entry for submission %s: %v", sub.ID.Hex(), err)
		return nil, fmt.Errorf("failed to save donation: %w", err)
	}
	log.Printf("Ledger entry created from submission: submission=%s ref=%s", sub.ID.Hex(), d.GeideaRef)
	return d, nil
}

// List returns submissions newest first, optionally by status.
func (s *ReviewService) List(ctx context.Context, status models.SubmissionStatus) ([]models.BankTransferSubmission, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if status != "" && !status.Valid() {
		return nil, invalid(CodeInvalidDecision, "status")
	}
	subs, err := s.submissions.List(ctx, status)
	if err != nil {
		log.Printf("Failed to fetch submissions: %v", err)
		return nil, fmt.Errorf("failed to fetch submissions: %w", err)
	}
	return subs, nil
}

// Get retrieves a submission by its ID
func (s *ReviewService) Get(ctx context.Context, id primitive.ObjectID) (*models.BankTransferSubmission, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	sub, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("Failed to fetch submission %s: %v", id.Hex(), err)
		}
		return nil, err
	}
	return sub, nil
}
