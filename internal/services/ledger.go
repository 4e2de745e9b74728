package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/markjakearzadon/donation-gobackend/internal/models"
)

// AnonymousDonorName is shown when neither the form nor the account
// supplies a name.
const AnonymousDonorName = "فاعل خير"

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// ParseOutcome accepts the gateway's spellings of success and failure.
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "success", "succeeded", "paid", "confirmed":
		return OutcomeSuccess, nil
	case "failure", "failed", "fail", "cancelled", "canceled", "declined":
		return OutcomeFailure, nil
	}
	return "", invalid(CodeInvalidOutcome, "status")
}

type DonationIntent struct {
	Amount            string
	Type              string
	DonorName         string
	UserID            *primitive.ObjectID
	PaymentMethod     models.PaymentMethod
	BankTransferPhoto string
}

// IntentResult is a created intent plus, for online payments, the checkout
// redirect.
type IntentResult struct {
	Donation    *models.Donation `json:"donation"`
	RedirectURL string           `json:"redirect_url,omitempty"`
}

// Resolution reports what resolveByReference did. Changed is false when the
// donation was already terminal and nothing was applied.
type Resolution struct {
	Donation   *models.Donation
	Settlement *Settlement
	Changed    bool
}

type LedgerService struct {
	donations DonationRepository
	users     UserRepository
	tx        Transactor
	settler   *Settler
	gateway   Gateway
	notifier  Notifier
	now       func() time.Time

	// MaxAmount is the largest amount a single intent may carry.
	MaxAmount models.Money
}

func NewLedgerService(store Store, settler *Settler, gateway Gateway, notifier Notifier) *LedgerService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &LedgerService{
		donations: store.Donations,
		users:     store.Users,
		tx:        store.Tx,
		settler:   settler,
		gateway:   gateway,
		notifier:  notifier,
		now:       time.Now,
		MaxAmount: DefaultMaxAmount,
	}
}

// DefaultMaxAmount caps a single donation when no limit is configured.
var DefaultMaxAmount = models.NewMoney(decimal.NewFromInt(1_000_000))

// maxAmountDigits bounds the integer digits looked at before comparing to the
// limit, so exponent forms like 1e999999 are rejected without expanding them.
const maxAmountDigits = 15

// parseAmount accepts positive decimal strings with at most two fractional
// digits and no larger than limit.
func parseAmount(s string, limit models.Money) (models.Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.Money{}, invalid(CodeInvalidAmount, "amount")
	}
	m, err := models.ParseMoney(s)
	if err != nil || !m.IsPositive() || m.Exponent() < -2 {
		return models.Money{}, invalid(CodeInvalidAmount, "amount")
	}
	if m.NumDigits()+int(m.Exponent()) > maxAmountDigits || m.GreaterThan(limit.Decimal) {
		return models.Money{}, invalid(CodeInvalidAmount, "amount")
	}
	return m, nil
}

func normalizeType(t string) (string, error) {
	t = strings.ToLower(strings.TrimSpace(t))
	if t == "" {
		return models.TypeGeneral, nil
	}
	if len(t) > 64 {
		return "", invalid(CodeInvalidType, "type")
	}
	return t, nil
}

// donorName falls back from the submitted name to the account name to the
// anonymous placeholder.
func donorName(ctx context.Context, users UserRepository, name string, userID *primitive.ObjectID) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	if userID != nil {
		if u, err := users.GetByID(ctx, *userID); err == nil && strings.TrimSpace(u.FullName) != "" {
			return u.FullName
		}
	}
	return AnonymousDonorName
}

// CreateIntent records a pending donation and, for online payments, returns
// the checkout redirect.
func (s *LedgerService) CreateIntent(ctx context.Context, in DonationIntent) (*IntentResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	amount, err := parseAmount(in.Amount, s.MaxAmount)
	if err != nil {
		log.Printf("Invalid input: amount=%q", in.Amount)
		return nil, err
	}
	if !in.PaymentMethod.Valid() {
		log.Printf("Invalid input: payment_method=%q", in.PaymentMethod)
		return nil, invalid(CodeInvalidMethod, "payment_method")
	}
	typ, err := normalizeType(in.Type)
	if err != nil {
		return nil, err
	}

	now := s.now()
	d := &models.Donation{
		ID:                primitive.NewObjectID(),
		UserID:            in.UserID,
		DonorName:         donorName(ctx, s.users, in.DonorName, in.UserID),
		Amount:            amount,
		Type:              typ,
		PaymentMethod:     in.PaymentMethod,
		Status:            models.DonationPending,
		GeideaRef:         newOnlineRef(now),
		BankTransferPhoto: strings.TrimSpace(in.BankTransferPhoto),
		PointsEarned:      amount.Points(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.donations.Insert(ctx, d); err != nil {
		log.Printf("Failed to save donation intent: %v", err)
		return nil, fmt.Errorf("failed to save donation: %w", err)
	}
	log.Printf("Donation intent created: ref=%s amount=%s type=%s method=%s", d.GeideaRef, d.Amount.String(), d.Type, d.PaymentMethod)

	result := &IntentResult{Donation: d}
	if d.PaymentMethod == models.PaymentOnline && s.gateway != nil {
		redirect, err := s.gateway.CheckoutURL(d)
		if err != nil {
			log.Printf("Failed to build checkout URL for %s: %v", d.GeideaRef, err)
			return nil, fmt.Errorf("failed to build checkout url: %w", err)
		}
		result.RedirectURL = redirect
	}
	return result, nil
}

// ResolveByReference settles a pending intent exactly once. Only intents
// paid by one of methods are resolved; any other intent is left pending and
// ErrForbidden is returned. Resolving an already terminal donation returns it
// unchanged.
func (s *LedgerService) ResolveByReference(ctx context.Context, ref string, outcome Outcome, methods []models.PaymentMethod) (*Resolution, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, invalid(CodeMissingField, "ref")
	}
	var to models.DonationStatus
	switch outcome {
	case OutcomeSuccess:
		to = models.DonationConfirmed
	case OutcomeFailure:
		to = models.DonationFailed
	default:
		return nil, invalid(CodeInvalidOutcome, "status")
	}
	if len(methods) == 0 {
		return nil, fmt.Errorf("resolve %s: no payment methods allowed", ref)
	}

	res := &Resolution{}
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		*res = Resolution{}
		d, err := s.donations.Transition(ctx, ref, methods, models.DonationPending, to, s.now())
		if errors.Is(err, ErrStaleState) {
			existing, err := s.donations.GetByRef(ctx, ref)
			if err != nil {
				return err
			}
			if !existing.PaymentMethod.In(methods) {
				return fmt.Errorf("donation %s is paid by %s: %w", ref, existing.PaymentMethod, ErrForbidden)
			}
			log.Printf("Donation %s already %s, ignoring %s", ref, existing.Status, outcome)
			res.Donation = existing
			return nil
		}
		if err != nil {
			return err
		}
		res.Donation, res.Changed = d, true
		log.Printf("Donation resolved: ref=%s status=%s", ref, d.Status)

		if d.Status != models.DonationConfirmed {
			return nil
		}
		settlement, err := s.settler.Settle(ctx, d)
		if err != nil {
			return err
		}
		res.Settlement = settlement
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Printf("Donation not found for ref %s", ref)
			return nil, fmt.Errorf("donation %s: %w", ref, ErrNotFound)
		}
		log.Printf("Failed to resolve donation %s: %v", ref, err)
		return res, fmt.Errorf("failed to resolve donation: %w", err)
	}

	if res.Settlement != nil {
		settlement := res.Settlement
		fireAndForget(ctx, "donation receipt "+ref, func(ctx context.Context) error {
			return s.notifier.DonationConfirmed(ctx, settlement)
		})
	}
	return res, nil
}

// ListForUser returns the user's donations, newest first.
func (s *LedgerService) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Donation, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	donations, err := s.donations.ListByUser(ctx, userID)
	if err != nil {
		log.Printf("Failed to fetch donations for user %s: %v", userID.Hex(), err)
		return nil, fmt.Errorf("failed to fetch donations: %w", err)
	}
	return donations, nil
}

// List returns the ledger filtered by status and creation date.
func (s *LedgerService) List(ctx context.Context, filter models.DonationFilter) ([]models.Donation, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalid(CodeInvalidOutcome, "status")
	}
	donations, err := s.donations.List(ctx, filter)
	if err != nil {
		log.Printf("Failed to fetch donations: %v", err)
		return nil, fmt.Errorf("failed to fetch donations: %w", err)
	}
	return donations, nil
}
