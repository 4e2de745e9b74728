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

// Number collisions are retried; a duplicate on donation_id means the
// document already exists.
const maxIssueAttempts = 3

// Issuer creates the certificate and invoice for a confirmed donation.
type Issuer struct {
	docs DocumentRepository
	now  func() time.Time
}

func NewIssuer(docs DocumentRepository) *Issuer {
	return &Issuer{docs: docs, now: time.Now}
}

// Issue returns the donation's certificate and invoice, creating whichever
// is missing. Both snapshot the donation as it is now.
func (i *Issuer) Issue(ctx context.Context, d *models.Donation) (*models.Certificate, *models.Invoice, error) {
	if d.Status != models.DonationConfirmed {
		return nil, nil, fmt.Errorf("cannot issue documents for donation %s with status %s", d.ID.Hex(), d.Status)
	}
	cert, err := i.certificate(ctx, d)
	if err != nil {
		return nil, nil, err
	}
	inv, err := i.invoice(ctx, d)
	if err != nil {
		return cert, nil, err
	}
	return cert, inv, nil
}

func (i *Issuer) certificate(ctx context.Context, d *models.Donation) (*models.Certificate, error) {
	existing, err := i.docs.CertificateByDonation(ctx, d.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to look up certificate: %w", err)
	}

	for attempt := 1; attempt <= maxIssueAttempts; attempt++ {
		now := i.now()
		cert := &models.Certificate{
			ID:                primitive.NewObjectID(),
			CertificateNumber: newCertificateNumber(now),
			DonationID:        d.ID,
			UserID:            d.UserID,
			DonorName:         d.DonorName,
			Amount:            d.Amount,
			Type:              d.Type,
			CreatedAt:         now,
		}
		err := i.docs.InsertCertificate(ctx, cert)
		if err == nil {
			log.Printf("Certificate issued: number=%s donation=%s", cert.CertificateNumber, d.ID.Hex())
			return cert, nil
		}
		if !errors.Is(err, ErrDuplicate) {
			log.Printf("Failed to save certificate for donation %s: %v", d.ID.Hex(), err)
			return nil, fmt.Errorf("failed to save certificate: %w", err)
		}
		if existing, err := i.docs.CertificateByDonation(ctx, d.ID); err == nil {
			return existing, nil
		}
		log.Printf("Certificate number collision for donation %s (attempt %d)", d.ID.Hex(), attempt)
	}
	return nil, fmt.Errorf("failed to allocate a unique certificate number for donation %s", d.ID.Hex())
}

func (i *Issuer) invoice(ctx context.Context, d *models.Donation) (*models.Invoice, error) {
	existing, err := i.docs.InvoiceByDonation(ctx, d.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to look up invoice: %w", err)
	}

	for attempt := 1; attempt <= maxIssueAttempts; attempt++ {
		now := i.now()
		inv := &models.Invoice{
			ID:            primitive.NewObjectID(),
			InvoiceNumber: newInvoiceNumber(now),
			DonationID:    d.ID,
			UserID:        d.UserID,
			DonorName:     d.DonorName,
			Amount:        d.Amount,
			Type:          d.Type,
			PaymentMethod: d.PaymentMethod,
			SubmissionID:  d.SubmissionID,
			CreatedAt:     now,
		}
		err := i.docs.InsertInvoice(ctx, inv)
		if err == nil {
			log.Printf("Invoice issued: number=%s donation=%s", inv.InvoiceNumber, d.ID.Hex())
			return inv, nil
		}
		if !errors.Is(err, ErrDuplicate) {
			log.Printf("Failed to save invoice for donation %s: %v", d.ID.Hex(), err)
			return nil, fmt.Errorf("failed to save invoice: %w", err)
		}
		if existing, err := i.docs.InvoiceByDonation(ctx, d.ID); err == nil {
			return existing, nil
		}
		log.Printf("Invoice number collision for donation %s (attempt %d)", d.ID.Hex(), attempt)
	}
	return nil, fmt.Errorf("failed to allocate a unique invoice number for donation %s", d.ID.Hex())
}
