package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/markjakearzadon/donation-gobackend/internal/models"
)

type DocumentService struct {
	docs DocumentRepository
}

func NewDocumentService(docs DocumentRepository) *DocumentService {
	return &DocumentService{docs: docs}
}

// CertificatesForUser returns the user's certificates.
func (s *DocumentService) CertificatesForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Certificate, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	certs, err := s.docs.CertificatesByUser(ctx, userID)
	if err != nil {
		log.Printf("Failed to fetch certificates for user %s: %v", userID.Hex(), err)
		return nil, fmt.Errorf("failed to fetch certificates: %w", err)
	}
	return certs, nil
}

// InvoicesForUser returns the user's invoices.
func (s *DocumentService) InvoicesForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Invoice, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	invoices, err := s.docs.InvoicesByUser(ctx, userID)
	if err != nil {
		log.Printf("Failed to fetch invoices for user %s: %v", userID.Hex(), err)
		return nil, fmt.Errorf("failed to fetch invoices: %w", err)
	}
	return invoices, nil
}

// Certificate returns a certificate the caller may see: their own, or any
// when staff is true.
func (s *DocumentService) Certificate(ctx context.Context, id, callerID primitive.ObjectID, staff bool) (*models.Certificate, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cert, err := s.docs.CertificateByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !staff && (cert.UserID == nil || *cert.UserID != callerID) {
		return nil, ErrForbidden
	}
	return cert, nil
}
