package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Certificate snapshots the donation at confirmation time. At most one per
// donation.
type Certificate struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	CertificateNumber string              `bson:"certificate_number" json:"certificate_number"`
	DonationID        primitive.ObjectID  `bson:"donation_id" json:"donation_id"`
	UserID            *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`
	DonorName         string              `bson:"donor_name" json:"donor_name"`
	Amount            Money               `bson:"amount" json:"amount"`
	Type              string              `bson:"type" json:"type"`
	CreatedAt         time.Time           `bson:"created_at" json:"created_at"`
}

type Invoice struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	InvoiceNumber string              `bson:"invoice_number" json:"invoice_number"`
	DonationID    primitive.ObjectID  `bson:"donation_id" json:"donation_id"`
	UserID        *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`
	DonorName     string              `bson:"donor_name" json:"donor_name"`
	Amount        Money               `bson:"amount" json:"amount"`
	Type          string              `bson:"type" json:"type"`
	PaymentMethod PaymentMethod       `bson:"payment_method" json:"payment_method"`
	SubmissionID  *primitive.ObjectID `bson:"submission_id,omitempty" json:"submission_id,omitempty"`
	CreatedAt     time.Time           `bson:"created_at" json:"created_at"`
}
