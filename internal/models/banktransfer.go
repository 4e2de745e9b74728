package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionPending, SubmissionApproved, SubmissionRejected:
		return true
	}
	return false
}

// BankTransferSubmission is a donor's claim of an external bank transfer,
// waiting for a reviewer.
type BankTransferSubmission struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID       *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`
	DonorName    string              `bson:"donor_name" json:"donor_name"`
	DonorPhone   string              `bson:"donor_phone,omitempty" json:"donor_phone,omitempty"`
	Amount       Money               `bson:"amount" json:"amount"`
	Type         string              `bson:"type" json:"type"`
	BankName     string              `bson:"bank_name" json:"bank_name"`
	TransferDate time.Time           `bson:"transfer_date" json:"transfer_date"`
	ReceiptImage string              `bson:"receipt_image" json:"receipt_image"`
	Status       SubmissionStatus    `bson:"status" json:"status"`
	Notes        string              `bson:"notes,omitempty" json:"notes,omitempty"`
	ReviewedBy   *primitive.ObjectID `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time          `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	CreatedAt    time.Time           `bson:"created_at" json:"created_at"`
}

// Review is the reviewer decision applied to a pending submission.
type Review struct {
	Decision   SubmissionStatus
	Notes      string
	ReviewerID primitive.ObjectID
	At         time.Time
}
