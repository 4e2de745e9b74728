package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DonationStatus string

const (
	DonationPending   DonationStatus = "pending"
	DonationConfirmed DonationStatus = "confirmed"
	DonationRejected  DonationStatus = "rejected"
	DonationFailed    DonationStatus = "failed"
)

func (s DonationStatus) Terminal() bool { return s != DonationPending }

func (s DonationStatus) Valid() bool {
	switch s {
	case DonationPending, DonationConfirmed, DonationRejected, DonationFailed:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentOnline       PaymentMethod = "online"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

func (m PaymentMethod) Valid() bool { return m == PaymentOnline || m == PaymentBankTransfer }

// In reports whether m is one of methods.
func (m PaymentMethod) In(methods []PaymentMethod) bool {
	for _, candidate := range methods {
		if m == candidate {
			return true
		}
	}
	return false
}

// PaymentMethods lists every accepted method.
var PaymentMethods = []PaymentMethod{PaymentOnline, PaymentBankTransfer}

// Conventional donation types. Other values are accepted.
const (
	TypeGeneral      = "general"
	TypeZakat        = "zakat"
	TypeWaqf         = "waqf"
	TypeWater        = "water"
	TypeFood         = "food"
	TypeIftar        = "iftar"
	TypeSpecialCases = "special-cases"
)

// Donation is one ledger entry. GeideaRef correlates the async resolution
// back to the intent and is unique across the collection.
type Donation struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID            *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`
	DonorName         string              `bson:"donor_name" json:"donor_name"`
	Amount            Money               `bson:"amount" json:"amount"`
	Type              string              `bson:"type" json:"type"`
	PaymentMethod     PaymentMethod       `bson:"payment_method" json:"payment_method"`
	Status            DonationStatus      `bson:"status" json:"status"`
	GeideaRef         string              `bson:"geidea_ref" json:"geidea_ref"`
	BankTransferPhoto string              `bson:"bank_transfer_photo,omitempty" json:"bank_transfer_photo,omitempty"`
	SubmissionID      *primitive.ObjectID `bson:"submission_id,omitempty" json:"submission_id,omitempty"`
	PointsEarned      int64               `bson:"points_earned" json:"points_earned"`
	Settled           bool                `bson:"settled" json:"-"`
	ResolvedAt        *time.Time          `bson:"resolved_at,omitempty" json:"resolved_at,omitempty"`
	SettledAt         *time.Time          `bson:"settled_at,omitempty" json:"-"`
	CreatedAt         time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time           `bson:"updated_at" json:"updated_at"`
}

// DonationFilter narrows admin ledger listings. Zero values match all.
type DonationFilter struct {
	Status DonationStatus
	From   *time.Time
	To     *time.Time
}
