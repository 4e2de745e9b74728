package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleAccountant Role = "accountant"
	RoleManager    Role = "manager"
	RoleEditor     Role = "editor"
	RoleDelivery   Role = "delivery"
)

var roles = map[Role]bool{
	RoleUser:       true,
	RoleAdmin:      true,
	RoleAccountant: true,
	RoleManager:    true,
	RoleEditor:     true,
	RoleDelivery:   true,
}

func (r Role) Valid() bool { return roles[r] }

// BankProfile is the donor's own bank account, used to prefill transfers.
type BankProfile struct {
	BankName string `bson:"bank_name,omitempty" json:"bank_name,omitempty"`
	IBAN     string `bson:"iban,omitempty" json:"iban,omitempty"`
}

// User model. TotalDonations and Points are a cache of the accrual log and
// are only written by the accrual engine.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName       string             `bson:"fullname" json:"fullname"`
	Mobile         string             `bson:"mobile" json:"mobile"`
	Email          string             `bson:"email,omitempty" json:"email,omitempty"`
	HPassword      string             `bson:"password" json:"-"`
	Role           Role               `bson:"role" json:"role"`
	IsPublicDonor  bool               `bson:"is_public_donor" json:"is_public_donor"`
	TotalDonations Money              `bson:"total_donations" json:"total_donations"`
	Points         int64              `bson:"points" json:"points"`
	AccrualCount   int64              `bson:"accrual_count" json:"-"`
	Bank           *BankProfile       `bson:"bank,omitempty" json:"bank,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// ProfileUpdate holds the self-service editable fields.
type ProfileUpdate struct {
	FullName      *string `json:"fullname"`
	Email         *string `json:"email"`
	IsPublicDonor *bool   `json:"is_public_donor"`
	BankName      *string `json:"bank_name"`
	IBAN          *string `json:"iban"`
}

// PublicDonor is the projection shown on the public donor wall.
type PublicDonor struct {
	FullName       string `json:"fullname"`
	TotalDonations Money  `json:"total_donations"`
}
