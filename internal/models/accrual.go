package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccrualEntry records that a confirmed donation has been credited to a
// user. DonationID is unique, so a donation accrues at most once.
type AccrualEntry struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DonationID primitive.ObjectID `bson:"donation_id" json:"donation_id"`
	UserID     primitive.ObjectID `bson:"user_id" json:"user_id"`
	Amount     Money              `bson:"amount" json:"amount"`
	Points     int64              `bson:"points" json:"points"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

// AccrualTotals is the materialized sum of a user's accrual log.
type AccrualTotals struct {
	Total  Money
	Points int64
	Count  int64
}
