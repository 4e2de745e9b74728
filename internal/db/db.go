package db

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/markjakearzadon/donation-gobackend/internal/services"
)

const (
	usersCollection        = "user"
	donationsCollection    = "donations"
	submissionsCollection  = "bank_transfers"
	certificatesCollection = "certificates"
	invoicesCollection     = "invoices"
	accrualsCollection     = "accruals"
)

// Connect opens the client and verifies the primary is reachable.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.Println("Connected to MongoDB!")
	return client, nil
}

// NewStore wires the repositories to database. With transactions enabled
// (requires a replica set) confirmation steps commit together.
func NewStore(client *mongo.Client, database *mongo.Database, transactions bool) services.Store {
	return services.Store{
		Users:       NewUserRepository(database),
		Donations:   NewDonationRepository(database),
		Submissions: NewSubmissionRepository(database),
		Documents:   NewDocumentRepository(database),
		Accruals:    NewAccrualRepository(database),
		Tx:          &Transactor{client: client, enabled: transactions},
	}
}

// translate maps driver errors onto the repository sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return services.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return services.ErrDuplicate
	}
	return err
}
