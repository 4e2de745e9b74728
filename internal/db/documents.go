package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/markjakearzadon/donation-gobackend/internal/models"
)

type DocumentRepository struct {
	certificates *mongo.Collection
	invoices     *mongo.Collection
}

func NewDocumentRepository(db *mongo.Database) *DocumentRepository {
	return &DocumentRepository{
		certificates: db.Collection(certificatesCollection),
		invoices:     db.Collection(invoicesCollection),
	}
}

func (r *DocumentRepository) InsertCertificate(ctx context.Context, c *models.Certificate) error {
	_, err := r.certificates.InsertOne(ctx, c)
	return translate(err)
}

func (r *DocumentRepository) InsertInvoice(ctx context.Context, i *models.Invoice) error {
	_, err := r.invoices.InsertOne(ctx, i)
	return translate(err)
}

func (r *DocumentRepository) CertificateByDonation(ctx context.Context, donationID primitive.ObjectID) (*models.Certificate, error) {
	var cert models.Certificate
	if err := r.certificates.FindOne(ctx, bson.M{"donation_id": donationID}).Decode(&cert); err != nil {
		return nil, translate(err)
	}
	return &cert, nil
}

func (r *DocumentRepository) InvoiceByDonation(ctx context.Context, donationID primitive.ObjectID) (*models.Invoice, error) {
	var inv models.Invoice
	if err := r.invoices.FindOne(ctx, bson.M{"donation_id": donationID}).Decode(&inv); err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

func (r *DocumentRepository) CertificateByID(ctx context.Context, id primitive.ObjectID) (*models.Certificate, error) {
	var cert models.Certificate
	if err := r.certificates.FindOne(ctx, bson.M{"_id": id}).Decode(&cert); err != nil {
		return nil, translate(err)
	}
	return &cert, nil
}

func (r *DocumentRepository) CertificatesByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Certificate, error) {
	cur, err := r.certificates.Find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var certs []models.Certificate
	if err := cur.All(ctx, &certs); err != nil {
		return nil, err
	}
	return certs, nil
}

func (r *DocumentRepository) InvoicesByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Invoice, error) {
	cur, err := r.invoices.Find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var invoices []models.Invoice
	if err := cur.All(ctx, &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}
