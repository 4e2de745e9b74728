// Package app assembles the store, services and HTTP surface from config.
package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/markjakearzadon/donation-gobackend/internal/auth"
	"github.com/markjakearzadon/donation-gobackend/internal/config"
	"github.com/markjakearzadon/donation-gobackend/internal/db"
	"github.com/markjakearzadon/donation-gobackend/internal/handlers"
	"github.com/markjakearzadon/donation-gobackend/internal/memstore"
	"github.com/markjakearzadon/donation-gobackend/internal/models"
	"github.com/markjakearzadon/donation-gobackend/internal/notify"
	"github.com/markjakearzadon/donation-gobackend/internal/services"
	"github.com/markjakearzadon/donation-gobackend/internal/uploads"
)

// OpenStore connects the configured backend. The returned func releases it.
func OpenStore(ctx context.Context, cfg *config.Config) (services.Store, func(), error) {
	if cfg.Storage == config.StorageMemory {
		log.Println("Using in-memory storage; data is lost on exit")
		return memstore.New().Store(), func() {}, nil
	}

	client, err := db.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return services.Store{}, nil, err
	}
	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}

	database := client.Database(cfg.MongoDB)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		closeFn()
		return services.Store{}, nil, err
	}
	return db.NewStore(client, database, cfg.MongoTransactions), closeFn, nil
}

// Notifier builds the configured delivery channels. Missing settings leave
// a channel out.
func Notifier(cfg *config.Config) services.Notifier {
	var channels notify.Multi
	if cfg.SMTPHost != "" && cfg.SMTPFrom != "" {
		channels = append(channels, notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom))
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramReviewChatID != 0 {
		tg, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramReviewChatID)
		if err != nil {
			log.Printf("Warning: telegram alerts disabled: %v", err)
		} else {
			channels = append(channels, tg)
		}
	}
	return channels
}

func Uploads(ctx context.Context, cfg *config.Config) (uploads.Store, error) {
	if cfg.S3ReceiptBucket != "" {
		return uploads.NewS3Store(ctx, cfg.S3ReceiptBucket, cfg.AWSRegion)
	}
	return uploads.LocalStore{Dir: cfg.UploadDir}, nil
}

type Services struct {
	Users      *services.UserService
	Ledger     *services.LedgerService
	Review     *services.ReviewService
	Documents  *services.DocumentService
	Reconciler *services.Reconciler
}

func NewServices(cfg *config.Config, store services.Store, notifier services.Notifier) *Services {
	settler := services.NewSettler(store)
	gateway := services.SimulatedGateway{CallbackURL: cfg.CallbackURL()}
	limit := models.NewMoney(cfg.MaxDonation)
	review := services.NewReviewService(store, settler, notifier)
	review.MaxAmount = limit
	ledger := services.NewLedgerService(store, settler, gateway, notifier)
	ledger.MaxAmount = limit
	return &Services{
		Users:      services.NewUserService(store.Users),
		Ledger:     ledger,
		Review:     review,
		Documents:  services.NewDocumentService(store.Documents),
		Reconciler: services.NewReconciler(store, review, settler),
	}
}

func Router(cfg *config.Config, svc *Services, receipts uploads.Store) http.Handler {
	deps := handlers.Deps{
		Users:           svc.Users,
		Ledger:          svc.Ledger,
		Review:          svc.Review,
		Documents:       svc.Documents,
		Reconciler:      svc.Reconciler,
		Tokens:          auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Sessions:        auth.NewSessions(cfg.SessionSecret, cfg.SecureCookies()),
		Uploads:         receipts,
		ConfirmationURL: cfg.ConfirmationURL,
	}
	if _, local := receipts.(uploads.LocalStore); local {
		deps.UploadDir = cfg.UploadDir
	}
	return handlers.NewRouter(deps)
}
