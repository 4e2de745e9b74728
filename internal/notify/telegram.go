package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/markjakearzadon/donation-gobackend/internal/models"
	"github.com/markjakearzadon/donation-gobackend/internal/services"
)

type chatSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram alerts the reviewers' chat about new bank transfers and
// confirmed donations.
type Telegram struct {
	bot    chatSender
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to start telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

func (t *Telegram) DonationConfirmed(ctx context.Context, s *services.Settlement) error {
	d := s.Donation
	text := fmt.Sprintf("✅ Donation confirmed\nRef: %s\nDonor: %s\nAmount: %s\nType: %s\nMethod: %s",
		d.GeideaRef, d.DonorName, d.Amount.StringFixed(2), d.Type, d.PaymentMethod)
	return t.send(text)
}

func (t *Telegram) SubmissionReceived(ctx context.Context, sub *models.BankTransferSubmission) error {
	text := fmt.Sprintf("🏦 New bank transfer to review\nID: %s\nDonor: %s\nAmount: %s\nBank: %s\nDate: %s",
		sub.ID.Hex(), sub.DonorName, sub.Amount.StringFixed(2), sub.BankName, sub.TransferDate.Format("2006-01-02"))
	return t.send(text)
}

func (t *Telegram) send(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}
