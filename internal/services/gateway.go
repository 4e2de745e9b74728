package services

import (
	"net/url"

	"github.com/markjakearzadon/donation-gobackend/internal/models"
)

// Gateway produces the checkout redirect for an online donation intent.
type Gateway interface {
	CheckoutURL(d *models.Donation) (string, error)
}

// SimulatedGateway stands in for the card gateway: checkout sends the donor
// straight to the resolution callback with a successful outcome.
type SimulatedGateway struct {
	CallbackURL string
}

func (g SimulatedGateway) CheckoutURL(d *models.Donation) (string, error) {
	u, err := url.Parse(g.CallbackURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("ref", d.GeideaRef)
	q.Set("status", string(OutcomeSuccess))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
