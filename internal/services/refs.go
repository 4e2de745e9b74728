package services

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	onlineRefPrefix       = "GD-"
	bankTransferRefPrefix = "BT-"
	certificatePrefix     = "CERT-"
	invoicePrefix         = "INV-"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// newToken returns a ULID: 48 bits of time followed by 80 bits of entropy,
// lexically sortable by issuance time.
func newToken(now time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}

// Bank transfer approvals mint refs in their own namespace so they never
// collide with online intent refs.
func newOnlineRef(now time.Time) string         { return onlineRefPrefix + newToken(now) }
func newBankTransferRef(now time.Time) string   { return bankTransferRefPrefix + newToken(now) }
func newCertificateNumber(now time.Time) string { return certificatePrefix + newToken(now) }
func newInvoiceNumber(now time.Time) string     { return invoicePrefix + newToken(now) }
