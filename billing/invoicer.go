package billing

import (
	"context"
	"fmt"
	"sync"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/invoice"
)

// Invoicer raises a charge for a completed trip. Invoicing runs after the
// ride state is already finalized; failures are logged by the caller and
// never unwind the ride.
type Invoicer interface {
	InvoiceRide(ctx context.Context, stripeCustomerID string, rideSeconds, holdSeconds int64) error
}

// StripeInvoicer bills through Stripe invoices: one line for the unlock fee
// and one for the ridden minutes, finalized and paid against the customer's
// stored payment method.
type StripeInvoicer struct{}

func (StripeInvoicer) InvoiceRide(ctx context.Context, stripeCustomerID string, rideSeconds, holdSeconds int64) error {
	if stripeCustomerID == "" {
		return fmt.Errorf("rider has no billing account")
	}

	in, err := invoice.New(&stripe.InvoiceParams{
		Customer: stripe.String(stripeCustomerID),
	})
	if err != nil {
		return fmt.Errorf("creating invoice: %w", err)
	}

	rideMins := minutes(rideSeconds)
	lines := []*stripe.InvoiceAddLinesLineParams{
		{
			Amount:      stripe.Int64(unlockFeePaise),
			Description: stripe.String("Ride Unlock"),
		},
		{
			Amount:      stripe.Int64(rideMins * ridePaisePerMinute),
			Description: stripe.String(fmt.Sprintf("Ride - %d minutes", rideMins)),
		},
	}
	if holdMins := minutes(holdSeconds); holdMins > 0 {
		lines = append(lines, &stripe.InvoiceAddLinesLineParams{
			Amount:      stripe.Int64(holdMins * holdPaisePerMinute),
			Description: stripe.String(fmt.Sprintf("Hold - %d minutes", holdMins)),
		})
	}

	if _, err := invoice.AddLines(in.ID, &stripe.InvoiceAddLinesParams{Lines: lines}); err != nil {
		return fmt.Errorf("adding invoice lines: %w", err)
	}
	if _, err := invoice.FinalizeInvoice(in.ID, &stripe.InvoiceFinalizeInvoiceParams{}); err != nil {
		return fmt.Errorf("finalizing invoice: %w", err)
	}
	if _, err := invoice.Pay(in.ID, nil); err != nil {
		return fmt.Errorf("paying invoice: %w", err)
	}
	return nil
}

// FakeInvoicer records invoice calls for tests.
type FakeInvoicer struct {
	mu    sync.Mutex
	Calls []FakeInvoice
}

type FakeInvoice struct {
	StripeCustomerID string
	RideSeconds      int64
	HoldSeconds      int64
}

func (f *FakeInvoicer) InvoiceRide(ctx context.Context, stripeCustomerID string, rideSeconds, holdSeconds int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, FakeInvoice{stripeCustomerID, rideSeconds, holdSeconds})
	return nil
}

// Invoices returns a copy of the recorded calls, safe to read while the
// invoicing goroutine may still be running.
func (f *FakeInvoicer) Invoices() []FakeInvoice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeInvoice(nil), f.Calls...)
}
