package orders

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"

	pkgstripe "github.com/casadaesfiha/storefront-backend/pkg/stripe"
)

// StripePaymentClient exposes the subset of Stripe operations required by the
// order service.
type StripePaymentClient interface {
	CreateIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	GetIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
}

type stripeClientWrapper struct{}

// NewStripeClient adapts the configured Stripe binding for the order
// service. A nil client means Stripe was never configured and card
// payments stay disabled.
func NewStripeClient(client *pkgstripe.Client) StripePaymentClient {
	if client == nil {
		return nil
	}
	return &stripeClientWrapper{}
}

func (w *stripeClientWrapper) CreateIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if params != nil {
		params.Context = ctx
	}
	return paymentintent.New(params)
}

func (w *stripeClientWrapper) GetIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	return paymentintent.Get(id, params)
}
