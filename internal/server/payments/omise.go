// Package payments adapts the Omise API to the payment-intent contract used
// by the settlement service.
package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
)

// DefaultSourceType is the Omise source created for an intent. PromptPay
// is the THB QR flow and needs no return URI.
const DefaultSourceType = "promptpay"

var errEmptySource = errors.New("omise returned an empty source")

var (
	newOmiseClient = omise.NewClient

	// createSource is a seam around Client.Do.
	createSource = func(c *omise.Client, op *operations.CreateSource) (*omise.Source, error) {
		src := &omise.Source{}
		if err := c.Do(src, op); err != nil {
			return nil, err
		}
		return src, nil
	}
)

// OmiseProvider creates Omise sources and returns their id as the client
// secret the frontend uses to complete payment.
type OmiseProvider struct {
	client     *omise.Client
	sourceType string
}

func NewOmiseProvider(publicKey, secretKey string) (*OmiseProvider, error) {
	c, err := newOmiseClient(publicKey, secretKey)
	if err != nil {
		return nil, fmt.Errorf("omise client: %w", err)
	}
	return &OmiseProvider{client: c, sourceType: DefaultSourceType}, nil
}

// CreatePaymentIntent asks Omise for a source of amount minor units.
func (p *OmiseProvider) CreatePaymentIntent(ctx context.Context, amount int64, currency string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	src, err := createSource(p.client, &operations.CreateSource{
		Type:     p.sourceType,
		Amount:   amount,
		Currency: currency,
	})
	if err != nil {
		return "", fmt.Errorf("omise create source: %w", err)
	}
	if src == nil || src.ID == "" {
		return "", errEmptySource
	}

	return src.ID, nil
}
