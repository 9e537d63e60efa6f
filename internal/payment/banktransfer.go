package payment

import (
	"context"
	"fmt"

	"github.com/lithammer/shortuuid/v4"
)

// BankTransferProvider is a deterministic local fallback: it hands out
// a reference code plus wiring instructions and never contacts any
// remote system. Completion only happens when staff mark the transfer
// received out of band.
type BankTransferProvider struct {
	accountHolder string
	accountNumber string
}

// NewBankTransferProvider creates a bank transfer adapter
func NewBankTransferProvider(accountHolder, accountNumber string) *BankTransferProvider {
	return &BankTransferProvider{
		accountHolder: accountHolder,
		accountNumber: accountNumber,
	}
}

func (p *BankTransferProvider) Type() string {
	return TypeBankTransfer
}

// CreateIntent issues a reference code and textual instructions
func (p *BankTransferProvider) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	ref := fmt.Sprintf("BT-%s", shortuuid.New())

	instructions := fmt.Sprintf(
		"Transfer %.2f %s to %s, account %s. Use reference %s. "+
			"The order is confirmed once staff verify the transfer.",
		float64(req.AmountCents)/100, req.Currency,
		p.accountHolder, p.accountNumber, ref)

	return &Intent{
		ProviderRef:  ref,
		Status:       StatusPending,
		Instructions: instructions,
	}, nil
}

// Confirm never completes a transfer on its own; the status stays
// PENDING until staff mark it received
func (p *BankTransferProvider) Confirm(ctx context.Context, providerRef string) (*Result, error) {
	return &Result{
		ProviderRef: providerRef,
		Status:      StatusPending,
	}, nil
}

// Refund is a manual back-office operation for bank transfers
func (p *BankTransferProvider) Refund(ctx context.Context, providerRef string, amountCents int64) (*RefundResult, error) {
	return nil, fmt.Errorf("%w: bank transfer refunds are handled manually", ErrUnsupported)
}

// HandleWebhook always rejects: banks do not call us back
func (p *BankTransferProvider) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	return &WebhookResult{Valid: false}, nil
}
