package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medsouq/marketplace/internal/escrow"
	orderdomain "github.com/medsouq/marketplace/internal/order/domain"
	"github.com/medsouq/marketplace/internal/payment/domain"
)

func newWebhookFixture(t *testing.T, gatewayURL string) (*fixture, *HandleWebhookHandler) {
	t.Helper()
	f := newFixture(t, gatewayURL)
	manager := f.handler.manager
	webhook := NewHandleWebhookHandler(
		f.orders, f.payments, f.txs, manager, escrow.NewManager(f.escrow), f.events)
	return f, webhook
}

func TestWebhookCompletesProcessingPayment(t *testing.T) {
	// The wallet was confirmed out of band: initiation left the payment
	// processing, the callback settles it.
	server := mobileMoneyServer(t, "paid")
	defer server.Close()
	f, webhook := newWebhookFixture(t, server.URL)
	order, payment := f.seedOrder(t, 500.0)
	require.NoError(t, f.payments.UpdateStatus(payment.ID, domain.StatusProcessing))
	f.payments.payments[payment.ID].GatewayTxID = "MM-9001"

	updated, err := webhook.Handle(context.Background(), WebhookCommand{
		Provider:    domain.ProviderSadad,
		GatewayTxID: "MM-9001",
		Status:      "paid",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, updated.Status)

	confirmedOrder, err := f.orders.FindByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusConfirmed, confirmedOrder.Status)

	account, err := f.escrow.FindByOrderID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, 500.0, account.HeldAmount)
	assert.Len(t, f.events.completed, 1)
}

func TestWebhookDoubleDeliveryIsIdempotent(t *testing.T) {
	server := mobileMoneyServer(t, "paid")
	defer server.Close()
	f, webhook := newWebhookFixture(t, server.URL)
	_, payment := f.seedOrder(t, 500.0)
	require.NoError(t, f.payments.UpdateStatus(payment.ID, domain.StatusProcessing))
	f.payments.payments[payment.ID].GatewayTxID = "MM-9001"
	ctx := context.Background()
	cmd := WebhookCommand{Provider: domain.ProviderSadad, GatewayTxID: "MM-9001", Status: "paid"}

	_, err := webhook.Handle(ctx, cmd)
	require.NoError(t, err)
	updated, err := webhook.Handle(ctx, cmd)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, updated.Status)
	assert.Len(t, f.events.completed, 1, "second delivery must not publish again")
}

func TestWebhookFailureMarksPaymentFailed(t *testing.T) {
	server := mobileMoneyServer(t, "rejected")
	defer server.Close()
	f, webhook := newWebhookFixture(t, server.URL)
	_, payment := f.seedOrder(t, 500.0)
	require.NoError(t, f.payments.UpdateStatus(payment.ID, domain.StatusProcessing))
	f.payments.payments[payment.ID].GatewayTxID = "MM-9001"

	updated, err := webhook.Handle(context.Background(), WebhookCommand{
		Provider:    domain.ProviderSadad,
		GatewayTxID: "MM-9001",
		Status:      "rejected",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, updated.Status)
	assert.Empty(t, f.events.completed)
}

func TestWebhookIgnoresNonTerminalStatus(t *testing.T) {
	server := mobileMoneyServer(t, "in_review")
	defer server.Close()
	f, webhook := newWebhookFixture(t, server.URL)
	_, payment := f.seedOrder(t, 500.0)
	require.NoError(t, f.payments.UpdateStatus(payment.ID, domain.StatusProcessing))
	f.payments.payments[payment.ID].GatewayTxID = "MM-9001"

	updated, err := webhook.Handle(context.Background(), WebhookCommand{
		Provider:    domain.ProviderSadad,
		GatewayTxID: "MM-9001",
		Status:      "in_review",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, updated.Status)
	assert.Empty(t, f.events.completed)
}

func TestWebhookUnknownTransactionRejected(t *testing.T) {
	server := mobileMoneyServer(t, "paid")
	defer server.Close()
	_, webhook := newWebhookFixture(t, server.URL)

	_, err := webhook.Handle(context.Background(), WebhookCommand{
		Provider:    domain.ProviderSadad,
		GatewayTxID: "MM-UNKNOWN",
	})
	require.Error(t, err)
}
