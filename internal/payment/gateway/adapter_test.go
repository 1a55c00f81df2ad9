package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/medsouq/marketplace/internal/payment/domain"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"mapped success", "success", domain.StatusCompleted},
		{"mapped with whitespace and case", "  Paid ", domain.StatusCompleted},
		{"mapped failure", "rejected", domain.StatusFailed},
		{"unmapped defaults to pending, never completed", "definitely_done", domain.StatusPending},
		{"empty defaults to pending", "", domain.StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeStatus(mobileMoneyVocabulary, tt.raw))
		})
	}
}

func TestMobileMoneyAdapter_Initiate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/charges", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var payload mobileMoneyInitiatePayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, 250.0, payload.Amount)

		json.NewEncoder(w).Encode(mobileMoneyInitiateResult{
			TransactionID: "SD-991",
			Status:        "initiated",
			QRCode:        "sadad://pay/SD-991",
		})
	}))
	defer server.Close()

	adapter := NewMobileMoneyAdapter(domain.ProviderSadad, server.URL, "key")
	resp, err := adapter.Initiate(context.Background(), InitiateRequest{
		OrderNumber: "ORD-1",
		Amount:      250,
		Currency:    "LYD",
		Account:     "0912345678",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, domain.StatusPending, resp.Status)
	assert.Equal(t, "SD-991", resp.GatewayTxID)
	assert.NotEmpty(t, resp.QRCode)
}

func TestMobileMoneyAdapter_CheckStatus_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
	}))
	defer server.Close()

	adapter := NewMobileMoneyAdapter(domain.ProviderSadad, server.URL, "key")
	adapter.client.client.Timeout = 10 * time.Millisecond

	_, err := adapter.CheckStatus(context.Background(), "SD-1")
	assert.Error(t, err)
}

func TestCardAdapter_Initiate_ReturnsRedirect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(cardSessionResult{
			SessionID:  "sess_42",
			PaymentURL: "https://pay.example/sess_42",
			Status:     "created",
		})
	}))
	defer server.Close()

	adapter := NewCardAdapter(domain.ProviderMoamalat, server.URL, "key")
	resp, err := adapter.Initiate(context.Background(), InitiateRequest{Amount: 100, Currency: "LYD"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "https://pay.example/sess_42", resp.RedirectURL)
	assert.Equal(t, domain.StatusPending, resp.Status)
}

type stubPaymentRepo struct {
	domain.PaymentRepository
	payment *domain.Payment
}

func (s *stubPaymentRepo) FindByGatewayTxID(string) (*domain.Payment, error) {
	if s.payment == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.payment, nil
}

func TestBankTransferAdapter_StatusReadsLocalRecord(t *testing.T) {
	repo := &stubPaymentRepo{payment: &domain.Payment{
		Status:   domain.StatusPending,
		Amount:   900,
		Currency: "LYD",
	}}

	adapter := NewBankTransferAdapter(domain.ProviderCBL, "https://bank.example/instructions", repo)

	initResp, err := adapter.Initiate(context.Background(), InitiateRequest{OrderNumber: "ORD-5"})
	require.NoError(t, err)
	assert.True(t, initResp.Success)
	assert.NotEmpty(t, initResp.Reference)
	assert.Contains(t, initResp.RedirectURL, "ORD-5")

	// No provider call happens: the local record is authoritative until
	// reconciliation updates it.
	status, err := adapter.CheckStatus(context.Background(), initResp.Reference)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, status.Status)
	assert.Equal(t, 900.0, status.Amount)
}
