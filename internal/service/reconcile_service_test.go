package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchantloop/adyen-reconciler/internal/models"
	"github.com/merchantloop/adyen-reconciler/internal/utils"
	"github.com/merchantloop/adyen-reconciler/pkg/adyen"
)

type mockOrderStore struct {
	saveCalls int
	err       error
}

func (m *mockOrderStore) Save(_ context.Context, _ *models.Order) error {
	m.saveCalls++
	return m.err
}

type mockQuoteStore struct {
	disableCalls int
	lastQuoteID  int64
	err          error
}

func (m *mockQuoteStore) Disable(_ context.Context, quoteID int64) error {
	m.disableCalls++
	m.lastQuoteID = quoteID
	return m.err
}

type mockVault struct {
	captureCalls int
}

func (m *mockVault) CaptureRecurringDetails(_ *models.Payment, _ *adyen.PaymentsResponse) {
	m.captureCalls++
}

type mockCanceler struct {
	cancelCalls int
	err         error
}

func (m *mockCanceler) Cancel(_ context.Context, _ *models.Order) error {
	m.cancelCalls++
	return m.err
}

type testEnv struct {
	svc      *ReconcileService
	orders   *mockOrderStore
	quotes   *mockQuoteStore
	vault    *mockVault
	canceler *mockCanceler
}

func newTestEnv() *testEnv {
	env := &testEnv{
		orders:   &mockOrderStore{},
		quotes:   &mockQuoteStore{},
		vault:    &mockVault{},
		canceler: &mockCanceler{},
	}
	env.svc = NewReconcileService(env.orders, env.quotes, env.vault, env.canceler)
	return env
}

func newTestOrder() *models.Order {
	return &models.Order{
		EntityID:    42,
		IncrementID: "100000042",
		QuoteID:     77,
		State:       models.OrderStatePendingPayment,
		Status:      "pending_payment",
	}
}

func TestReconcileEmptyResponse(t *testing.T) {
	env := newTestEnv()
	payment := &models.Payment{EntityID: 1}
	order := newTestOrder()

	for _, resp := range []*adyen.PaymentsResponse{nil, {}} {
		ok, err := env.svc.Reconcile(context.Background(), resp, payment, order)

		require.NoError(t, err)
		assert.False(t, ok)
	}

	assert.Nil(t, payment.AdditionalInformation("resultCode"))
	assert.Zero(t, env.orders.saveCalls)
	assert.Zero(t, env.quotes.disableCalls)
	assert.Zero(t, env.vault.captureCalls)
	assert.Zero(t, env.canceler.cancelCalls)
}

func TestReconcileIntermediateCodes(t *testing.T) {
	codes := []adyen.ResultCode{
		adyen.ResultPresentToShopper,
		adyen.ResultPending,
		adyen.ResultReceived,
		adyen.ResultIdentifyShopper,
		adyen.ResultChallengeShopper,
	}

	for _, code := range codes {
		t.Run(string(code), func(t *testing.T) {
			env := newTestEnv()
			payment := &models.Payment{EntityID: 1}

			ok, err := env.svc.Reconcile(context.Background(), &adyen.PaymentsResponse{
				ResultCode:   code,
				PSPReference: "8815329842815151",
			}, payment, newTestOrder())

			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, string(code), payment.AdditionalInformation("resultCode"))
			assert.Equal(t, "8815329842815151", payment.AdditionalInformation("pspReference"))
			assert.Zero(t, env.orders.saveCalls)
			assert.Zero(t, env.quotes.disableCalls)
			assert.Zero(t, env.vault.captureCalls)
			assert.Zero(t, env.canceler.cancelCalls)
		})
	}
}

func TestReconcileFieldCaptureNeverClears(t *testing.T) {
	env := newTestEnv()
	payment := &models.Payment{EntityID: 1}
	additionalData := adyen.RawPayload(`{"paymentMethod":"scheme"}`)

	ok, err := env.svc.Reconcile(context.Background(), &adyen.PaymentsResponse{
		ResultCode:     adyen.ResultReceived,
		AdditionalData: additionalData,
	}, payment, nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, additionalData, payment.AdditionalInformation("additionalData"))

	// A later response without additionalData must not clear the stored entry.
	ok, err = env.svc.Reconcile(context.Background(), &adyen.PaymentsResponse{
		ResultCode: adyen.ResultPending,
	}, payment, nil)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, additionalData, payment.AdditionalInformation("additionalData"))
	assert.Equal(t, string(adyen.ResultPending), payment.AdditionalInformation("resultCode"))
}

func TestReconcileRedirectShopper(t *testing.T) {
	env := newTestEnv()
	payment := &models.Payment{EntityID: 1}
	order := newTestOrder()

	ok, err := env.svc.Reconcile(context.Background(), &adyen.PaymentsResponse{
		ResultCode: adyen.ResultRedirectShopper,
		Action:     adyen.RawPayload(`{"type":"redirect"}`),
	}, payment, order)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, env.orders.saveCalls)
	require.Len(t, order.History, 1)
	assert.Contains(t, order.History[0].Comment, "redirected")
}

func TestReconcileRedirectShopperWithoutOrder(t *testing.T) {
	env := newTestEnv()
	payment := &models.Payment{EntityID: 1}

	ok, err := env.svc.Reconcile(context.Background(), &adyen.PaymentsResponse{
		ResultCode: adyen.ResultRedirectShopper,
	}, payment, nil)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, env.orders.saveCalls)
}

func TestReconcileAuthorised(t *testing.T) {
	env := newTestEnv()
	payment := &models.Payment{EntityID: 1}
	order := newTestOrder()

	ok, err := env.svc.Reconcile(context.Background(), &adyen.PaymentsResponse{
		ResultCode:    adyen.ResultAuthorised,
		PSPReference:  "8815329842815151",
		DonationToken: "donation-abc",
	}, payment, order)

	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, "8815329842815151", payment.CcTransID)
	assert.Equal(t, "8815329842815151", payment.LastTransID)
	assert.Equal(t, "8815329842815151", payment.TransactionID)
	assert.Equal(t, "donation-abc", payment.AdditionalInformation("donationToken"))

	assert.Equal(t, 1, env.vault.captureCalls)
	assert.Equal(t, 1, env.orders.saveCalls)
	assert.Equal(t, 1, env.quotes.disableCalls)
	assert.Equal(t, int64(77), env.quotes.lastQuoteID)
	assert.Zero(t, env.canceler.cancelCalls)
}

func TestReconcileAuthorisedWithoutPSPReference(t *testing.T) {
	env := newTestEnv()
	payment := &models.Payment{EntityID: 1}

	ok, err := env.svc.Reconcile(context.Background(), &adyen.PaymentsResponse{
		ResultCode: adyen.ResultAuthorised,
	}, payment, newTestOrder())

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, payment.CcTransID)
	assert.Empty(t, payment.LastTransID)
	assert.Empty(t, payment.TransactionID)
}

func TestReconcileAuthorisedQuoteDisableFailureIsSwallowed(t *testing.T) {
	env := newTestEnv()
	env.quotes.err = errors.New("redis down")
	payment := &models.Payment{EntityID: 1}

	ok, err := env.svc.Reconcile(context.Background(), &adyen.PaymentsResponse{
		ResultCode:   adyen.ResultAuthorised,
		PSPReference: "8815329842815151",
	}, payment, newTestOrder())

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, env.quotes.disableCalls)
}

func TestReconcileAuthorisedOrderSaveFailurePropagates(t *testing.T) {
	env := newTestEnv()
	env.orders.err = errors.New("deadlock detected")
	payment := &models.Payment{EntityID: 1}

	ok, err := env.svc.Reconcile(context.Background(), &adyen.PaymentsResponse{
		ResultCode:   adyen.ResultAuthorised,
		PSPReference: "8815329842815151",
	}, payment, newTestOrder())

	assert.False(t, ok)
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrOrderPersistence)
	// Side effects past the save must not run.
	assert.Zero(t, env.quotes.disableCalls)
}

func TestReconcileRefused(t *testing.T) {
	env := newTestEnv()
	payment := &models.Payment{EntityID: 1}
	order := newTestOrder()
	order.State = models.OrderStateProcessing

	ok, err := env.svc.Reconcile(context.Background(), &adyen.PaymentsResponse{
		ResultCode:   adyen.ResultRefused,
		PSPReference: "8815329842815151",
	}, payment, order)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, models.OrderStateNew, order.State)
	assert.True(t, order.CancelRequested)
	assert.Equal(t, 1, env.orders.saveCalls)
	assert.Equal(t, 1, env.canceler.cancelCalls)
	assert.Zero(t, env.quotes.disableCalls)
	assert.Zero(t, env.vault.captureCalls)
}

func TestReconcileRefusedWithoutOrder(t *testing.T) {
	env := newTestEnv()
	payment := &models.Payment{EntityID: 1}

	ok, err := env.svc.Reconcile(context.Background(), &adyen.PaymentsResponse{
		ResultCode: adyen.ResultRefused,
	}, payment, nil)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, env.orders.saveCalls)
	assert.Zero(t, env.canceler.cancelCalls)
}

func TestReconcileErrorLogsSerializedResponse(t *testing.T) {
	var buf bytes.Buffer
	orig := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = orig }()

	for _, code := range []adyen.ResultCode{adyen.ResultError, adyen.ResultCancelled, "TotallyUnknown"} {
		t.Run(string(code), func(t *testing.T) {
			buf.Reset()
			env := newTestEnv()
			payment := &models.Payment{EntityID: 1}

			ok, err := env.svc.Reconcile(context.Background(), &adyen.PaymentsResponse{
				ResultCode:   code,
				PSPReference: "8815329842815151",
			}, payment, newTestOrder())

			require.NoError(t, err)
			assert.False(t, ok)
			assert.Contains(t, buf.String(), "8815329842815151")
			assert.Contains(t, buf.String(), string(code))
			// Field capture still happened before the branch.
			assert.Equal(t, string(code), payment.AdditionalInformation("resultCode"))
			assert.Zero(t, env.orders.saveCalls)
			assert.Zero(t, env.canceler.cancelCalls)
		})
	}
}
