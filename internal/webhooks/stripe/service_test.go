package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	"github.com/kq-050/ArtmarketPlace/internal/settlement"
	pkgerrors "github.com/kq-050/ArtmarketPlace/pkg/errors"
	"github.com/kq-050/ArtmarketPlace/pkg/logger"
)

type fakeSettler struct {
	inputs []settlement.Input
	err    error
}

func (f *fakeSettler) Settle(_ context.Context, input settlement.Input) (*settlement.Result, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return &settlement.Result{}, nil
}

type fakeLister struct {
	items []*stripe.LineItem
	err   error
	calls int
}

func (f *fakeLister) ListLineItems(_ context.Context, _ string) ([]*stripe.LineItem, error) {
	f.calls++
	return f.items, f.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "webhook-test", Level: zerolog.Disabled, Output: io.Discard})
}

func checkoutEvent(t *testing.T, userID uuid.UUID, artworkIDs []uuid.UUID) *stripe.Event {
	t.Helper()
	encoded, err := json.Marshal(artworkIDsToStrings(artworkIDs))
	require.NoError(t, err)

	payload := fmt.Sprintf(`{
		"id": "cs_test_100",
		"payment_intent": "pi_100",
		"amount_total": 10000,
		"metadata": {"userId": %q, "artworkIds": %q},
		"collected_information": {
			"shipping_details": {
				"name": "Dana Reyes",
				"address": {"line1": "12 Pier Ave", "city": "Portland", "state": "OR", "postal_code": "97201", "country": "US"}
			}
		}
	}`, userID, string(encoded))

	return &stripe.Event{
		ID:   "evt_100",
		Type: stripe.EventTypeCheckoutSessionCompleted,
		Data: &stripe.EventData{Raw: json.RawMessage(payload)},
	}
}

func artworkIDsToStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func TestHandleEventSettlesCheckoutCompletion(t *testing.T) {
	settler := &fakeSettler{}
	lister := &fakeLister{items: []*stripe.LineItem{{}, {}}}
	svc, err := NewService(ServiceParams{Settler: settler, LineItems: lister, Log: testLogger()})
	require.NoError(t, err)

	userID := uuid.New()
	artworkIDs := []uuid.UUID{uuid.New(), uuid.New()}

	require.NoError(t, svc.HandleEvent(context.Background(), checkoutEvent(t, userID, artworkIDs)))

	require.Len(t, settler.inputs, 1)
	input := settler.inputs[0]
	require.Equal(t, "pi_100", input.PaymentID)
	require.Equal(t, "evt_100", input.EventID)
	require.Equal(t, userID, input.UserID)
	require.Equal(t, artworkIDs, input.ArtworkIDs)
	require.Equal(t, "Dana Reyes", input.ShippingAddress.Name)
	require.Equal(t, "12 Pier Ave", input.ShippingAddress.Street)
	require.Equal(t, "97201", input.ShippingAddress.PostalCode)
	require.Equal(t, 1, lister.calls)
}

func TestHandleEventIgnoresOtherKinds(t *testing.T) {
	settler := &fakeSettler{}
	svc, err := NewService(ServiceParams{Settler: settler, Log: testLogger()})
	require.NoError(t, err)

	event := &stripe.Event{
		ID:   "evt_200",
		Type: stripe.EventTypeInvoicePaid,
		Data: &stripe.EventData{Raw: json.RawMessage(`{}`)},
	}
	require.NoError(t, svc.HandleEvent(context.Background(), event))
	require.Empty(t, settler.inputs)
}

func TestHandleEventRejectsMalformedMetadata(t *testing.T) {
	settler := &fakeSettler{}
	svc, err := NewService(ServiceParams{Settler: settler, Log: testLogger()})
	require.NoError(t, err)

	event := &stripe.Event{
		ID:   "evt_300",
		Type: stripe.EventTypeCheckoutSessionCompleted,
		Data: &stripe.EventData{Raw: json.RawMessage(`{"id":"cs_test_300","metadata":{"userId":"not-a-uuid","artworkIds":"[]"}}`)},
	}

	handleErr := svc.HandleEvent(context.Background(), event)
	typed := pkgerrors.As(handleErr)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	require.Empty(t, settler.inputs)
}

func TestHandleEventLineItemLookupFailureIsNonFatal(t *testing.T) {
	settler := &fakeSettler{}
	lister := &fakeLister{err: io.ErrUnexpectedEOF}
	svc, err := NewService(ServiceParams{Settler: settler, LineItems: lister, Log: testLogger()})
	require.NoError(t, err)

	require.NoError(t, svc.HandleEvent(context.Background(), checkoutEvent(t, uuid.New(), []uuid.UUID{uuid.New()})))
	require.Len(t, settler.inputs, 1)
}

type memoryStore struct {
	values map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	return m.values[key], nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, exists := m.values[key]; exists {
		return false, nil
	}
	m.values[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "am:idempotency:" + scope + ":" + id
}

func TestIdempotencyGuardMarksAndReleases(t *testing.T) {
	guard, err := NewIdempotencyGuard(newMemoryStore(), time.Hour, "stripe")
	require.NoError(t, err)
	ctx := context.Background()

	seen, err := guard.CheckAndMark(ctx, "evt_100")
	require.NoError(t, err)
	require.False(t, seen)

	seen, err = guard.CheckAndMark(ctx, "evt_100")
	require.NoError(t, err)
	require.True(t, seen)

	require.NoError(t, guard.Delete(ctx, "evt_100"))
	seen, err = guard.CheckAndMark(ctx, "evt_100")
	require.NoError(t, err)
	require.False(t, seen)
}

func TestIdempotencyGuardValidatesConstruction(t *testing.T) {
	_, err := NewIdempotencyGuard(nil, time.Hour, "stripe")
	require.Error(t, err)

	_, err = NewIdempotencyGuard(newMemoryStore(), -time.Second, "stripe")
	require.Error(t, err)

	_, err = NewIdempotencyGuard(newMemoryStore(), time.Hour, "")
	require.Error(t, err)
}
