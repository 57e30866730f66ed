package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/kq-050/ArtmarketPlace/internal/settlement"
	pkgerrors "github.com/kq-050/ArtmarketPlace/pkg/errors"
	"github.com/kq-050/ArtmarketPlace/pkg/logger"
	"github.com/kq-050/ArtmarketPlace/pkg/types"
)

type settler interface {
	Settle(ctx context.Context, input settlement.Input) (*settlement.Result, error)
}

type lineItemLister interface {
	ListLineItems(ctx context.Context, sessionID string) ([]*stripe.LineItem, error)
}

type ServiceParams struct {
	Settler   settler
	LineItems lineItemLister
	Log       *logger.Logger
}

// Service translates verified Stripe events into settlement attempts. Only
// checkout.session.completed carries work; every other kind is acknowledged
// and dropped.
type Service struct {
	settler   settler
	lineItems lineItemLister
	log       *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Settler == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "settlement service required")
	}
	if params.Log == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		settler:   params.Settler,
		lineItems: params.LineItems,
		log:       params.Log,
	}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session")
		}
		return s.settleSession(ctx, event, &session)
	default:
		return nil
	}
}

func (s *Service) settleSession(ctx context.Context, event *stripe.Event, session *stripe.CheckoutSession) error {
	input, err := buildInput(event, session)
	if err != nil {
		return err
	}

	s.reconcileLineItems(ctx, session.ID, len(input.ArtworkIDs))

	_, err = s.settler.Settle(ctx, input)
	return err
}

// reconcileLineItems cross-checks the provider's line items against the event
// metadata. A mismatch is logged for operator follow-up, never fatal; the
// metadata remains authoritative for which artworks were purchased.
func (s *Service) reconcileLineItems(ctx context.Context, sessionID string, artworkCount int) {
	if s.lineItems == nil || sessionID == "" {
		return
	}
	items, err := s.lineItems.ListLineItems(ctx, sessionID)
	if err != nil {
		s.log.Warn(ctx, fmt.Sprintf("line item lookup failed for session %s: %v", sessionID, err))
		return
	}
	if len(items) != artworkCount {
		s.log.Warn(ctx, fmt.Sprintf(
			"session %s lists %d line items but event metadata names %d artworks",
			sessionID, len(items), artworkCount))
	}
}

// sessionShipping mirrors the shipping block of the checkout session payload.
// Both the current collected_information shape and the legacy top-level
// shipping_details shape are accepted.
type sessionShipping struct {
	CollectedInformation struct {
		ShippingDetails shippingDetails `json:"shipping_details"`
	} `json:"collected_information"`
	ShippingDetails shippingDetails `json:"shipping_details"`
}

type shippingDetails struct {
	Name    string `json:"name"`
	Address struct {
		Line1      string `json:"line1"`
		City       string `json:"city"`
		State      string `json:"state"`
		PostalCode string `json:"postal_code"`
		Country    string `json:"country"`
	} `json:"address"`
}

func buildInput(event *stripe.Event, session *stripe.CheckoutSession) (settlement.Input, error) {
	userID, err := uuid.Parse(session.Metadata["userId"])
	if err != nil {
		return settlement.Input{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse buyer id from session metadata")
	}

	artworkIDs, err := parseArtworkIDs(session.Metadata["artworkIds"])
	if err != nil {
		return settlement.Input{}, err
	}

	paymentID := session.ID
	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		paymentID = session.PaymentIntent.ID
	}

	return settlement.Input{
		PaymentID:       paymentID,
		EventID:         event.ID,
		UserID:          userID,
		ArtworkIDs:      artworkIDs,
		ShippingAddress: parseShipping(event.Data.Raw),
	}, nil
}

func parseArtworkIDs(raw string) ([]uuid.UUID, error) {
	if raw == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session metadata has no artwork ids")
	}
	var encoded []string
	if err := json.Unmarshal([]byte(raw), &encoded); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse artwork ids from session metadata")
	}
	ids := make([]uuid.UUID, 0, len(encoded))
	for _, value := range encoded {
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse artwork id from session metadata")
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session metadata has no artwork ids")
	}
	return ids, nil
}

func parseShipping(raw json.RawMessage) types.Address {
	var envelope sessionShipping
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return types.Address{}
	}
	details := envelope.CollectedInformation.ShippingDetails
	if details.Name == "" && details.Address.Line1 == "" {
		details = envelope.ShippingDetails
	}
	return types.Address{
		Name:       details.Name,
		Street:     details.Address.Line1,
		City:       details.Address.City,
		State:      details.Address.State,
		PostalCode: details.Address.PostalCode,
		Country:    details.Address.Country,
	}
}
