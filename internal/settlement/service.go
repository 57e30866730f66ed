package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kq-050/ArtmarketPlace/internal/audit"
	"github.com/kq-050/ArtmarketPlace/internal/commission"
	"github.com/kq-050/ArtmarketPlace/internal/inventory"
	"github.com/kq-050/ArtmarketPlace/internal/invoices"
	"github.com/kq-050/ArtmarketPlace/internal/notifications"
	"github.com/kq-050/ArtmarketPlace/internal/orders"
	"github.com/kq-050/ArtmarketPlace/pkg/db"
	"github.com/kq-050/ArtmarketPlace/pkg/db/models"
	"github.com/kq-050/ArtmarketPlace/pkg/enums"
	pkgerrors "github.com/kq-050/ArtmarketPlace/pkg/errors"
	"github.com/kq-050/ArtmarketPlace/pkg/logger"
	"github.com/kq-050/ArtmarketPlace/pkg/metrics"
	"github.com/kq-050/ArtmarketPlace/pkg/types"
)

// Input is one verified payment event ready for settlement.
type Input struct {
	PaymentID       string
	EventID         string
	UserID          uuid.UUID
	ArtworkIDs      []uuid.UUID
	ShippingAddress types.Address
}

// Result reports the settlement outcome. Duplicate is true when the payment
// had already been settled and this attempt short-circuited.
type Result struct {
	Order     *models.Order
	Duplicate bool
	Skipped   []inventory.TransitionResult
}

// Service drives one settlement attempt end to end: commission snapshot,
// inventory transition and ledger write inside a single transaction, then
// invoice, notifications, and the audit entry after commit. Invoice and
// notification failures are logged, never fatal; every fatal failure is
// audited before the attempt returns.
type Service struct {
	db         *db.Client
	orders     *orders.Repository
	rates      commission.ConfigService
	recorder   *audit.Recorder
	renderer   *invoices.Renderer
	invoices   *invoices.Store
	dispatcher *notifications.Dispatcher
	metrics    *metrics.SettlementMetrics
	log        *logger.Logger
}

func NewService(
	client *db.Client,
	orderRepo *orders.Repository,
	rates commission.ConfigService,
	recorder *audit.Recorder,
	renderer *invoices.Renderer,
	invoiceStore *invoices.Store,
	dispatcher *notifications.Dispatcher,
	settlementMetrics *metrics.SettlementMetrics,
	log *logger.Logger,
) *Service {
	return &Service{
		db:         client,
		orders:     orderRepo,
		rates:      rates,
		recorder:   recorder,
		renderer:   renderer,
		invoices:   invoiceStore,
		dispatcher: dispatcher,
		metrics:    settlementMetrics,
		log:        log,
	}
}

// Settle processes one payment event. It is safe to call repeatedly with the
// same payment id; only the first call creates financial records.
func (s *Service) Settle(ctx context.Context, input Input) (*Result, error) {
	started := time.Now()
	ctx = s.log.WithEventID(ctx, input.EventID)
	ctx = s.log.WithUserID(ctx, input.UserID.String())

	result, err := s.settle(ctx, input)
	if err != nil {
		s.metrics.ObserveDuration("failure", time.Since(started))
		return nil, err
	}
	if result.Duplicate {
		s.metrics.IncDuplicate()
		s.metrics.ObserveDuration("duplicate", time.Since(started))
	} else {
		s.metrics.IncSettled()
		s.metrics.ObserveDuration("success", time.Since(started))
	}
	return result, nil
}

func (s *Service) settle(ctx context.Context, input Input) (*Result, error) {
	if err := validateInput(input); err != nil {
		return nil, s.fail(ctx, input, "validate", err)
	}

	rate, err := s.rates.CurrentRate(ctx)
	if err != nil {
		return nil, s.fail(ctx, input, "commission_rate", err)
	}

	artworks, err := s.loadArtworks(ctx, input.ArtworkIDs)
	if err != nil {
		return nil, s.fail(ctx, input, "load_artworks", err)
	}

	result := &Result{}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		order, created, txErr := s.orders.WithTx(tx).FindOrCreate(ctx, input.PaymentID, func() (*models.Order, error) {
			transitions, terr := inventory.MarkSold(ctx, tx, input.ArtworkIDs)
			if terr != nil {
				return nil, terr
			}
			result.Skipped = inventory.Skipped(transitions)
			return s.buildOrder(input, artworks, rate)
		})
		if txErr != nil {
			return txErr
		}
		result.Order = order
		result.Duplicate = !created
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, input, "ledger", err)
	}

	ctx = s.log.WithOrderID(ctx, result.Order.ID.String())
	for _, skip := range result.Skipped {
		s.log.Warn(s.log.WithField(ctx, "artwork_id", skip.ArtworkID.String()),
			fmt.Sprintf("artwork not transitioned: %s", skip.Reason))
	}

	if result.Duplicate {
		s.log.Info(ctx, "payment already settled, acknowledging redelivery")
	} else {
		s.finalize(ctx, result.Order)
	}

	s.recorder.PaymentSucceeded(ctx, input.UserID, result.Order.ID, input.PaymentID, result.Order.TotalCents)
	return result, nil
}

// finalize runs the non-authoritative post-commit steps. Nothing here can
// fail the settlement.
func (s *Service) finalize(ctx context.Context, order *models.Order) {
	buyerName, buyerEmail := s.lookupBuyer(ctx, order.UserID)

	var pdf []byte
	rendered, err := s.renderer.Render(order, buyerName)
	if err != nil {
		s.log.Error(ctx, "invoice render failed", err)
	} else if _, err := s.invoices.Save(order.ID, rendered); err != nil {
		s.log.Error(ctx, "invoice write failed", err)
	} else {
		pdf = rendered
	}

	sales, err := s.artistSales(ctx, order)
	if err != nil {
		s.log.Error(ctx, "artist lookup failed, skipping artist notices", err)
	}
	if err := s.dispatcher.Dispatch(ctx, notifications.DispatchInput{
		Order:       order,
		BuyerEmail:  buyerEmail,
		BuyerName:   buyerName,
		ArtistSales: sales,
		InvoicePDF:  pdf,
	}); err != nil {
		s.log.Error(ctx, "some notifications failed", err)
	}
}

func (s *Service) fail(ctx context.Context, input Input, step string, err error) error {
	s.metrics.IncFailure(step)
	userID := &input.UserID
	if input.UserID == uuid.Nil {
		userID = nil
	}
	s.recorder.PaymentFailed(ctx, userID, input.PaymentID, err)
	return err
}

func (s *Service) buildOrder(input Input, artworks []models.Artwork, rate decimal.Decimal) (*models.Order, error) {
	if len(artworks) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no purchasable artworks in event")
	}

	var gross int64
	items := make([]models.OrderItem, 0, len(artworks))
	for _, artwork := range artworks {
		gross += artwork.PriceCents
		items = append(items, models.OrderItem{
			ArtworkID:  artwork.ID,
			ArtistID:   artwork.ArtistID,
			Title:      artwork.Title,
			PriceCents: artwork.PriceCents,
		})
	}

	breakdown, err := commission.Compute(gross, rate)
	if err != nil {
		return nil, err
	}

	return &models.Order{
		UserID:          input.UserID,
		TotalCents:      gross,
		CommissionCents: breakdown.CommissionCents,
		PayoutCents:     breakdown.PayoutCents,
		CommissionRate:  rate,
		ShippingAddress: input.ShippingAddress,
		PaymentStatus:   enums.PaymentStatusCompleted,
		Status:          enums.OrderStatusPaid,
		Items:           items,
	}, nil
}

func (s *Service) loadArtworks(ctx context.Context, ids []uuid.UUID) ([]models.Artwork, error) {
	var artworks []models.Artwork
	err := s.db.DB().WithContext(ctx).Find(&artworks, "id IN ?", ids).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load artworks")
	}
	return artworks, nil
}

func (s *Service) lookupBuyer(ctx context.Context, userID uuid.UUID) (name, email string) {
	var user models.User
	err := s.db.DB().WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Warn(ctx, "buyer record missing, skipping buyer confirmation")
		return "", ""
	}
	if err != nil {
		s.log.Error(ctx, "buyer lookup failed", err)
		return "", ""
	}
	return user.Name, user.Email
}

// artistSales groups the order's line items per artist and attaches contact
// details plus that artist's share of the payout.
func (s *Service) artistSales(ctx context.Context, order *models.Order) ([]notifications.ArtistSale, error) {
	byArtist := make(map[uuid.UUID][]models.OrderItem)
	var artistIDs []uuid.UUID
	for _, item := range order.Items {
		if _, seen := byArtist[item.ArtistID]; !seen {
			artistIDs = append(artistIDs, item.ArtistID)
		}
		byArtist[item.ArtistID] = append(byArtist[item.ArtistID], item)
	}

	var artists []models.User
	err := s.db.DB().WithContext(ctx).Find(&artists, "id IN ?", artistIDs).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load artists")
	}
	contacts := make(map[uuid.UUID]models.User, len(artists))
	for _, artist := range artists {
		contacts[artist.ID] = artist
	}

	sales := make([]notifications.ArtistSale, 0, len(artistIDs))
	for _, artistID := range artistIDs {
		items := byArtist[artistID]
		var grossShare int64
		for _, item := range items {
			grossShare += item.PriceCents
		}
		breakdown, cerr := commission.Compute(grossShare, order.CommissionRate)
		if cerr != nil {
			return nil, cerr
		}
		contact := contacts[artistID]
		sales = append(sales, notifications.ArtistSale{
			ArtistID:    artistID,
			Email:       contact.Email,
			Name:        contact.Name,
			Items:       items,
			PayoutCents: breakdown.PayoutCents,
		})
	}
	return sales, nil
}

func validateInput(input Input) error {
	if input.PaymentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	if len(input.ArtworkIDs) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "artwork ids are required")
	}
	return nil
}
