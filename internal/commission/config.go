package commission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kq-050/ArtmarketPlace/pkg/db/models"
	pkgerrors "github.com/kq-050/ArtmarketPlace/pkg/errors"
)

// RateKey is the app_config row holding the current commission rate.
const RateKey = "commission_rate"

// ConfigRepository manages the singleton commission configuration row.
type ConfigRepository interface {
	WithTx(tx *gorm.DB) ConfigRepository
	Find(ctx context.Context, key string) (*models.AppConfig, error)
	Upsert(ctx context.Context, key, value string) error
}

type configRepository struct {
	db *gorm.DB
}

// NewConfigRepository returns a repository bound to the provided database.
func NewConfigRepository(db *gorm.DB) ConfigRepository {
	return &configRepository{db: db}
}

func (r *configRepository) WithTx(tx *gorm.DB) ConfigRepository {
	if tx == nil {
		return r
	}
	return &configRepository{db: tx}
}

func (r *configRepository) Find(ctx context.Context, key string) (*models.AppConfig, error) {
	var row models.AppConfig
	err := r.db.WithContext(ctx).First(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *configRepository) Upsert(ctx context.Context, key, value string) error {
	row := models.AppConfig{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return r.db.WithContext(ctx).Save(&row).Error
}

// ConfigService reads and updates the commission rate. Settlement snapshots
// the rate it reads into the order, so later updates never affect history.
type ConfigService interface {
	CurrentRate(ctx context.Context) (decimal.Decimal, error)
	SetRate(ctx context.Context, rate decimal.Decimal) error
}

type configService struct {
	repo        ConfigRepository
	defaultRate decimal.Decimal
}

// NewConfigService wires the commission config service. defaultRate is used
// when no rate row exists yet.
func NewConfigService(repo ConfigRepository, defaultRate string) (ConfigService, error) {
	if repo == nil {
		return nil, fmt.Errorf("commission config repository required")
	}
	parsed, err := decimal.NewFromString(defaultRate)
	if err != nil {
		return nil, fmt.Errorf("invalid default commission rate %q: %w", defaultRate, err)
	}
	if err := ValidateRate(parsed); err != nil {
		return nil, err
	}
	return &configService{repo: repo, defaultRate: parsed}, nil
}

func (s *configService) CurrentRate(ctx context.Context) (decimal.Decimal, error) {
	row, err := s.repo.Find(ctx, RateKey)
	if err != nil {
		return decimal.Decimal{}, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load commission rate")
	}
	if row == nil {
		return s.defaultRate, nil
	}
	rate, err := decimal.NewFromString(row.Value)
	if err != nil {
		return decimal.Decimal{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "stored commission rate is not numeric")
	}
	if err := ValidateRate(rate); err != nil {
		return decimal.Decimal{}, err
	}
	return rate, nil
}

func (s *configService) SetRate(ctx context.Context, rate decimal.Decimal) error {
	if err := ValidateRate(rate); err != nil {
		return err
	}
	if err := s.repo.Upsert(ctx, RateKey, rate.String()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "store commission rate")
	}
	return nil
}
