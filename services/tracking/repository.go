package tracking

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository describes database operations available for tracking codes.
type Repository interface {
	CreateCode(ctx context.Context, code *Code) error
	GetCodeByPair(ctx context.Context, campaignID, creatorID string) (*Code, error)
	GetCodeByValue(ctx context.Context, value string) (*Code, error)
	CodeValueExists(ctx context.Context, value string) (bool, error)
	// RecordEvent inserts the event, updates the code aggregates and, for
	// conversions, inserts the sale row in one transaction.
	RecordEvent(ctx context.Context, event *Event, sale *SalesEvent) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository returns a gorm backed Repository implementation.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateCode(ctx context.Context, code *Code) error {
	if r == nil || r.db == nil {
		return gorm.ErrInvalidDB
	}
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *gormRepository) GetCodeByPair(ctx context.Context, campaignID, creatorID string) (*Code, error) {
	if r == nil || r.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	var code Code
	err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND creator_id = ?", campaignID, creatorID).
		First(&code).Error
	if err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *gormRepository) GetCodeByValue(ctx context.Context, value string) (*Code, error) {
	if r == nil || r.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	var code Code
	err := r.db.WithContext(ctx).Where("code = ?", value).First(&code).Error
	if err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *gormRepository) CodeValueExists(ctx context.Context, value string) (bool, error) {
	if r == nil || r.db == nil {
		return false, gorm.ErrInvalidDB
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&Code{}).Where("code = ?", value).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *gormRepository) RecordEvent(ctx context.Context, event *Event, sale *SalesEvent) error {
	if r == nil || r.db == nil {
		return gorm.ErrInvalidDB
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(event).Error; err != nil {
			return err
		}

		updates := map[string]any{"updated_at": event.CreatedAt}
		switch event.EventType {
		case EventClick:
			updates["clicks"] = gorm.Expr("clicks + 1")
		case EventConversion:
			updates["conversions"] = gorm.Expr("conversions + 1")
			updates["revenue_generated"] = gorm.Expr("revenue_generated + ?", event.Amount)
		case EventRefund:
			updates["revenue_generated"] = gorm.Expr("revenue_generated - ?", event.Amount)
		}

		res := tx.Model(&Code{}).
			Where("code_id = ?", event.TrackingCodeID).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.New("tracking code disappeared during event insert")
		}

		if sale != nil {
			return tx.Create(sale).Error
		}
		return nil
	})
}
