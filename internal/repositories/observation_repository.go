package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"foodinsight/internal/models/db_models"
)

type ObservationRepository interface {
	Insert(ctx context.Context, observation *db_models.Observation) error
	// ListByAccount returns newest first; limit <= 0 means no limit.
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]db_models.Observation, error)
	ImageNamesByAccount(ctx context.Context, accountID uuid.UUID) ([]string, error)
}

type observationRepository struct {
	db *gorm.DB
}

func NewObservationRepository(db *gorm.DB) ObservationRepository {
	return &observationRepository{db: db}
}

func (o *observationRepository) Insert(ctx context.Context, observation *db_models.Observation) error {
	if err := o.db.WithContext(ctx).Create(observation).Error; err != nil {
		return fmt.Errorf("insert observation: %w", err)
	}
	return nil
}

func (o *observationRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]db_models.Observation, error) {
	var observations []db_models.Observation
	q := o.db.WithContext(ctx).Where("account_id = ?", accountID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&observations).Error; err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}
	return observations, nil
}

func (o *observationRepository) ImageNamesByAccount(ctx context.Context, accountID uuid.UUID) ([]string, error) {
	var names []string
	err := o.db.WithContext(ctx).Model(&db_models.Observation{}).
		Where("account_id = ? AND food_image <> ''", accountID).
		Pluck("food_image", &names).Error
	if err != nil {
		return nil, fmt.Errorf("list observation images: %w", err)
	}
	return names, nil
}
