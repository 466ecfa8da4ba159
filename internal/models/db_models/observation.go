package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Observation is one analysed food photo together with the body metrics submitted with it.
type Observation struct {
	BaseModel
	AccountID uuid.UUID `gorm:"type:uuid;index;not null"`
	Age       int       `gorm:"not null"`
	Height    float64   `gorm:"not null"` // cm
	Weight    float64   `gorm:"not null"` // kg

	FoodImage      string `gorm:"size:255"`
	FoodName       string `gorm:"size:255"`
	NutritionInfo  string `gorm:"type:text"`
	Assessment     string `gorm:"type:text"`
	DietPlan       string `gorm:"type:text"`
	Recommendation string `gorm:"type:text"`

	// AnalysisFailure is empty for a successful analysis, otherwise the failure kind.
	AnalysisFailure string         `gorm:"size:32"`
	RawAnalysis     datatypes.JSON `gorm:"type:jsonb"`
}
