package db_models

type Account struct {
	BaseModel
	Email        string `gorm:"size:150;uniqueIndex;not null"`
	Number       string `gorm:"size:15;not null"`
	Name         string `gorm:"size:100;not null"`
	Gender       string `gorm:"size:10;not null"`
	PasswordHash string `gorm:"size:200;not null"`
	Verified     bool   `gorm:"not null;default:false"`

	Observations []Observation `gorm:"foreignKey:AccountID"`
}
