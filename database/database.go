package database

import (
	"github.com/daramide/media-grab/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init opens the postgres connection and migrates the history table.
// An empty dsn disables persistence entirely.
func Init(dsn string) error {
	if dsn == "" {
		return nil
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	return DB.AutoMigrate(&models.JobRecord{})
}

func Enabled() bool {
	return DB != nil
}

func SaveRecord(record *models.JobRecord) error {
	if DB == nil {
		return nil
	}
	return DB.Save(record).Error
}

func LoadRecent(limit int) ([]models.JobRecord, error) {
	var records []models.JobRecord
	if DB == nil {
		return records, nil
	}
	result := DB.Order("created_at desc").Limit(limit).Find(&records)
	return records, result.Error
}
