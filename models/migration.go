package models

import (
	"log"

	"gorm.io/gorm"
)

func MigrateTable(db *gorm.DB) {
	err := db.AutoMigrate(
		&Carrier{}, &RateTable{}, &WeightBand{},
		&Shipment{}, &AuditRecord{},
		&ReconciliationRow{}, &ImportBatch{}, &ImportRowError{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
