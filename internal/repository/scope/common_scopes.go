package scope

import "gorm.io/gorm"

func OrderByDateAsc(db *gorm.DB) *gorm.DB {
	return db.Order("date ASC")
}

// PreloadTimeSlots loads an availability's slots in start-time order.
// Canonical "HH:MM - HH:MM" strings sort chronologically.
func PreloadTimeSlots(db *gorm.DB) *gorm.DB {
	return db.Preload("TimeSlots", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("slot ASC")
	})
}
