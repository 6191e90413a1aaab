package models

import "gorm.io/gorm"

// AutoMigrate creates or updates every table owned by the missions engine.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Mission{},
		&Attempt{},
		&Reward{},
		&Wallet{},
		&Streak{},
		&BadgeType{},
		&UserBadge{},
	)
}
