package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"micro-missions/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WalletLedger owns user balances. Balances only go up, and only next to the
// Reward rows that explain them.
type WalletLedger struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewWalletLedger(db *gorm.DB) *WalletLedger {
	return &WalletLedger{DB: db, Now: func() time.Time { return time.Now().UTC() }}
}

func newWallet(userID string, now time.Time) *models.Wallet {
	return &models.Wallet{
		ID:              uuid.NewString(),
		UserID:          userID,
		Currency:        models.DefaultCurrency,
		TransactionRefs: []string{},
		UpdatedAt:       now,
	}
}

func (w *WalletLedger) ensureWallet(db *gorm.DB, userID string) error {
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(newWallet(userID, w.Now())).Error; err != nil {
		return fmt.Errorf("failed to create wallet for %s: %w", userID, err)
	}
	return nil
}

// Credit adds amount to the user's balance and records rewardRef, in its own transaction.
func (w *WalletLedger) Credit(ctx context.Context, userID string, amount int64, rewardRef string) (*models.Wallet, error) {
	var wallet *models.Wallet
	err := w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		wallet, err = w.credit(tx, userID, amount, rewardRef)
		return err
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

// credit runs on the caller's transaction so the balance change commits or
// rolls back together with the reward rows.
func (w *WalletLedger) credit(tx *gorm.DB, userID string, amount int64, rewardRef string) (*models.Wallet, error) {
	if amount < 0 {
		return nil, ErrInvalidAmount
	}
	if err := w.ensureWallet(tx, userID); err != nil {
		return nil, err
	}

	var wallet models.Wallet
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&wallet).Error; err != nil {
		return nil, fmt.Errorf("failed to lock wallet for %s: %w", userID, err)
	}

	wallet.TotalBalance += amount
	wallet.TransactionRefs = append(wallet.TransactionRefs, rewardRef)
	wallet.UpdatedAt = w.Now()

	if err := tx.Save(&wallet).Error; err != nil {
		return nil, fmt.Errorf("failed to credit wallet for %s: %w", userID, err)
	}
	return &wallet, nil
}

// GetWallet returns the user's wallet, creating an empty one on first read.
func (w *WalletLedger) GetWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	db := w.DB.WithContext(ctx)
	var wallet models.Wallet
	err := db.Where("user_id = ?", userID).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := w.ensureWallet(db, userID); err != nil {
			return nil, err
		}
		err = db.Where("user_id = ?", userID).First(&wallet).Error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet for %s: %w", userID, err)
	}
	return &wallet, nil
}

// RewardHistory lists the user's rewards, newest first.
func (w *WalletLedger) RewardHistory(ctx context.Context, userID string, limit int) ([]models.Reward, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	var rewards []models.Reward
	if err := w.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rewards).Error; err != nil {
		return nil, fmt.Errorf("failed to load reward history: %w", err)
	}
	return rewards, nil
}
