package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/taskboard/internal/models"
)

var ErrTokenExpiredOrRevoked = errors.New("token expired or revoked")

func (r *GormRepo) AddRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	return translateError(r.DB.WithContext(ctx).Create(t).Error)
}

func (r *GormRepo) FindRefreshByJTI(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func usable(t *models.RefreshToken, now time.Time) bool {
	return !t.Revoked && t.ExpiresAt.After(now)
}

// RotateRefreshToken revokes oldJTI and stores next in one transaction.
// The old token must match tokenHash, be unrevoked and unexpired.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldJTI, tokenHash string, next *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old models.RefreshToken
		if err := forUpdate(tx).Where("jti = ?", oldJTI).First(&old).Error; err != nil {
			return err
		}
		if old.TokenHash != tokenHash || !usable(&old, time.Now().UTC()) {
			return ErrTokenExpiredOrRevoked
		}
		res := tx.Model(&models.RefreshToken{}).
			Where("id = ? AND revoked = ?", old.ID, false).
			Update("revoked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTokenExpiredOrRevoked
		}
		return translateError(tx.Create(next).Error)
	})
}

// RevokeAllForUser marks every unrevoked token of the user as revoked.
func (r *GormRepo) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true)
	return res.RowsAffected, res.Error
}
