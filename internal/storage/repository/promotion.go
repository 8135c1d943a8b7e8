package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/subscription-settlement/internal/models"
)

// RecordPromotionPurchase записывает покупку промо-услуги. Для несуммируемых
// типов инвариант «не более одной покупки на пользователя» обеспечивает
// частичный уникальный индекс: повторная запись возвращает ErrAlreadyPurchased.
func (s *Storage) RecordPromotionPurchase(ctx context.Context, userUID string, promoType models.PromotionType) error {
	const op = "storage.RecordPromotionPurchase"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if promoType.Stackable() {
		query := `INSERT INTO promotion_purchases (user_uid, promo_type, stackable)
				  VALUES ($1, $2, true)`
		if _, err := s.DB.ExecContext(ctx, query, userUID, string(promoType)); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	}

	query := `INSERT INTO promotion_purchases (user_uid, promo_type, stackable)
			  VALUES ($1, $2, false)
			  ON CONFLICT (user_uid, promo_type) WHERE NOT stackable DO NOTHING`
	result, err := s.DB.ExecContext(ctx, query, userUID, string(promoType))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrAlreadyPurchased)
	}
	return nil
}

// ListPromotionPurchases возвращает все покупки промо-услуг пользователя.
func (s *Storage) ListPromotionPurchases(ctx context.Context, userUID string) ([]*models.PromotionPurchase, error) {
	const op = "storage.ListPromotionPurchases"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_uid, promo_type, stackable, created_at
			  FROM promotion_purchases
			  WHERE user_uid = $1
			  ORDER BY created_at`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.PromotionPurchase
	for rows.Next() {
		var item models.PromotionPurchase
		var promoType string
		if err := rows.Scan(&item.UserUID, &promoType, &item.Stackable, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		item.Type = models.PromotionType(promoType)
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
