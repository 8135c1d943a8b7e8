package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/subscription-settlement/internal/models"
	"github.com/magabrotheeeer/subscription-settlement/internal/plans"
)

// GetSubscription возвращает подписку пользователя на платформе.
// Отсутствие записи трактуется вызывающей стороной как план Free.
func (s *Storage) GetSubscription(ctx context.Context, userUID, platform string) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_uid, platform, plan, period_end, updated_at
			  FROM subscriptions
			  WHERE user_uid = $1 AND platform = $2`
	row := s.DB.QueryRowContext(ctx, query, userUID, platform)

	var result models.Subscription
	var planName string
	if err := row.Scan(&result.UserUID, &result.Platform, &planName,
		&result.PeriodEnd, &result.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrSubscriptionNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	plan, ok := plans.ParsePlan(planName)
	if !ok {
		return nil, fmt.Errorf("%s: unknown plan %q in storage", op, planName)
	}
	result.Plan = plan
	return &result, nil
}

// UpsertSubscription записывает подписку (план и окончание периода) для пары
// (пользователь, платформа). Запись условная: применяется только если текущий
// план в базе совпадает со снимком expected, прочитанным на этапе валидации.
// Проигравший гонку вызов получает ErrSubscriptionConflict, что исключает
// двойное применение одного повышения.
func (s *Storage) UpsertSubscription(ctx context.Context, userUID, platform string,
	plan plans.Plan, periodEnd time.Time, expected plans.Plan) error {
	const op = "storage.UpsertSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (user_uid, platform, plan, period_end)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (user_uid, platform) DO UPDATE
			  SET plan = EXCLUDED.plan, period_end = EXCLUDED.period_end, updated_at = now()
			  WHERE subscriptions.plan = $5`
	result, err := s.DB.ExecContext(ctx, query,
		userUID, platform, plan.String(), periodEnd, expected.String())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrSubscriptionConflict)
	}
	return nil
}

// CreateFreeSubscription создаёт базовую запись плана Free для пары
// (пользователь, платформа), если записи ещё нет. Существующая запись
// не изменяется.
func (s *Storage) CreateFreeSubscription(ctx context.Context, userUID, platform string) error {
	const op = "storage.CreateFreeSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (user_uid, platform, plan, period_end)
			  VALUES ($1, $2, $3, now())
			  ON CONFLICT (user_uid, platform) DO NOTHING`
	_, err := s.DB.ExecContext(ctx, query, userUID, platform, plans.Free.String())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
