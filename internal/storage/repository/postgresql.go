// Package repository реализует хранилище прав на основе PostgreSQL:
// пользователей с кастодиальными счетами, подписки и покупки промо-услуг.
// Хранилище обеспечивает обнаружение конфликтующих записей подписки
// (оптимистическая проверка снимка плана) и инвариант несуммируемых
// промо-услуг (частичный уникальный индекс).
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

var (
	// ErrUserNotFound пользователь с таким uid отсутствует.
	ErrUserNotFound = errors.New("user not found")
	// ErrSubscriptionNotFound у пользователя нет подписки на платформе.
	ErrSubscriptionNotFound = errors.New("subscription not found")
	// ErrSubscriptionConflict запись подписки изменилась после чтения снимка:
	// параллельный вызов успел применить свою запись первым.
	ErrSubscriptionConflict = errors.New("subscription was modified concurrently")
	// ErrAlreadyPurchased несуммируемая промо-услуга этого типа уже куплена.
	ErrAlreadyPurchased = errors.New("non-stackable promotion already purchased")
)

// Storage инкапсулирует соединение с базой данных PostgreSQL
// и реализует методы работы с правами пользователей.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func (s *Storage) CheckDatabaseReady(ctx context.Context) error {
	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'subscriptions'
    )`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("readiness query failed: %w", err)
	}
	if !exists {
		return errors.New("required table subscriptions is missing")
	}
	return nil
}
