// Package settlement содержит ядро движка расчётов: проверку права на
// операцию, списание средств через реестр и фиксацию изменения права.
//
// Каждая операция проходит одну и ту же цепочку: валидация → проверка
// баланса → перевод → подтверждение → запись права. Перевод необратим,
// поэтому порядок шагов принципиален: запись права выполняется только
// после подтверждения перевода, а подтверждённый перевод с неприменившейся
// записью права — «грязный» расчёт, о котором публикуется алерт для
// внешней сверки. Ядро не делает повторных отправок перевода: повтор
// на стороне вызывающего рискует двойным списанием.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-settlement/internal/lib/keybox"
	"github.com/magabrotheeeer/subscription-settlement/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-settlement/internal/models"
	"github.com/magabrotheeeer/subscription-settlement/internal/plans"
	"github.com/magabrotheeeer/subscription-settlement/internal/rabbitmq"
	"github.com/magabrotheeeer/subscription-settlement/internal/storage/repository"
)

// subscriptionEndFormat формат даты окончания периода в Outcome.
const subscriptionEndFormat = "02-01-2006"

// cacheTTL время жизни кешированной записи права.
const cacheTTL = time.Hour

// EntitlementStore определяет методы хранилища прав.
type EntitlementStore interface {
	// GetUser возвращает снимок пользователя по UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	// GetSubscription возвращает подписку пользователя на платформе.
	GetSubscription(ctx context.Context, userUID, platform string) (*models.Subscription, error)
	// UpsertSubscription условно записывает подписку; при расхождении
	// со снимком expected возвращает ErrSubscriptionConflict.
	UpsertSubscription(ctx context.Context, userUID, platform string, plan plans.Plan, periodEnd time.Time, expected plans.Plan) error
	// CreateFreeSubscription создаёт базовую запись Free, если записи нет.
	CreateFreeSubscription(ctx context.Context, userUID, platform string) error
	// RecordPromotionPurchase записывает покупку промо-услуги.
	RecordPromotionPurchase(ctx context.Context, userUID string, promoType models.PromotionType) error
	// MarkDonated идемпотентно помечает пользователя как жертвователя.
	MarkDonated(ctx context.Context, userUID string) error
}

// BalanceOracle запрашивает доступный баланс счёта в реестре.
type BalanceOracle interface {
	GetBalance(ctx context.Context, address string) (uint64, error)
}

// TransferService отправляет перевод и ожидает его подтверждения.
// Возвращает подпись подтверждённого перевода.
type TransferService interface {
	Transfer(ctx context.Context, from, to string, amount uint64, signingKey []byte) (string, error)
}

// Publisher публикует сообщения о расчётах для внешних потребителей.
type Publisher interface {
	Publish(routingKey string, message any) error
}

// Cache описывает методы для кеширования читаемых прав.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Config параметры расчёта.
type Config struct {
	OperatorAddress string // Счёт оператора, на который уходят списания
	FeeReserve      uint64 // Резерв на комиссию подписи, вычитается из суммы
	MasterKey       []byte // Мастер-ключ для распечатывания подписывающих ключей
}

// Service реализует workflow расчётов: повышение плана, пожертвование
// и покупку промо-услуги.
type Service struct {
	store     EntitlementStore
	oracle    BalanceOracle
	transfers TransferService
	publisher Publisher
	cache     Cache
	cfg       Config
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(store EntitlementStore, oracle BalanceOracle, transfers TransferService,
	publisher Publisher, cache Cache, cfg Config, log *slog.Logger) *Service {
	return &Service{
		store:     store,
		oracle:    oracle,
		transfers: transfers,
		publisher: publisher,
		cache:     cache,
		cfg:       cfg,
		log:       log,
	}
}

// UpgradeSubscription повышает тарифный план пользователя на платформе.
// Все исходы, включая сбои внешних вызовов, отображаются в Outcome:
// наружу не выходит ни одной ошибки.
func (s *Service) UpgradeSubscription(ctx context.Context, userUID string, requested plans.Plan, platform string) models.Outcome {
	const op = "settlement.UpgradeSubscription"
	log := s.log.With(
		slog.String("op", op),
		slog.String("user_uid", userUID),
		slog.String("plan", requested.String()),
		slog.String("platform", platform),
	)

	user, err := s.store.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			log.Info("user not found")
			return models.Failure(models.ReasonNoUserFound)
		}
		log.Error("failed to fetch user", sl.Err(err))
		return models.Failure(models.ReasonInternalError)
	}

	current := plans.Free
	hasRow := false
	sub, err := s.store.GetSubscription(ctx, userUID, platform)
	switch {
	case err == nil:
		current = sub.Plan
		hasRow = true
	case errors.Is(err, repository.ErrSubscriptionNotFound):
		// записи нет — пользователь на Free
	default:
		log.Error("failed to fetch subscription", sl.Err(err))
		return models.Failure(models.ReasonInternalError)
	}

	// повышение допустимо только со строго меньшего ранга:
	// тот же план и понижение отклоняются до обращения к реестру
	if requested.Rank() <= current.Rank() {
		log.Info("no valid upgrade", slog.String("current", current.String()))
		return models.Failure(models.ReasonUserAlreadyPaid)
	}

	price, ok := requested.Price()
	if !ok {
		log.Info("requested plan has no price")
		return models.Failure(models.ReasonInvalidPlan)
	}

	balance, err := s.oracle.GetBalance(ctx, user.AccountAddress)
	if err != nil {
		// сбой запроса баланса для вызывающей стороны неотличим от нехватки средств
		log.Warn("balance query failed", sl.Err(err))
		return models.Failure(models.ReasonInsufficientBalance)
	}
	if balance < price {
		log.Info("insufficient balance",
			slog.Uint64("balance", balance), slog.Uint64("price", price))
		if !hasRow {
			// базовая запись Free, чтобы у будущих вызовов была точка отсчёта;
			// сбой этой записи не меняет результат
			if err := s.store.CreateFreeSubscription(ctx, userUID, platform); err != nil {
				log.Warn("failed to create free-tier subscription", sl.Err(err))
			}
		}
		return models.Failure(models.ReasonInsufficientBalance)
	}

	sig, err := s.transfer(ctx, user, price)
	if err != nil {
		log.Error("transfer failed", sl.Err(err))
		return models.Failure(models.ReasonInternalError)
	}

	periodEnd := time.Now().Add(requested.Period())
	transferred := price - s.cfg.FeeReserve

	if err := s.store.UpsertSubscription(ctx, userUID, platform, requested, periodEnd, current); err != nil {
		// средства уже ушли: состояние хранилища «грязное»
		s.alert(log, models.SettlementAlert{
			UserUID:     userUID,
			Operation:   "upgrade",
			Amount:      transferred,
			TransferSig: sig,
			Reason:      err.Error(),
		})
		if errors.Is(err, repository.ErrSubscriptionConflict) {
			// параллельный вызов применил свою запись первым
			return models.Failure(models.ReasonInternalError)
		}
		// списание состоялось, поэтому вызывающая сторона получает успех,
		// а расхождение разбирает внешняя сверка по алерту
		return models.Outcome{
			Success:         true,
			Message:         models.ReasonPlanUpgraded,
			SubscriptionEnd: periodEnd.Format(subscriptionEndFormat),
		}
	}

	s.invalidateEntitlement(ctx, log, userUID, platform)
	s.receipt(log, models.SettlementReceipt{
		UserUID:   userUID,
		Operation: "upgrade",
		Plan:      requested.String(),
		Platform:  platform,
		Amount:    transferred,
		PeriodEnd: periodEnd.Format(subscriptionEndFormat),
	})

	log.Info("plan upgraded",
		slog.String("transfer_sig", sig),
		slog.Time("period_end", periodEnd))
	return models.Outcome{
		Success:         true,
		Message:         models.ReasonPlanUpgraded,
		SubscriptionEnd: periodEnd.Format(subscriptionEndFormat),
	}
}

// MakeDonation списывает добровольное пожертвование и идемпотентно
// помечает пользователя как жертвователя.
func (s *Service) MakeDonation(ctx context.Context, userUID string, amount uint64) models.Outcome {
	const op = "settlement.MakeDonation"
	log := s.log.With(
		slog.String("op", op),
		slog.String("user_uid", userUID),
		slog.Uint64("amount", amount),
	)

	user, err := s.store.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			log.Info("user not found")
			return models.Failure(models.ReasonNoUserFound)
		}
		log.Error("failed to fetch user", sl.Err(err))
		return models.Failure(models.ReasonInternalError)
	}

	balance, err := s.oracle.GetBalance(ctx, user.AccountAddress)
	if err != nil {
		log.Warn("balance query failed", sl.Err(err))
		return models.Failure(models.ReasonInsufficientBalance)
	}
	if balance < amount {
		log.Info("insufficient balance",
			slog.Uint64("balance", balance))
		return models.Failure(models.ReasonInsufficientBalance)
	}

	sig, err := s.transfer(ctx, user, amount)
	if err != nil {
		log.Error("transfer failed", sl.Err(err))
		return models.Failure(models.ReasonInternalError)
	}
	transferred := amount - s.cfg.FeeReserve

	if err := s.store.MarkDonated(ctx, userUID); err != nil {
		// перевод подтверждён, флаг не записан — сверка вне ядра
		s.alert(log, models.SettlementAlert{
			UserUID:     userUID,
			Operation:   "donation",
			Amount:      transferred,
			TransferSig: sig,
			Reason:      err.Error(),
		})
		return models.SuccessOutcome(models.ReasonDonationMade)
	}

	s.receipt(log, models.SettlementReceipt{
		UserUID:   userUID,
		Operation: "donation",
		Amount:    transferred,
	})

	log.Info("donation made", slog.String("transfer_sig", sig))
	return models.SuccessOutcome(models.ReasonDonationMade)
}

// BuyPromotion списывает стоимость промо-услуги и записывает покупку.
// Средства уходят до проверки суммируемости: проверка дешёвая, а перевод —
// дорогой необратимый шаг, на который вызывающая сторона согласилась.
// Поэтому подтверждённый перевод может завершиться неуспешным Outcome,
// если несуммируемая услуга уже была куплена.
func (s *Service) BuyPromotion(ctx context.Context, userUID string, amount uint64, promoType models.PromotionType) models.Outcome {
	const op = "settlement.BuyPromotion"
	log := s.log.With(
		slog.String("op", op),
		slog.String("user_uid", userUID),
		slog.Uint64("amount", amount),
		slog.String("promotion_type", string(promoType)),
	)

	user, err := s.store.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			log.Info("user not found")
			return models.Failure(models.ReasonNoUserFound)
		}
		log.Error("failed to fetch user", sl.Err(err))
		return models.Failure(models.ReasonInternalError)
	}

	balance, err := s.oracle.GetBalance(ctx, user.AccountAddress)
	if err != nil {
		log.Warn("balance query failed", sl.Err(err))
		return models.Failure(models.ReasonInsufficientBalance)
	}
	if balance < amount {
		log.Info("insufficient balance",
			slog.Uint64("balance", balance))
		return models.Failure(models.ReasonInsufficientBalance)
	}

	sig, err := s.transfer(ctx, user, amount)
	if err != nil {
		log.Error("transfer failed", sl.Err(err))
		return models.Failure(models.ReasonInternalError)
	}
	transferred := amount - s.cfg.FeeReserve

	if err := s.store.RecordPromotionPurchase(ctx, userUID, promoType); err != nil {
		s.alert(log, models.SettlementAlert{
			UserUID:     userUID,
			Operation:   "promotion",
			Amount:      transferred,
			TransferSig: sig,
			Reason:      err.Error(),
		})
		if errors.Is(err, repository.ErrAlreadyPurchased) {
			// списание уже состоялось и остаётся у оператора — допущение дизайна
			log.Warn("non-stackable promotion already held, funds kept",
				slog.String("transfer_sig", sig))
			return models.Failure(models.ReasonUserAlreadyPaid)
		}
		// запись не применилась по инфраструктурной причине; аналогично
		// повышению плана вызывающая сторона получает успех
		return models.SuccessOutcome(models.ReasonTransactionSuccess)
	}

	s.receipt(log, models.SettlementReceipt{
		UserUID:   userUID,
		Operation: "promotion",
		Amount:    transferred,
	})

	log.Info("promotion purchased", slog.String("transfer_sig", sig))
	return models.SuccessOutcome(models.ReasonTransactionSuccess)
}

// GetEntitlement возвращает подписку пользователя на платформе,
// используя кеш или хранилище. Отсутствие записи возвращается как nil.
func (s *Service) GetEntitlement(ctx context.Context, userUID, platform string) (*models.Subscription, error) {
	key := entitlementKey(userUID, platform)

	var cached *models.Subscription
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		// кеш деградирует в чтение из базы
		s.log.Warn("failed to read entitlement cache", slog.String("key", key), sl.Err(err))
	}
	if found {
		return cached, nil
	}

	sub, err := s.store.GetSubscription(ctx, userUID, platform)
	if errors.Is(err, repository.ErrSubscriptionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, sub, cacheTTL); err != nil {
		s.log.Warn("failed to cache entitlement", slog.String("key", key), sl.Err(err))
	}
	return sub, nil
}

// transfer распечатывает подписывающий ключ пользователя, выполняет перевод
// amount минус резерв комиссии на счёт оператора и затирает ключ на любом
// пути выхода.
func (s *Service) transfer(ctx context.Context, user *models.User, amount uint64) (string, error) {
	if amount <= s.cfg.FeeReserve {
		return "", fmt.Errorf("amount %d does not cover signature fee reserve %d", amount, s.cfg.FeeReserve)
	}

	signingKey, err := keybox.Open(s.cfg.MasterKey, user.SigningKeyEnc)
	if err != nil {
		return "", fmt.Errorf("unseal signing key: %w", err)
	}
	defer keybox.Zero(signingKey)

	return s.transfers.Transfer(ctx, user.AccountAddress, s.cfg.OperatorAddress, amount-s.cfg.FeeReserve, signingKey)
}

// alert сообщает операторам о «грязном» расчёте: перевод подтверждён,
// запись права не применилась. Публикация best-effort, но событие всегда
// остаётся в логе уровня ERROR.
func (s *Service) alert(log *slog.Logger, a models.SettlementAlert) {
	a.OccurredAt = time.Now()
	log.Error("settlement left dirty state, manual reconciliation required",
		slog.String("operation", a.Operation),
		slog.String("transfer_sig", a.TransferSig),
		slog.String("reason", a.Reason))
	if err := s.publisher.Publish(rabbitmq.RoutingKeyAlert, a); err != nil {
		log.Error("failed to publish settlement alert", sl.Err(err))
	}
}

// receipt публикует квитанцию об успешном изменении права.
func (s *Service) receipt(log *slog.Logger, r models.SettlementReceipt) {
	r.OccurredAt = time.Now()
	if err := s.publisher.Publish(rabbitmq.RoutingKeyReceipt, r); err != nil {
		log.Warn("failed to publish settlement receipt", sl.Err(err))
	}
}

// invalidateEntitlement сбрасывает кеш права после успешного расчёта.
func (s *Service) invalidateEntitlement(ctx context.Context, log *slog.Logger, userUID, platform string) {
	key := entitlementKey(userUID, platform)
	if err := s.cache.Invalidate(ctx, key); err != nil {
		log.Warn("failed to invalidate entitlement cache", slog.String("key", key), sl.Err(err))
	}
}

func entitlementKey(userUID, platform string) string {
	return fmt.Sprintf("entitlement:%s:%s", userUID, platform)
}
