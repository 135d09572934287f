package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/workshop_backend/internal/apperrors"
	"github.com/SscSPs/workshop_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/workshop_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/workshop_backend/internal/core/ports/services"
	"github.com/SscSPs/workshop_backend/internal/dto"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const defaultSweepBatchSize = 100

type subscriptionService struct {
	BaseService
	subscriptionRepo portsrepo.SubscriptionRepositoryWithTx
	accountRepo      portsrepo.AccountRepositoryFacade
	planRepo         portsrepo.PlanRepositoryFacade
	graceDays        int
}

// NewSubscriptionService creates the billing service. graceDays applies to new subscriptions.
func NewSubscriptionService(
	subscriptionRepo portsrepo.SubscriptionRepositoryWithTx,
	accountRepo portsrepo.AccountRepositoryFacade,
	planRepo portsrepo.PlanRepositoryFacade,
	graceDays int,
	options ...ServiceOption,
) portssvc.SubscriptionSvcFacade {
	if graceDays < 0 {
		graceDays = domain.DefaultGraceDays
	}
	return &subscriptionService{
		BaseService:      newBaseService(options...),
		subscriptionRepo: subscriptionRepo,
		accountRepo:      accountRepo,
		planRepo:         planRepo,
		graceDays:        graceDays,
	}
}

var _ portssvc.SubscriptionSvcFacade = (*subscriptionService)(nil)

func (s *subscriptionService) GetSubscription(ctx context.Context, accountID string) (*domain.Subscription, error) {
	return s.subscriptionRepo.FindLatestSubscription(ctx, accountID)
}

func (s *subscriptionService) ListPayments(ctx context.Context, accountID string) ([]domain.Payment, error) {
	return s.subscriptionRepo.ListPayments(ctx, accountID)
}

func (s *subscriptionService) Subscribe(ctx context.Context, accountID string, req dto.SubscribeRequest) (*domain.Subscription, *domain.Payment, error) {
	planCode := strings.ToUpper(strings.TrimSpace(req.PlanCode))
	plan, err := s.planRepo.FindPlanByCode(ctx, planCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: unknown plan %s", apperrors.ErrValidation, planCode)
		}
		return nil, nil, err
	}
	if !plan.IsActive {
		return nil, nil, fmt.Errorf("%w: plan %s is not available", apperrors.ErrValidation, planCode)
	}
	method := req.PaymentMethod
	if method == "" {
		method = domain.MethodPix
	}
	if !method.IsValid() {
		return nil, nil, fmt.Errorf("%w: unknown payment method %s", apperrors.ErrValidation, method)
	}

	var (
		sub     *domain.Subscription
		payment domain.Payment
	)
	err = s.inTx(ctx, s.subscriptionRepo, func(tx pgx.Tx) error {
		if _, err := s.accountRepo.FindAccountForUpdate(ctx, tx, accountID); err != nil {
			return err
		}

		now := s.now()
		today := domain.DateOf(now)
		current, err := s.subscriptionRepo.FindCurrentSubscriptionForUpdate(ctx, tx, accountID)
		switch {
		case err == nil:
			current.PlanCode = plan.PlanCode
			current.MonthlyPrice = plan.Price
			current.Status = domain.SubscriptionActive
			current.LastUpdatedAt = now
			current.LastUpdatedBy = accountID
			if err := s.subscriptionRepo.UpdateSubscription(ctx, tx, *current); err != nil {
				return err
			}
			sub = current
		case errors.Is(err, apperrors.ErrNotFound):
			sub = &domain.Subscription{
				SubscriptionID:  uuid.NewString(),
				AccountID:       accountID,
				PlanCode:        plan.PlanCode,
				MonthlyPrice:    plan.Price,
				Status:          domain.SubscriptionActive,
				StartDate:       today,
				NextBillingDate: domain.AddMonths(today, 1),
				GraceDays:       s.graceDays,
				AuditFields: domain.AuditFields{
					CreatedAt:     now,
					CreatedBy:     accountID,
					LastUpdatedAt: now,
					LastUpdatedBy: accountID,
				},
			}
			if err := s.subscriptionRepo.SaveSubscription(ctx, tx, *sub); err != nil {
				return err
			}
		default:
			return err
		}

		subscriptionID := sub.SubscriptionID
		payment = domain.Payment{
			PaymentID:   uuid.NewString(),
			AccountID:   accountID,
			Kind:        domain.PaymentForSubscription,
			ReferenceID: &subscriptionID,
			Amount:      plan.Price,
			Method:      method,
			Status:      domain.PaymentPending,
			Description: fmt.Sprintf("Subscription %s - %s", plan.Name, today.Format("01/2006")),
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     accountID,
				LastUpdatedAt: now,
				LastUpdatedBy: accountID,
			},
		}
		if err := s.subscriptionRepo.SavePayment(ctx, tx, payment); err != nil {
			return err
		}
		return s.accountRepo.UpdateAccountPlan(ctx, tx, accountID, plan.PlanCode, true, now)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to subscribe", slog.String("plan_code", planCode))
		return nil, nil, err
	}

	s.LogInfo(ctx, "Subscription started",
		slog.String("subscription_id", sub.SubscriptionID),
		slog.String("plan_code", sub.PlanCode),
		slog.String("payment_id", payment.PaymentID))
	return sub, &payment, nil
}

func (s *subscriptionService) Cancel(ctx context.Context, accountID string) (*domain.Subscription, error) {
	var sub *domain.Subscription
	err := s.inTx(ctx, s.subscriptionRepo, func(tx pgx.Tx) error {
		var err error
		sub, err = s.subscriptionRepo.FindCurrentSubscriptionForUpdate(ctx, tx, accountID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("%w: no active subscription", apperrors.ErrNotFound)
			}
			return err
		}
		now := s.now()
		sub.Status = domain.SubscriptionCanceled
		sub.CanceledAt = &now
		sub.LastUpdatedAt = now
		sub.LastUpdatedBy = accountID
		return s.subscriptionRepo.UpdateSubscription(ctx, tx, *sub)
	})
	if err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "Subscription canceled", slog.String("subscription_id", sub.SubscriptionID))
	return sub, nil
}

// settlePayment moves a PENDING payment owned by accountID to status and lets
// apply react within the same transaction.
func (s *subscriptionService) settlePayment(ctx context.Context, accountID, paymentID string, status domain.PaymentStatus,
	apply func(tx pgx.Tx, p *domain.Payment, now time.Time) error) (*domain.Payment, error) {
	var payment *domain.Payment
	err := s.inTx(ctx, s.subscriptionRepo, func(tx pgx.Tx) error {
		var err error
		payment, err = s.subscriptionRepo.FindPaymentForUpdate(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if payment.AccountID != accountID {
			return apperrors.ErrForbidden
		}
		if payment.Status != domain.PaymentPending {
			return fmt.Errorf("%w: payment is %s, only PENDING payments can change", apperrors.ErrConflict, payment.Status)
		}

		now := s.now()
		payment.Status = status
		payment.LastUpdatedAt = now
		payment.LastUpdatedBy = accountID
		if apply != nil {
			if err := apply(tx, payment, now); err != nil {
				return err
			}
		}
		return s.subscriptionRepo.UpdatePayment(ctx, tx, *payment)
	})
	if err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "Payment settled", slog.String("payment_id", paymentID), slog.String("status", string(status)))
	return payment, nil
}

func (s *subscriptionService) ConfirmPayment(ctx context.Context, accountID, paymentID string) (*domain.Payment, error) {
	return s.settlePayment(ctx, accountID, paymentID, domain.PaymentPaid, func(tx pgx.Tx, p *domain.Payment, now time.Time) error {
		p.PaidAt = &now
		if p.Kind != domain.PaymentForSubscription || p.ReferenceID == nil {
			return nil
		}

		sub, err := s.subscriptionRepo.FindSubscriptionForUpdate(ctx, tx, *p.ReferenceID)
		if err != nil {
			return err
		}
		sub.Status = domain.SubscriptionActive
		sub.NextBillingDate = domain.AddMonths(now, 1)
		sub.CanceledAt = nil
		sub.LastUpdatedAt = now
		sub.LastUpdatedBy = accountID
		if err := s.subscriptionRepo.UpdateSubscription(ctx, tx, *sub); err != nil {
			return err
		}
		return s.accountRepo.SetAccountActive(ctx, tx, accountID, true, now)
	})
}

func (s *subscriptionService) CancelPayment(ctx context.Context, accountID, paymentID string) (*domain.Payment, error) {
	return s.settlePayment(ctx, accountID, paymentID, domain.PaymentCanceled, nil)
}

func (s *subscriptionService) RunBillingSweep(ctx context.Context, today time.Time, batchSize int) (*domain.SweepResult, error) {
	if batchSize <= 0 {
		batchSize = defaultSweepBatchSize
	}
	today = domain.DateOf(today)
	result := &domain.SweepResult{}

	// step 1: ACTIVE past its billing date -> PAST_DUE
	for {
		n, err := s.sweepBatch(ctx, func(tx pgx.Tx) ([]domain.Subscription, error) {
			return s.subscriptionRepo.ListOverdueActive(ctx, tx, today, batchSize)
		}, func(tx pgx.Tx, sub *domain.Subscription, now time.Time) error {
			sub.Status = domain.SubscriptionPastDue
			return nil
		})
		result.MarkedPastDue += n
		if err != nil {
			return result, err
		}
		if n < batchSize {
			break
		}
	}

	// step 2: PAST_DUE beyond the grace window -> SUSPENDED, account deactivated
	for {
		n, err := s.sweepBatch(ctx, func(tx pgx.Tx) ([]domain.Subscription, error) {
			return s.subscriptionRepo.ListGraceExpired(ctx, tx, today, batchSize)
		}, func(tx pgx.Tx, sub *domain.Subscription, now time.Time) error {
			sub.Status = domain.SubscriptionSuspended
			return s.accountRepo.SetAccountActive(ctx, tx, sub.AccountID, false, now)
		})
		result.Suspended += n
		if err != nil {
			return result, err
		}
		if n < batchSize {
			break
		}
	}

	if result.MarkedPastDue > 0 || result.Suspended > 0 {
		s.LogInfo(ctx, "Billing sweep finished",
			slog.Int("marked_past_due", result.MarkedPastDue),
			slog.Int("suspended", result.Suspended))
	}
	return result, nil
}

// sweepBatch claims one batch and transitions each row in a single transaction.
func (s *subscriptionService) sweepBatch(ctx context.Context,
	claim func(tx pgx.Tx) ([]domain.Subscription, error),
	transition func(tx pgx.Tx, sub *domain.Subscription, now time.Time) error) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	count := 0
	err := s.inTx(ctx, s.subscriptionRepo, func(tx pgx.Tx) error {
		subs, err := claim(tx)
		if err != nil {
			return err
		}
		now := s.now()
		for i := range subs {
			sub := &subs[i]
			if err := transition(tx, sub, now); err != nil {
				return err
			}
			sub.LastUpdatedAt = now
			sub.LastUpdatedBy = "system"
			if err := s.subscriptionRepo.UpdateSubscription(ctx, tx, *sub); err != nil {
				return err
			}
		}
		count = len(subs)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
