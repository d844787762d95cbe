package bonuspool

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"devhubs/marketplace/marketplace-backend/internal/payments"
	"devhubs/marketplace/marketplace-backend/pkg/workflows"
)

const settlementCurrency = "INR"

// ProvisionRequest carries the funded-project fields the ledger needs
type ProvisionRequest struct {
	ProjectID            primitive.ObjectID
	ProjectOwner         primitive.ObjectID
	ProjectTitle         string
	AmountPerContributor int64
	ContributorCount     int
}

// Ledger owns bonus pool records and their settlement lifecycle
type Ledger struct {
	repo        Repository
	gateway     payments.Gateway
	transitions *workflows.StateMachine
	logger      *zap.Logger
	now         func() time.Time
}

// NewLedger creates a bonus pool ledger
func NewLedger(repo Repository, gateway payments.Gateway, logger *zap.Logger) *Ledger {
	return &Ledger{
		repo:        repo,
		gateway:     gateway,
		transitions: workflows.NewSettlementStateMachine(),
		logger:      logger,
		now:         time.Now,
	}
}

// Provision persists a pending pool for a funded project. Non-positive
// amount or contributor inputs fall back to the funded-project minimums.
func (l *Ledger) Provision(ctx context.Context, req ProvisionRequest) (*BonusPool, error) {
	amount := req.AmountPerContributor
	if amount <= 0 {
		amount = MinAmountPerContributor
	}
	contributors := req.ContributorCount
	if contributors <= 0 {
		contributors = MinContributorCount
	}

	now := l.now()
	pool := &BonusPool{
		ProjectID:            req.ProjectID,
		ProjectOwner:         req.ProjectOwner,
		TotalAmount:          amount * int64(contributors),
		ContributorCount:     contributors,
		AmountPerContributor: amount,
		Status:               workflows.SettlementPending,
		ProjectTitle:         req.ProjectTitle,
		IsNewProject:         false,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := l.repo.Create(ctx, pool); err != nil {
		return nil, err
	}

	l.logger.Info("Provisioned pending bonus pool",
		zap.String("bonus_pool_id", pool.ID.Hex()),
		zap.String("project_id", pool.ProjectID.Hex()),
		zap.Int64("total_amount", pool.TotalAmount))
	return pool, nil
}

// Settle drives a pool from pending to funded through the settlement gateway
// and returns the settlement order id. Settling an already funded pool is an
// explicit no-op that returns the recorded order id.
func (l *Ledger) Settle(ctx context.Context, pool *BonusPool) (string, error) {
	if pool.Funded() {
		return pool.SettlementOrderID, nil
	}

	if err := l.transition(ctx, pool, workflows.SettlementAwaitingConfirmation); err != nil {
		return "", err
	}

	order := l.gateway.CreateOrder(pool.TotalAmount, settlementCurrency)
	payment := l.gateway.CreatePayment(pool.TotalAmount, order.ID, settlementCurrency)
	verification := l.gateway.VerifyPayment(payment.ID, order.ID)

	if !verification.Verified || !payment.Captured {
		if err := l.transition(ctx, pool, workflows.SettlementFailed); err != nil {
			return "", err
		}
		return "", fmt.Errorf("settlement capture failed for order %s", order.ID)
	}

	fundedAt := l.now()
	pool.FundedAt = &fundedAt
	pool.SettlementOrderID = order.ID
	if err := l.transition(ctx, pool, workflows.SettlementFunded); err != nil {
		return "", err
	}

	l.logger.Info("Bonus pool funded",
		zap.String("bonus_pool_id", pool.ID.Hex()),
		zap.String("order_id", order.ID))
	return order.ID, nil
}

// GetByProjectID exposes pool lookup for read paths and reconciliation
func (l *Ledger) GetByProjectID(ctx context.Context, projectID primitive.ObjectID) (*BonusPool, error) {
	return l.repo.GetByProjectID(ctx, projectID)
}

func (l *Ledger) transition(ctx context.Context, pool *BonusPool, to string) error {
	if !l.transitions.CanTransition(pool.Status, to) {
		return fmt.Errorf("invalid settlement transition %s -> %s", pool.Status, to)
	}
	pool.Status = to
	return l.repo.Update(ctx, pool)
}
