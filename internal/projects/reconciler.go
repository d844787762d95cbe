package projects

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const reconcileBatchSize = 50

// Reconciler periodically repairs funded projects whose bonus pool linkage
// was interrupted between the project insert and the link patch.
type Reconciler struct {
	service  *Service
	cron     *cron.Cron
	schedule string
	logger   *zap.Logger
	mu       sync.Mutex
	running  bool
}

// NewReconciler creates a bonus-link reconciler on the given cron schedule
func NewReconciler(service *Service, schedule string, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		service:  service,
		cron:     cron.New(),
		schedule: schedule,
		logger:   logger,
	}
}

// Start schedules the reconciliation job
func (r *Reconciler) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil
	}

	_, err := r.cron.AddFunc(r.schedule, r.runOnce)
	if err != nil {
		return err
	}
	r.cron.Start()
	r.running = true
	r.logger.Info("Bonus link reconciler started", zap.String("schedule", r.schedule))
	return nil
}

// Stop halts the reconciliation job, waiting for an in-flight run
func (r *Reconciler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	<-r.cron.Stop().Done()
	r.running = false
	r.logger.Info("Bonus link reconciler stopped")
}

func (r *Reconciler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	repaired, err := r.service.ReconcileBonusLinks(ctx, reconcileBatchSize)
	if err != nil {
		r.logger.Error("Bonus link reconciliation failed", zap.Error(err))
		return
	}
	if repaired > 0 {
		r.logger.Info("Repaired bonus pool linkage", zap.Int("projects", repaired))
	}
}
