package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RenewalNotifier рассылка напоминаний о продлении
type RenewalNotifier interface {
	NotifyRenewalsDue(ctx context.Context) (int, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	renewals RenewalNotifier
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	done     chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(renewals RenewalNotifier, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		renewals: renewals,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))

	go s.runRenewalTask(ctx)
}

// Stop останавливает фоновые задачи и ждёт завершения текущего прохода
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
	<-s.done
}

// runRenewalTask периодически уведомляет студентов с закончившимся планом
func (s *Scheduler) runRenewalTask(ctx context.Context) {
	defer close(s.done)

	// Первый запуск сразу при старте
	s.notifyRenewals(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.notifyRenewals(ctx)
		case <-s.stopChan:
			s.logger.Info("Renewal task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Renewal task cancelled")
			return
		}
	}
}

func (s *Scheduler) notifyRenewals(ctx context.Context) {
	n, err := s.renewals.NotifyRenewalsDue(ctx)
	if err != nil {
		s.logger.Error("Failed to notify renewals", zap.Int("notified", n), zap.Error(err))
		return
	}

	s.logger.Info("Renewal notifications sent", zap.Int("notified", n))
}
