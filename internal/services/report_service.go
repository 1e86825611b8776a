package services

import (
	"context"
	"time"

	"taskhive/internal/models"
	"taskhive/internal/pdf"
	"taskhive/internal/repositories"
)

// ReportService builds the admin platform summary and task receipts.
type ReportService interface {
	PlatformSummary(ctx context.Context, from, to time.Time) (*models.PlatformReport, error)
	TaskReceipt(ctx context.Context, task *models.Task, customer, tasker *models.User) ([]byte, error)
}

type reportService struct {
	tasks repositories.TaskRepository
}

func NewReportService(tasks repositories.TaskRepository) ReportService {
	return &reportService{tasks: tasks}
}

func (s *reportService) PlatformSummary(ctx context.Context, from, to time.Time) (*models.PlatformReport, error) {
	counts, err := s.tasks.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := s.tasks.FeeTotals(ctx, from, to)
	if err != nil {
		return nil, err
	}

	report := &models.PlatformReport{
		GeneratedAt:   time.Now(),
		TasksByStatus: counts,
		Fees:          *totals,
	}
	if !from.IsZero() {
		report.From = &from
	}
	if !to.IsZero() {
		report.To = &to
	}
	return report, nil
}

func (s *reportService) TaskReceipt(ctx context.Context, task *models.Task, customer, tasker *models.User) ([]byte, error) {
	return pdf.TaskReceipt(task, customer, tasker)
}
