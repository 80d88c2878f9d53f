package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"hemoscan/internal/domain"
	"hemoscan/internal/repository"
)

// RecordService guarda y lista los registros de CBC y sintomas de un usuario.
type RecordService struct {
	logger   *zap.Logger
	cbc      repository.CBCReportRepository
	symptoms repository.SymptomRepository
	now      func() time.Time
}

func NewRecordService(logger *zap.Logger, cbc repository.CBCReportRepository, symptoms repository.SymptomRepository) *RecordService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordService{
		logger:   logger,
		cbc:      cbc,
		symptoms: symptoms,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *RecordService) SaveCBCReport(ctx context.Context, owner string, report domain.CBCReport) (string, error) {
	owner = normalizeEmail(owner)
	if owner == "" {
		return "", ErrInvalidInput
	}
	if report.Hemoglobin < 0 || anyNegative(report.RBC, report.Hematocrit, report.MCV, report.MCH,
		report.MCHC, report.RDW, report.WBC, report.Platelets) {
		return "", ErrInvalidInput
	}
	report.ID = ""
	report.UserEmail = owner
	report.Lab = strings.TrimSpace(report.Lab)
	report.ReportDate = strings.TrimSpace(report.ReportDate)
	report.CreatedAt = s.now()

	id, err := s.cbc.Create(ctx, report)
	if err != nil {
		return "", fmt.Errorf("create cbc report: %w", err)
	}
	return id, nil
}

func (s *RecordService) ListCBCReports(ctx context.Context, owner string) ([]domain.CBCReport, error) {
	return s.cbc.ListByUser(ctx, normalizeEmail(owner), repository.DefaultListLimit)
}

func (s *RecordService) SaveSymptoms(ctx context.Context, owner string, symptoms map[string]any) (string, error) {
	owner = normalizeEmail(owner)
	if owner == "" || symptoms == nil {
		return "", ErrInvalidInput
	}
	id, err := s.symptoms.Create(ctx, domain.SymptomEntry{
		UserEmail: owner,
		Symptoms:  symptoms,
		CreatedAt: s.now(),
	})
	if err != nil {
		return "", fmt.Errorf("create symptom entry: %w", err)
	}
	return id, nil
}

func (s *RecordService) ListSymptoms(ctx context.Context, owner string) ([]domain.SymptomEntry, error) {
	return s.symptoms.ListByUser(ctx, normalizeEmail(owner), repository.DefaultListLimit)
}

func anyNegative(values ...*float64) bool {
	for _, v := range values {
		if v != nil && *v < 0 {
			return true
		}
	}
	return false
}
