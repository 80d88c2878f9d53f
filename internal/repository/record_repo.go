package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"hemoscan/internal/domain"
)

// DefaultListLimit es el maximo de registros devueltos por usuario.
const DefaultListLimit = 10

type CBCReportRepository interface {
	Create(ctx context.Context, report domain.CBCReport) (string, error)
	ListByUser(ctx context.Context, email string, limit int) ([]domain.CBCReport, error)
}

type SymptomRepository interface {
	Create(ctx context.Context, entry domain.SymptomEntry) (string, error)
	ListByUser(ctx context.Context, email string, limit int) ([]domain.SymptomEntry, error)
}

type PgCBCReportRepository struct {
	pool *pgxpool.Pool
}

func NewPgCBCReportRepository(pool *pgxpool.Pool) *PgCBCReportRepository {
	return &PgCBCReportRepository{pool: pool}
}

func (r *PgCBCReportRepository) Create(ctx context.Context, report domain.CBCReport) (string, error) {
	const query = `
		INSERT INTO cbc_reports (id, user_email, hemoglobin, rbc, hematocrit, mcv, mch, mchc,
		                         rdw, wbc, platelets, lab, report_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx, query,
		report.ID,
		report.UserEmail,
		report.Hemoglobin,
		report.RBC,
		report.Hematocrit,
		report.MCV,
		report.MCH,
		report.MCHC,
		report.RDW,
		report.WBC,
		report.Platelets,
		report.Lab,
		report.ReportDate,
		report.CreatedAt,
	)
	if err != nil {
		return "", err
	}
	return report.ID, nil
}

func (r *PgCBCReportRepository) ListByUser(ctx context.Context, email string, limit int) ([]domain.CBCReport, error) {
	const query = `
		SELECT id, user_email, hemoglobin, rbc, hematocrit, mcv, mch, mchc,
		       rdw, wbc, platelets, lab, report_date, created_at
		FROM cbc_reports
		WHERE user_email = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, email, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := []domain.CBCReport{}
	for rows.Next() {
		var rep domain.CBCReport
		if err := rows.Scan(
			&rep.ID,
			&rep.UserEmail,
			&rep.Hemoglobin,
			&rep.RBC,
			&rep.Hematocrit,
			&rep.MCV,
			&rep.MCH,
			&rep.MCHC,
			&rep.RDW,
			&rep.WBC,
			&rep.Platelets,
			&rep.Lab,
			&rep.ReportDate,
			&rep.CreatedAt,
		); err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

type PgSymptomRepository struct {
	pool *pgxpool.Pool
}

func NewPgSymptomRepository(pool *pgxpool.Pool) *PgSymptomRepository {
	return &PgSymptomRepository{pool: pool}
}

func (r *PgSymptomRepository) Create(ctx context.Context, entry domain.SymptomEntry) (string, error) {
	const query = `
		INSERT INTO symptoms (id, user_email, symptoms, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx, query, entry.ID, entry.UserEmail, entry.Symptoms, entry.CreatedAt)
	if err != nil {
		return "", err
	}
	return entry.ID, nil
}

func (r *PgSymptomRepository) ListByUser(ctx context.Context, email string, limit int) ([]domain.SymptomEntry, error) {
	const query = `
		SELECT id, user_email, symptoms, created_at
		FROM symptoms
		WHERE user_email = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, email, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []domain.SymptomEntry{}
	for rows.Next() {
		var e domain.SymptomEntry
		if err := rows.Scan(&e.ID, &e.UserEmail, &e.Symptoms, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > DefaultListLimit {
		return DefaultListLimit
	}
	return limit
}
