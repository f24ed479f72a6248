package plan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courtside/commander/go/internal/models"
	"github.com/courtside/commander/go/internal/schedule"
)

// PostgresRepository stores whole plans as JSONB documents. Every save is a
// full-plan upsert (last write wins); reads pass through the normalization
// repair pass, so legacy payload shapes load without error.
type PostgresRepository struct {
	pool  *pgxpool.Pool
	rules schedule.Rules
}

// NewPostgresRepository creates a repository over a pgx pool.
func NewPostgresRepository(pool *pgxpool.Pool, rules schedule.Rules) *PostgresRepository {
	return &PostgresRepository{pool: pool, rules: rules}
}

var _ PlanRepository = (*PostgresRepository)(nil)

func (r *PostgresRepository) CreatePlan(ctx context.Context, p models.Plan) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO plans (id, name, payload, updated_at) VALUES ($1, $2, $3, $4)`,
		p.ID, p.Name, payload, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert plan: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SavePlan(ctx context.Context, p models.Plan) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO plans (id, name, payload, updated_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET name = $2, payload = $3, updated_at = $4`,
		p.ID, p.Name, payload, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert plan: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetPlan(ctx context.Context, id string) (models.Plan, []Repair, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx, `SELECT payload FROM plans WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Plan{}, nil, ErrPlanNotFound
	}
	if err != nil {
		return models.Plan{}, nil, fmt.Errorf("failed to get plan: %w", err)
	}

	p, repairs := RawToPlan(payload, r.rules)
	// The row id is authoritative over whatever the payload carries.
	p.ID = id
	return p, repairs, nil
}

func (r *PostgresRepository) ListPlans(ctx context.Context) ([]models.Plan, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, payload FROM plans ORDER BY updated_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []models.Plan
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan plan row: %w", err)
		}
		p, _ := RawToPlan(payload, r.rules)
		p.ID = id
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plan rows: %w", err)
	}
	return plans, nil
}

func (r *PostgresRepository) RenamePlan(ctx context.Context, id, name string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE plans SET name = $2, payload = jsonb_set(payload, '{name}', to_jsonb($2::text)) WHERE id = $1`,
		id, name,
	)
	if err != nil {
		return fmt.Errorf("failed to rename plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func (r *PostgresRepository) DeletePlan(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func (r *PostgresRepository) CountPlans(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM plans`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count plans: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) CurrentPlanID(ctx context.Context) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `SELECT plan_id FROM current_plan WHERE singleton = TRUE`).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read current plan id: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) SetCurrentPlan(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO current_plan (singleton, plan_id) VALUES (TRUE, $1)
		 ON CONFLICT (singleton) DO UPDATE SET plan_id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to set current plan: %w", err)
	}
	return nil
}
