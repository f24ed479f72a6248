package plan

import (
	"context"
	"sync"

	"github.com/courtside/commander/go/internal/models"
)

// MemoryRepository is an in-process PlanRepository for development and
// tests. Plans are kept in insertion order, mirroring how the Postgres
// repository lists by age.
type MemoryRepository struct {
	mu      sync.Mutex
	order   []string
	plans   map[string]models.Plan
	current string
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{plans: make(map[string]models.Plan)}
}

var _ PlanRepository = (*MemoryRepository)(nil)

func (r *MemoryRepository) CreatePlan(ctx context.Context, p models.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[p.ID]; !ok {
		r.order = append(r.order, p.ID)
	}
	r.plans[p.ID] = p.Clone()
	return nil
}

func (r *MemoryRepository) SavePlan(ctx context.Context, p models.Plan) error {
	return r.CreatePlan(ctx, p)
}

func (r *MemoryRepository) GetPlan(ctx context.Context, id string) (models.Plan, []Repair, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok {
		return models.Plan{}, nil, ErrPlanNotFound
	}
	return p.Clone(), nil, nil
}

func (r *MemoryRepository) ListPlans(ctx context.Context) ([]models.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Plan, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.plans[id].Clone())
	}
	return out, nil
}

func (r *MemoryRepository) RenamePlan(ctx context.Context, id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok {
		return ErrPlanNotFound
	}
	p.Name = name
	r.plans[id] = p
	return nil
}

func (r *MemoryRepository) DeletePlan(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[id]; !ok {
		return ErrPlanNotFound
	}
	delete(r.plans, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.current == id {
		r.current = ""
	}
	return nil
}

func (r *MemoryRepository) CountPlans(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.plans), nil
}

func (r *MemoryRepository) CurrentPlanID(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, nil
}

func (r *MemoryRepository) SetCurrentPlan(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = id
	return nil
}
