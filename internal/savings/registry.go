package savings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nestegg-finance/backend/internal/models"
	"github.com/nestegg-finance/backend/internal/store"
	"github.com/shopspring/decimal"
)

// Registry owns the plan definitions.
//
// The percentages of all active plans of a user never add up to more than
// 100. This is checked when plans are created, changed or reactivated.
type Registry struct {
	store store.Store
}

func NewRegistry(s store.Store) *Registry {
	return &Registry{store: s}
}

// PlanDraft is a plan that does not exist yet.
type PlanDraft struct {
	UserID             string
	Name               string
	TargetCategory     string
	PercentageOfIncome decimal.Decimal
	TargetAmount       decimal.NullDecimal
	TargetDate         *time.Time
}

// PlanPatch changes a plan. Only non-nil fields are changed.
type PlanPatch struct {
	Name               *string
	TargetCategory     *string
	PercentageOfIncome *decimal.Decimal
	TargetAmount       *decimal.NullDecimal // Invalid to remove the target amount
	TargetDate         *sql.NullTime        // Invalid to remove the target date
	Active             *bool
}

func (r *Registry) plans() store.Collection[models.Plan] {
	return r.store.Plans()
}

// checkLimit verifies that adding percentage to the active plans of the user
// stays at or below 100%. The plan with the ID exclude is not counted.
func (r *Registry) checkLimit(ctx context.Context, userID string, exclude uuid.UUID, percentage decimal.Decimal) error {
	active, err := r.ListActive(ctx, userID)
	if err != nil {
		return err
	}

	total := percentage
	for _, p := range active {
		if p.ID != exclude {
			total = total.Add(p.PercentageOfIncome)
		}
	}

	if total.GreaterThan(decimal.NewFromInt(100)) {
		return &ValidationError{
			Field: "percentageOfIncome",
			Err:   fmt.Errorf("%w, would be %s%%", ErrAllocationLimitExceeded, total.String()),
		}
	}

	return nil
}

// Create validates and stores a new active plan without allocations.
func (r *Registry) Create(ctx context.Context, draft PlanDraft) (models.Plan, error) {
	p, err := models.NewPlan(draft.UserID, draft.Name, draft.PercentageOfIncome)
	if err != nil {
		return models.Plan{}, invalid(err)
	}

	p.TargetCategory = draft.TargetCategory
	p.TargetAmount = draft.TargetAmount
	p.TargetDate = draft.TargetDate
	if err := p.Validate(); err != nil {
		return models.Plan{}, invalid(err)
	}

	if err := r.checkLimit(ctx, p.UserID, uuid.Nil, p.PercentageOfIncome); err != nil {
		return models.Plan{}, err
	}

	_, err = r.plans().Add(ctx, &p)
	if err != nil {
		return models.Plan{}, fmt.Errorf("creating plan: %w", invalid(err))
	}

	return p, nil
}

// Get returns the plan. Errors for missing plans wrap ErrPlanNotFound.
func (r *Registry) Get(ctx context.Context, id uuid.UUID) (models.Plan, error) {
	p, err := r.plans().Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return p, fmt.Errorf("%w: %w", ErrPlanNotFound, err)
	}

	return p, err
}

// Update applies the patch to the plan.
//
// If the patch changes the percentage or reactivates the plan, the limit
// for all active plans is checked again.
func (r *Registry) Update(ctx context.Context, id uuid.UUID, patch PlanPatch) (models.Plan, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return p, err
	}

	wasActive := p.Active
	fields := make(map[string]any)

	if patch.Name != nil {
		p.Name = *patch.Name
		fields["name"] = p.Name
	}

	if patch.TargetCategory != nil {
		p.TargetCategory = *patch.TargetCategory
		fields["targetCategory"] = p.TargetCategory
	}

	if patch.PercentageOfIncome != nil {
		p.PercentageOfIncome = *patch.PercentageOfIncome
		fields["percentageOfIncome"] = p.PercentageOfIncome
	}

	if patch.TargetAmount != nil {
		p.TargetAmount = *patch.TargetAmount
		fields["targetAmount"] = p.TargetAmount
	}

	if patch.TargetDate != nil {
		p.TargetDate = nil
		if patch.TargetDate.Valid {
			t := patch.TargetDate.Time.In(time.UTC)
			p.TargetDate = &t
		}
		fields["targetDate"] = p.TargetDate
	}

	if patch.Active != nil {
		p.Active = *patch.Active
		fields["active"] = p.Active
	}

	if len(fields) == 0 {
		return p, nil
	}

	if err := p.Validate(); err != nil {
		return models.Plan{}, invalid(err)
	}

	if p.Active && (patch.PercentageOfIncome != nil || !wasActive) {
		if err := r.checkLimit(ctx, p.UserID, p.ID, p.PercentageOfIncome); err != nil {
			return models.Plan{}, err
		}
	}

	if err := r.update(ctx, id, fields); err != nil {
		return models.Plan{}, err
	}

	return r.Get(ctx, id)
}

func (r *Registry) update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	err := r.plans().Update(ctx, id, fields)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrPlanNotFound, err)
	}

	return invalid(err)
}

// SoftDelete deactivates the plan. Its allocations are kept.
func (r *Registry) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.update(ctx, id, map[string]any{"active": false})
}

// List returns all plans of the user, active or not, oldest first.
func (r *Registry) List(ctx context.Context, userID string) ([]models.Plan, error) {
	return r.plans().Query(ctx, byUser(userID))
}

// ListActive returns the active plans of the user, oldest first.
func (r *Registry) ListActive(ctx context.Context, userID string) ([]models.Plan, error) {
	return r.plans().Query(ctx, store.Where("userId", store.Equal, userID).Where("active", store.Equal, true).Asc("createdAt"))
}

// UpdateCumulativeTotal stores the cached sum of the plan's allocations.
func (r *Registry) UpdateCumulativeTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal) error {
	if total.IsNegative() {
		return &ValidationError{Field: "cumulativeTotal", Err: models.ErrCumulativeTotalNegative}
	}

	return r.update(ctx, id, map[string]any{"cumulativeTotal": total})
}

// UpdateHealthScore stores the health score of the plan.
func (r *Registry) UpdateHealthScore(ctx context.Context, id uuid.UUID, score int) error {
	if err := models.ValidateHealthScore(score); err != nil {
		return invalid(err)
	}

	return r.update(ctx, id, map[string]any{"healthScore": score})
}

// Subscribe calls fn with all plans of the user every time one of the
// user's plans changes, until the subscription is cancelled.
func (r *Registry) Subscribe(ctx context.Context, userID string, fn func([]models.Plan)) (store.Unsubscribe, error) {
	return r.plans().Subscribe(ctx, byUser(userID), fn)
}

func byUser(userID string) store.Query {
	return store.Where("userId", store.Equal, userID).Asc("createdAt")
}
