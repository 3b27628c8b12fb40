package firestore

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nestegg-finance/backend/internal/models"
	"github.com/shopspring/decimal"
)

// codec converts documents of one collection from and to Firestore data.
type codec[T any] struct {
	// fields that can be filtered, ordered and updated
	fields map[string]bool

	encode func(T) map[string]any
	decode func(r *reader) T

	// prepare normalizes and validates a document before it is created
	prepare func(*T) error

	// unique returns the fields that identify a document. Creating a second
	// document with the same values fails with the returned error.
	unique func(T) ([]field, error)

	immutable bool
}

type field struct {
	name  string
	value any
}

func fieldSet(names ...string) map[string]bool {
	set := make(map[string]bool, len(names)+3)
	for _, name := range append(names, "id", "createdAt", "updatedAt") {
		set[name] = true
	}

	return set
}

var planCodec = codec[models.Plan]{
	fields: fieldSet("userId", "name", "targetCategory", "percentageOfIncome", "targetAmount", "targetDate", "cumulativeTotal", "healthScore", "active"),
	encode: func(p models.Plan) map[string]any {
		return map[string]any{
			"userId":             p.UserID,
			"name":               p.Name,
			"targetCategory":     p.TargetCategory,
			"percentageOfIncome": value(p.PercentageOfIncome),
			"targetAmount":       value(p.TargetAmount),
			"targetDate":         value(p.TargetDate),
			"cumulativeTotal":    value(p.CumulativeTotal),
			"healthScore":        p.HealthScore,
			"active":             p.Active,
		}
	},
	decode: func(r *reader) models.Plan {
		return models.Plan{
			UserID:             r.str("userId"),
			Name:               r.str("name"),
			TargetCategory:     r.str("targetCategory"),
			PercentageOfIncome: r.decimal("percentageOfIncome"),
			TargetAmount:       r.nullDecimal("targetAmount"),
			TargetDate:         r.optionalTime("targetDate"),
			CumulativeTotal:    r.decimal("cumulativeTotal"),
			HealthScore:        int(r.integer("healthScore")),
			Active:             r.boolean("active"),
		}
	},
	prepare: func(p *models.Plan) error {
		p.Name = strings.TrimSpace(p.Name)
		p.TargetCategory = strings.TrimSpace(p.TargetCategory)
		if p.TargetDate != nil {
			t := p.TargetDate.In(time.UTC)
			p.TargetDate = &t
		}

		return p.Validate()
	},
}

var allocationCodec = codec[models.Allocation]{
	fields: fieldSet("planId", "planName", "sourceTransactionId", "date", "incomeAmount", "allocatedAmount", "targetCategory", "cumulativeTotalForPlan", "userId"),
	encode: func(a models.Allocation) map[string]any {
		return map[string]any{
			"planId":                 value(a.PlanID),
			"planName":               a.PlanName,
			"sourceTransactionId":    value(a.SourceTransactionID),
			"date":                   value(a.Date),
			"incomeAmount":           value(a.IncomeAmount),
			"allocatedAmount":        value(a.AllocatedAmount),
			"targetCategory":         a.TargetCategory,
			"cumulativeTotalForPlan": value(a.CumulativeTotalForPlan),
			"userId":                 a.UserID,
		}
	},
	decode: func(r *reader) models.Allocation {
		return models.Allocation{
			PlanID:                 r.id("planId"),
			PlanName:               r.str("planName"),
			SourceTransactionID:    r.id("sourceTransactionId"),
			Date:                   r.time("date"),
			IncomeAmount:           r.decimal("incomeAmount"),
			AllocatedAmount:        r.decimal("allocatedAmount"),
			TargetCategory:         r.str("targetCategory"),
			CumulativeTotalForPlan: r.decimal("cumulativeTotalForPlan"),
			UserID:                 r.str("userId"),
		}
	},
	prepare: func(a *models.Allocation) error {
		a.Date = a.Date.In(time.UTC)
		return a.Validate()
	},
	unique: func(a models.Allocation) ([]field, error) {
		return []field{
			{"planId", value(a.PlanID)},
			{"sourceTransactionId", value(a.SourceTransactionID)},
		}, models.ErrAllocationExists
	},
	immutable: true,
}

var transactionCodec = codec[models.Transaction]{
	fields: fieldSet("userId", "date", "inbound", "outbound", "category", "note"),
	encode: func(t models.Transaction) map[string]any {
		return map[string]any{
			"userId":   t.UserID,
			"date":     value(t.Date),
			"inbound":  value(t.Inbound),
			"outbound": value(t.Outbound),
			"category": t.Category,
			"note":     t.Note,
		}
	},
	decode: func(r *reader) models.Transaction {
		return models.Transaction{
			UserID:   r.str("userId"),
			Date:     r.time("date"),
			Inbound:  r.decimal("inbound"),
			Outbound: r.decimal("outbound"),
			Category: r.str("category"),
			Note:     r.str("note"),
		}
	},
	prepare: func(t *models.Transaction) error {
		t.Note = strings.TrimSpace(t.Note)
		t.Category = strings.TrimSpace(t.Category)
		if t.Date.IsZero() {
			t.Date = time.Now().In(time.UTC)
		} else {
			t.Date = t.Date.In(time.UTC)
		}

		return t.Validate()
	},
}

// value converts Go values to the types Firestore stores.
func value(v any) any {
	switch v := v.(type) {
	case uuid.UUID:
		return v.String()
	case decimal.Decimal:
		return v.InexactFloat64()
	case decimal.NullDecimal:
		if !v.Valid {
			return nil
		}
		return v.Decimal.InexactFloat64()
	case time.Time:
		return v.In(time.UTC)
	case *time.Time:
		if v == nil {
			return nil
		}
		return v.In(time.UTC)
	}

	return v
}

// reader reads typed values from document data. The first error is kept,
// all following reads return zero values.
type reader struct {
	data map[string]any
	err  error
}

func (r *reader) get(key string) (any, bool) {
	if r.err != nil {
		return nil, false
	}

	v, ok := r.data[key]
	return v, ok && v != nil
}

func (r *reader) fail(key string, v any, want string) {
	r.err = fmt.Errorf("field %s: %T is not a %s", key, v, want)
}

func (r *reader) str(key string) string {
	v, ok := r.get(key)
	if !ok {
		return ""
	}

	s, ok := v.(string)
	if !ok {
		r.fail(key, v, "string")
	}
	return s
}

func (r *reader) boolean(key string) bool {
	v, ok := r.get(key)
	if !ok {
		return false
	}

	b, ok := v.(bool)
	if !ok {
		r.fail(key, v, "bool")
	}
	return b
}

func (r *reader) integer(key string) int64 {
	v, ok := r.get(key)
	if !ok {
		return 0
	}

	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	}

	r.fail(key, v, "number")
	return 0
}

func (r *reader) decimal(key string) decimal.Decimal {
	d := r.nullDecimal(key)
	return d.Decimal
}

func (r *reader) nullDecimal(key string) decimal.NullDecimal {
	v, ok := r.get(key)
	if !ok {
		return decimal.NullDecimal{}
	}

	switch n := v.(type) {
	case int64:
		return decimal.NewNullDecimal(decimal.NewFromInt(n))
	case float64:
		return decimal.NewNullDecimal(decimal.NewFromFloat(n))
	}

	r.fail(key, v, "number")
	return decimal.NullDecimal{}
}

func (r *reader) time(key string) time.Time {
	t := r.optionalTime(key)
	if t == nil {
		return time.Time{}
	}

	return *t
}

func (r *reader) optionalTime(key string) *time.Time {
	v, ok := r.get(key)
	if !ok {
		return nil
	}

	t, ok := v.(time.Time)
	if !ok {
		r.fail(key, v, "timestamp")
		return nil
	}

	t = t.In(time.UTC)
	return &t
}

func (r *reader) id(key string) uuid.UUID {
	s := r.str(key)
	if s == "" || r.err != nil {
		return uuid.Nil
	}

	id, err := uuid.Parse(s)
	if err != nil {
		r.err = fmt.Errorf("field %s: %w", key, err)
	}
	return id
}
