package forecast

import (
	"math"
	"time"

	"github.com/nestegg-finance/backend/internal/models"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

// Frequency is the detected cadence of income.
type Frequency string

const (
	Weekly    Frequency = "weekly"
	Biweekly  Frequency = "biweekly"
	Monthly   Frequency = "monthly"
	Irregular Frequency = "irregular"
)

// DefaultPeriods is the number of income events the moving average uses.
const DefaultPeriods = 3

// IncomePattern is the periodicity of a user's income.
type IncomePattern struct {
	Frequency          Frequency `json:"frequency" example:"monthly"`
	AverageDaysBetween int       `json:"averageDaysBetween" example:"30"` // Rounded mean gap between income events
}

var unknownPattern = IncomePattern{Frequency: Irregular, AverageDaysBetween: 30}

// ascending returns a copy of the income sorted by date, oldest first.
func ascending(incomes []models.Income) []models.Income {
	sorted := make([]models.Income, len(incomes))
	copy(sorted, incomes)
	slices.SortStableFunc(sorted, func(a, b models.Income) int {
		return a.Date.Compare(b.Date)
	})

	return sorted
}

// descending returns a copy of the income sorted by date, newest first.
func descending(incomes []models.Income) []models.Income {
	sorted := make([]models.Income, len(incomes))
	copy(sorted, incomes)
	slices.SortStableFunc(sorted, func(a, b models.Income) int {
		return b.Date.Compare(a.Date)
	})

	return sorted
}

// days returns the number of whole days between two points in time.
func days(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// DetectIncomeFrequency classifies the gaps between income events.
//
// A cadence is only detected when the standard deviation of the gaps is
// below 30% of their mean. With fewer than two events, the pattern is
// irregular with 30 days between events.
func DetectIncomeFrequency(incomes []models.Income) IncomePattern {
	if len(incomes) < 2 {
		return unknownPattern
	}

	sorted := ascending(incomes)
	gaps := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gaps = append(gaps, float64(days(sorted[i-1].Date, sorted[i].Date)))
	}

	mean, stddev := meanStddev(gaps)
	pattern := IncomePattern{
		Frequency:          Irregular,
		AverageDaysBetween: int(math.Round(mean)),
	}

	if stddev >= 0.3*mean {
		return pattern
	}

	switch {
	case mean >= 6 && mean <= 8:
		pattern.Frequency = Weekly
	case mean >= 13 && mean <= 16:
		pattern.Frequency = Biweekly
	case mean >= 28 && mean <= 32:
		pattern.Frequency = Monthly
	}

	return pattern
}

// MovingAverage returns the mean amount of the most recent income events.
// periods below 1 use DefaultPeriods.
func MovingAverage(incomes []models.Income, periods int) decimal.Decimal {
	if len(incomes) == 0 {
		return decimal.Zero
	}

	if periods < 1 {
		periods = DefaultPeriods
	}

	recent := descending(incomes)
	if len(recent) > periods {
		recent = recent[:periods]
	}

	sum := decimal.Zero
	for _, income := range recent {
		sum = sum.Add(income.Amount)
	}

	return sum.Div(decimal.NewFromInt(int64(len(recent))))
}

// IncomeDate returns the date of the n-th income event after start.
//
// Monthly income keeps the day of month of start, clamped to the last day
// of shorter months. Irregular income advances by the average gap, but at
// least one day.
func IncomeDate(start time.Time, n int, pattern IncomePattern) time.Time {
	switch pattern.Frequency {
	case Weekly:
		return start.AddDate(0, 0, 7*n)
	case Biweekly:
		return start.AddDate(0, 0, 14*n)
	case Monthly:
		return addMonths(start, n)
	}

	return start.AddDate(0, 0, max(1, pattern.AverageDaysBetween)*n)
}

// addMonths adds n calendar months. Unlike time.AddDate, the 31st of a
// month followed by a shorter month ends on its last day.
func addMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()

	return first.AddDate(0, 0, min(day, last)-1)
}

// meanStddev returns the mean and the population standard deviation.
func meanStddev(values []float64) (mean, stddev float64) {
	if len(values) == 0 {
		return 0, 0
	}

	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))

	return mean, math.Sqrt(variance)
}
