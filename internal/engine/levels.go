package engine

import (
	"fmt"
	"sort"
	"sync/atomic"

	"loyalty/internal/domain"
	"loyalty/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// LevelRowCount is the number of ranges a level configuration set must contain.
const LevelRowCount = 5

var (
	hundred  = decimal.NewFromInt(100)
	validate = validator.New()
)

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// DefaultLevelConfigs is the seed table: 30 + 15 + 24 + 16.5 + 14.5 = 100.
func DefaultLevelConfigs() []models.LevelConfig {
	return []models.LevelConfig{
		{LevelFrom: 1, LevelTo: 3, CPPercentagePerLevel: mustDecimal("10.00"), TotalPercentageForRange: mustDecimal("30.00")},
		{LevelFrom: 4, LevelTo: 6, CPPercentagePerLevel: mustDecimal("5.00"), TotalPercentageForRange: mustDecimal("15.00")},
		{LevelFrom: 7, LevelTo: 9, CPPercentagePerLevel: mustDecimal("8.00"), TotalPercentageForRange: mustDecimal("24.00")},
		{LevelFrom: 10, LevelTo: 20, CPPercentagePerLevel: mustDecimal("1.50"), TotalPercentageForRange: mustDecimal("16.50")},
		{LevelFrom: 21, LevelTo: 30, CPPercentagePerLevel: mustDecimal("1.45"), TotalPercentageForRange: mustDecimal("14.50")},
	}
}

func integrity(format string, args ...any) error {
	return &domain.ConfigIntegrityError{Reason: fmt.Sprintf(format, args...)}
}

func twoPlaces(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// ValidateConfigSet checks a full replacement set. Any violation rejects the whole set.
func ValidateConfigSet(rows []models.LevelConfig) error {
	if len(rows) != LevelRowCount {
		return integrity("expected %d rows, got %d", LevelRowCount, len(rows))
	}

	sorted := make([]models.LevelConfig, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LevelFrom < sorted[j].LevelFrom })

	next := 1
	sum := decimal.Zero
	for _, row := range sorted {
		if err := validate.Struct(row); err != nil {
			return integrity("range %d-%d: %v", row.LevelFrom, row.LevelTo, err)
		}
		if row.LevelFrom < next {
			return integrity("range %d-%d overlaps level %d", row.LevelFrom, row.LevelTo, next-1)
		}
		if row.LevelFrom > next {
			return integrity("levels %d-%d are not covered", next, row.LevelFrom-1)
		}
		if row.CPPercentagePerLevel.IsNegative() {
			return integrity("range %d-%d has a negative percentage", row.LevelFrom, row.LevelTo)
		}
		// Percentages are stored as decimal(6,2); finer values would not survive a reload.
		if !twoPlaces(row.CPPercentagePerLevel) || !twoPlaces(row.TotalPercentageForRange) {
			return integrity("range %d-%d: percentages allow at most 2 decimal places", row.LevelFrom, row.LevelTo)
		}
		want := row.CPPercentagePerLevel.Mul(decimal.NewFromInt(int64(row.LevelCount()))).Round(2)
		if !row.TotalPercentageForRange.Round(2).Equal(want) {
			return integrity("range %d-%d total %s != %s x %d",
				row.LevelFrom, row.LevelTo, row.TotalPercentageForRange.StringFixed(2),
				row.CPPercentagePerLevel.StringFixed(2), row.LevelCount())
		}
		sum = sum.Add(row.TotalPercentageForRange)
		next = row.LevelTo + 1
	}
	if next != domain.MaxLevels+1 {
		return integrity("levels %d-%d are not covered", next, domain.MaxLevels)
	}
	if !sum.Round(2).Equal(hundred) {
		return integrity("range totals sum to %s, want 100.00", sum.StringFixed(2))
	}
	return nil
}

// LevelTable is a validated, immutable level configuration.
type LevelTable struct {
	rows     []models.LevelConfig
	perLevel [domain.MaxLevels + 1]decimal.Decimal
}

func NewLevelTable(rows []models.LevelConfig) (*LevelTable, error) {
	if err := ValidateConfigSet(rows); err != nil {
		return nil, err
	}
	t := &LevelTable{rows: make([]models.LevelConfig, len(rows))}
	copy(t.rows, rows)
	sort.Slice(t.rows, func(i, j int) bool { return t.rows[i].LevelFrom < t.rows[j].LevelFrom })
	for _, row := range t.rows {
		for l := row.LevelFrom; l <= row.LevelTo; l++ {
			t.perLevel[l] = row.CPPercentagePerLevel
		}
	}
	return t, nil
}

// PercentageForLevel returns the per-level CP percentage, or zero outside 1..30.
func (t *LevelTable) PercentageForLevel(level int) decimal.Decimal {
	if level < 1 || level > domain.MaxLevels {
		return decimal.Zero
	}
	return t.perLevel[level]
}

func (t *LevelTable) Rows() []models.LevelConfig {
	out := make([]models.LevelConfig, len(t.rows))
	copy(out, t.rows)
	return out
}

// LevelRegistry holds the last valid table. Distributions read it without locking.
type LevelRegistry struct {
	table atomic.Pointer[LevelTable]
}

func NewLevelRegistry(t *LevelTable) *LevelRegistry {
	r := &LevelRegistry{}
	r.table.Store(t)
	return r
}

func (r *LevelRegistry) Current() *LevelTable {
	return r.table.Load()
}

func (r *LevelRegistry) Swap(t *LevelTable) {
	r.table.Store(t)
}
