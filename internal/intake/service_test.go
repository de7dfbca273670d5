package intake_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutricare/nutricare/internal/intake"
	"github.com/nutricare/nutricare/internal/nutrition"
)

func newService() (*intake.Service, *intake.InMemoryRepository) {
	repo := intake.NewInMemoryRepository()
	menu := intake.NewInMemoryMenuRepository(congee(), soyMilk())
	return intake.NewService(repo, menu), repo
}

func TestService_Calculate(t *testing.T) {
	svc, _ := newService()

	calc, err := svc.Calculate(context.Background(), "menu_soymilk", intake.Portion{VolumeML: ptr(125)})
	require.NoError(t, err)

	assert.Equal(t, "Soy milk", calc.MenuItem.Name)
	assert.Equal(t, 50.0, calc.Nutrients.Calories)
	assert.Equal(t, 15.0, calc.Nutrients.Minerals["Calcium (mg)"])
}

func TestService_CalculateUnknownItem(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Calculate(context.Background(), "missing", intake.Portion{})
	assert.ErrorIs(t, err, intake.ErrMenuItemNotFound)
}

func TestService_LogAndSummarize(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	consumed := time.Date(2026, 6, 3, 12, 30, 0, 0, time.UTC)
	rec, err := svc.Log(ctx, intake.LogInput{
		UserID:     "usr_42",
		MenuItemID: "menu_congee",
		Portion:    intake.Portion{WeightG: ptr(300)},
		ConsumedAt: consumed,
	})
	require.NoError(t, err)
	assert.Contains(t, rec.ID, "int_")
	assert.Equal(t, 240.0, rec.Nutrients.Calories)

	stored, err := repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, consumed, stored.ConsumedAt)

	_, err = svc.Log(ctx, intake.LogInput{
		UserID:     "usr_42",
		MenuItemID: "menu_soymilk",
		ConsumedAt: time.Date(2026, 6, 1, 7, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	agg, err := svc.Summarize(ctx, "usr_42", intake.Window{
		Start: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, agg.Days)
	assert.Equal(t, 340.0, agg.Total["calories"])
	assert.InDelta(t, 113.33, agg.AveragePerDay["calories"], 1e-9)
}

func TestService_LogRequiresUser(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Log(context.Background(), intake.LogInput{MenuItemID: "menu_congee"})
	assert.ErrorIs(t, err, nutrition.ErrInvalidInput)
}
