package intake

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nutricare/nutricare/internal/nutrition"
)

// Service calculates and logs meal intake.
type Service struct {
	records Repository
	menu    MenuRepository
	now     func() time.Time
}

// NewService creates a new intake service.
func NewService(records Repository, menu MenuRepository) *Service {
	return &Service{
		records: records,
		menu:    menu,
		now:     time.Now,
	}
}

// Calculation is the result of scaling a menu item to a portion.
type Calculation struct {
	MenuItem  *MenuItem `json:"-"`
	Nutrients Nutrients `json:"calculated_nutrients"`
}

// Calculate looks up the menu item and scales it to the portion without
// storing anything.
func (s *Service) Calculate(ctx context.Context, menuItemID string, p Portion) (*Calculation, error) {
	item, err := s.menu.Get(ctx, menuItemID)
	if err != nil {
		return nil, err
	}

	nutrients, err := Calculate(item, p)
	if err != nil {
		return nil, err
	}
	return &Calculation{MenuItem: item, Nutrients: nutrients}, nil
}

// LogInput describes a meal to log.
type LogInput struct {
	UserID     string
	MenuItemID string
	Portion    Portion
	ConsumedAt time.Time
}

// Log calculates the nutrients of a consumed meal and stores the record.
func (s *Service) Log(ctx context.Context, in LogInput) (*Record, error) {
	if in.UserID == "" {
		return nil, nutrition.InvalidField("user_id", "is required")
	}

	calc, err := s.Calculate(ctx, in.MenuItemID, in.Portion)
	if err != nil {
		return nil, err
	}

	now := s.now()
	consumedAt := in.ConsumedAt
	if consumedAt.IsZero() {
		consumedAt = now
	}

	rec := &Record{
		ID:               "int_" + uuid.New().String()[:22],
		UserID:           in.UserID,
		MenuItemID:       in.MenuItemID,
		ConsumedWeightG:  in.Portion.WeightG,
		ConsumedVolumeML: in.Portion.VolumeML,
		Nutrients:        calc.Nutrients,
		ConsumedAt:       consumedAt,
		CreatedAt:        now,
	}
	if err := s.records.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("storing intake record: %w", err)
	}
	return rec, nil
}

// Summarize loads the user's records for the window and aggregates them.
func (s *Service) Summarize(ctx context.Context, userID string, w Window) (Aggregated, error) {
	if w.Days() < 1 {
		return Aggregated{}, nutrition.InvalidField("date_range", "end date is before start date")
	}

	loc := w.Start.Location()
	from := civilDate(w.Start, loc)
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	to := civilDate(w.End, loc)
	to = time.Date(to.Year(), to.Month(), to.Day()+1, 0, 0, 0, 0, loc)

	records, err := s.records.ListByUser(ctx, userID, from, to)
	if err != nil {
		return Aggregated{}, fmt.Errorf("listing intake records: %w", err)
	}
	return Aggregate(records, w)
}
