package predict

import (
	"context"
	"sort"
	"strconv"
	"time"

	"givechain/internal/domain"
)

// StaticForecaster projects a linear trend from the observed history. It is
// the deterministic fallback used when no model provider is configured and
// carries a fixed low confidence to mark it as such.
type StaticForecaster struct{}

const staticConfidence = 40

func (StaticForecaster) Forecast(_ context.Context, req ForecastRequest) (*domain.Forecast, error) {
	if len(req.History) == 0 {
		return nil, domain.ErrNoHistory
	}
	if req.Days <= 0 {
		return nil, domain.ErrInvalidInput
	}

	history := append([]domain.DonationEvent(nil), req.History...)
	sort.SliceStable(history, func(a, b int) bool {
		return history[a].Date.Before(history[b].Date)
	})

	first := history[0]
	last := history[len(history)-1]
	spanDays := last.Date.Sub(first.Date).Hours() / 24
	if spanDays < 1 {
		spanDays = 1
	}
	dailyGain := (last.Amount - first.Amount) / spanDays
	if dailyGain < 0 {
		dailyGain = 0
	}

	points := make([]domain.PredictionPoint, 0, len(history)+req.Days)
	for _, ev := range history {
		points = append(points, domain.PredictionPoint{
			Date:   ev.Date.UTC(),
			Amount: ev.Amount,
		})
	}

	goal, _ := strconv.ParseFloat(req.GoalEther, 64)
	running := last.Amount
	var goalDate time.Time
	for day := 1; day <= req.Days; day++ {
		running += dailyGain
		date := last.Date.UTC().AddDate(0, 0, day)
		points = append(points, domain.PredictionPoint{
			Date:        date,
			Amount:      running,
			IsProjected: true,
		})
		if goalDate.IsZero() && goal > 0 && running >= goal {
			goalDate = date
		}
	}
	// A trend that never reaches the goal within the horizon reports no
	// completion date rather than a fabricated one.

	return &domain.Forecast{
		Points:             points,
		GoalCompletionDate: goalDate,
		ConfidenceScore:    staticConfidence,
		GeneratedAt:        time.Now().UTC(),
	}, nil
}
