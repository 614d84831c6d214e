package predict

import (
	"context"

	"givechain/internal/domain"
)

// ForecastRequest carries a campaign's donation history and the horizon to
// project. Amounts are cumulative ether values.
type ForecastRequest struct {
	CampaignAddress string
	CampaignName    string
	GoalEther       string
	History         []domain.DonationEvent
	Days            int
}

// Forecaster produces an advisory donation forecast. Implementations make
// no numeric accuracy guarantee; the confidence score is metadata only.
type Forecaster interface {
	Forecast(ctx context.Context, req ForecastRequest) (*domain.Forecast, error)
}
