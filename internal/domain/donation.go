package domain

import "time"

// SubmissionState enumerates the donation submission lifecycle.
type SubmissionState string

const (
	SubmissionIdle       SubmissionState = "idle"
	SubmissionSubmitting SubmissionState = "submitting"
	SubmissionConfirmed  SubmissionState = "confirmed"
	SubmissionRejected   SubmissionState = "rejected"
	SubmissionFailed     SubmissionState = "failed"
)

// Terminal reports whether the state ends a submission attempt.
func (s SubmissionState) Terminal() bool {
	switch s {
	case SubmissionConfirmed, SubmissionRejected, SubmissionFailed:
		return true
	}
	return false
}

// DonationIntent is the audit record written after a submission resolves.
// AmountWei is kept as a decimal string so no precision is lost in storage.
type DonationIntent struct {
	ID              string
	CampaignAddress string
	DonorAddress    string
	AmountWei       string
	TxHash          string
	Outcome         SubmissionState
	Country         string
	CreatedAt       time.Time
}

// DonationEvent is one point of a campaign's donation history, used as
// prediction input. Amount is the cumulative total in ether units.
type DonationEvent struct {
	Date   time.Time
	Amount float64
}
