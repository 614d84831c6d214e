package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"givechain/internal/domain"
)

// ReceiptWaiter blocks until a transaction is mined or the context expires.
type ReceiptWaiter interface {
	WaitMined(ctx context.Context, txHash string, interval time.Duration) (*Receipt, error)
}

// Submission is the observable state of a donation attempt.
type Submission struct {
	State     domain.SubmissionState
	TxHash    string
	Error     string
	UpdatedAt time.Time
}

// Submitter runs the donation submission lifecycle:
// Idle -> Submitting -> Confirmed | Rejected | Failed.
// Only one submission may be in flight per donor wallet; the wallet is a
// single user-controlled resource and must not sign concurrent transactions.
type Submitter struct {
	bridge       WalletBridge
	receipts     ReceiptWaiter
	logger       zerolog.Logger
	pollInterval time.Duration
	confirmAfter time.Duration

	mu     sync.Mutex
	byWall map[string]*Submission
}

// SubmitterOptions configures a Submitter.
type SubmitterOptions struct {
	Bridge         WalletBridge
	Receipts       ReceiptWaiter
	Logger         zerolog.Logger
	PollInterval   time.Duration
	ConfirmTimeout time.Duration
}

func NewSubmitter(opts SubmitterOptions) (*Submitter, error) {
	if opts.Bridge == nil {
		return nil, errors.New("wallet bridge is required")
	}
	if opts.Receipts == nil {
		return nil, errors.New("receipt waiter is required")
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = 2 * time.Second
	}
	confirm := opts.ConfirmTimeout
	if confirm <= 0 {
		confirm = 2 * time.Minute
	}
	return &Submitter{
		bridge:       opts.Bridge,
		receipts:     opts.Receipts,
		logger:       opts.Logger,
		pollInterval: poll,
		confirmAfter: confirm,
		byWall:       make(map[string]*Submission),
	}, nil
}

// Status returns the last known submission state for a donor wallet.
func (s *Submitter) Status(donor string) Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub, ok := s.byWall[lowercase(donor)]; ok {
		return *sub
	}
	return Submission{State: domain.SubmissionIdle}
}

// Submit validates the amount, dispatches the transaction through the
// wallet bridge, and waits for confirmation. The amount is a decimal ether
// string; anything not strictly greater than zero is rejected before any
// network call happens. A second submission for the same donor while one is
// still Submitting fails with ErrSubmissionInFlight.
func (s *Submitter) Submit(ctx context.Context, campaign, donor, amount string) (Submission, error) {
	valueWei, err := ParseEtherAmount(amount)
	if err != nil {
		return Submission{State: domain.SubmissionIdle}, err
	}
	key := lowercase(donor)

	s.mu.Lock()
	if prev, ok := s.byWall[key]; ok && !prev.State.Terminal() {
		s.mu.Unlock()
		return *prev, domain.ErrSubmissionInFlight
	}
	sub := &Submission{State: domain.SubmissionSubmitting, UpdatedAt: time.Now()}
	s.byWall[key] = sub
	s.mu.Unlock()

	txHash, err := s.bridge.SendDonation(ctx, campaign, donor, valueWei)
	if err != nil {
		if errors.Is(err, domain.ErrUserRejected) {
			// Declined signing is a recoverable outcome, never an error
			// surfaced as a failure.
			s.logger.Info().Str("donor", donor).Msg("donation signing declined")
			return s.finish(key, domain.SubmissionRejected, "", ""), nil
		}
		s.logger.Error().Err(err).Str("donor", donor).Msg("donation dispatch failed")
		return s.finish(key, domain.SubmissionFailed, "", err.Error()), err
	}

	s.setTxHash(key, txHash)

	waitCtx, cancel := context.WithTimeout(ctx, s.confirmAfter)
	defer cancel()
	receipt, err := s.receipts.WaitMined(waitCtx, txHash, s.pollInterval)
	if err != nil {
		s.logger.Error().Err(err).Str("tx", txHash).Msg("donation confirmation failed")
		return s.finish(key, domain.SubmissionFailed, txHash, err.Error()), err
	}
	if !receipt.Succeeded() {
		err := fmt.Errorf("%w: transaction %s reverted", domain.ErrUpstreamFailure, txHash)
		return s.finish(key, domain.SubmissionFailed, txHash, err.Error()), err
	}
	s.logger.Info().Str("tx", txHash).Str("campaign", campaign).Msg("donation confirmed")
	return s.finish(key, domain.SubmissionConfirmed, txHash, ""), nil
}

func (s *Submitter) setTxHash(key, txHash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub, ok := s.byWall[key]; ok {
		sub.TxHash = txHash
		sub.UpdatedAt = time.Now()
	}
}

func (s *Submitter) finish(key string, state domain.SubmissionState, txHash, errMsg string) Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.byWall[key]
	if !ok {
		sub = &Submission{}
		s.byWall[key] = sub
	}
	sub.State = state
	if txHash != "" {
		sub.TxHash = txHash
	}
	sub.Error = errMsg
	sub.UpdatedAt = time.Now()
	return *sub
}

func lowercase(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
