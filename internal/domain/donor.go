package domain

import "time"

// DonorProfile is the off-chain identity record for a wallet address.
// Created on first registration; read-mostly afterward.
type DonorProfile struct {
	WalletAddress string
	Name          string
	Avatar        string
	CreatedAt     time.Time
}
