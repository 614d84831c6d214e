package chain

import (
	"fmt"
	"math/big"
	"strings"

	"givechain/internal/domain"
)

// EtherDecimals is the fixed-point divisor exponent between wei and ether.
const EtherDecimals = 18

var weiPerEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(EtherDecimals), nil)

// WeiToEtherString converts a wei amount to a decimal ether string using
// integer arithmetic only. places caps the fraction digits; trailing zeros
// are trimmed. The input is never mutated.
func WeiToEtherString(wei *big.Int, places int) string {
	if wei == nil {
		return "0"
	}
	if places < 0 || places > EtherDecimals {
		places = EtherDecimals
	}
	abs := new(big.Int).Abs(wei)
	quo, rem := new(big.Int).QuoRem(abs, weiPerEther, new(big.Int))
	sign := ""
	if wei.Sign() < 0 {
		sign = "-"
	}
	if rem.Sign() == 0 || places == 0 {
		return sign + quo.String()
	}
	frac := fmt.Sprintf("%018s", rem.String())
	frac = frac[:places]
	frac = strings.TrimRight(frac, "0")
	if frac == "" {
		return sign + quo.String()
	}
	return sign + quo.String() + "." + frac
}

// WeiToEtherFloat converts wei to a float64 ether value for display-level
// arithmetic. Exact conversion happens in WeiToEtherString; this helper is
// only for charting and rough comparisons.
func WeiToEtherFloat(wei *big.Int) float64 {
	if wei == nil {
		return 0
	}
	rat := new(big.Rat).SetFrac(wei, weiPerEther)
	f, _ := rat.Float64()
	return f
}

// ParseEtherAmount parses a positive decimal ether string into wei.
// Zero, negative, malformed, and over-precise (>18 fraction digits) inputs
// are rejected with domain.ErrInvalidAmount.
func ParseEtherAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty amount", domain.ErrInvalidAmount)
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return nil, fmt.Errorf("%w: signed amount %q", domain.ErrInvalidAmount, s)
	}
	whole, frac := s, ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		whole, frac = s[:idx], s[idx+1:]
	}
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidAmount, s)
	}
	if !digitsOnly(whole) || !digitsOnly(frac) {
		return nil, fmt.Errorf("%w: %q is not a decimal number", domain.ErrInvalidAmount, s)
	}
	if len(frac) > EtherDecimals {
		return nil, fmt.Errorf("%w: more than %d fraction digits", domain.ErrInvalidAmount, EtherDecimals)
	}
	padded := frac + strings.Repeat("0", EtherDecimals-len(frac))
	if whole == "" {
		whole = "0"
	}
	wei, ok := new(big.Int).SetString(whole+padded, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidAmount, s)
	}
	if wei.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be greater than zero", domain.ErrInvalidAmount)
	}
	return wei, nil
}

func digitsOnly(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
