// internal/domain/policy/terms.go
package policy

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/params"
)

const (
	// DefaultDuration is the coverage window for purchased policies.
	DefaultDuration = 30 * 24 * time.Hour

	// premiumDivisor: premium is a fixed 10% of the payout.
	premiumDivisor = 10
)

// Terms are the derived chain-call parameters for one purchase attempt.
// Payout and Premium are in wei.
type Terms struct {
	Duration    uint64   `json:"duration"`
	Payout      *big.Int `json:"payout"`
	Premium     *big.Int `json:"premium"`
	Threshold   int64    `json:"threshold"`
	EventType   string   `json:"event_type"`
	LocationKey string   `json:"location_key"`
}

// DeriveTerms computes the contract-call terms from a template and location.
// Coverage converts from the template's decimal ETH amount to wei, premium is
// a fixed fraction of payout, and trigger parameters come from the template's
// first default condition.
func DeriveTerms(tmpl *Template, loc *Location) (*Terms, error) {
	if tmpl == nil {
		return nil, fmt.Errorf("nil template")
	}
	if loc == nil || loc.H3Index == "" {
		return nil, fmt.Errorf("location has no spatial index")
	}
	if len(tmpl.DefaultConditions) == 0 {
		return nil, fmt.Errorf("template %q has no trigger conditions", tmpl.TemplateName)
	}

	payout, err := ParseEther(tmpl.MaxCoverageAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid coverage amount %q: %w", tmpl.MaxCoverageAmount, err)
	}

	cond := tmpl.DefaultConditions[0]
	return &Terms{
		Duration:    uint64(DefaultDuration / time.Second),
		Payout:      payout,
		Premium:     new(big.Int).Div(payout, big.NewInt(premiumDivisor)),
		Threshold:   cond.Threshold,
		EventType:   cond.Type,
		LocationKey: loc.H3Index,
	}, nil
}

// ParseEther converts a decimal ETH string ("1.0", "0.25") to wei.
func ParseEther(s string) (*big.Int, error) {
	f, ok := new(big.Float).SetString(s)
	if !ok {
		return nil, fmt.Errorf("not a decimal number")
	}
	if f.Sign() < 0 {
		return nil, fmt.Errorf("negative amount")
	}
	wei, _ := new(big.Float).Mul(f, big.NewFloat(params.Ether)).Int(nil)
	return wei, nil
}

// FormatEther renders a wei amount as a decimal ETH string for the backend,
// which stores coverage and premium as decimals.
func FormatEther(wei *big.Int) string {
	f := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(params.Ether))
	return f.Text('f', -1)
}
