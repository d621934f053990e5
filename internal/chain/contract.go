// internal/chain/contract.go
package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"skycover-agent/internal/domain/policy"
	"skycover-agent/internal/provider"
)

// buyPolicyABI mirrors the deployed weather-insurance contract:
// buyPolicy(uint duration, uint payout, int256 threshold, string eventType,
// string h3HexId) payable.
const buyPolicyABI = `[{"type":"function","name":"buyPolicy","stateMutability":"payable","inputs":[{"name":"duration","type":"uint256"},{"name":"payout","type":"uint256"},{"name":"threshold","type":"int256"},{"name":"eventType","type":"string"},{"name":"h3HexId","type":"string"}],"outputs":[]}]`

// DefaultGasLimit is the explicit gas ceiling for buyPolicy calls. Set high
// enough that provider-side gas estimation can never block the flow.
const DefaultGasLimit uint64 = 500000

// Contract submits buyPolicy calls against a fixed contract address through
// whatever signer the wallet provider hands out.
type Contract struct {
	address  string
	abi      abi.ABI
	gasLimit uint64
}

func NewContract(address string, gasLimit uint64) (*Contract, error) {
	if address == "" {
		return nil, fmt.Errorf("contract address not configured")
	}
	if gasLimit == 0 {
		gasLimit = DefaultGasLimit
	}
	parsed, err := abi.JSON(strings.NewReader(buyPolicyABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract abi: %w", err)
	}
	return &Contract{address: address, abi: parsed, gasLimit: gasLimit}, nil
}

// Address returns the contract address, recorded on backend policy records.
func (c *Contract) Address() string {
	return c.address
}

// BuyPolicy packs and submits the purchase call. The transaction value is the
// premium; the payout obligation lives in the call arguments.
func (c *Contract) BuyPolicy(ctx context.Context, signer provider.Signer, terms *policy.Terms) (provider.TxHandle, error) {
	data, err := c.abi.Pack(
		"buyPolicy",
		new(big.Int).SetUint64(terms.Duration),
		terms.Payout,
		big.NewInt(terms.Threshold),
		terms.EventType,
		terms.LocationKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to pack buyPolicy call: %w", err)
	}

	return signer.SendTransaction(ctx, provider.TxRequest{
		To:       c.address,
		Value:    terms.Premium,
		GasLimit: c.gasLimit,
		Data:     data,
	})
}
