// internal/domain/policy/entity.go
package policy

import (
	"encoding/json"
	"fmt"
	"time"
)

// TriggerCondition is one parametric trigger from a template's default
// conditions, e.g. {"type": "TEMP_BELOW", "threshold": -5}.
type TriggerCondition struct {
	Type      string `json:"type"`
	Threshold int64  `json:"threshold"`
}

// Template is a purchasable policy template as served by the backend.
// Decimal amounts arrive as strings and are kept as strings until terms
// derivation converts them to native chain units.
type Template struct {
	ID                int32              `json:"id"`
	TemplateName      string             `json:"template_name"`
	Description       string             `json:"description,omitempty"`
	PolicyType        string             `json:"policy_type"`
	DefaultConditions []TriggerCondition `json:"default_conditions,omitempty"`
	MinCoverageAmount string             `json:"min_coverage_amount"`
	MaxCoverageAmount string             `json:"max_coverage_amount"`
	BasePremiumRate   string             `json:"base_premium_rate"`
	IsActive          bool               `json:"is_active"`
}

// Location identifies the insured location. H3Index is the spatial key the
// chain contract and the weather oracle resolve against.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	H3Index   string  `json:"h3_index"`
	Name      string  `json:"name,omitempty"`
}

// InsurancePolicy is a backend policy record as returned by GET /policies.
type InsurancePolicy struct {
	ID                      int32    `json:"id"`
	PolicyName              string   `json:"policy_name"`
	PolicyType              string   `json:"policy_type"`
	LocationLatitude        float64  `json:"location_latitude,string"`
	LocationLongitude       float64  `json:"location_longitude,string"`
	LocationH3Index         string   `json:"location_h3_index,omitempty"`
	LocationName            string   `json:"location_name,omitempty"`
	CoverageAmount          string   `json:"coverage_amount"`
	PremiumAmount           string   `json:"premium_amount"`
	Currency                string   `json:"currency,omitempty"`
	StartDate               WireDate `json:"start_date"`
	EndDate                 WireDate `json:"end_date"`
	Status                  string   `json:"status,omitempty"`
	SmartContractAddress    string   `json:"smart_contract_address,omitempty"`
	PurchaseTransactionHash string   `json:"purchase_transaction_hash,omitempty"`
	BlockchainVerified      *bool    `json:"blockchain_verified,omitempty"`
	BlockchainBlockNumber   *int64   `json:"blockchain_block_number,omitempty"`
}

// WireDate decodes the backend's two date serializations: an RFC3339 string,
// or a 6-component calendar tuple [year, dayOfYear, hour, minute, second,
// nanosecond].
type WireDate struct {
	time.Time
}

func (d *WireDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			// The backend omits the zone on some records.
			t, err = time.Parse("2006-01-02T15:04:05", s)
			if err != nil {
				return fmt.Errorf("unsupported date string %q", s)
			}
		}
		d.Time = t
		return nil
	}

	var parts []int64
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("unsupported date encoding: %s", data)
	}
	if len(parts) < 6 {
		return fmt.Errorf("calendar tuple has %d components, want 6", len(parts))
	}
	year, dayOfYear := int(parts[0]), int(parts[1])
	t := time.Date(year, time.January, 1, int(parts[2]), int(parts[3]), int(parts[4]), int(parts[5]), time.UTC)
	d.Time = t.AddDate(0, 0, dayOfYear-1)
	return nil
}

func (d WireDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.UTC().Format(time.RFC3339))
}
