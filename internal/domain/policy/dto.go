// internal/domain/policy/dto.go
package policy

// CreatePolicyRequest is the payload for POST /policies on the backend. Dates
// go out as RFC3339; WireDate handles both forms on the way back in.
type CreatePolicyRequest struct {
	PolicyTemplateID        *int32   `json:"policy_template_id,omitempty"`
	PolicyName              string   `json:"policy_name"`
	PolicyType              string   `json:"policy_type"`
	LocationLatitude        float64  `json:"location_latitude"`
	LocationLongitude       float64  `json:"location_longitude"`
	LocationH3Index         string   `json:"location_h3_index,omitempty"`
	LocationName            string   `json:"location_name,omitempty"`
	CoverageAmount          string   `json:"coverage_amount"`
	PremiumAmount           string   `json:"premium_amount"`
	Currency                string   `json:"currency,omitempty"`
	StartDate               WireDate `json:"start_date"`
	EndDate                 WireDate `json:"end_date"`
	WeatherStationID        string   `json:"weather_station_id,omitempty"`
	SmartContractAddress    string   `json:"smart_contract_address,omitempty"`
	PurchaseTransactionHash string   `json:"purchase_transaction_hash,omitempty"`
}
