package policy

import (
	"encoding/json"
	"testing"
	"time"
)

func TestWireDateUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Time
		wantErr bool
	}{
		{
			name: "rfc3339",
			in:   `"2026-03-01T12:30:00Z"`,
			want: time.Date(2026, time.March, 1, 12, 30, 0, 0, time.UTC),
		},
		{
			name: "zoneless string",
			in:   `"2026-03-01T12:30:00"`,
			want: time.Date(2026, time.March, 1, 12, 30, 0, 0, time.UTC),
		},
		{
			name: "calendar tuple",
			in:   `[2026, 60, 12, 30, 0, 0]`,
			want: time.Date(2026, time.March, 1, 12, 30, 0, 0, time.UTC),
		},
		{
			name: "leap year tuple",
			in:   `[2028, 61, 0, 0, 0, 0]`,
			want: time.Date(2028, time.March, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "short tuple",
			in:      `[2026, 60]`,
			wantErr: true,
		},
		{
			name:    "unparsable string",
			in:      `"yesterday"`,
			wantErr: true,
		},
		{
			name:    "wrong shape",
			in:      `{"year": 2026}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d WireDate
			err := json.Unmarshal([]byte(tt.in), &d)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if !d.Time.Equal(tt.want) {
				t.Errorf("Unmarshal(%s) = %v, want %v", tt.in, d.Time, tt.want)
			}
		})
	}
}

func TestWireDateMarshal(t *testing.T) {
	d := WireDate{Time: time.Date(2026, time.March, 1, 12, 30, 0, 0, time.UTC)}
	got, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(got) != `"2026-03-01T12:30:00Z"` {
		t.Errorf("Marshal() = %s, want RFC3339", got)
	}
}

func TestPolicyDecodesTupleDates(t *testing.T) {
	raw := `{
		"id": 7,
		"policy_name": "Frost Cover",
		"policy_type": "temperature",
		"location_latitude": "52.52",
		"location_longitude": "13.405",
		"coverage_amount": "1.0",
		"premium_amount": "0.1",
		"start_date": [2026, 1, 0, 0, 0, 0],
		"end_date": "2026-01-31T00:00:00Z"
	}`

	var p InsurancePolicy
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !p.StartDate.Time.Equal(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("StartDate = %v, want 2026-01-01", p.StartDate.Time)
	}
	if p.LocationLatitude != 52.52 {
		t.Errorf("LocationLatitude = %v, want 52.52", p.LocationLatitude)
	}
}
