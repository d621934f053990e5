package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"skycover-agent/internal/domain/policy"
	xerrors "skycover-agent/internal/pkg/errors"
)

func staticToken(token string) TokenSource {
	return func() string { return token }
}

func TestValidateToken(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantErr    error
		wantNilErr bool
	}{
		{"200 confirms", http.StatusOK, nil, true},
		{"204 confirms", http.StatusNoContent, nil, true},
		{"401 rejects", http.StatusUnauthorized, xerrors.ErrAuthExpired, false},
		{"500 rejects", http.StatusInternalServerError, xerrors.ErrAuthExpired, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/tokenvalid/" {
					t.Errorf("path = %q, want /tokenvalid/", r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
					t.Errorf("Authorization = %q", got)
				}
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			err := NewClient(srv.URL, staticToken("tok-1")).ValidateToken(context.Background())
			if tt.wantNilErr {
				if err != nil {
					t.Errorf("ValidateToken() error = %v, want nil", err)
				}
				return
			}
			if !xerrors.Is(err, tt.wantErr) {
				t.Errorf("ValidateToken() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateToken_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	err := NewClient(srv.URL, staticToken("tok-1")).ValidateToken(context.Background())
	if !xerrors.Is(err, xerrors.ErrNetworkTransient) {
		t.Errorf("ValidateToken() error = %v, want ErrNetworkTransient", err)
	}
	if xerrors.Is(err, xerrors.ErrAuthExpired) {
		t.Error("transport failure classified as auth rejection")
	}
}

func TestUpdateWalletAddress(t *testing.T) {
	const addr = "0x52908400098527886E0F7030069857D2E4169EE7"

	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/user/wallet" {
			t.Errorf("%s %s, want PUT /user/wallet", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticToken("tok-1"))
	if err := client.UpdateWalletAddress(context.Background(), addr); err != nil {
		t.Fatalf("UpdateWalletAddress() error = %v", err)
	}
	if gotBody["wallet_address"] != addr {
		t.Errorf("body = %v, want wallet_address field", gotBody)
	}
}

func TestUpdateWalletAddress_InvalidAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("malformed address reached the server")
	}))
	defer srv.Close()

	err := NewClient(srv.URL, staticToken("tok-1")).UpdateWalletAddress(context.Background(), "0xabc")
	if !xerrors.Is(err, xerrors.ErrInvalidInput) {
		t.Errorf("UpdateWalletAddress() error = %v, want ErrInvalidInput", err)
	}
}

func TestUpdateWalletAddress_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "wallet already taken", http.StatusConflict)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, staticToken("tok-1")).UpdateWalletAddress(context.Background(),
		"0x52908400098527886E0F7030069857D2E4169EE7")
	if err == nil {
		t.Fatal("UpdateWalletAddress() error = nil, want failure")
	}
	if !strings.Contains(err.Error(), "409") || !strings.Contains(err.Error(), "wallet already taken") {
		t.Errorf("error = %v, want status and body text", err)
	}
}

func TestPolicyTemplates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/policy-templates" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{
			"id": 3,
			"template_name": "Frost Cover",
			"policy_type": "temperature",
			"default_conditions": [{"type": "TEMP_BELOW", "threshold": -5}],
			"min_coverage_amount": "0.1",
			"max_coverage_amount": "1.0",
			"base_premium_rate": "0.1",
			"is_active": true
		}]`))
	}))
	defer srv.Close()

	templates, err := NewClient(srv.URL, staticToken("tok-1")).PolicyTemplates(context.Background())
	if err != nil {
		t.Fatalf("PolicyTemplates() error = %v", err)
	}
	if len(templates) != 1 {
		t.Fatalf("got %d templates, want 1", len(templates))
	}
	tmpl := templates[0]
	if tmpl.ID != 3 || tmpl.TemplateName != "Frost Cover" {
		t.Errorf("template = %+v", tmpl)
	}
	if len(tmpl.DefaultConditions) != 1 || tmpl.DefaultConditions[0].Threshold != -5 {
		t.Errorf("conditions = %+v", tmpl.DefaultConditions)
	}
}

func TestUserPolicies_MixedDateEncodings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{
				"id": 1,
				"policy_name": "A",
				"policy_type": "temperature",
				"location_latitude": "52.52",
				"location_longitude": "13.405",
				"coverage_amount": "1.0",
				"premium_amount": "0.1",
				"start_date": "2026-03-01T00:00:00Z",
				"end_date": "2026-03-31T00:00:00Z"
			},
			{
				"id": 2,
				"policy_name": "B",
				"policy_type": "temperature",
				"location_latitude": "52.52",
				"location_longitude": "13.405",
				"coverage_amount": "1.0",
				"premium_amount": "0.1",
				"start_date": [2026, 60, 0, 0, 0, 0],
				"end_date": [2026, 90, 0, 0, 0, 0]
			}
		]`))
	}))
	defer srv.Close()

	policies, err := NewClient(srv.URL, staticToken("tok-1")).UserPolicies(context.Background())
	if err != nil {
		t.Fatalf("UserPolicies() error = %v", err)
	}
	if len(policies) != 2 {
		t.Fatalf("got %d policies, want 2", len(policies))
	}

	want := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	if !policies[0].StartDate.Time.Equal(want) {
		t.Errorf("string start date = %v, want %v", policies[0].StartDate.Time, want)
	}
	if !policies[1].StartDate.Time.Equal(want) {
		t.Errorf("tuple start date = %v, want %v", policies[1].StartDate.Time, want)
	}
}

func TestCreatePolicy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/policies" {
			t.Errorf("%s %s, want POST /policies", r.Method, r.URL.Path)
		}
		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		if req["purchase_transaction_hash"] != "0xdeadbeef" {
			t.Errorf("body = %v, want transaction hash", req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 42, "policy_name": "Frost Cover", "policy_type": "temperature",
			"location_latitude": "52.52", "location_longitude": "13.405",
			"coverage_amount": "1.0", "premium_amount": "0.1",
			"start_date": "2026-03-01T00:00:00Z", "end_date": "2026-03-31T00:00:00Z"}`))
	}))
	defer srv.Close()

	created, err := NewClient(srv.URL, staticToken("tok-1")).CreatePolicy(context.Background(), &policy.CreatePolicyRequest{
		PolicyName:              "Frost Cover",
		PolicyType:              "temperature",
		PurchaseTransactionHash: "0xdeadbeef",
	})
	if err != nil {
		t.Fatalf("CreatePolicy() error = %v", err)
	}
	if created.ID != 42 {
		t.Errorf("created.ID = %d, want 42", created.ID)
	}
}

func TestCreatePolicy_FailureIsBackendRecording(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "db down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, staticToken("tok-1")).CreatePolicy(context.Background(), &policy.CreatePolicyRequest{})
	if !xerrors.Is(err, xerrors.ErrBackendRecording) {
		t.Errorf("CreatePolicy() error = %v, want ErrBackendRecording", err)
	}
}

func TestNewRequest_NoTokenNoHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("Authorization = %q, want unset without a session", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := NewClient(srv.URL, staticToken("")).ValidateToken(context.Background()); err != nil {
		t.Errorf("ValidateToken() error = %v", err)
	}
}
