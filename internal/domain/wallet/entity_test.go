package wallet

import "testing"

func TestValidAddress(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"0x52908400098527886E0F7030069857D2E4169EE7", true},
		{"0x52908400098527886e0f7030069857d2e4169ee7", true},
		{"52908400098527886E0F7030069857D2E4169EE7", false},
		{"0x1234", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ValidAddress(tt.in); got != tt.want {
				t.Errorf("ValidAddress(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSameAddress(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical", "0x52908400098527886E0F7030069857D2E4169EE7", "0x52908400098527886E0F7030069857D2E4169EE7", true},
		{"checksum vs lowercase", "0x52908400098527886E0F7030069857D2E4169EE7", "0x52908400098527886e0f7030069857d2e4169ee7", true},
		{"different addresses", "0x52908400098527886E0F7030069857D2E4169EE7", "0x8617E340B3D01FA5F11F306F4090FD50E238070D", false},
		{"both empty", "", "", true},
		{"one empty", "0x52908400098527886E0F7030069857D2E4169EE7", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameAddress(tt.a, tt.b); got != tt.want {
				t.Errorf("SameAddress(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
