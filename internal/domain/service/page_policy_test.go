package service

import "testing"

func TestPagePolicyParse(t *testing.T) {
	policy := NewPagePolicy(30, 100)

	tests := []struct {
		raw  string
		want int
	}{
		{"", 30},
		{"abc", 30},
		{"0", 30},
		{"-5", 30},
		{"1", 1},
		{" 42 ", 42},
		{"100", 100},
		{"101", 100},
		{"100000", 100},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := policy.Parse(tt.raw); got != tt.want {
				t.Fatalf("Parse(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNewPagePolicyNormalizesBounds(t *testing.T) {
	policy := NewPagePolicy(0, 0)
	if policy.Default() != DefaultPageSize || policy.Max() != MaxPageSize {
		t.Fatalf("unexpected defaults: %d/%d", policy.Default(), policy.Max())
	}

	policy = NewPagePolicy(50, 10)
	if policy.Default() != 10 {
		t.Fatalf("default must not exceed max, got %d", policy.Default())
	}
}
