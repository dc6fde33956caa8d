package validate

import "testing"

func TestRUC(t *testing.T) {
	cases := []struct {
		name string
		ruc  string
		want bool
	}{
		{"valid pichincha ruc", "1790012345001", true},
		{"valid low province", "0190012345001", true},
		{"valid highest province", "2490012345001", true},
		{"formatted with separators", "17-9001234-5001", true},
		{"too short", "179001234001", false},
		{"too long", "17900123450011", false},
		{"missing 001 suffix", "1790012345002", false},
		{"province zero", "0090012345001", false},
		{"province too high", "2590012345001", false},
		{"letters only", "abcdefghijklm", false},
		{"empty", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RUC(tc.ruc); got != tc.want {
				t.Errorf("RUC(%q) = %v, want %v", tc.ruc, got, tc.want)
			}
		})
	}
}
