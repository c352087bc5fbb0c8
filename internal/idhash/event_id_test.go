package idhash

import (
	"testing"

	"travel-data-pipeline/internal/domain"
)

func TestComputeEventID(t *testing.T) {
	tests := []struct {
		name     string
		cycleID  string
		dataType string
		country  string
	}{
		{"exchange rate", "cycle-1", domain.DataTypeExchangeRate, "USA"},
		{"google trend", "cycle-1", domain.DataTypeGoogleTrend, "USA"},
		{"other country", "cycle-1", domain.DataTypeExchangeRate, "DEU"},
	}

	seen := make(map[string]string)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeEventID(tt.cycleID, tt.dataType, tt.country)
			if len(got) != 64 {
				t.Errorf("ComputeEventID() length = %d, want 64", len(got))
			}
			if again := ComputeEventID(tt.cycleID, tt.dataType, tt.country); again != got {
				t.Errorf("ComputeEventID() not deterministic: %s != %s", got, again)
			}
			if prev, ok := seen[got]; ok {
				t.Errorf("ComputeEventID() collision between %q and %q", prev, tt.name)
			}
			seen[got] = tt.name
		})
	}
}

func TestComputeEventID_KnownValue(t *testing.T) {
	want := "fce0ed996c890b91ac48bc25b4687d7080c4888ee72dd34ad719243a99de9ed7"
	if got := ComputeEventID("c", domain.DataTypeExchangeRate, "USA"); got != want {
		t.Errorf("ComputeEventID() = %s, want %s", got, want)
	}
}
