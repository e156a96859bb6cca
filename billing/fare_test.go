package billing

import "testing"

func TestFare(t *testing.T) {
	tests := []struct {
		name        string
		rideSeconds int64
		holdSeconds int64
		want        string
	}{
		{"unlock fee only", 0, 0, "5.00"},
		{"one exact minute", 60, 0, "6.00"},
		{"partial minute rounds up", 61, 0, "7.00"},
		{"ride and hold", 120, 30, "7.25"},
		{"scenario trip", 90, 30, "7.25"},
		{"negative clamped", -5, 0, "5.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fare(tt.rideSeconds, tt.holdSeconds); got != tt.want {
				t.Errorf("Fare(%d, %d) = %s, want %s", tt.rideSeconds, tt.holdSeconds, got, tt.want)
			}
		})
	}
}
