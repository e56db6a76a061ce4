package api

import (
	"encoding/json"
	"testing"
)

func TestClientPriceUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
		want ClientPrice
	}{
		{name: "number", body: `{"price":450}`, want: "450"},
		{name: "fractional number", body: `{"price":450.5}`, want: "450.5"},
		{name: "formatted string", body: `{"price":"₱450.50"}`, want: "₱450.50"},
		{name: "null", body: `{"price":null}`, want: ""},
		{name: "absent", body: `{}`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req CreateBookingRequest
			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}

			if req.Price != tt.want {
				t.Errorf("Price = %q, want %q", req.Price, tt.want)
			}
		})
	}
}
