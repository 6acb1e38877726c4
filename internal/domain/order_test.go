package domain

import (
	"math"
	"testing"
	"time"
)

func TestOrder_AverageFillPrice_SingleFill(t *testing.T) {
	o := &Order{
		FilledQuantity: 100,
		Fills: []*Fill{
			{Price: 15000, Quantity: 100, ExecutedAt: time.Now()},
		},
	}
	avg, ok := o.AverageFillPrice()
	if !ok {
		t.Fatal("AverageFillPrice() returned false, want true")
	}
	if avg != 150.0 {
		t.Errorf("AverageFillPrice() = %v, want 150.0", avg)
	}
}

func TestOrder_AverageFillPrice_MultipleFills(t *testing.T) {
	// 500 @ 327 + 100 @ 329 = 163500 + 32900 = 196400 / 600 = 327.333... cents
	o := &Order{
		FilledQuantity: 600,
		Fills: []*Fill{
			{Price: 327, Quantity: 500, ExecutedAt: time.Now()},
			{Price: 329, Quantity: 100, ExecutedAt: time.Now()},
		},
	}
	avg, ok := o.AverageFillPrice()
	if !ok {
		t.Fatal("AverageFillPrice() returned false, want true")
	}
	if math.Abs(avg-3.2733) > 0.0001 {
		t.Errorf("AverageFillPrice() = %v, want ~3.2733", avg)
	}
}

func TestOrder_AverageFillPrice_NoFills(t *testing.T) {
	o := &Order{FilledQuantity: 0, Fills: nil}
	if _, ok := o.AverageFillPrice(); ok {
		t.Error("AverageFillPrice() returned true, want false for no fills")
	}
}

func TestOrder_IsTerminal(t *testing.T) {
	tests := []struct {
		status OrderStatus
		want   bool
	}{
		{OrderStatusOpen, false},
		{OrderStatusPartialFilled, false},
		{OrderStatusFilled, true},
		{OrderStatusCancelled, true},
		{OrderStatusExpired, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			o := &Order{Status: tt.status}
			if got := o.IsTerminal(); got != tt.want {
				t.Errorf("IsTerminal() with status %q = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestValidQuantity(t *testing.T) {
	tests := []struct {
		name string
		q    int64
		want bool
	}{
		{"one lot", 100, true},
		{"many lots", 20000, true},
		{"zero", 0, false},
		{"negative", -100, false},
		{"odd lot", 150, false},
		{"just under a lot", 99, false},
		{"just over a lot", 101, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidQuantity(tt.q); got != tt.want {
				t.Errorf("ValidQuantity(%d) = %v, want %v", tt.q, got, tt.want)
			}
		})
	}
}

func TestFloorToLot(t *testing.T) {
	tests := []struct {
		name string
		q    int64
		want int64
	}{
		{"exact multiple", 500, 500},
		{"rounds down", 567, 500},
		{"below one lot", 99, 0},
		{"zero", 0, 0},
		{"negative", -50, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FloorToLot(tt.q); got != tt.want {
				t.Errorf("FloorToLot(%d) = %d, want %d", tt.q, got, tt.want)
			}
		})
	}
}
