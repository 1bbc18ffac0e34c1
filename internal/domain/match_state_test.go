package domain

import "testing"

func TestSeats(t *testing.T) {
	tests := []struct {
		name         string
		seats        Seats
		wantFree     int
		wantFreeOK   bool
		wantOccupied int
	}{
		{name: "empty", seats: Seats{}, wantFree: 0, wantFreeOK: true, wantOccupied: 0},
		{name: "first taken", seats: Seats{"u1", ""}, wantFree: 1, wantFreeOK: true, wantOccupied: 1},
		{name: "second taken", seats: Seats{"", "u2"}, wantFree: 0, wantFreeOK: true, wantOccupied: 1},
		{name: "full", seats: Seats{"u1", "u2"}, wantFree: -1, wantFreeOK: false, wantOccupied: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			free, ok := LowestAvailableSeat(&tt.seats)
			if free != tt.wantFree || ok != tt.wantFreeOK {
				t.Fatalf("LowestAvailableSeat() = %d, %v, want %d, %v", free, ok, tt.wantFree, tt.wantFreeOK)
			}
			if got := CountOccupied(&tt.seats); got != tt.wantOccupied {
				t.Fatalf("CountOccupied() = %d, want %d", got, tt.wantOccupied)
			}
		})
	}
}

func TestSeatOf(t *testing.T) {
	seats := Seats{"u1", ""}
	if seat, ok := SeatOf(&seats, "u1"); !ok || seat != 0 {
		t.Fatalf("SeatOf(u1) = %d, %v, want 0, true", seat, ok)
	}
	if seat, ok := SeatOf(&seats, ""); ok || seat != -1 {
		t.Fatalf("SeatOf(\"\") = %d, %v, want -1, false", seat, ok)
	}
	if _, ok := SeatOf(&seats, "u3"); ok {
		t.Fatal("SeatOf(u3) should not find a seat")
	}
}
