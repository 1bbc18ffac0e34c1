package domain

import (
	"reflect"
	"testing"
)

func TestNextCell(t *testing.T) {
	tests := []struct {
		name      string
		cur       Cell
		departing bool
		inner     bool
		want      Cell
	}{
		{"waiting enters on home", Waiting, true, false, Home},
		{"ring step", A3, false, false, A4},
		{"B1 passing through", B1, false, false, B2},
		{"B1 departing forks", B1, true, false, E1},
		{"C1 departing forks", C1, true, false, F1},
		{"C1 passing through", C1, false, false, C2},
		{"EF3 departing forks", EF3, true, false, F4},
		{"EF3 outer pass", EF3, false, false, E4},
		{"EF3 inner pass", EF3, false, true, F4},
		{"E5 rejoins ring", E5, false, false, D1},
		{"D5 wraps to home", D5, false, false, Home},
		{"F5 reaches home", F5, false, false, Home},
		{"finished stays", Finished, true, false, Finished},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextCell(tt.cur, tt.departing, tt.inner); got != tt.want {
				t.Fatalf("NextCell(%v, %v, %v) = %v, want %v", tt.cur, tt.departing, tt.inner, got, tt.want)
			}
		})
	}
}

func TestEveryCellHasOneSuccessor(t *testing.T) {
	for c := Cell(0); c < TrackCells; c++ {
		next := NextCell(c, false, false)
		if !next.OnTrack() {
			t.Fatalf("NextCell(%v) = %v, want a track cell", c, next)
		}
	}
}

func TestEveryRouteReachesHome(t *testing.T) {
	for c := Cell(1); c < TrackCells; c++ {
		for _, inner := range []bool{false, true} {
			cur := c
			for i := 0; i < TrackCells && cur != Home; i++ {
				cur = NextCell(cur, false, inner)
			}
			if cur != Home {
				t.Fatalf("route from %v (inner=%v) never reaches home", c, inner)
			}
		}
	}
}

func TestBranchPoints(t *testing.T) {
	for c := Cell(0); c < TrackCells; c++ {
		want := c == B1 || c == C1 || c == EF3
		if got := IsBranchPoint(c); got != want {
			t.Fatalf("IsBranchPoint(%v) = %v, want %v", c, got, want)
		}
	}
}

func TestBackCells(t *testing.T) {
	tests := []struct {
		cell Cell
		want []Cell
	}{
		{Home, []Cell{D5, F5}},
		{D1, []Cell{C5, E5}},
		{EF3, []Cell{E2, F2}},
		{E1, []Cell{B1}},
		{F1, []Cell{C1}},
		{F4, []Cell{EF3}},
		{F5, []Cell{F4}},
		{F2, []Cell{F1}},
		{A2, []Cell{Home}},
		{B2, []Cell{B1}},
		{C1, []Cell{B5}},
		{E4, []Cell{EF3}},
		{Waiting, nil},
		{Finished, nil},
	}
	for _, tt := range tests {
		t.Run(tt.cell.Label(), func(t *testing.T) {
			if got := BackCells(tt.cell); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("BackCells(%v) = %v, want %v", tt.cell, got, tt.want)
			}
		})
	}
}

func TestCellLabels(t *testing.T) {
	for c := Cell(0); c < TrackCells; c++ {
		got, ok := ParseCell(c.Label())
		if !ok || got != c {
			t.Fatalf("ParseCell(%q) = %v, %v, want %v", c.Label(), got, ok, c)
		}
	}
	if Home.Label() != "A1" || EF3.Label() != "EF3" || F5.Label() != "F5" {
		t.Fatalf("unexpected labels: %s %s %s", Home, EF3, F5)
	}
	if _, ok := ParseCell("Z9"); ok {
		t.Fatalf("ParseCell(Z9) should fail")
	}
}
