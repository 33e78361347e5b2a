package game

import "testing"

func TestWinningCombos(t *testing.T) {
	wins := []Roll{{5, 2}, {2, 5}, {4, 3}, {3, 4}, {6, 1}, {1, 6}, {6, 5}, {5, 6}}
	for _, r := range wins {
		if got := DetermineOutcome(r); got != OutcomeWin {
			t.Errorf("DetermineOutcome(%v) = %q, want win", r, got)
		}
	}
}

func TestLosingCombos(t *testing.T) {
	losses := []Roll{{2, 1}, {1, 2}, {1, 1}, {6, 6}}
	for _, r := range losses {
		if got := DetermineOutcome(r); got != OutcomeLose {
			t.Errorf("DetermineOutcome(%v) = %q, want lose", r, got)
		}
	}
}

func TestRemainingCombosAreInconclusive(t *testing.T) {
	decided := map[Roll]bool{}
	for _, r := range popCombos {
		decided[r] = true
	}
	for _, r := range krapCombos {
		decided[r] = true
	}

	count := 0
	for a := 1; a <= 6; a++ {
		for b := 1; b <= 6; b++ {
			r := Roll{a, b}
			if decided[r] {
				continue
			}
			count++
			if got := DetermineOutcome(r); got != OutcomeNone {
				t.Errorf("DetermineOutcome(%v) = %q, want inconclusive", r, got)
			}
		}
	}
	if count != 24 {
		t.Errorf("expected 24 inconclusive combos, checked %d", count)
	}
}

func TestCryptoRollerStaysInRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		r, err := CryptoRoller()
		if err != nil {
			t.Fatal(err)
		}
		for _, d := range r {
			if d < 1 || d > 6 {
				t.Fatalf("die out of range: %v", r)
			}
		}
	}
}
