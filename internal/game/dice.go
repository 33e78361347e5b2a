package game

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Outcome is the verdict for a single evaluated roll pair.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLose Outcome = "lose"
	// OutcomeNone means the pair is inconclusive and the player rolls again.
	OutcomeNone Outcome = ""
)

// Roll is one ordered two-die roll, each die in [1,6].
type Roll [2]int

// The winning and losing sets are literal enumerations, not sum rules.
// (6,5)/(5,6) are in the winning set even though they total 11; the on-chain
// contract uses the same tables, so they must never be "simplified".
var popCombos = [...]Roll{
	{5, 2}, {2, 5},
	{4, 3}, {3, 4},
	{6, 1}, {1, 6},
	{6, 5}, {5, 6},
}

var krapCombos = [...]Roll{
	{2, 1}, {1, 2},
	{1, 1}, {6, 6},
}

// DetermineOutcome maps a roll pair to win, lose or inconclusive.
func DetermineOutcome(roll Roll) Outcome {
	for _, c := range popCombos {
		if c == roll {
			return OutcomeWin
		}
	}
	for _, c := range krapCombos {
		if c == roll {
			return OutcomeLose
		}
	}
	return OutcomeNone
}

// Roller produces a uniform two-die roll. It is injectable so round logic can
// be tested against fixed rolls. A failing roller fails only the round
// request; the session stays active and the round can be retried.
type Roller func() (Roll, error)

var six = big.NewInt(6)

// CryptoRoller rolls two dice from crypto/rand. Fairness is the concern here,
// not secrecy; crypto/rand just gives an unbiased source without seeding.
func CryptoRoller() (Roll, error) {
	var r Roll
	for i := 0; i < 2; i++ {
		n, err := rand.Int(rand.Reader, six)
		if err != nil {
			return Roll{}, fmt.Errorf("dice roll failed: %w", err)
		}
		r[i] = int(n.Int64()) + 1
	}
	return r, nil
}

// FixedRoller returns the given rolls in order; used by tests.
func FixedRoller(rolls ...Roll) Roller {
	i := 0
	return func() (Roll, error) {
		if i >= len(rolls) {
			return Roll{}, fmt.Errorf("fixed roller exhausted after %d rolls", len(rolls))
		}
		r := rolls[i]
		i++
		return r, nil
	}
}
