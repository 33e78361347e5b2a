package currency

import (
	"encoding/json"
	"testing"
)

func TestParseRejectsBadInput(t *testing.T) {
	bad := []string{"", "abc", "-5", "1.5", "1e9"}
	for _, s := range bad {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q) should fail", s)
		}
	}
}

func TestLargeValuesRoundTripExactly(t *testing.T) {
	// 10^27 is beyond float64's exact integer range; must survive untouched.
	raw := "1000000000000000000000000000"
	a := MustParse(raw)
	if a.String() != raw {
		t.Fatalf("String() = %s, want %s", a.String(), raw)
	}

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"`+raw+`"` {
		t.Errorf("MarshalJSON = %s", data)
	}

	var back Amount
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Cmp(a) != 0 {
		t.Errorf("round trip changed value: %s -> %s", raw, back.String())
	}
}

func TestHalfTruncates(t *testing.T) {
	if got := MustParse("7").Half().String(); got != "3" {
		t.Errorf("Half(7) = %s, want 3", got)
	}
	if got := MustParse("10").Half().String(); got != "5" {
		t.Errorf("Half(10) = %s, want 5", got)
	}
}

func TestPercentIntegerDivision(t *testing.T) {
	// 10% tolerance of 10^16
	a := MustParse("10000000000000000")
	if got := a.Percent(10).String(); got != "1000000000000000" {
		t.Errorf("Percent(10) = %s", got)
	}
	// truncation: 10% of 15 is 1, not 1.5
	if got := New(15).Percent(10).String(); got != "1" {
		t.Errorf("Percent(10) of 15 = %s, want 1", got)
	}
}

func TestSubFloorsAtZero(t *testing.T) {
	if got := New(5).Sub(New(9)).String(); got != "0" {
		t.Errorf("Sub floored = %s, want 0", got)
	}
}

func TestScanNumericWithFraction(t *testing.T) {
	var a Amount
	if err := a.Scan([]byte("12345.00")); err != nil {
		t.Fatal(err)
	}
	if a.String() != "12345" {
		t.Errorf("Scan = %s, want 12345", a.String())
	}
}
