package clock

import (
	"testing"
	"time"
)

func TestFixed(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, time.March, 4, 8, 0, 0, 0, time.UTC)
	c := Fixed(at)
	if !c.Now().Equal(at) || !c.Now().Equal(at) {
		t.Errorf("Fixed clock moved")
	}
}

func TestManual(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, time.March, 4, 8, 0, 0, 0, time.UTC)
	m := NewManual(at)

	m.Advance(90 * time.Minute)
	if want := at.Add(90 * time.Minute); !m.Now().Equal(want) {
		t.Errorf("Now() = %s, want %s", m.Now(), want)
	}

	m.Set(at)
	if !m.Now().Equal(at) {
		t.Errorf("Now() = %s, want %s", m.Now(), at)
	}
}

func TestSystemIsUTC(t *testing.T) {
	t.Parallel()

	if loc := System().Now().Location(); loc != time.UTC {
		t.Errorf("System().Now() location = %s, want UTC", loc)
	}
}
