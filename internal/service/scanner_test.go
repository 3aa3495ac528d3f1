package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedString(g *ScannerGun, s string, start time.Time, gap time.Duration) time.Time {
	at := start
	for _, r := range s {
		g.Feed(KeyEvent{Key: string(r), At: at})
		at = at.Add(gap)
	}
	return at
}

func TestScannerGun_EmitsOnEnter(t *testing.T) {
	var codes []string
	g := NewScannerGun(150*time.Millisecond, 3, func(code string) { codes = append(codes, code) })

	at := feedString(g, "SHP12345", time.Now(), 10*time.Millisecond)
	g.Feed(KeyEvent{Key: "Enter", At: at})

	require.Len(t, codes, 1)
	assert.Equal(t, "SHP12345", codes[0])
}

func TestScannerGun_ShortBufferNotEmitted(t *testing.T) {
	var codes []string
	g := NewScannerGun(150*time.Millisecond, 3, func(code string) { codes = append(codes, code) })

	at := feedString(g, "ab", time.Now(), 10*time.Millisecond)
	g.Feed(KeyEvent{Key: "Enter", At: at})

	assert.Empty(t, codes)
}

func TestScannerGun_GapDiscardsStaleBuffer(t *testing.T) {
	var codes []string
	g := NewScannerGun(150*time.Millisecond, 3, func(code string) { codes = append(codes, code) })

	start := time.Now()
	at := feedString(g, "abc", start, 10*time.Millisecond)
	// Human typing pause — far beyond the burst gap.
	at = at.Add(500 * time.Millisecond)
	at = feedString(g, "XYZ123", at, 10*time.Millisecond)
	g.Feed(KeyEvent{Key: "Enter", At: at})

	require.Len(t, codes, 1)
	assert.Equal(t, "XYZ123", codes[0])
}

func TestScannerGun_ModifiersIgnored(t *testing.T) {
	var codes []string
	g := NewScannerGun(150*time.Millisecond, 3, func(code string) { codes = append(codes, code) })

	at := time.Now()
	g.Feed(KeyEvent{Key: "Shift", At: at})
	at = feedString(g, "ABC", at.Add(5*time.Millisecond), 10*time.Millisecond)
	g.Feed(KeyEvent{Key: "Shift", At: at})
	at = feedString(g, "123", at.Add(5*time.Millisecond), 10*time.Millisecond)
	g.Feed(KeyEvent{Key: "Enter", At: at})

	require.Len(t, codes, 1)
	assert.Equal(t, "ABC123", codes[0])
}

func TestScannerGun_NonPrintableKeyResetsBuffer(t *testing.T) {
	var codes []string
	g := NewScannerGun(150*time.Millisecond, 3, func(code string) { codes = append(codes, code) })

	at := feedString(g, "abc", time.Now(), 10*time.Millisecond)
	g.Feed(KeyEvent{Key: "Backspace", At: at})
	at = feedString(g, "DEF456", at.Add(10*time.Millisecond), 10*time.Millisecond)
	g.Feed(KeyEvent{Key: "Enter", At: at})

	require.Len(t, codes, 1)
	assert.Equal(t, "DEF456", codes[0])
}

func TestScannerGun_FieldFocusSuppressesInput(t *testing.T) {
	var codes []string
	g := NewScannerGun(150*time.Millisecond, 3, func(code string) { codes = append(codes, code) })

	at := time.Now()
	for _, r := range "TYPED" {
		g.Feed(KeyEvent{Key: string(r), At: at, FieldFocused: true})
		at = at.Add(10 * time.Millisecond)
	}
	g.Feed(KeyEvent{Key: "Enter", At: at, FieldFocused: true})

	assert.Empty(t, codes)
}

func TestQRDeduper_SuppressesRepeatsWithinWindow(t *testing.T) {
	q := NewQRDeduper(2 * time.Second)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.True(t, q.Accept("SHP-1", base))
	assert.False(t, q.Accept("SHP-1", base.Add(500*time.Millisecond)))
	assert.True(t, q.Accept("SHP-1", base.Add(2*time.Second)))
}

func TestQRDeduper_DifferentCodeAlwaysAccepted(t *testing.T) {
	q := NewQRDeduper(2 * time.Second)
	base := time.Now()

	assert.True(t, q.Accept("SHP-1", base))
	assert.True(t, q.Accept("SHP-2", base.Add(100*time.Millisecond)))
	// Once a different value was decoded, the first is acceptable again.
	assert.True(t, q.Accept("SHP-1", base.Add(200*time.Millisecond)))
}

func TestQRDeduper_EmptyRejected(t *testing.T) {
	q := NewQRDeduper(2 * time.Second)
	assert.False(t, q.Accept("", time.Now()))
}
