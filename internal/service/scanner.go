package service

import (
	"strings"
	"sync"
	"time"
)

// KeyEvent is one raw keypress from a hardware scanner emulating a keyboard.
type KeyEvent struct {
	Key          string // "Enter", "Shift", or a single printable character
	At           time.Time
	FieldFocused bool // an editable field has focus; scanner input must not corrupt it
}

// keys that neither accumulate nor reset the buffer
var modifierKeys = map[string]struct{}{
	"Shift": {}, "Control": {}, "Alt": {}, "Meta": {}, "CapsLock": {}, "Tab": {}, "Escape": {},
}

// ScannerGun reconstructs discrete codes from a keystroke stream. Scanner
// bursts arrive with millisecond gaps; a gap above maxGap means the buffer
// was human typing or leftovers and is discarded before the new character.
// Enter emits the buffer when it meets minLength.
type ScannerGun struct {
	mu            sync.Mutex
	buf           strings.Builder
	lastKeystroke time.Time
	maxGap        time.Duration
	minLength     int
	onScan        func(code string)
}

func NewScannerGun(maxGap time.Duration, minLength int, onScan func(code string)) *ScannerGun {
	if maxGap <= 0 {
		maxGap = 150 * time.Millisecond
	}
	if minLength <= 0 {
		minLength = 3
	}
	return &ScannerGun{maxGap: maxGap, minLength: minLength, onScan: onScan}
}

// Feed consumes one keypress. Events arriving while an editable field has
// focus are ignored entirely.
func (g *ScannerGun) Feed(ev KeyEvent) {
	if ev.FieldFocused {
		return
	}

	g.mu.Lock()

	if ev.Key == "Enter" {
		code := strings.TrimSpace(g.buf.String())
		g.resetLocked()
		g.mu.Unlock()
		if len(code) >= g.minLength && g.onScan != nil {
			g.onScan(code)
		}
		return
	}

	if _, isModifier := modifierKeys[ev.Key]; isModifier {
		g.mu.Unlock()
		return
	}

	// Only printable single characters accumulate.
	if len([]rune(ev.Key)) != 1 {
		g.resetLocked()
		g.mu.Unlock()
		return
	}

	// Stale buffer: the gap since the previous keystroke is too large for a
	// scanner burst.
	if !g.lastKeystroke.IsZero() && ev.At.Sub(g.lastKeystroke) > g.maxGap {
		g.buf.Reset()
	}

	g.buf.WriteString(ev.Key)
	g.lastKeystroke = ev.At
	g.mu.Unlock()
}

func (g *ScannerGun) resetLocked() {
	g.buf.Reset()
	g.lastKeystroke = time.Time{}
}

// QRDeduper suppresses the camera decoder re-emitting the same value every
// frame while a code stays in view. The same value is re-accepted after the
// window elapses or when a different value was decoded in between.
type QRDeduper struct {
	mu       sync.Mutex
	debounce scanDebouncer
	window   time.Duration
}

func NewQRDeduper(window time.Duration) *QRDeduper {
	if window <= 0 {
		window = 2 * time.Second
	}
	return &QRDeduper{window: window}
}

// Accept reports whether the decoded value should be forwarded.
func (q *QRDeduper) Accept(text string, now time.Time) bool {
	if text == "" {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.debounce.shouldSuppress(text, now, q.window) {
		return false
	}
	q.debounce.remember(text, now)
	return true
}
