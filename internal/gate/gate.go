// Package gate screens raw chat input before anything is persisted:
// rate limiting, sanitization and length bounds.
package gate

import (
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/time/rate"

	"github.com/taskdeck/taskdeck/internal/domain"
)

// pruneAfter is how long an idle per-user limiter survives before it is
// dropped on the next sweep.
const pruneAfter = 10 * time.Minute

// Gate validates and rate-limits incoming messages. It keeps no durable
// state; the limiter map is advisory and per-process.
type Gate struct {
	maxChars  int
	perMinute int

	mu       sync.Mutex
	limiters map[string]*userLimiter
	lastSweep time.Time
}

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates a gate. maxChars bounds message length in runes; perMinute is
// the per-user request budget within a one-minute sliding window.
func New(maxChars, perMinute int) *Gate {
	return &Gate{
		maxChars:  maxChars,
		perMinute: perMinute,
		limiters:  make(map[string]*userLimiter),
		lastSweep: time.Now(),
	}
}

// Admit returns the sanitized message or a classified rejection. It must be
// called exactly once per request, before any write: its only side effect is
// the rate-limit counter.
func (g *Gate) Admit(userID, raw string) (string, error) {
	if !g.allow(userID) {
		return "", domain.E(domain.KindRateLimit, "too many requests, retry later")
	}

	clean := Sanitize(raw)
	if clean == "" {
		return "", domain.E(domain.KindValidation, "message is empty")
	}
	if len([]rune(clean)) > g.maxChars {
		return "", domain.E(domain.KindValidation, "message is too long")
	}
	return clean, nil
}

func (g *Gate) allow(userID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	if now.Sub(g.lastSweep) > pruneAfter {
		for id, ul := range g.limiters {
			if now.Sub(ul.lastSeen) > pruneAfter {
				delete(g.limiters, id)
			}
		}
		g.lastSweep = now
	}

	ul, ok := g.limiters[userID]
	if !ok {
		ul = &userLimiter{
			limiter: rate.NewLimiter(rate.Limit(float64(g.perMinute)/60.0), g.perMinute),
		}
		g.limiters[userID] = ul
	}
	ul.lastSeen = now
	return ul.limiter.Allow()
}

// Sanitize strips NUL and non-printable control characters (newline and tab
// survive), collapses repeated horizontal whitespace, squeezes blank-line
// runs, and trims the ends.
func Sanitize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r == '\n' || r == '\t':
			b.WriteRune(r)
		case unicode.IsControl(r):
			// dropped, covers C0, DEL and the C1 range
		default:
			b.WriteRune(r)
		}
	}
	s := b.String()

	s = collapseHorizontal(s)
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(s)
}

// collapseHorizontal replaces every run of two or more spaces/tabs with a
// single space. A lone tab is left alone.
func collapseHorizontal(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	run := 0
	var runFirst rune
	flush := func() {
		if run == 1 {
			b.WriteRune(runFirst)
		} else if run > 1 {
			b.WriteByte(' ')
		}
		run = 0
	}
	for _, r := range s {
		if r == ' ' || r == '\t' {
			if run == 0 {
				runFirst = r
			}
			run++
			continue
		}
		flush()
		b.WriteRune(r)
	}
	flush()
	return b.String()
}
