// Package dbtime holds the application time zone. Calendar dates such as a
// book's decision day are days in this zone, not in UTC.
package dbtime

import (
	"strings"
	"sync/atomic"
	"time"
)

const DefaultTimezone = "America/Sao_Paulo"

var loc atomic.Pointer[time.Location]

// SetLocation loads name (IANA) as the application zone. On error the zone is unchanged.
func SetLocation(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultTimezone
	}
	l, err := time.LoadLocation(name)
	if err != nil {
		return err
	}
	loc.Store(l)
	return nil
}

// Location falls back to UTC until SetLocation succeeds.
func Location() *time.Location {
	if l := loc.Load(); l != nil {
		return l
	}
	return time.UTC
}

func Now() time.Time {
	return time.Now().In(Location())
}

// StartOfDay is midnight of t's calendar day in the application zone.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(Location()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, Location())
}
