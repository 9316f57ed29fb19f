package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"MarketChart/internal/session"
)

func TestMockSessionsSkipsWeekends(t *testing.T) {
	hours := session.MustHours(session.DefaultTimezone, session.DefaultOpen, session.DefaultClose)
	sunday := time.Date(2024, time.March, 17, 12, 0, 0, 0, hours.Location)

	samples := mockSessions(hours, sunday, 2)
	assert.Len(t, samples, 2*391)

	days := map[string]bool{}
	for _, s := range samples {
		days[s.Time.In(hours.Location).Format("2006-01-02 Mon")] = true
	}
	assert.Equal(t, map[string]bool{"2024-03-14 Thu": true, "2024-03-15 Fri": true}, days)
}
