package investment

import "time"

// Calendar marks non-banking days: weekends plus configured holidays.
type Calendar struct {
	holidays map[string]struct{}
}

const dateKey = "2006-01-02"

// NewCalendar creates a weekend-aware calendar with the given holidays.
func NewCalendar(holidays []time.Time) *Calendar {
	c := &Calendar{holidays: make(map[string]struct{}, len(holidays))}
	for _, h := range holidays {
		c.holidays[h.Format(dateKey)] = struct{}{}
	}
	return c
}

// IsBankingDay reports whether banks settle on the given date.
func (c *Calendar) IsBankingDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, holiday := c.holidays[t.Format(dateKey)]
	return !holiday
}

// PreviousBankingDay returns the latest banking day strictly before t.
func (c *Calendar) PreviousBankingDay(t time.Time) time.Time {
	day := t.AddDate(0, 0, -1)
	for !c.IsBankingDay(day) {
		day = day.AddDate(0, 0, -1)
	}
	return day
}
