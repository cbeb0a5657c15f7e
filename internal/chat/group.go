package chat

import (
	"sort"
	"time"
)

const (
	GroupToday      = "Today"
	GroupYesterday  = "Yesterday"
	GroupPrevious7  = "Previous 7 Days"
	GroupPrevious30 = "Previous 30 Days"
	monthLayout     = "January 2006"
)

type SessionGroup struct {
	Label    string
	Sessions []Session
}

// GroupSessions buckets sessions by the UTC calendar day they were created
// relative to now. Relative buckets come first, then months newest first.
// Sessions keep their input order within a bucket.
func GroupSessions(sessions []Session, now time.Time) []SessionGroup {
	today := civilDay(now)

	buckets := make(map[string][]Session)
	months := make(map[string]time.Time)
	for _, s := range sessions {
		label := GroupToday
		switch days := int(today.Sub(civilDay(s.CreatedAt)).Hours() / 24); {
		case days == 0:
		case days == 1:
			label = GroupYesterday
		case days > 1 && days <= 7:
			label = GroupPrevious7
		case days > 7 && days <= 30:
			label = GroupPrevious30
		default:
			created := s.CreatedAt.UTC()
			label = created.Format(monthLayout)
			months[label] = time.Date(created.Year(), created.Month(), 1, 0, 0, 0, 0, time.UTC)
		}
		buckets[label] = append(buckets[label], s)
	}

	monthLabels := make([]string, 0, len(months))
	for label := range months {
		monthLabels = append(monthLabels, label)
	}
	sort.Slice(monthLabels, func(i, j int) bool {
		return months[monthLabels[i]].After(months[monthLabels[j]])
	})

	order := append([]string{GroupToday, GroupYesterday, GroupPrevious7, GroupPrevious30}, monthLabels...)
	groups := make([]SessionGroup, 0, len(buckets))
	for _, label := range order {
		if s, ok := buckets[label]; ok {
			groups = append(groups, SessionGroup{Label: label, Sessions: s})
		}
	}
	return groups
}

func civilDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
