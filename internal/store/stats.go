package store

import (
	"fmt"
	"time"
)

// Visit is one tracked page view.
type Visit struct {
	ID        int       `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

// SectionCount is how often a section was navigated to.
type SectionCount struct {
	Section string `json:"section"`
	Views   int64  `json:"views"`
}

// Stats is the admin dashboard summary.
type Stats struct {
	TotalVisits      int64          `json:"total_visits"`
	UniqueVisitors   int64          `json:"unique_visitors"`
	VisitsToday      int64          `json:"visits_today"`
	VisitsThisWeek   int64          `json:"visits_this_week"`
	TotalNavigations int64          `json:"total_navigations"`
	TopSections      []SectionCount `json:"top_sections"`
	RecentVisits     []Visit        `json:"recent_visits"`
}

// Stats collects the dashboard summary.
func (s *Store) Stats() (*Stats, error) {
	stats := &Stats{}
	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	counts := []struct {
		dst   *int64
		query string
		args  []any
	}{
		{&stats.TotalVisits, `SELECT COUNT(*) FROM visits`, nil},
		{&stats.UniqueVisitors, `SELECT COUNT(DISTINCT hashed_ip) FROM visits`, nil},
		{&stats.VisitsToday, `SELECT COUNT(*) FROM visits WHERE timestamp >= ?`, []any{midnight}},
		{&stats.VisitsThisWeek, `SELECT COUNT(*) FROM visits WHERE timestamp >= ?`, []any{now.Add(-7 * 24 * time.Hour)}},
		{&stats.TotalNavigations, `SELECT COUNT(*) FROM section_views`, nil},
	}
	for _, c := range counts {
		if err := s.db.QueryRow(c.query, c.args...).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("counting: %w", err)
		}
	}

	top, err := s.TopSections(10)
	if err != nil {
		return nil, err
	}
	stats.TopSections = top

	recent, err := s.RecentVisits(50)
	if err != nil {
		return nil, err
	}
	stats.RecentVisits = recent

	return stats, nil
}

// TopSections returns the most visited sections.
func (s *Store) TopSections(limit int) ([]SectionCount, error) {
	rows, err := s.db.Query(`
		SELECT section, COUNT(*) AS views
		FROM section_views
		GROUP BY section
		ORDER BY views DESC, section ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying top sections: %w", err)
	}
	defer rows.Close()

	var out []SectionCount
	for rows.Next() {
		var sc SectionCount
		if err := rows.Scan(&sc.Section, &sc.Views); err != nil {
			continue
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// RecentVisits returns the latest page views, newest first.
func (s *Store) RecentVisits(limit int) ([]Visit, error) {
	rows, err := s.db.Query(`
		SELECT id, hashed_ip, COALESCE(user_agent, ''), COALESCE(path, ''), timestamp
		FROM visits
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying visits: %w", err)
	}
	defer rows.Close()

	var out []Visit
	for rows.Next() {
		var v Visit
		if err := rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &v.Timestamp); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
