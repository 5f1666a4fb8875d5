package content

import (
	"fmt"
	"math"
	"sort"
)

// FilterAll shows every project.
const FilterAll = "all"

// Filter returns the projects in category, or all of them for FilterAll.
func Filter(projects []Project, category string) []Project {
	if category == "" || category == FilterAll {
		return projects
	}
	var out []Project
	for _, p := range projects {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Categories lists distinct project categories, sorted.
func Categories(projects []Project) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range projects {
		if p.Category != "" && !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out
}

// Plan is a pricing card. Monthly is whole dollars.
type Plan struct {
	Name     string   `yaml:"name"`
	Monthly  int      `yaml:"monthly"`
	Features []string `yaml:"features"`
}

// YearlyDiscount is taken off twelve monthly payments.
const YearlyDiscount = 0.2

// Price is a plan price rendered for one billing period.
type Price struct {
	Plan   string
	Amount string
	Period string
}

// PriceFor prices a plan monthly or yearly.
func PriceFor(p Plan, yearly bool) Price {
	if !yearly {
		return Price{Plan: p.Name, Amount: fmt.Sprintf("$%d", p.Monthly), Period: "/month"}
	}
	total := math.Round(float64(p.Monthly) * 12 * (1 - YearlyDiscount))
	return Price{Plan: p.Name, Amount: fmt.Sprintf("$%d", int(total)), Period: "/year"}
}

// Prices prices every plan.
func Prices(plans []Plan, yearly bool) []Price {
	out := make([]Price, len(plans))
	for i, p := range plans {
		out[i] = PriceFor(p, yearly)
	}
	return out
}

// Theme is the persisted colour scheme flag.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// ThemeKey is the persisted key for the theme flag.
const ThemeKey = "theme"

// ParseTheme maps stored values to a theme; anything but "light" is dark.
func ParseTheme(s string) Theme {
	if Theme(s) == ThemeLight {
		return ThemeLight
	}
	return ThemeDark
}

// Toggle flips the theme.
func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}
