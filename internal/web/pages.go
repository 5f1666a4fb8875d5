package web

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/portfolio/internal/content"
	"github.com/Zachkp/portfolio/internal/navigator"
	"github.com/Zachkp/portfolio/internal/session"
)

type sectionView struct {
	ID     string
	Title  string
	Active bool
}

type projectView struct {
	Title    string
	Category string
	Body     template.HTML
}

type portfolioView struct {
	Filter     string
	Categories []string
	Projects   []projectView
}

type pricingCard struct {
	content.Price
	Features []string
}

type pricingView struct {
	Yearly bool
	Cards  []pricingCard
}

type indexView struct {
	Owner      string
	Roles      []string
	Theme      content.Theme
	Current    string
	Home       string
	Sections   []sectionView
	About      template.HTML
	Skills     []content.Skill
	Experience []content.Entry
	Education  []content.Entry
	Portfolio  portfolioView
	Pricing    pricingView
}

// handleIndex is a full page load: it starts a fresh navigator for the
// visitor, consuming a ?section= deep link.
func (s *Server) handleIndex(c *gin.Context) {
	visitor := visitorID(c)
	sess := s.sessions.Start(visitor, c.Query("section"))

	theme := content.ThemeDark
	if v, ok := s.store.KV(visitor).Get(content.ThemeKey); ok {
		theme = content.ParseTheme(v)
	}

	about, err := content.Markdown(s.portfolio.About)
	if err != nil {
		slog.Warn("rendering about section failed", "error", err)
	}

	view := indexView{
		Owner:      s.portfolio.Owner,
		Roles:      s.portfolio.Roles,
		Theme:      theme,
		Current:    sess.Nav.Current(),
		Home:       s.cfg.Navigation.DefaultSection,
		About:      about,
		Skills:     s.portfolio.Skills,
		Experience: s.portfolio.Experience,
		Education:  s.portfolio.Education,
		Portfolio:  s.portfolioView(content.FilterAll),
		Pricing:    s.pricingView(false),
	}
	for _, sec := range s.portfolio.Sections {
		view.Sections = append(view.Sections, sectionView{
			ID:     sec.ID,
			Title:  sec.Title,
			Active: sess.Page.IsActive(sec.ID),
		})
	}

	c.HTML(http.StatusOK, "index.html", view)
}

type navResponse struct {
	Accepted bool   `json:"accepted"`
	Section  string `json:"section"`
}

// handleNavigate is a click on a nav link. Rejected clicks still answer
// 200: a dropped click is not an error.
func (s *Server) handleNavigate(c *gin.Context) {
	sess := s.session(c)
	ok := sess.Nav.NavigateTo(c.Param("section"), true)
	c.JSON(http.StatusOK, navResponse{Accepted: ok, Section: sess.Nav.Current()})
}

// handleTraverse receives the browser's popstate record, if any.
func (s *Server) handleTraverse(c *gin.Context) {
	sess := s.session(c)

	var rec *navigator.Record
	var body navigator.Record
	if err := c.ShouldBindJSON(&body); err == nil && body.Section != "" {
		rec = &body
	}
	ok := sess.History.Traverse(rec)
	c.JSON(http.StatusOK, navResponse{Accepted: ok, Section: sess.Nav.Current()})
}

func (s *Server) handleBack(c *gin.Context) {
	sess := s.session(c)
	moved := sess.History.Back()
	c.JSON(http.StatusOK, navResponse{Accepted: moved, Section: sess.Nav.Current()})
}

func (s *Server) handleForward(c *gin.Context) {
	sess := s.session(c)
	moved := sess.History.Forward()
	c.JSON(http.StatusOK, navResponse{Accepted: moved, Section: sess.Nav.Current()})
}

// handleTheme flips and persists the theme flag.
func (s *Server) handleTheme(c *gin.Context) {
	kv := s.store.KV(visitorID(c))
	current := content.ThemeDark
	if v, ok := kv.Get(content.ThemeKey); ok {
		current = content.ParseTheme(v)
	}
	next := current.Toggle()
	kv.Set(content.ThemeKey, string(next))

	if sess, ok := s.sessions.Get(visitorID(c)); ok {
		sess.Hub.Publish(session.Event{Type: session.EventTheme, Data: next})
	}

	c.Header("HX-Trigger", `{"themeChanged":{"theme":"`+string(next)+`"}}`)
	c.JSON(http.StatusOK, gin.H{"theme": next})
}

func (s *Server) portfolioView(filter string) portfolioView {
	if filter == "" {
		filter = content.FilterAll
	}
	v := portfolioView{
		Filter:     filter,
		Categories: content.Categories(s.portfolio.Projects),
	}
	for _, p := range content.Filter(s.portfolio.Projects, filter) {
		body, err := content.Markdown(p.Body)
		if err != nil {
			slog.Warn("rendering project failed", "project", p.Title, "error", err)
		}
		v.Projects = append(v.Projects, projectView{Title: p.Title, Category: p.Category, Body: body})
	}
	return v
}

func (s *Server) handlePortfolio(c *gin.Context) {
	c.HTML(http.StatusOK, "portfolio.html", s.portfolioView(c.Query("filter")))
}

func (s *Server) pricingView(yearly bool) pricingView {
	v := pricingView{Yearly: yearly}
	for i, price := range content.Prices(s.portfolio.Plans, yearly) {
		v.Cards = append(v.Cards, pricingCard{Price: price, Features: s.portfolio.Plans[i].Features})
	}
	return v
}

func (s *Server) handlePricing(c *gin.Context) {
	yearly := c.Query("billing") == "yearly"
	c.HTML(http.StatusOK, "pricing.html", s.pricingView(yearly))
}
