// Package web serves the portfolio and exposes the section navigator to the browser.
package web

import (
	"crypto/rand"
	"embed"
	"encoding/hex"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Zachkp/portfolio/internal/config"
	"github.com/Zachkp/portfolio/internal/content"
	"github.com/Zachkp/portfolio/internal/navigator"
	"github.com/Zachkp/portfolio/internal/session"
	"github.com/Zachkp/portfolio/internal/store"
)

//go:embed templates/*.html
var templatesFS embed.FS

const visitorCookie = "visitor"

// Server wires the portfolio content, the per-visitor navigators, and the
// analytics store behind a gin engine.
type Server struct {
	cfg       *config.Config
	portfolio *content.Portfolio
	store     *store.Store
	sessions  *session.Manager
	mailer    Mailer

	adminToken string
	navOpts    []navigator.Option
	engine     *gin.Engine
}

// Option customizes a Server.
type Option func(*Server)

// WithMailer replaces the SMTP mailer.
func WithMailer(m Mailer) Option {
	return func(s *Server) { s.mailer = m }
}

// WithNavigatorOptions appends options to every navigator the server builds.
func WithNavigatorOptions(opts ...navigator.Option) Option {
	return func(s *Server) { s.navOpts = append(s.navOpts, opts...) }
}

// New builds the server and its routes.
func New(cfg *config.Config, p *content.Portfolio, st *store.Store, opts ...Option) (*Server, error) {
	if !p.HasSection(cfg.Navigation.DefaultSection) {
		return nil, fmt.Errorf("default section %q is not in the content", cfg.Navigation.DefaultSection)
	}

	token, err := randomToken()
	if err != nil {
		return nil, fmt.Errorf("generating admin token: %w", err)
	}

	s := &Server{
		cfg:        cfg,
		portfolio:  p,
		store:      st,
		mailer:     NewSMTPMailer(cfg.SMTP),
		adminToken: token,
		navOpts: []navigator.Option{
			navigator.WithDefault(cfg.Navigation.DefaultSection),
			navigator.WithTimings(cfg.Navigation.Timings()),
			navigator.WithLogger(slog.Default()),
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.sessions = session.NewManager(session.Config{
		Sections: p.SectionIDs(),
		StoreFor: func(visitorID string) navigator.Store { return st.KV(visitorID) },
		Options:  s.navOpts,
		OnStart:  s.registerHooks,
	})

	tmpl, err := template.New("").ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	r := gin.Default()
	r.SetHTMLTemplate(tmpl)
	r.Static("/images", "./images")
	r.Static("/static", "./static")
	r.Use(s.visitorMiddleware(), s.trackingMiddleware())

	s.setupRoutes(r)
	s.setupAdminRoutes(r)
	s.engine = r

	slog.Info("admin access available", "path", "/admin/login")
	if gin.Mode() == gin.DebugMode {
		slog.Debug("admin token (dev only)", "token", s.adminToken)
	}
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Sessions returns the live session manager.
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

func (s *Server) setupRoutes(r *gin.Engine) {
	r.GET("/", s.handleIndex)

	r.POST("/navigate/:section", s.handleNavigate)
	r.POST("/history/traverse", s.handleTraverse)
	r.POST("/history/back", s.handleBack)
	r.POST("/history/forward", s.handleForward)
	r.GET("/ws", s.handleStream)

	r.POST("/theme", s.handleTheme)
	r.GET("/portfolio", s.handlePortfolio)
	r.GET("/pricing", s.handlePricing)
	r.POST("/contact", s.handleContact)
}

// registerHooks records every reveal and animates the skill bars on
// the animated sections.
func (s *Server) registerHooks(sess *session.Session) {
	visitor := sess.VisitorID
	for _, id := range s.portfolio.SectionIDs() {
		sess.Nav.OnReveal(id, func(section string) {
			if err := s.store.RecordSectionView(visitor, section); err != nil {
				slog.Warn("recording section view failed", "section", section, "error", err)
			}
		})
	}
	for _, id := range s.cfg.Navigation.AnimatedSections {
		if !slices.Contains(s.portfolio.SectionIDs(), id) {
			continue
		}
		sess.Nav.OnReveal(id, func(section string) {
			sess.Hub.Publish(session.Event{
				Type:    session.EventSkills,
				Section: section,
				Data:    s.portfolio.Skills,
			})
		})
	}
}

// visitorMiddleware assigns every browser a stable anonymous id.
func (s *Server) visitorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(visitorCookie)
		if err != nil || uuid.Validate(id) != nil {
			id = uuid.New().String()
			c.SetCookie(visitorCookie, id, 3600*24*365, "/", "", false, true)
		}
		c.Set(visitorCookie, id)
		c.Next()
	}
}

func visitorID(c *gin.Context) string {
	return c.GetString(visitorCookie)
}

// session returns the visitor's live page load, starting one if the server
// lost it (restart or sweep).
func (s *Server) session(c *gin.Context) *session.Session {
	id := visitorID(c)
	if sess, ok := s.sessions.Get(id); ok {
		return sess
	}
	return s.sessions.Start(id, "")
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
