package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Zachkp/portfolio/internal/config"
	"github.com/Zachkp/portfolio/internal/content"
	"github.com/Zachkp/portfolio/internal/navigator"
	"github.com/Zachkp/portfolio/internal/session"
	"github.com/Zachkp/portfolio/internal/store"
)

type fakeMailer struct {
	sent []string
	err  error
}

func (m *fakeMailer) Send(name, email, message string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, name+"|"+email+"|"+message)
	return nil
}

type testEnv struct {
	srv    *Server
	store  *store.Store
	mailer *fakeMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.OpenMemory("salt")
	if err != nil {
		t.Fatalf("store.OpenMemory() failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	p, err := content.Default()
	if err != nil {
		t.Fatalf("content.Default() failed: %v", err)
	}

	mailer := &fakeMailer{}
	srv, err := New(config.Default(), p, st,
		WithMailer(mailer),
		WithNavigatorOptions(navigator.WithSleep(func(time.Duration) {})),
	)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return &testEnv{srv: srv, store: st, mailer: mailer}
}

// client keeps cookies between requests like a browser.
type client struct {
	t       *testing.T
	h       http.Handler
	cookies map[string]*http.Cookie
}

func (e *testEnv) client(t *testing.T) *client {
	return &client{t: t, h: e.srv.Handler(), cookies: make(map[string]*http.Cookie)}
}

func (c *client) do(method, target, contentType, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return rec
}

func (c *client) get(target string) *httptest.ResponseRecorder {
	return c.do(http.MethodGet, target, "", "")
}

func (c *client) post(target string) *httptest.ResponseRecorder {
	return c.do(http.MethodPost, target, "", "")
}

func (c *client) visitor() string {
	if ck, ok := c.cookies[visitorCookie]; ok {
		return ck.Value
	}
	return ""
}

func decodeNav(t *testing.T, rec *httptest.ResponseRecorder) navResponse {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}
	var out navResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return out
}

func TestIndexDefaultSection(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)

	rec := c.get("/")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `<section id="home" class="section active">`) {
		t.Error("home section not active on first load")
	}
	if strings.Count(body, `class="section active"`) != 1 {
		t.Error("more than one section active")
	}
	// every section but home can be closed back to home
	if n := strings.Count(body, `class="close-section-btn" data-target-section="home"`); n != len(env.srv.portfolio.Sections)-1 {
		t.Errorf("close buttons = %d, want %d", n, len(env.srv.portfolio.Sections)-1)
	}
	if c.visitor() == "" {
		t.Error("visitor cookie not set")
	}
}

func TestIndexDeepLink(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)

	body := c.get("/?section=projects").Body.String()
	if !strings.Contains(body, `<section id="projects" class="section active">`) {
		t.Error("deep-linked section not active")
	}
	sess, ok := env.srv.Sessions().Get(c.visitor())
	if !ok {
		t.Fatal("no session after page load")
	}
	if sess.Nav.Current() != "projects" || sess.History.Fragment() != "" {
		t.Errorf("session = (%q, fragment %q)", sess.Nav.Current(), sess.History.Fragment())
	}
}

func TestNavigatePersistsAcrossReload(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	c.get("/")

	if got := decodeNav(t, c.post("/navigate/about")); !got.Accepted || got.Section != "about" {
		t.Fatalf("navigate about = %+v", got)
	}
	if got := decodeNav(t, c.post("/navigate/about")); got.Accepted {
		t.Error("navigating to the current section was accepted")
	}
	if got := decodeNav(t, c.post("/navigate/nowhere")); got.Accepted || got.Section != "about" {
		t.Errorf("navigate to unknown section = %+v", got)
	}

	body := c.get("/").Body.String()
	if !strings.Contains(body, `<section id="about" class="section active">`) {
		t.Error("reload did not restore the persisted section")
	}
}

func TestTraverse(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	c.get("/")
	c.post("/navigate/about")

	got := decodeNav(t, c.do(http.MethodPost, "/history/traverse", "application/json", `{"section":"home"}`))
	if !got.Accepted || got.Section != "home" {
		t.Errorf("traverse to home = %+v", got)
	}
	v, _, err := env.store.Value(c.visitor(), navigator.SectionKey)
	if err != nil || v != "about" {
		t.Errorf("persisted section = (%q, %v), want about", v, err)
	}

	c.post("/navigate/contact")
	got = decodeNav(t, c.do(http.MethodPost, "/history/traverse", "", ""))
	if !got.Accepted || got.Section != "home" {
		t.Errorf("traverse without record = %+v, want home", got)
	}

	got = decodeNav(t, c.do(http.MethodPost, "/history/traverse", "application/json", `{"section":"home"}`))
	if got.Accepted {
		t.Errorf("traverse to the displayed section = %+v, want rejected", got)
	}
}

func TestBackForward(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	c.get("/")
	c.post("/navigate/skills")

	if got := decodeNav(t, c.post("/history/back")); !got.Accepted || got.Section != "home" {
		t.Errorf("back = %+v", got)
	}
	if got := decodeNav(t, c.post("/history/back")); got.Accepted {
		t.Errorf("back past start = %+v", got)
	}
	if got := decodeNav(t, c.post("/history/forward")); !got.Accepted || got.Section != "skills" {
		t.Errorf("forward = %+v", got)
	}
}

func TestRevealHooks(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	c.get("/")

	sess, _ := env.srv.Sessions().Get(c.visitor())
	events, cancel := sess.Hub.Subscribe()
	defer cancel()

	c.post("/navigate/projects")
	c.post("/navigate/skills")

	skills := 0
	for len(events) > 0 {
		if ev := <-events; ev.Type == session.EventSkills {
			skills++
		}
	}
	if skills != 1 {
		t.Errorf("skills events = %d, want 1", skills)
	}

	stats, err := env.store.Stats()
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if stats.TotalNavigations != 2 {
		t.Errorf("TotalNavigations = %d, want 2", stats.TotalNavigations)
	}
}

func TestTheme(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	c.get("/")

	rec := c.post("/theme")
	if !strings.Contains(rec.Header().Get("HX-Trigger"), `"theme":"light"`) {
		t.Errorf("HX-Trigger = %q", rec.Header().Get("HX-Trigger"))
	}
	if body := c.get("/").Body.String(); !strings.Contains(body, `<html lang="en" class="light">`) {
		t.Error("page not rendered with persisted light theme")
	}
	c.post("/theme")
	v, _, _ := env.store.Value(c.visitor(), content.ThemeKey)
	if v != "dark" {
		t.Errorf("theme = %q, want dark", v)
	}
}

func TestPortfolioFilter(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)

	body := c.get("/portfolio?filter=tui").Body.String()
	if !strings.Contains(body, "Terminal mail client") || strings.Contains(body, "Game recommender") {
		t.Errorf("filtered portfolio = %s", body)
	}
	body = c.get("/portfolio").Body.String()
	if !strings.Contains(body, "Game recommender") {
		t.Error("unfiltered portfolio missing a project")
	}
}

func TestPricing(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)

	body := c.get("/pricing?billing=yearly").Body.String()
	if !strings.Contains(body, "$2870") || !strings.Contains(body, "/year") {
		t.Errorf("yearly pricing = %s", body)
	}
	body = c.get("/pricing").Body.String()
	if !strings.Contains(body, "$299") || !strings.Contains(body, "/month") {
		t.Errorf("monthly pricing = %s", body)
	}
}

func TestContact(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	form := url.Values{"fullName": {"Ada"}, "email": {"ada@example.com"}, "message": {"hi"}}.Encode()

	rec := c.do(http.MethodPost, "/contact", "application/x-www-form-urlencoded", form)
	if !strings.Contains(rec.Body.String(), "contact-success") || len(env.mailer.sent) != 1 {
		t.Errorf("contact = %s, sent %v", rec.Body, env.mailer.sent)
	}

	rec = c.do(http.MethodPost, "/contact", "application/x-www-form-urlencoded", "fullName=Ada")
	if !strings.Contains(rec.Body.String(), "contact-error") {
		t.Errorf("incomplete form = %s", rec.Body)
	}

	env.mailer.err = errors.New("relay down")
	rec = c.do(http.MethodPost, "/contact", "application/x-www-form-urlencoded", form)
	if !strings.Contains(rec.Body.String(), "error sending your message") {
		t.Errorf("mailer failure = %s", rec.Body)
	}
}

func TestComposeMessageStripsHeaderInjection(t *testing.T) {
	msg := string(composeMessage("me@example.com", "to@example.com", "Ada\r\nBcc: x@example.com", "a@example.com", "hi"))
	if strings.Contains(msg, "\r\nBcc:") {
		t.Errorf("header injected: %q", msg)
	}
}

func TestSMTPMailerRequiresCredentials(t *testing.T) {
	m := NewSMTPMailer(config.SMTP{Host: "localhost", Port: "25"})
	if err := m.Send("a", "b", "c"); !errors.Is(err, ErrSMTPNotConfigured) {
		t.Errorf("Send() = %v, want ErrSMTPNotConfigured", err)
	}
}

func TestAdmin(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)

	rec := c.get("/admin/dashboard")
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/admin/login" {
		t.Fatalf("unauthenticated dashboard = %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = c.do(http.MethodPost, "/admin/login", "application/x-www-form-urlencoded", "username=admin&password=wrong")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad login status = %d", rec.Code)
	}

	rec = c.do(http.MethodPost, "/admin/login", "application/x-www-form-urlencoded", "username=admin&password=admin123")
	if rec.Code != http.StatusFound {
		t.Fatalf("login status = %d", rec.Code)
	}

	c.get("/")
	c.post("/navigate/about")

	rec = c.get("/admin/api/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}
	var stats store.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decoding stats: %v", err)
	}
	if stats.TotalNavigations != 1 {
		t.Errorf("TotalNavigations = %d, want 1", stats.TotalNavigations)
	}

	if rec := c.get("/admin/dashboard"); rec.Code != http.StatusOK {
		t.Errorf("dashboard status = %d", rec.Code)
	}
	if rec := c.get("/admin/api/sessions"); !strings.Contains(rec.Body.String(), `"section":"about"`) {
		t.Errorf("sessions = %s", rec.Body)
	}

	c.get("/admin/logout")
	if rec := c.get("/admin/dashboard"); rec.Code != http.StatusFound {
		t.Errorf("dashboard after logout = %d", rec.Code)
	}
}

func TestStream(t *testing.T) {
	env := newTestEnv(t)
	ts := httptest.NewServer(env.srv.Handler())
	defer ts.Close()

	c := env.client(t)
	c.get("/")
	sess, _ := env.srv.Sessions().Get(c.visitor())

	header := http.Header{}
	header.Add("Cookie", visitorCookie+"="+c.visitor())
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", header)
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for sess.Hub.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	sess.Nav.NavigateTo("contact", true)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first session.Event
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("ReadJSON() failed: %v", err)
	}
	if first.Type != session.EventHistory || first.Op != "push" || first.Section != "contact" {
		t.Errorf("first event = %+v, want history push", first)
	}
	var second session.Event
	if err := conn.ReadJSON(&second); err != nil {
		t.Fatalf("ReadJSON() failed: %v", err)
	}
	if second.Type != session.EventCurtain || second.Phase != session.PhaseCover {
		t.Errorf("second event = %+v, want curtain cover", second)
	}
}

func TestStreamWithoutSession(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	if rec := c.get("/ws"); rec.Code != http.StatusNotFound {
		t.Errorf("GET /ws without page = %d, want 404", rec.Code)
	}
}
