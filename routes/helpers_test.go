// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"

	"github.com/humaidq/echocalc/calc"
	"github.com/humaidq/echocalc/catalog"
	"github.com/humaidq/echocalc/store"
)

type testSession struct {
	id    string
	data  map[interface{}]interface{}
	flash interface{}
}

func newTestSession() *testSession {
	return &testSession{
		id:   "test-session",
		data: make(map[interface{}]interface{}),
	}
}

func (s *testSession) ID() string {
	return s.id
}

func (s *testSession) RegenerateID(http.ResponseWriter, *http.Request) error {
	return nil
}

func (s *testSession) Get(key interface{}) interface{} {
	return s.data[key]
}

func (s *testSession) Set(key, val interface{}) {
	s.data[key] = val
}

func (s *testSession) SetFlash(val interface{}) {
	s.flash = val
}

func (s *testSession) Delete(key interface{}) {
	delete(s.data, key)
}

func (s *testSession) Flush() {
	s.data = make(map[interface{}]interface{})
}

func (s *testSession) Encode() ([]byte, error) {
	return nil, nil
}

func (s *testSession) HasChanged() bool {
	return true
}

// templateStub records the last rendered template and its data.
type templateStub struct {
	rw   http.ResponseWriter
	name string
	data template.Data
}

func (s *templateStub) HTML(status int, name string) {
	s.name = name
	s.rw.WriteHeader(status)
}

type testApp struct {
	f          *flamego.Flame
	session    *testSession
	tmpl       *templateStub
	calculator *calc.Calculator
	store      *store.PanelStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}

	app := &testApp{
		f:       flamego.New(),
		session: newTestSession(),
		tmpl:    &templateStub{},
		store:   store.New(store.NewMemoryKV()),
	}
	app.calculator = calc.New(cat, app.store)

	app.f.Use(func(c flamego.Context) {
		data := template.Data{}
		app.tmpl.rw = c.ResponseWriter()
		app.tmpl.data = data

		c.MapTo(app.session, (*session.Session)(nil))
		c.MapTo(app.tmpl, (*template.Template)(nil))
		c.Map(data)
		c.Map(app.calculator)
		c.Next()
	})

	app.f.Get("/", Home)
	app.f.Get("/summary", Summary)
	app.f.Post("/sex", SetSex)
	app.f.Get("/panel/{title}", ViewPanel)
	app.f.Post("/panel/{title}", UpdatePanel)
	app.f.Post("/panel/{title}/reset", ResetPanel)
	app.f.Get("/panel/{title}/chart", PanelChart)
	app.f.Get("/api/panel/{title}", PanelJSON)

	return app
}

func (a *testApp) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	a.f.ServeHTTP(rec, req)

	return rec
}

func (a *testApp) postForm(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	a.f.ServeHTTP(rec, req)

	return rec
}

func testContext() context.Context {
	return context.Background()
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, wantLocation string) {
	t.Helper()

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}

	if got := rec.Header().Get("Location"); got != wantLocation {
		t.Fatalf("expected redirect %q, got %q", wantLocation, got)
	}
}

func assertFlash(t *testing.T, s *testSession, wantType FlashType) FlashMessage {
	t.Helper()

	msg, ok := s.flash.(FlashMessage)
	if !ok {
		t.Fatalf("expected flash message, got %T", s.flash)
	}
	if msg.Type != wantType {
		t.Fatalf("expected %s flash, got %#v", wantType, msg)
	}

	return msg
}
