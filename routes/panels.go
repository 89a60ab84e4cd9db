/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"

	"github.com/humaidq/echocalc/calc"
	"github.com/humaidq/echocalc/catalog"
	"github.com/humaidq/echocalc/logging"
)

var webLogger = logging.Logger(logging.SourceWeb)

// TabItem is one tab of the navigation bar.
type TabItem struct {
	Name      string
	Panels    []string
	IsCurrent bool
}

// PanelPath returns the URL of a panel page.
func PanelPath(title string) string {
	return "/panel/" + url.PathEscape(title)
}

func tabItems(c *catalog.Catalog, current string) []TabItem {
	tabs := c.Tabs()
	items := make([]TabItem, 0, len(tabs))
	for _, tab := range tabs {
		item := TabItem{Name: tab, IsCurrent: tab == current}
		for _, p := range c.PanelsInTab(tab) {
			item.Panels = append(item.Panels, p.Title)
		}
		items = append(items, item)
	}
	return items
}

// Home renders the panel index grouped by tab
func Home(c flamego.Context, t template.Template, data template.Data, calculator *calc.Calculator) {
	cat := calculator.Catalog()

	current := c.Query("tab")
	tabs := cat.Tabs()
	if current == "" && len(tabs) > 0 {
		current = tabs[0]
	}

	var views []calc.PanelView
	for _, p := range cat.PanelsInTab(current) {
		view, err := calculator.View(c.Request().Context(), p.Title)
		if err != nil {
			webLogger.Error("Failed to resolve panel", "panel", p.Title, "error", err)
			continue
		}
		views = append(views, view)
	}

	data["IsHome"] = true
	data["Tabs"] = tabItems(cat, current)
	data["Panels"] = views
	data["Session"] = calculator.Session(c.Request().Context())

	t.HTML(http.StatusOK, "home")
}

// ViewPanel renders a single panel with resolved values
func ViewPanel(c flamego.Context, t template.Template, data template.Data, calculator *calc.Calculator) {
	title := c.Param("title")

	view, err := calculator.View(c.Request().Context(), title)
	if errors.Is(err, calc.ErrUnknownPanel) {
		c.ResponseWriter().WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		webLogger.Error("Failed to resolve panel", "panel", title, "error", err)
		c.ResponseWriter().WriteHeader(http.StatusInternalServerError)
		return
	}

	data["Tabs"] = tabItems(calculator.Catalog(), view.Tab)
	data["Panel"] = view
	data["Session"] = view.Session

	t.HTML(http.StatusOK, "panel")
}

// UpdatePanel applies the submitted inputs of a panel
func UpdatePanel(c flamego.Context, s session.Session, calculator *calc.Calculator) {
	title := c.Param("title")
	target := PanelPath(title)

	if err := c.Request().ParseForm(); err != nil {
		SetErrorFlash(s, errInvalidForm.Error())
		c.Redirect(target, http.StatusSeeOther)
		return
	}

	panel, ok := calculator.Catalog().Panel(title)
	if !ok {
		c.ResponseWriter().WriteHeader(http.StatusNotFound)
		return
	}

	current, err := calculator.View(c.Request().Context(), title)
	if err != nil {
		c.ResponseWriter().WriteHeader(http.StatusNotFound)
		return
	}

	inputs := panelInputs(panel, c.Request().PostForm, storedInputs(current))
	if len(inputs) == 0 {
		c.Redirect(target, http.StatusSeeOther)
		return
	}

	if _, err := calculator.SetInputs(c.Request().Context(), title, inputs); err != nil {
		webLogger.Warn("Rejected panel edit", "panel", title, "error", err)
		SetErrorFlash(s, fmt.Sprintf("Could not save %s: %v", title, err))
		c.Redirect(target, http.StatusSeeOther)
		return
	}

	SetSuccessFlash(s, title+" updated")
	c.Redirect(target, http.StatusSeeOther)
}

// panelInputs picks the submitted values for the panel's editable fields.
// A blank input is skipped unless it clears a stored value, in which case
// it is submitted as blank and stored as 0.
func panelInputs(panel *catalog.Panel, form url.Values, stored map[string]bool) map[string]string {
	inputs := map[string]string{}
	for i := range panel.Fields {
		f := &panel.Fields[i]
		if f.IsCalculated() {
			continue
		}
		submitted, ok := form[f.Name]
		if !ok || len(submitted) == 0 {
			continue
		}
		v := strings.TrimSpace(submitted[0])
		if v == "" && (f.IsSexSelector() || !stored[f.Name]) {
			continue
		}
		inputs[f.Name] = v
	}
	return inputs
}

// storedInputs lists the input fields of a view that hold a value.
func storedInputs(view calc.PanelView) map[string]bool {
	stored := make(map[string]bool, len(view.Fields))
	for _, f := range view.Fields {
		if f.Kind == catalog.KindInput && f.Value != nil {
			stored[f.Name] = true
		}
	}
	return stored
}

// ResetPanel clears the stored values of a panel
func ResetPanel(c flamego.Context, s session.Session, calculator *calc.Calculator) {
	title := c.Param("title")

	if _, ok := calculator.Catalog().Panel(title); !ok {
		c.ResponseWriter().WriteHeader(http.StatusNotFound)
		return
	}

	if err := calculator.Reset(c.Request().Context(), title); err != nil {
		webLogger.Error("Failed to reset panel", "panel", title, "error", err)
		SetErrorFlash(s, "Failed to reset "+title)
	} else {
		SetInfoFlash(s, title+" cleared")
	}

	c.Redirect(PanelPath(title), http.StatusSeeOther)
}

// SetSex switches the session sex used for reference ranges
func SetSex(c flamego.Context, s session.Session, calculator *calc.Calculator) {
	target := safeRedirect(c.Request().FormValue("next"))

	sex, err := catalog.ParseSex(c.Request().FormValue("sex"))
	if err != nil {
		SetErrorFlash(s, "Unknown sex selection")
		c.Redirect(target, http.StatusSeeOther)
		return
	}

	if err := calculator.SetSex(c.Request().Context(), sex); err != nil {
		webLogger.Error("Failed to store sex", "error", err)
		SetErrorFlash(s, "Failed to change sex")
	}

	c.Redirect(target, http.StatusSeeOther)
}

// safeRedirect only allows local absolute paths.
func safeRedirect(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}

// Summary renders every panel that has stored values
func Summary(c flamego.Context, t template.Template, data template.Data, calculator *calc.Calculator) {
	ctx := c.Request().Context()

	data["IsSummary"] = true
	data["Tabs"] = tabItems(calculator.Catalog(), "")
	data["Panels"] = calculator.Summary(ctx)
	data["Session"] = calculator.Session(ctx)

	t.HTML(http.StatusOK, "summary")
}

// PanelJSON returns the resolved panel as JSON
func PanelJSON(c flamego.Context, calculator *calc.Calculator) {
	view, err := calculator.View(c.Request().Context(), c.Param("title"))
	if errors.Is(err, calc.ErrUnknownPanel) {
		writeJSON(c.ResponseWriter(), http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		writeJSON(c.ResponseWriter(), http.StatusInternalServerError, map[string]string{"error": "failed to resolve panel"})
		return
	}

	writeJSON(c.ResponseWriter(), http.StatusOK, view)
}
