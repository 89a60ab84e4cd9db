/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/flamego/flamego"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/humaidq/echocalc/calc"
)

var bucketColors = map[calc.Bucket]string{
	calc.BucketBelow:   "#3b82f6",
	calc.BucketInRange: "#22c55e",
	calc.BucketAbove:   "#ef4444",
	calc.BucketUnknown: "#9ca3af",
}

// rangePosition places v on its reference range: 0 is the lower bound and
// 100 the upper bound.
func rangePosition(v float64, lower, higher float64) float64 {
	if higher == lower {
		if v < lower {
			return 0
		}
		if v > higher {
			return 100
		}
		return 50
	}
	return calc.Round((v-lower)/(higher-lower)*100, 1)
}

// buildPanelChart renders every classified value of a panel as a bar of its
// position within the absolute reference range.
func buildPanelChart(view calc.PanelView) (string, error) {
	var (
		labels []string
		bars   []opts.BarData
	)

	for _, f := range view.Fields {
		r := f.Classification.AbsoluteRange
		if f.Value == nil || r == nil {
			continue
		}

		labels = append(labels, f.Label)
		bars = append(bars, opts.BarData{
			Name:      f.Label,
			Value:     rangePosition(*f.Value, r.LowerValue, r.HigherValue),
			ItemStyle: &opts.ItemStyle{Color: bucketColors[f.Classification.Absolute]},
		})
	}

	if len(bars) == 0 {
		return "", errNoChartData
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    view.Title,
			Subtitle: "Position within reference range (" + string(view.Session.Sex) + ")",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "% of range",
		}),
	)

	bar.SetXAxis(labels).
		AddSeries(view.Title, bars).
		SetSeriesOptions(func(s *charts.SingleSeries) {
			s.MarkLines = &opts.MarkLines{
				Data: []interface{}{
					opts.MarkLineNameYAxisItem{Name: "Lower", YAxis: 0},
					opts.MarkLineNameYAxisItem{Name: "Upper", YAxis: 100},
				},
				MarkLineStyle: opts.MarkLineStyle{
					Symbol: []string{"none", "none"},
					LineStyle: &opts.LineStyle{
						Color: "rgba(128, 128, 128, 0.6)",
						Type:  "dashed",
						Width: 1.5,
					},
				},
			}
		})

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// PanelChart renders the panel's reference range chart as a standalone page
func PanelChart(c flamego.Context, calculator *calc.Calculator) {
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

	html, err := buildPanelChart(view)
	if errors.Is(err, errNoChartData) {
		c.ResponseWriter().WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		webLogger.Error("Failed to render chart", "panel", title, "error", err)
		c.ResponseWriter().WriteHeader(http.StatusInternalServerError)
		return
	}

	c.ResponseWriter().Header().Set("Content-Type", "text/html; charset=utf-8")
	c.ResponseWriter().WriteHeader(http.StatusOK)
	_, _ = c.ResponseWriter().Write([]byte(html))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		webLogger.Warn("Failed to encode JSON response", "error", err)
	}
}
