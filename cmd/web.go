/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flamego/csrf"
	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"
	"github.com/urfave/cli/v3"

	"github.com/humaidq/echocalc/calc"
	"github.com/humaidq/echocalc/catalog"
	"github.com/humaidq/echocalc/db"
	"github.com/humaidq/echocalc/routes"
	"github.com/humaidq/echocalc/static"
	"github.com/humaidq/echocalc/templates"
)

var CmdStart = &cli.Command{
	Name:    "start",
	Aliases: []string{"run"},
	Usage:   "Start the web server",
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:    "port",
			Value:   "8080",
			Sources: cli.EnvVars("PORT"),
			Usage:   "the web server port",
		},
		&cli.BoolFlag{
			Name:  "dev",
			Value: false,
			Usage: "enables development mode (templates are read from ./templates)",
		},
		&cli.StringFlag{
			Name:    "csrf-secret",
			Sources: cli.EnvVars("CSRF_SECRET"),
			Usage:   "secret used to sign CSRF tokens",
		},
	}, storageFlags()...),
	Action: start,
}

// webOptions configures the HTTP application.
type webOptions struct {
	Dev              bool
	CSRFSecret       string
	PostgresSessions bool
}

func start(ctx context.Context, cmd *cli.Command) error {
	secret := cmd.String("csrf-secret")
	if secret == "" {
		return errCSRFSecretRequired
	}

	calculator, closeStore, err := openCalculator(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	f, err := newWebApp(calculator, webOptions{
		Dev:              cmd.Bool("dev"),
		CSRFSecret:       secret,
		PostgresSessions: cmd.String("storage") == backendPostgres,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%s", cmd.String("port")),
		Handler:      f,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     requestStdLogger,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info("Starting web server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web server failed: %w", err)
	case <-ctx.Done():
	}

	appLogger.Info("Shutting down web server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// newWebApp wires middleware and routes around a calculator.
func newWebApp(calculator *calc.Calculator, opts webOptions) (*flamego.Flame, error) {
	f := flamego.New()
	f.Use(flamego.Recovery())
	f.Use(routes.RequestLogger)

	templateOpts := template.Options{
		FuncMaps: []htmltemplate.FuncMap{templateFuncs()},
	}
	if opts.Dev {
		templateOpts.Directory = "templates"
	} else {
		fs, err := template.EmbedFS(templates.Templates, ".", []string{".html"})
		if err != nil {
			return nil, fmt.Errorf("failed to load templates: %w", err)
		}
		templateOpts.FileSystem = fs
	}

	sessionOpts := session.Options{}
	if opts.PostgresSessions {
		sessionOpts.Initer = db.PostgresSessionIniter()
		sessionOpts.Config = db.PostgresSessionConfig{}
	}

	f.Use(session.Sessioner(sessionOpts))
	f.Use(csrf.Csrfer(csrf.Options{Secret: opts.CSRFSecret}))
	f.Use(template.Templater(templateOpts))
	f.Use(flamego.Static(flamego.StaticOptions{
		FileSystem: http.FS(static.Static),
		Prefix:     "static",
	}))
	f.Use(routes.NoCacheHeaders())
	f.Use(routes.CSRFInjector())
	f.Use(routes.FlashInjector())
	f.Map(calculator)

	f.Get("/", routes.Home)
	f.Get("/summary", routes.Summary)
	f.Post("/sex", csrf.Validate, routes.SetSex)
	f.Group("/panel/{title}", func() {
		f.Get("", routes.ViewPanel)
		f.Post("", csrf.Validate, routes.UpdatePanel)
		f.Post("/reset", csrf.Validate, routes.ResetPanel)
		f.Get("/chart", routes.PanelChart)
	})
	f.Get("/api/panel/{title}", routes.PanelJSON)

	configureEmptyNotFoundHandler(f)

	return f, nil
}

func configureEmptyNotFoundHandler(f *flamego.Flame) {
	f.NotFound(func(c flamego.Context) {
		c.ResponseWriter().WriteHeader(http.StatusNotFound)
	})
}

func templateFuncs() htmltemplate.FuncMap {
	return htmltemplate.FuncMap{
		"panelPath": routes.PanelPath,
		"bucketClass": func(b calc.Bucket) string {
			return "bucket-" + string(b)
		},
		"formatRange": formatRange,
		"inputValue": func(f calc.FieldView) string {
			if f.Value == nil {
				return ""
			}
			return f.Display
		},
		"isInput": func(k catalog.Kind) bool {
			return k == catalog.KindInput
		},
		"isToggle": func(k catalog.Kind) bool {
			return k == catalog.KindToggle
		},
	}
}
