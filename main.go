/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/echocalc/cmd"
	"github.com/humaidq/echocalc/logging"
)

func main() {
	logging.Init()

	app := &cli.Command{
		Name:  "echocalc",
		Usage: "Echocardiography measurement calculator",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
				Usage:   "minimum log level: debug, info, warn or error",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, logging.SetLevel(cmd.String("log-level"))
		},
		Commands: []*cli.Command{
			cmd.CmdStart,
			cmd.CmdPanel,
			cmd.CmdCatalog,
			cmd.CmdMigrate,
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
