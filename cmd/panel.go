/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v3"

	"github.com/humaidq/echocalc/calc"
	"github.com/humaidq/echocalc/catalog"
)

var CmdPanel = newPanelCommand()

var CmdCatalog = &cli.Command{
	Name:  "catalog",
	Usage: "Panel catalog commands",
	Commands: []*cli.Command{
		{
			Name:  "check",
			Usage: "Validate a panel catalog",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "catalog",
					Sources: cli.EnvVars("ECHOCALC_CATALOG"),
					Usage:   "YAML panel catalog (defaults to the built-in catalog)",
				},
			},
			Action: catalogCheck,
		},
	},
}

var bucketStyles = map[calc.Bucket]lipgloss.Style{
	calc.BucketBelow:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	calc.BucketInRange: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	calc.BucketAbove:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	calc.BucketUnknown: lipgloss.NewStyle(),
}

func newPanelCommand() *cli.Command {
	return &cli.Command{
		Name:  "panel",
		Usage: "Inspect and edit measurement panels",
		Flags: storageFlags(),
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List panels in catalog order",
				Action: panelList,
			},
			{
				Name:      "show",
				Usage:     "Show the resolved values of a panel",
				ArgsUsage: "<title>",
				Action:    panelShow,
			},
			{
				Name:      "set",
				Usage:     "Apply edits to a panel",
				ArgsUsage: "<title> name=value...",
				Action:    panelSet,
			},
			{
				Name:      "sex",
				Usage:     "Set the sex used for reference ranges",
				ArgsUsage: "male|female",
				Action:    panelSex,
			},
		},
	}
}

func panelList(_ context.Context, cmd *cli.Command) error {
	c, err := loadCatalog(cmd)
	if err != nil {
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Tab", "Panel", "Inputs", "Calculated")

	for _, p := range c.Panels {
		var inputs, calculated int
		for i := range p.Fields {
			if p.Fields[i].IsCalculated() {
				calculated++
			} else {
				inputs++
			}
		}
		t.Row(p.Tab, p.Title, fmt.Sprint(inputs), fmt.Sprint(calculated))
	}

	_, err = fmt.Fprintln(cmd.Root().Writer, t.String())
	return err
}

func panelShow(ctx context.Context, cmd *cli.Command) error {
	title := cmd.Args().First()
	if title == "" {
		return errPanelTitleRequired
	}

	calculator, closeStore, err := openCalculator(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	view, err := calculator.View(ctx, title)
	if err != nil {
		return err
	}

	return writePanel(cmd.Root().Writer, view)
}

func panelSet(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return errPanelTitleRequired
	}

	inputs, err := parseAssignments(args[1:])
	if err != nil {
		return err
	}

	calculator, closeStore, err := openCalculator(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	view, err := calculator.SetInputs(ctx, args[0], inputs)
	if err != nil {
		return err
	}

	return writePanel(cmd.Root().Writer, view)
}

func panelSex(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() == 0 {
		return errSexRequired
	}

	sex, err := catalog.ParseSex(cmd.Args().First())
	if err != nil {
		return err
	}

	calculator, closeStore, err := openCalculator(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := calculator.SetSex(ctx, sex); err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.Root().Writer, "sex set to %s\n", sex)
	return err
}

// parseAssignments reads name=value pairs.
func parseAssignments(args []string) (map[string]string, error) {
	inputs := make(map[string]string, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q", errInvalidAssignment, arg)
		}
		inputs[name] = value
	}
	return inputs, nil
}

func writePanel(w io.Writer, view calc.PanelView) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Field", "Value", "Unit", "Reference", "Status", "Indexed")

	for _, f := range view.Fields {
		c := f.Classification
		style := bucketStyles[c.Absolute]

		indexed := ""
		if c.HasIndexed() {
			indexed = bucketStyles[c.Indexed].Render(c.IndexedDisplay)
		}

		t.Row(
			f.Label,
			style.Render(f.Display),
			f.Unit,
			formatRange(c.AbsoluteRange),
			string(c.Absolute),
			indexed,
		)
	}

	_, err := fmt.Fprintf(w, "%s (%s, bsa %s)\n%s\n",
		view.Title, view.Session.Sex, calc.FormatTrimmed(view.Session.BSA, 2), t.String())
	return err
}

func formatRange(r *catalog.ReferenceRange) string {
	if r == nil {
		return ""
	}
	return calc.FormatInput(r.LowerValue) + "–" + calc.FormatInput(r.HigherValue)
}

func catalogCheck(_ context.Context, cmd *cli.Command) error {
	c, err := loadCatalog(cmd)
	if err != nil {
		return err
	}

	var calculated int
	for _, p := range c.Panels {
		calculated += len(p.EvaluationOrder())
	}

	_, err = fmt.Fprintf(cmd.Root().Writer, "catalog ok: %d panels, %d calculated fields\n", len(c.Panels), calculated)
	return err
}
