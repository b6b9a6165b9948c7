package main

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/programme-lv/codecheck/internal/jobspec"
	"github.com/programme-lv/codecheck/internal/report"
	"github.com/urfave/cli/v3"
)

func printScript(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return fmt.Errorf("script expects exactly one job file, got %d", cmd.NArg())
	}
	registry, err := loadRegistry(cmd)
	if err != nil {
		return err
	}
	job, err := jobspec.Parse(cmd.Args().First(), registry)
	if err != nil {
		return err
	}
	p, err := job.Build(report.NewCollector(), cmd.Bool("debug"))
	if err != nil {
		return err
	}

	w := stdout(cmd)
	for _, line := range p.Script() {
		fmt.Fprintln(w, line)
	}
	if !cmd.Bool("files") {
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"File", "Bytes"})
	for _, key := range p.Files() {
		data, _ := p.File(key)
		t.AppendRow(table.Row{key, len(data)})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
	return nil
}

func listLanguages(ctx context.Context, cmd *cli.Command) error {
	registry, err := loadRegistry(cmd)
	if err != nil {
		return err
	}
	t := table.NewWriter()
	t.SetOutputMirror(stdout(cmd))
	t.AppendHeader(table.Row{"ID", "Tag"})
	for _, id := range registry.IDs() {
		l, _ := registry.Get(id)
		t.AppendRow(table.Row{id, l.Tag()})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
	return nil
}
