package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/programme-lv/codecheck/api"
	"github.com/puzpuzpuz/xsync/v3"
)

const messageWidth = 60

var (
	okColor   = color.New(color.FgHiGreen).SprintFunc()
	warnColor = color.New(color.FgHiYellow).SprintFunc()
	errColor  = color.New(color.FgHiRed).SprintFunc()
)

func renderResults(w io.Writer, paths []string, results *xsync.MapOf[string, jobResult]) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Job", "Plan", "Status", "Runs", "Time", "Message"})
	for _, path := range paths {
		res, ok := results.Load(path)
		if !ok {
			continue
		}
		t.AppendRow(table.Row{
			res.name,
			shortID(res.planID),
			statusCell(res),
			runsCell(res.feedback),
			res.took.Round(time.Millisecond).String(),
			messageCell(res),
		})
	}
	t.SetStyle(table.StyleRounded)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Status", Align: text.AlignCenter},
		{Name: "Message", WidthMax: messageWidth},
	})
	t.Render()
}

func statusCell(res jobResult) string {
	if res.err != nil {
		return errColor("error")
	}
	switch res.feedback.Status {
	case api.Graded:
		return okColor(string(res.feedback.Status))
	case api.Invalid:
		return warnColor(string(res.feedback.Status))
	default:
		return errColor(string(res.feedback.Status))
	}
}

// runsCell counts runs that returned output out of all runs.
func runsCell(fb api.Feedback) string {
	if len(fb.Runs) == 0 {
		return "-"
	}
	got := 0
	for _, r := range fb.Runs {
		if r.Output != nil {
			got++
		}
	}
	return fmt.Sprintf("%d/%d", got, len(fb.Runs))
}

func messageCell(res jobResult) string {
	var msg string
	switch {
	case res.err != nil:
		msg = res.err.Error()
	case len(res.feedback.SystemErrors) > 0:
		msg = res.feedback.SystemErrors[0]
	case len(res.feedback.Errors) > 0:
		msg = res.feedback.Errors[0]
	}
	first, _, _ := strings.Cut(msg, "\n")
	return first
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
