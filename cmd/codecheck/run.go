package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/programme-lv/codecheck/api"
	"github.com/programme-lv/codecheck/internal/dispatch"
	"github.com/programme-lv/codecheck/internal/jobspec"
	"github.com/programme-lv/codecheck/internal/lang"
	"github.com/programme-lv/codecheck/internal/logging"
	"github.com/programme-lv/codecheck/internal/report"
	"github.com/programme-lv/codecheck/internal/report/natspub"
	"github.com/programme-lv/codecheck/internal/report/sqspub"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

type jobResult struct {
	name     string
	planID   string
	feedback api.Feedback
	err      error
	took     time.Duration
}

// ok reports whether the job was graded without tool or system failures.
func (r jobResult) ok() bool {
	return r.err == nil && r.feedback.Status != api.SystemError
}

func runJobs(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("run expects at least one job file")
	}

	registry, err := loadRegistry(cmd)
	if err != nil {
		return err
	}
	cfg, err := executorConfig(cmd)
	if err != nil {
		return err
	}
	executor := dispatch.New(cfg, logging.WithComponent("dispatch"))

	pub, closePublishers, err := publishers(ctx, cmd)
	if err != nil {
		return err
	}
	defer closePublishers()

	logger := logging.WithComponent("run")
	results := xsync.NewMapOf[string, jobResult]()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, int(cmd.Int("parallel"))))
	for _, path := range paths {
		g.Go(func() error {
			results.Store(path, runJob(gctx, path, registry, executor, pub, cmd.Bool("debug"), logger))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	renderResults(stdout(cmd), paths, results)

	failed := 0
	results.Range(func(_ string, r jobResult) bool {
		if !r.ok() {
			failed++
		}
		return true
	})
	if failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", failed, len(paths))
	}
	return nil
}

func runJob(ctx context.Context, path string, registry *lang.Registry, executor dispatch.Executor, pub report.Publisher, debug bool, logger *slog.Logger) jobResult {
	start := time.Now()
	res := jobResult{name: path}

	job, err := jobspec.Parse(path, registry)
	if err != nil {
		res.err = err
		return res
	}
	res.name = job.Name

	collector := report.NewCollector()
	p, err := job.Build(collector, debug)
	if err != nil {
		res.err = err
		return res
	}
	res.planID = p.ID()

	if err := pub.Publish(ctx, p.ID(), api.NewStartPlan(p.ID(), job.Name, len(p.Script()))); err != nil {
		logger.Warn("failed to publish plan start", "job", job.Name, "error", err)
	}

	if err := p.Execute(ctx, executor); err != nil {
		logger.Error("plan execution failed", "job", job.Name, "plan_id", p.ID(), "error", err)
		collector.SystemError(err.Error())
		collector.SetInvalid()
	}
	res.feedback = collector.Feedback(p.ID(), job.Name)
	res.took = time.Since(start)

	if err := pub.Publish(ctx, p.ID(), res.feedback); err != nil {
		logger.Warn("failed to publish feedback", "job", job.Name, "error", err)
	}
	logger.Info("Graded job", "job", job.Name, "status", res.feedback.Status, "took", elapsed(start))
	return res
}

func publishers(ctx context.Context, cmd *cli.Command) (report.Fanout, func(), error) {
	var pubs report.Fanout
	var closers []func()
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if url := cmd.String("nats-url"); url != "" {
		p, err := natspub.Connect(url, cmd.String("nats-subject"), logging.WithComponent("natspub"))
		if err != nil {
			return nil, closeAll, err
		}
		pubs = append(pubs, p)
		closers = append(closers, p.Close)
	}
	if url := cmd.String("sqs-url"); url != "" {
		p, err := sqspub.Connect(ctx, url, cmd.String("aws-region"), logging.WithComponent("sqspub"))
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		pubs = append(pubs, p)
	}
	return pubs, closeAll, nil
}
