package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/programme-lv/codecheck/internal/dispatch"
	"github.com/programme-lv/codecheck/internal/environment"
	"github.com/programme-lv/codecheck/internal/lang"
	"github.com/programme-lv/codecheck/internal/logging"
	"github.com/urfave/cli/v3"
)

const defaultParallel = 4

func main() {
	if err := environment.Load(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "codecheck",
		Usage: "build execution plans for graded submissions and dispatch them to an executor",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "remote-url",
				Usage:   "POST plans to this executor endpoint instead of running them locally",
				Sources: cli.EnvVars(environment.RemoteURL),
			},
			&cli.StringFlag{
				Name:    "script-cmd",
				Usage:   "local executor command, the request archive path is appended",
				Sources: cli.EnvVars(environment.ScriptCommand),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "emit the debug directive and keep request and response archives",
				Sources: cli.EnvVars(environment.Debug),
			},
			&cli.DurationFlag{
				Name:    "local-timeout",
				Value:   dispatch.DefaultLocalTimeout,
				Sources: cli.EnvVars(environment.LocalTimeout),
			},
			&cli.DurationFlag{
				Name:    "remote-timeout",
				Value:   dispatch.DefaultRemoteTimeout,
				Sources: cli.EnvVars(environment.RemoteTimeout),
			},
			&cli.IntFlag{
				Name:    "attempts",
				Value:   dispatch.DefaultAttempts,
				Usage:   "remote attempts for transient failures",
				Sources: cli.EnvVars(environment.Attempts),
			},
			&cli.StringFlag{
				Name:    "languages",
				Usage:   "language registry file",
				Value:   environment.NewDirs().LanguagesPath(),
				Sources: cli.EnvVars(environment.Languages),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "INFO",
				Sources: cli.EnvVars(environment.LogLevel),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.Setup(cmd.String("log-level"), stderr(cmd))
			return ctx, nil
		},
		Commands: []*cli.Command{
			scriptCommand(),
			runCommand(),
			languagesCommand(),
		},
	}
}

func scriptCommand() *cli.Command {
	return &cli.Command{
		Name:      "script",
		Usage:     "print the directive script a job file produces",
		ArgsUsage: "<job.toml>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "files", Usage: "also list the staged input files"},
		},
		Action: printScript,
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "execute job files and print their grading feedback",
		ArgsUsage: "<job.toml>...",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "parallel",
				Value: defaultParallel,
				Usage: "maximum number of plans in flight",
			},
			&cli.StringFlag{
				Name:    "nats-url",
				Usage:   "publish feedback to this NATS server",
				Sources: cli.EnvVars(environment.NatsURL),
			},
			&cli.StringFlag{
				Name:    "nats-subject",
				Value:   environment.DefaultSubject,
				Sources: cli.EnvVars(environment.NatsSubject),
			},
			&cli.StringFlag{
				Name:    "sqs-url",
				Usage:   "send feedback to this SQS queue",
				Sources: cli.EnvVars(environment.SqsURL),
			},
			&cli.StringFlag{
				Name:    "aws-region",
				Sources: cli.EnvVars(environment.AwsRegion),
			},
		},
		Action: runJobs,
	}
}

func languagesCommand() *cli.Command {
	return &cli.Command{
		Name:   "languages",
		Usage:  "list the languages of the registry",
		Action: listLanguages,
	}
}

func loadRegistry(cmd *cli.Command) (*lang.Registry, error) {
	path := cmd.String("languages")
	logging.Get().Debug("Loading language registry...", "path", path)
	return lang.LoadRegistry(path)
}

func executorConfig(cmd *cli.Command) (dispatch.Config, error) {
	cfg := dispatch.Config{
		RemoteURL:     cmd.String("remote-url"),
		ScriptCommand: cmd.String("script-cmd"),
		LocalTimeout:  cmd.Duration("local-timeout"),
		RemoteTimeout: cmd.Duration("remote-timeout"),
		Attempts:      int(cmd.Int("attempts")),
	}
	if cfg.RemoteURL == "" && cfg.ScriptCommand == "" {
		return cfg, fmt.Errorf("either --remote-url or --script-cmd must be set")
	}
	if cmd.Bool("debug") {
		dirs := environment.NewDirs()
		if err := dirs.EnsureDir(dirs.DebugDir()); err != nil {
			return cfg, fmt.Errorf("failed to create debug dir: %w", err)
		}
		cfg.TempDir = dirs.DebugDir()
	}
	return cfg, nil
}

func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func stderr(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}

func elapsed(start time.Time) string {
	return time.Since(start).Round(time.Millisecond).String()
}
