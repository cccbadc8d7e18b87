package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/shpitdev/paper-annotator/internal/app"
	"github.com/shpitdev/paper-annotator/internal/config"
	"github.com/shpitdev/paper-annotator/internal/fetch"
	"github.com/shpitdev/paper-annotator/internal/logging"
	"github.com/shpitdev/paper-annotator/internal/version"
	"github.com/shpitdev/paper-annotator/pkg/pipeline/core"
	"github.com/shpitdev/paper-annotator/pkg/pipeline/redact"
)

const loggerKey = "logger"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cliApp := newApp(env{
		stdout:        os.Stdout,
		stderr:        os.Stderr,
		lookupEnv:     os.LookupEnv,
		newClassifier: newClassifier,
	})
	if err := cliApp.RunContext(ctx, os.Args); err != nil {
		// Exit coders are handled by the app; anything else is a usage error.
		_, _ = fmt.Fprintln(os.Stderr, redact.Secrets(err.Error()))
		os.Exit(2)
	}
}

// env carries the process dependencies so tests can swap them.
type env struct {
	stdout        io.Writer
	stderr        io.Writer
	lookupEnv     func(string) (string, bool)
	newClassifier func(ctx context.Context, cfg config.Config, apiKey string) (core.Classifier, error)
}

func newApp(e env) *cli.App {
	return &cli.App{
		Name:      "annotator",
		Usage:     "Classify the web pages listed in a CSV and append the annotations to another CSV",
		Version:   version.Current,
		Writer:    e.stdout,
		ErrWriter: e.stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"ANNOTATOR_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log output format (console, json)",
				Value:   logging.FormatConsole,
				EnvVars: []string{"ANNOTATOR_LOG_FORMAT"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Enrich every row of the input CSV in batches",
				Action: func(c *cli.Context) error { return runCommand(c, e) },
				Flags:  runFlags(),
			},
			{
				Name:      "fetch",
				Usage:     "Print the markdown extracted from one or more URLs",
				ArgsUsage: "URL...",
				Action:    func(c *cli.Context) error { return fetchCommand(c, e) },
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:    "fetch-timeout",
						Usage:   "HTTP timeout per page",
						Value:   config.Default().Fetch.Timeout,
						EnvVars: []string{"ANNOTATOR_FETCH_TIMEOUT"},
					},
					&cli.StringFlag{
						Name:    "user-agent",
						Usage:   "User-Agent header sent when fetching pages",
						EnvVars: []string{"ANNOTATOR_USER_AGENT"},
					},
				},
			},
		},
	}
}

func runFlags() []cli.Flag {
	def := config.Default()
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a YAML config file",
			EnvVars: []string{"ANNOTATOR_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "input",
			Aliases: []string{"i"},
			Usage:   "Input CSV file path (must include a URL column)",
			EnvVars: []string{"ANNOTATOR_INPUT"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output CSV file path (appended to)",
			EnvVars: []string{"ANNOTATOR_OUTPUT"},
		},
		&cli.StringFlag{
			Name:    "prompt",
			Aliases: []string{"p"},
			Usage:   "Prompt template file with {JsonSchema} and {markdown} placeholders",
			EnvVars: []string{"ANNOTATOR_PROMPT"},
		},
		&cli.IntFlag{
			Name:    "batch-size",
			Usage:   "Number of records enriched concurrently per batch",
			Value:   def.BatchSize,
			EnvVars: []string{"ANNOTATOR_BATCH_SIZE"},
		},
		&cli.DurationFlag{
			Name:    "request-timeout",
			Usage:   "Per-record timeout for fetch and classify, 0 disables",
			Value:   def.RequestTimeout,
			EnvVars: []string{"ANNOTATOR_REQUEST_TIMEOUT"},
		},
		&cli.StringFlag{
			Name:    "provider",
			Usage:   "Classifier backend (gemini, openai)",
			Value:   def.Classifier.Provider,
			EnvVars: []string{"ANNOTATOR_PROVIDER"},
		},
		&cli.StringFlag{
			Name:    "model",
			Usage:   "Classifier model name",
			EnvVars: []string{"ANNOTATOR_MODEL"},
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Classifier API base URL override (proxies, local OpenAI-compatible servers)",
			EnvVars: []string{"ANNOTATOR_BASE_URL"},
		},
		&cli.DurationFlag{
			Name:    "fetch-timeout",
			Usage:   "HTTP timeout per page",
			Value:   def.Fetch.Timeout,
			EnvVars: []string{"ANNOTATOR_FETCH_TIMEOUT"},
		},
		&cli.StringFlag{
			Name:    "user-agent",
			Usage:   "User-Agent header sent when fetching pages",
			EnvVars: []string{"ANNOTATOR_USER_AGENT"},
		},
	}
}

func setupLogger(c *cli.Context) error {
	logger := logging.New(c.App.ErrWriter, c.String("log-level"), c.String("log-format"))
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]interface{}{}
	}
	c.App.Metadata[loggerKey] = logger
	return nil
}

func loggerFrom(c *cli.Context) zerolog.Logger {
	if l, ok := c.App.Metadata[loggerKey].(zerolog.Logger); ok {
		return l
	}
	return zerolog.Nop()
}

// resolveConfig layers defaults, the optional YAML file and explicit flags.
func resolveConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.LoadFile(path, cfg); err != nil {
			return cfg, err
		}
	}

	if c.IsSet("input") {
		cfg.InputPath = c.String("input")
	}
	if c.IsSet("output") {
		cfg.OutputPath = c.String("output")
	}
	if c.IsSet("prompt") {
		cfg.PromptTemplatePath = c.String("prompt")
	}
	if c.IsSet("batch-size") {
		cfg.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("request-timeout") {
		cfg.RequestTimeout = c.Duration("request-timeout")
	}
	if c.IsSet("provider") {
		cfg.Classifier.Provider = c.String("provider")
	}
	if c.IsSet("model") {
		cfg.Classifier.Model = c.String("model")
	}
	if c.IsSet("base-url") {
		cfg.Classifier.BaseURL = c.String("base-url")
	}
	if c.IsSet("fetch-timeout") {
		cfg.Fetch.Timeout = c.Duration("fetch-timeout")
	}
	if c.IsSet("user-agent") {
		cfg.Fetch.UserAgent = c.String("user-agent")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	return cfg, cfg.Validate()
}

func runCommand(c *cli.Context, e env) error {
	cfg, err := resolveConfig(c)
	if err != nil {
		return exitErr(err)
	}

	logger := loggerFrom(c)
	if !c.IsSet("log-level") && cfg.LogLevel != "" {
		logger = logging.New(c.App.ErrWriter, cfg.LogLevel, c.String("log-format"))
	}

	apiKey := config.APIKey(cfg.Classifier.Provider, e.lookupEnv)
	classifier, err := e.newClassifier(c.Context, cfg, apiKey)
	if err != nil {
		return exitErr(err)
	}

	summary, err := app.Run(c.Context, cfg, app.Deps{
		Fetcher: fetch.New(fetch.Config{
			Timeout:   cfg.Fetch.Timeout,
			UserAgent: cfg.Fetch.UserAgent,
		}),
		Classifier: classifier,
	}, logger)
	if err != nil {
		return exitErr(err)
	}
	_, _ = fmt.Fprintf(c.App.Writer, "wrote %d rows (%d with errors) to %s\n", summary.Rows, summary.ErrorRows, summary.Output)
	return nil
}

func fetchCommand(c *cli.Context, e env) error {
	if c.NArg() == 0 {
		return cli.Exit("fetch requires at least one URL", 2)
	}
	logger := loggerFrom(c)
	f := fetch.New(fetch.Config{
		Timeout:   c.Duration("fetch-timeout"),
		UserAgent: c.String("user-agent"),
	})

	failed := 0
	for _, url := range c.Args().Slice() {
		md, err := f.Fetch(c.Context, url)
		if err != nil {
			failed++
			logger.Error().Str("url", url).Msg(redact.Secrets(err.Error()))
			continue
		}
		_, _ = fmt.Fprintf(e.stdout, "<!-- %s -->\n%s\n\n", url, md)
	}
	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d URLs failed", failed, c.NArg()), 1)
	}
	return nil
}

// exitErr maps configuration problems to exit code 2 and everything else to 1.
func exitErr(err error) error {
	msg := redact.Secrets(err.Error())
	var cfgErr *core.ConfigError
	if errors.As(err, &cfgErr) {
		return cli.Exit(msg, 2)
	}
	return cli.Exit("run failed: "+msg, 1)
}
