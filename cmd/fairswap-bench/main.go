// Command fairswap-bench drives fair-exchange protocol benchmarks between a
// seller and a buyer party process, plus a hidden "internal-party-run" role
// that pkg/party.Spawn re-execs this same binary into. Subcommand layout
// follows cmd/kms-server's cli.App structure.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/Layr-Labs/fairswap-bench/pkg/protocols/fairswap"
	_ "github.com/Layr-Labs/fairswap-bench/pkg/protocols/statechannel"
)

func main() {
	app := &cli.App{
		Name:  "fairswap-bench",
		Usage: "benchmark fair-exchange file sale protocols against an EVM chain",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   "WARNING",
				Usage:   "DEBUG, INFO, WARNING, ERROR or CRITICAL",
				EnvVars: []string{"FAIRSWAP_BENCH_LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			runCommand,
			bulkExecuteCommand,
			listProtocolsCommand,
			listStrategiesCommand,
			internalPartyRunCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "fairswap-bench:", err)
		os.Exit(1)
	}
}

// rootLogger builds the process-wide logger from -l/--log-level: logging
// is configured once at the CLI boundary, not re-derived by every
// subcommand. It also exports the resolved level into the environment so
// a re-exec'd internal-party-run child (which gets a fresh argv, not this
// process's flags) picks up the same verbosity.
func rootLogger(c *cli.Context) (*zap.Logger, error) {
	levelName := c.String("log-level")
	os.Setenv("FAIRSWAP_BENCH_LOG_LEVEL", levelName)
	return zapLoggerForLevel(levelName)
}

func zapLoggerForLevel(levelName string) (*zap.Logger, error) {
	if levelName == "" {
		levelName = "WARNING"
	}
	level, err := parseLogLevel(levelName)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = "ts"
	return cfg.Build()
}

// parseLogLevel maps the reference implementation's Python logging level
// names onto zapcore's nearest equivalent (CRITICAL has no zap analogue;
// DPanicLevel is the closest "serious but not process-ending" level).
func parseLogLevel(s string) (zapcore.Level, error) {
	switch s {
	case "DEBUG":
		return zapcore.DebugLevel, nil
	case "INFO":
		return zapcore.InfoLevel, nil
	case "WARNING":
		return zapcore.WarnLevel, nil
	case "ERROR":
		return zapcore.ErrorLevel, nil
	case "CRITICAL":
		return zapcore.DPanicLevel, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}
