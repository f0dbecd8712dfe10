package main

import (
	"context"
	stdErrors "errors"
	"fmt"
	"os"

	sprintfLogging "github.com/core-tools/hsu-core/pkg/logging/sprintf"

	"github.com/core-tools/hsu-buttons/pkg/logging"
	"github.com/core-tools/hsu-buttons/pkg/master"

	flags "github.com/jessevdk/go-flags"
)

type flagOptions struct {
	Config    string `long:"config" description:"path to an optional YAML configuration file"`
	LogLevel  string `long:"log-level" description:"log level override: debug, info, warn, error"`
	LogFormat string `long:"log-format" description:"log format override: console, json"`
}

func logPrefix(module string) string {
	return fmt.Sprintf("module: %s , ", module)
}

// parseFlags returns the usage text instead of options when help was asked for.
func parseFlags(argv []string) (flagOptions, string, error) {
	var opts flagOptions
	var parser = flags.NewParser(&opts, flags.HelpFlag)
	_, err := parser.ParseArgs(argv)
	if err != nil {
		var flagsErr *flags.Error
		if stdErrors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return opts, flagsErr.Message, nil
		}
		return opts, "", err
	}
	return opts, "", nil
}

func main() {
	opts, usage, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Command line flags parsing failed: %v\n", err)
		os.Exit(1)
	}
	if usage != "" {
		fmt.Println(usage)
		os.Exit(0)
	}

	bootLogger := sprintfLogging.NewStdSprintfLogger()
	bootLogger.Infof("opts: %+v", opts)

	config, err := master.LoadConfig(opts.Config)
	if err != nil {
		fail(err)
	}
	if opts.LogLevel != "" {
		config.Logging.Level = opts.LogLevel
	}
	if opts.LogFormat != "" {
		config.Logging.Format = opts.LogFormat
	}

	zapLogger, err := logging.NewZapLogger(config.Logging)
	if err != nil {
		fail(err)
	}
	defer zapLogger.Sync()

	logger := logging.NewZapBackedLogger(logPrefix("hsu-buttons"), zapLogger)

	bootLogger.Infof("Starting...")

	err = master.Run(context.Background(), config, master.RunOptions{HandleSignals: true}, logger)
	if err != nil {
		zapLogger.Sync()
		fail(err)
	}
}

// fail prints the single diagnostic line and exits non-zero.
func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
