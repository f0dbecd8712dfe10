package master

import (
	"context"
	stdErrors "errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/core-tools/hsu-buttons/pkg/buttons"
	"github.com/core-tools/hsu-buttons/pkg/errors"
	"github.com/core-tools/hsu-buttons/pkg/gpio"
	"github.com/core-tools/hsu-buttons/pkg/logging"
	"github.com/core-tools/hsu-buttons/pkg/process"
	"github.com/core-tools/hsu-buttons/pkg/processstate"
)

type RunOptions struct {
	// Opener replaces the GPIO character device when set
	Opener gpio.Opener
	// Supervisor replaces OS process control when set
	Supervisor buttons.Supervisor
	// HandleSignals stops every monitor cleanly on SIGINT or SIGTERM
	HandleSignals bool
}

// LoadConfig loads configFile, or returns the compiled-in defaults when it is empty.
func LoadConfig(configFile string) (*Config, error) {
	if configFile == "" {
		return DefaultConfig(), nil
	}
	return LoadConfigFromFile(configFile)
}

// Run acquires the three buttons, runs a monitor per button and blocks
// until all of them have stopped. Hardware setup failures abort before any
// monitor starts.
func Run(ctx context.Context, config *Config, options RunOptions, logger logging.Logger) error {
	logger.Infof("Button master starting...")

	channels, err := config.Channels()
	if err != nil {
		return errors.NewValidationError("configuration validation failed", err)
	}

	opener := options.Opener
	if opener == nil {
		chip, err := gpio.OpenChip(config.GPIO.Chip, config.GPIO.Consumer, logger)
		if err != nil {
			return err
		}
		opener = chip
	}
	defer func() {
		if err := opener.Close(); err != nil {
			logger.Warnf("Failed to close GPIO chip: %v", err)
		}
	}()

	sources, err := acquireSources(opener, channels, logger)
	if err != nil {
		return err
	}
	defer releaseSources(sources, logger)

	supervisor := options.Supervisor
	if supervisor == nil {
		registry := processstate.NewRegistry(logging.WithPrefix(logger, "registry: "))
		supervisor = process.NewSupervisor(registry, logging.WithPrefix(logger, "supervisor: "))
	}

	master := NewMaster(logger)
	group := buttons.NewExclusionGroup()
	for i, channel := range channels {
		unitLogger := logging.WithPrefix(logger, "button: "+channel.ID+", ")
		action := newAction(channel.Action, config, group, supervisor, unitLogger)
		monitor := buttons.NewMonitor(channel, sources[i], action, unitLogger)
		if err := master.AddUnit(monitor); err != nil {
			return errors.NewInternalError("failed to add monitor", err).WithContext("button", channel.ID)
		}
	}

	if options.HandleSignals {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		logger.Infof("Signal handling enabled")
	}

	if err := master.Start(ctx); err != nil {
		return errors.NewInternalError("failed to start master", err)
	}

	err = master.Join()

	if tracker, ok := supervisor.(interface{ Children() []process.Child }); ok {
		for _, child := range tracker.Children() {
			logger.Infof("Leaving child process running, name: %s, PID: %d", child.Name, child.PID)
		}
	}

	if err != nil {
		return err
	}
	logger.Infof("Button master stopped")
	return nil
}

func newAction(kind buttons.ActionKind, config *Config, group *buttons.ExclusionGroup, supervisor buttons.Supervisor, logger logging.Logger) buttons.Action {
	processes := config.Processes
	switch kind {
	case buttons.ActionToggleStreamProcess:
		return buttons.NewStartStopAction(processes.Stream, processes.Capture, group, supervisor, logger)
	case buttons.ActionToggleCaptureProcess:
		return buttons.NewStartStopAction(processes.Capture, processes.Stream, group, supervisor, logger)
	default:
		return buttons.NewToggleBehaviourAction(processes.Logger, config.Toggle.LoggerInitial, supervisor, logger)
	}
}

// acquireSources opens every channel's line, releasing the ones already
// opened if any of them fails.
func acquireSources(opener gpio.Opener, channels []buttons.Channel, logger logging.Logger) ([]gpio.EdgeSource, error) {
	sources := make([]gpio.EdgeSource, 0, len(channels))
	for _, channel := range channels {
		source, err := opener.Open(channel.Line)
		if err != nil {
			releaseSources(sources, logger)
			var domainErr *errors.DomainError
			if !stdErrors.As(err, &domainErr) {
				err = errors.NewPinError("unable to access GPIO pin", err)
			}
			logger.Errorf("Failed to acquire button, id: %s, %s: %v", channel.ID, channel.Line, err)
			return nil, err
		}
		sources = append(sources, source)
	}
	return sources, nil
}

func releaseSources(sources []gpio.EdgeSource, logger logging.Logger) {
	for _, source := range sources {
		if err := source.Close(); err != nil {
			logger.Warnf("Failed to release GPIO line: %v", err)
		}
	}
}
