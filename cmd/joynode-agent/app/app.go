package app

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/joynode/cmd/joynode-agent/app/options"
	"github.com/autopeer-io/joynode/internal/joynode"
	"github.com/autopeer-io/joynode/internal/joynode/core"
	"github.com/autopeer-io/joynode/pkg/app"
	"github.com/autopeer-io/joynode/pkg/log"
	pkgoptions "github.com/autopeer-io/joynode/pkg/options"
)

const (
	commandName = "joynode-agent"
	commandDesc = `The joynode agent reads a two-button joystick, serves its state as an
HTML page and uploads it to a ThingSpeak-style telemetry endpoint once per tick.
Joystick thresholds in the --config file are applied live when the file changes.`
)

func NewApp() *app.App {
	opts := options.NewAgentOptions()
	reloads := make(chan core.Thresholds, 1)

	application := app.NewApp(
		commandName,
		"Launch a joynode telemetry agent",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithCommands(newDirectionsCommand()),
		app.WithConfigWatch(watchThresholds(reloads)),
		app.WithRunFunc(run(opts, reloads)),
	)
	return application
}

func run(opts *options.AgentOptions, reloads <-chan core.Thresholds) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		defer func() { _ = log.Sync() }()

		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		agent, err := cfg.NewAgent()
		if err != nil {
			return fmt.Errorf("failed to create agent: %w", err)
		}

		go applyReloads(ctx, agent, reloads)

		return agent.Run(ctx)
	}
}

// watchThresholds decodes the joystick section after every config change.
// Invalid values are logged and the current thresholds stay in effect.
func watchThresholds(out chan core.Thresholds) app.ConfigChangeFunc {
	return func(v *viper.Viper, e fsnotify.Event) {
		j := pkgoptions.NewJoystickOptions()
		if err := v.UnmarshalKey("joystick", j); err != nil {
			log.Error(err, "Failed to decode joystick thresholds", "file", e.Name)
			return
		}
		if err := utilerrors.NewAggregate(j.Validate()); err != nil {
			log.Warn("Ignoring invalid joystick thresholds", "file", e.Name, "error", err.Error())
			return
		}

		// Keep only the latest change.
		select {
		case <-out:
		default:
		}
		select {
		case out <- joynode.Thresholds(j):
		default:
		}
	}
}

// thresholdUpdater is the part of the agent that accepts live thresholds.
type thresholdUpdater interface {
	UpdateThresholds(t core.Thresholds)
}

func applyReloads(ctx context.Context, u thresholdUpdater, reloads <-chan core.Thresholds) {
	for {
		select {
		case t := <-reloads:
			u.UpdateThresholds(t)
		case <-ctx.Done():
			return
		}
	}
}
