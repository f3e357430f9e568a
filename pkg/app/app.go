// Copyright 2025 The Autopeer Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package app

import (
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	cliflag "k8s.io/component-base/cli/flag"
	"k8s.io/component-base/term"
	"k8s.io/component-base/version/verflag"
)

// RunFunc is the main body of a command. It runs after options are loaded,
// completed and validated.
type RunFunc func() error

// ConfigChangeFunc is called after the watched config file has been re-read.
// It runs on the watcher goroutine.
type ConfigChangeFunc func(v *viper.Viper, e fsnotify.Event)

// Option configures an App.
type Option func(*App)

// App wraps a cobra command with the option loading every binary shares:
// named flag sections, an optional config file and env overlay, validation.
type App struct {
	name        string
	shortDesc   string
	description string

	options  NamedFlagSetOptions
	runFunc  RunFunc
	args     cobra.PositionalArgs
	commands []*cobra.Command

	onConfigChange ConfigChangeFunc
	configFile     string
	printConfig    bool

	v   *viper.Viper
	cmd *cobra.Command
}

// WithDescription sets the long description shown in help.
func WithDescription(desc string) Option {
	return func(a *App) {
		a.description = desc
	}
}

// WithOptions sets the options whose flags the command exposes.
func WithOptions(opts NamedFlagSetOptions) Option {
	return func(a *App) {
		a.options = opts
	}
}

// WithRunFunc sets the function executed by the root command.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) {
		a.runFunc = run
	}
}

// WithDefaultValidArgs rejects positional arguments.
func WithDefaultValidArgs() Option {
	return func(a *App) {
		a.args = func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				if len(arg) > 0 {
					return fmt.Errorf("%q does not take any arguments, got %q", cmd.CommandPath(), args)
				}
			}
			return nil
		}
	}
}

// WithCommands adds sub-commands to the root command.
func WithCommands(cmds ...*cobra.Command) Option {
	return func(a *App) {
		a.commands = append(a.commands, cmds...)
	}
}

// WithConfigWatch watches the config file given by --config and calls fn
// after every change. Without --config nothing is watched.
func WithConfigWatch(fn ConfigChangeFunc) Option {
	return func(a *App) {
		a.onConfigChange = fn
	}
}

// NewApp builds the command. Environment variables prefixed with the
// upper-cased command name override flags defaults, e.g.
// JOYNODE_AGENT_TELEMETRY_API_KEY for --telemetry.api-key.
func NewApp(name string, shortDesc string, opts ...Option) *App {
	a := &App{
		name:      name,
		shortDesc: shortDesc,
		v:         viper.New(),
	}

	for _, o := range opts {
		o(a)
	}

	a.buildCommand()
	return a
}

// Command returns the underlying cobra command.
func (a *App) Command() *cobra.Command {
	return a.cmd
}

// Run executes the command and exits the process with status 1 on error.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:           a.name,
		Short:         a.shortDesc,
		Long:          a.description,
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          a.args,
	}
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.Flags().SortFlags = true
	cmd.AddCommand(a.commands...)

	var namedfs cliflag.NamedFlagSets
	if a.options != nil {
		namedfs = a.options.Flags()
	}

	gfs := namedfs.FlagSet("global")
	verflag.AddFlags(gfs)
	a.addConfigFlags(gfs)

	fs := cmd.Flags()
	for _, f := range namedfs.FlagSets {
		fs.AddFlagSet(f)
	}

	cols, _, _ := term.TerminalSize(cmd.OutOrStdout())
	cliflag.SetUsageAndHelpFunc(cmd, namedfs, cols)

	if a.runFunc != nil {
		cmd.RunE = a.runCommand
	}

	a.cmd = cmd
}

func (a *App) runCommand(cmd *cobra.Command, args []string) error {
	verflag.PrintAndExitIfRequested()

	if a.options != nil {
		if err := a.loadConfig(cmd.Flags()); err != nil {
			return err
		}

		if err := a.options.Complete(); err != nil {
			return err
		}

		if a.printConfig {
			return a.writeConfig(cmd.OutOrStdout())
		}

		if err := a.options.Validate(); err != nil {
			return err
		}

		if a.onConfigChange != nil && a.v.ConfigFileUsed() != "" {
			a.v.OnConfigChange(func(e fsnotify.Event) {
				a.onConfigChange(a.v, e)
			})
			a.v.WatchConfig()
		}
	}

	return a.runFunc()
}
