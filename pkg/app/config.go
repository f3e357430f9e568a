package app

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	flagConfig      = "config"
	flagPrintConfig = "print-config"
)

// Keys whose values are masked by --print-config.
var secretKeys = map[string]bool{
	"password": true,
	"api-key":  true,
}

func (a *App) addConfigFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&a.configFile, flagConfig, "c", "", "Read options from this YAML file. Flags set on the command line take precedence.")
	fs.BoolVar(&a.printConfig, flagPrintConfig, false, "Print the effective options as YAML and exit.")
}

// loadConfig overlays the config file and environment onto the flag values
// and decodes the result back into the options. Keys are the flag names, so
// --telemetry.api-key is telemetry: {api-key: ...} in the file.
func (a *App) loadConfig(fs *pflag.FlagSet) error {
	v := a.v

	if err := v.BindPFlags(fs); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	v.SetEnvPrefix(envPrefix(a.name))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if a.configFile != "" {
		v.SetConfigFile(a.configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %q: %w", a.configFile, err)
		}
	}

	if err := v.Unmarshal(a.options); err != nil {
		return fmt.Errorf("failed to decode options: %w", err)
	}
	return nil
}

func (a *App) writeConfig(w io.Writer) error {
	settings := a.v.AllSettings()
	delete(settings, flagConfig)
	delete(settings, flagPrintConfig)
	delete(settings, "version")
	delete(settings, "help")

	out, err := yaml.Marshal(printable(settings))
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// printable masks secrets and renders durations the way flags accept them.
func printable(m map[string]any) map[string]any {
	for k, val := range m {
		switch t := val.(type) {
		case map[string]any:
			m[k] = printable(t)
		case time.Duration:
			m[k] = t.String()
		case string:
			if secretKeys[k] && t != "" {
				m[k] = "******"
			}
		}
	}
	return m
}

func envPrefix(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}
