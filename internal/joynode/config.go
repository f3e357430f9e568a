package joynode

import (
	"fmt"

	"github.com/autopeer-io/joynode/internal/joynode/core"
	"github.com/autopeer-io/joynode/internal/joynode/hal"
	"github.com/autopeer-io/joynode/internal/joynode/loop"
	"github.com/autopeer-io/joynode/internal/joynode/mirror"
	"github.com/autopeer-io/joynode/internal/joynode/ops"
	"github.com/autopeer-io/joynode/internal/joynode/resolver"
	"github.com/autopeer-io/joynode/internal/joynode/responder"
	"github.com/autopeer-io/joynode/internal/joynode/transport"
	"github.com/autopeer-io/joynode/internal/joynode/uplink"
	"github.com/autopeer-io/joynode/internal/pkg/metrics"
	"github.com/autopeer-io/joynode/pkg/log"
	"github.com/autopeer-io/joynode/pkg/options"
)

type Config struct {
	AgentOptions     *options.AgentOptions
	TelemetryOptions *options.TelemetryOptions
	ResponderOptions *options.ResponderOptions
	JoystickOptions  *options.JoystickOptions
	HALOptions       *options.HALOptions
	MqttOptions      *options.MqttOptions
	HttpOptions      *options.HttpOptions
}

// Thresholds converts joystick options to classifier thresholds.
func Thresholds(o *options.JoystickOptions) core.Thresholds {
	return core.Thresholds{
		CenterMin: o.CenterMin,
		CenterMax: o.CenterMax,
		Low:       o.ThresholdLow,
		High:      o.ThresholdHigh,
	}
}

func (cfg *Config) NewAgent() (*Agent, error) {
	if cfg.AgentOptions.DeviceID == "" {
		return nil, fmt.Errorf("device-id is required")
	}

	sensors, err := hal.New(cfg.HALOptions)
	if err != nil {
		return nil, err
	}

	logger := log.Logr()
	l := loop.New(logger)
	store := core.NewSnapshotStore()

	tel := cfg.TelemetryOptions
	res := resolver.New(l, logger, tel.DNSTimeout)
	tr := transport.NewTCP(l, logger, tel.DialTimeout, tel.MaxHandles)
	up := uplink.New(uplink.Config{
		Host:    tel.Host,
		Port:    uint16(tel.Port),
		APIKey:  tel.APIKey,
		Timeout: tel.RequestTimeout,
	}, res, tr)

	a := &Agent{
		deviceID:   cfg.AgentOptions.DeviceID,
		interval:   cfg.AgentOptions.TickInterval,
		loop:       l,
		sensors:    sensors,
		thresholds: Thresholds(cfg.JoystickOptions),
		buttons:    core.NewButtonMonitor(2),
		store:      store,
		uplink:     up,
		responder:  responder.New(cfg.ResponderOptions, l, store),
	}
	a.servers = append(a.servers, a.responder)

	if cfg.HttpOptions != nil && cfg.HttpOptions.Addr != "" {
		a.servers = append(a.servers, ops.NewServer(cfg.HttpOptions, a, metrics.Registry))
	}

	if cfg.MqttOptions != nil && cfg.MqttOptions.Enabled {
		m, err := mirror.New(cfg.MqttOptions, a.deviceID)
		if err != nil {
			return nil, fmt.Errorf("failed to init mirror: %w", err)
		}
		a.mirror = m
		a.servers = append(a.servers, m)
	}

	return a, nil
}
