package options

import (
	"errors"

	"github.com/spf13/pflag"
)

var _ IOptions = (*WifiOptions)(nil)

// WifiOptions carries station credentials for the network bring-up, which
// happens before the agent starts. The agent itself only checks them.
type WifiOptions struct {
	SSID     string `json:"ssid" mapstructure:"ssid"`
	Password string `json:"password" mapstructure:"password"`
}

func NewWifiOptions() *WifiOptions {
	return &WifiOptions{}
}

func (o *WifiOptions) Validate() []error {
	if o == nil {
		return nil
	}
	if o.SSID == "" && o.Password != "" {
		return []error{errors.New("--wifi.password is set without --wifi.ssid")}
	}
	return nil
}

func (o *WifiOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.SSID, "wifi.ssid", o.SSID, "Wi-Fi network name used by the network bring-up.")
	fs.StringVar(&o.Password, "wifi.password", o.Password, "Wi-Fi passphrase used by the network bring-up.")
}
