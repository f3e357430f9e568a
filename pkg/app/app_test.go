package app

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	cliflag "k8s.io/component-base/cli/flag"
)

type testOptions struct {
	Node *nodeOptions `json:"node" mapstructure:"node"`

	completed bool
}

type nodeOptions struct {
	Name     string        `json:"name" mapstructure:"name"`
	Password string        `json:"password" mapstructure:"password"`
	Interval time.Duration `json:"interval" mapstructure:"interval"`
	Low      uint16        `json:"low" mapstructure:"low"`
}

func newTestOptions() *testOptions {
	return &testOptions{Node: &nodeOptions{Name: "default", Interval: time.Second, Low: 1000}}
}

func (o *testOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	fs := fss.FlagSet("node")
	fs.StringVar(&o.Node.Name, "node.name", o.Node.Name, "name")
	fs.StringVar(&o.Node.Password, "node.password", o.Node.Password, "password")
	fs.DurationVar(&o.Node.Interval, "node.interval", o.Node.Interval, "interval")
	fs.Uint16Var(&o.Node.Low, "node.low", o.Node.Low, "low")
	return fss
}

func (o *testOptions) Complete() error {
	o.completed = true
	return nil
}

func (o *testOptions) Validate() error {
	if o.Node.Name == "invalid" {
		return errors.New("invalid name")
	}
	return nil
}

func execute(t *testing.T, opts *testOptions, args ...string) (string, bool, error) {
	t.Helper()

	ran := false
	a := NewApp("test-app", "test",
		WithOptions(opts),
		WithDefaultValidArgs(),
		WithRunFunc(func() error {
			ran = true
			return nil
		}),
	)

	var out bytes.Buffer
	cmd := a.Command()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), ran, err
}

func TestRunWithDefaults(t *testing.T) {
	opts := newTestOptions()
	_, ran, err := execute(t, opts)
	if err != nil {
		t.Fatalf("Execute() err=%v", err)
	}
	if !ran || !opts.completed {
		t.Fatalf("ran=%v completed=%v", ran, opts.completed)
	}
	if opts.Node.Name != "default" || opts.Node.Interval != time.Second || opts.Node.Low != 1000 {
		t.Errorf("defaults changed: %+v", opts.Node)
	}
}

func TestConfigFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "node:\n  name: from-file\n  interval: 5s\n  low: 900\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	opts := newTestOptions()
	if _, _, err := execute(t, opts, "--config", path, "--node.low", "800"); err != nil {
		t.Fatalf("Execute() err=%v", err)
	}

	if opts.Node.Name != "from-file" {
		t.Errorf("name = %q, want from-file", opts.Node.Name)
	}
	if opts.Node.Interval != 5*time.Second {
		t.Errorf("interval = %v, want 5s", opts.Node.Interval)
	}
	if opts.Node.Low != 800 {
		t.Errorf("low = %d, command line must win over the file", opts.Node.Low)
	}
}

func TestMissingConfigFile(t *testing.T) {
	_, ran, err := execute(t, newTestOptions(), "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil || ran {
		t.Fatalf("expected error without running, err=%v ran=%v", err, ran)
	}
}

func TestValidationStopsRun(t *testing.T) {
	_, ran, err := execute(t, newTestOptions(), "--node.name", "invalid")
	if err == nil || ran {
		t.Fatalf("expected validation error, err=%v ran=%v", err, ran)
	}
}

func TestPositionalArgsRejected(t *testing.T) {
	_, ran, err := execute(t, newTestOptions(), "extra")
	if err == nil || ran {
		t.Fatalf("expected args error, err=%v ran=%v", err, ran)
	}
}

func TestPrintConfig(t *testing.T) {
	out, ran, err := execute(t, newTestOptions(), "--print-config", "--node.password", "s3cret")
	if err != nil {
		t.Fatalf("Execute() err=%v", err)
	}
	if ran {
		t.Fatal("--print-config must not run the command")
	}
	if strings.Contains(out, "s3cret") {
		t.Errorf("password leaked:\n%s", out)
	}
	for _, want := range []string{"node:", "name: default", "interval: 1s", "******"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
