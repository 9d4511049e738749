package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(prev) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCURL != "https://rpc-testnet.gokite.ai/" || cfg.Contract != "0x8001C883738a3AC21b53A219e5C087e8f9b2a80f" {
		t.Fatalf("endpoint defaults mismatch: %+v", cfg)
	}
	if cfg.MaxEvents != 3000 || cfg.ConfirmedDisplay != 6*time.Second || cfg.FailedDisplay != 8*time.Second {
		t.Fatalf("session defaults mismatch: %+v", cfg)
	}
	want := Chain{
		ID:             2368,
		Name:           "Kite AI Testnet",
		RPCURLs:        []string{"https://rpc-testnet.gokite.ai/"},
		Explorer:       "https://testnet.kitescan.ai/",
		CurrencySymbol: "KITE",
	}
	if !reflect.DeepEqual(cfg.Chain, want) {
		t.Fatalf("chain defaults mismatch: %+v", cfg.Chain)
	}
	if cfg.Wallet != WalletNone || cfg.Format != FormatText || !cfg.Resync {
		t.Fatalf("mode defaults mismatch: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	file := filepath.Join(dir, "gmfeed.yaml")
	content := strings.Join([]string{
		"max-events: 100",
		"poll-interval: 10s",
		"wallet: keystore",
		"keystore: /keys",
		"chain-rpc:",
		"  - https://a.example",
		"  - https://b.example",
	}, "\n")
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("GMFEED_MAX_EVENTS", "200")
	t.Setenv("GMFEED_FAILED_DISPLAY", "2s")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("max-events", 0, "")
	flags.String("format", "text", "")
	if err := flags.Parse([]string{"--max-events=300", "--format=JSONL"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(file, flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxEvents != 300 {
		t.Fatalf("flag should win, got %d", cfg.MaxEvents)
	}
	if cfg.FailedDisplay != 2*time.Second {
		t.Fatalf("env should override default, got %s", cfg.FailedDisplay)
	}
	if cfg.PollInterval != 10*time.Second || cfg.Keystore != "/keys" {
		t.Fatalf("file values missing: %+v", cfg)
	}
	if cfg.Format != FormatJSONL {
		t.Fatalf("format should be normalized, got %q", cfg.Format)
	}
	if !reflect.DeepEqual(cfg.Chain.RPCURLs, []string{"https://a.example", "https://b.example"}) {
		t.Fatalf("rpc list mismatch: %v", cfg.Chain.RPCURLs)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadCommaSeparatedRPC(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("GMFEED_CHAIN_RPC", "https://a.example, ,https://b.example")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(cfg.Chain.RPCURLs, []string{"https://a.example", "https://b.example"}) {
		t.Fatalf("rpc list mismatch: %v", cfg.Chain.RPCURLs)
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		RPCURL:   "http://localhost:8545",
		Contract: "0x8001C883738a3AC21b53A219e5C087e8f9b2a80f",
		Wallet:   WalletNone,
		Format:   FormatText,
		Chain:    Chain{ID: 2368, RPCURLs: []string{"http://localhost:8545"}},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("base should validate: %v", err)
	}

	cases := map[string]func(*Config){
		"contract":    func(c *Config) { c.Contract = "0x123" },
		"account":     func(c *Config) { c.Account = "alice" },
		"wallet":      func(c *Config) { c.Wallet = "metamask" },
		"keystore":    func(c *Config) { c.Wallet = WalletKeystore },
		"external":    func(c *Config) { c.Wallet = WalletExternal },
		"format":      func(c *Config) { c.Format = "xml" },
		"chain id":    func(c *Config) { c.Chain.ID = 0 },
		"chain rpc":   func(c *Config) { c.Chain.RPCURLs = nil },
		"missing rpc": func(c *Config) { c.RPCURL = "" },
	}
	for name, mutate := range cases {
		cfg := base
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}
