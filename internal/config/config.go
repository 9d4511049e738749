package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	WalletNone     = "none"
	WalletKeystore = "keystore"
	WalletExternal = "external"

	FormatText  = "text"
	FormatJSONL = "jsonl"
)

// Chain describes the target network.
type Chain struct {
	ID             uint64
	Name           string
	RPCURLs        []string
	Explorer       string
	CurrencySymbol string
}

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL           string
	Contract         string
	FromBlock        uint64
	BatchSize        uint64
	MaxEvents        int
	MaxRetries       int
	RetryBackoff     time.Duration
	PollInterval     time.Duration
	Resync           bool
	Account          string
	Wallet           string
	Keystore         string
	PasswordFile     string
	SignerURL        string
	Chain            Chain
	ConfirmedDisplay time.Duration
	FailedDisplay    time.Duration
	Format           string
	Out              string
	LogLevel         string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GMFEED")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("rpc", "https://rpc-testnet.gokite.ai/")
	v.SetDefault("contract", "0x8001C883738a3AC21b53A219e5C087e8f9b2a80f")
	v.SetDefault("from-block", uint64(0))
	v.SetDefault("batch-size", uint64(0))
	v.SetDefault("max-events", 3000)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("poll-interval", 3*time.Second)
	v.SetDefault("resync", true)
	v.SetDefault("wallet", WalletNone)
	v.SetDefault("chain-id", uint64(2368))
	v.SetDefault("chain-name", "Kite AI Testnet")
	v.SetDefault("chain-rpc", "https://rpc-testnet.gokite.ai/")
	v.SetDefault("explorer", "https://testnet.kitescan.ai/")
	v.SetDefault("currency-symbol", "KITE")
	v.SetDefault("confirmed-display", 6*time.Second)
	v.SetDefault("failed-display", 8*time.Second)
	v.SetDefault("format", FormatText)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:       v.GetString("rpc"),
		Contract:     v.GetString("contract"),
		FromBlock:    v.GetUint64("from-block"),
		BatchSize:    v.GetUint64("batch-size"),
		MaxEvents:    v.GetInt("max-events"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		PollInterval: v.GetDuration("poll-interval"),
		Resync:       v.GetBool("resync"),
		Account:      strings.TrimSpace(v.GetString("account")),
		Wallet:       strings.ToLower(v.GetString("wallet")),
		Keystore:     v.GetString("keystore"),
		PasswordFile: v.GetString("password-file"),
		SignerURL:    v.GetString("signer-url"),
		Chain: Chain{
			ID:             v.GetUint64("chain-id"),
			Name:           v.GetString("chain-name"),
			RPCURLs:        getStringSlice(v, "chain-rpc"),
			Explorer:       v.GetString("explorer"),
			CurrencySymbol: v.GetString("currency-symbol"),
		},
		ConfirmedDisplay: v.GetDuration("confirmed-display"),
		FailedDisplay:    v.GetDuration("failed-display"),
		Format:           strings.ToLower(v.GetString("format")),
		Out:              v.GetString("out"),
		LogLevel:         v.GetString("log-level"),
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a command.
func (c Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if !common.IsHexAddress(c.Contract) {
		return fmt.Errorf("invalid contract address %q", c.Contract)
	}
	if c.Account != "" && !common.IsHexAddress(c.Account) {
		return fmt.Errorf("invalid account %q", c.Account)
	}
	switch c.Wallet {
	case WalletNone:
	case WalletKeystore:
		if c.Keystore == "" {
			return fmt.Errorf("keystore path is required for the keystore wallet")
		}
	case WalletExternal:
		if c.SignerURL == "" {
			return fmt.Errorf("signer url is required for the external wallet")
		}
	default:
		return fmt.Errorf("unknown wallet %q (want none, keystore or external)", c.Wallet)
	}
	switch c.Format {
	case FormatText, FormatJSONL:
	default:
		return fmt.Errorf("unknown format %q (want text or jsonl)", c.Format)
	}
	if c.Chain.ID == 0 {
		return fmt.Errorf("chain id is required")
	}
	if len(c.Chain.RPCURLs) == 0 {
		return fmt.Errorf("at least one chain rpc url is required")
	}
	return nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
