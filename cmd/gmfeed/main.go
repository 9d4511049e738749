package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "gmfeed",
		Short:        "GM greeting feed and sender for the Kite AI testnet",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	feedCmd := &cobra.Command{
		Use:   "feed",
		Short: "Show the live greeting feed",
		RunE:  runFeed,
	}
	addReadFlags(feedCmd.Flags())
	root.AddCommand(feedCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Show the feed and send a GM for every line on stdin (q quits, r reloads)",
		RunE:  runInteractive,
	}
	addReadFlags(runCmd.Flags())
	addWalletFlags(runCmd.Flags())
	root.AddCommand(runCmd)

	sendCmd := &cobra.Command{
		Use:   "send",
		Short: "Send one GM and wait for the result",
		RunE:  runSend,
	}
	addReadFlags(sendCmd.Flags())
	addWalletFlags(sendCmd.Flags())
	root.AddCommand(sendCmd)

	ensureCmd := &cobra.Command{
		Use:   "ensure-chain",
		Short: "Switch the wallet to the target chain, adding it when unknown",
		RunE:  runEnsureChain,
	}
	ensureCmd.Flags().String("rpc", "", "RPC URL (http or ws)")
	ensureCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	addWalletFlags(ensureCmd.Flags())
	root.AddCommand(ensureCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addReadFlags(fs *pflag.FlagSet) {
	fs.String("rpc", "", "RPC URL (http or ws; ws enables subscriptions)")
	fs.String("contract", "", "GMSender contract address")
	fs.Uint64("from-block", 0, "first block of the history query")
	fs.Uint64("batch-size", 0, "blocks per history request, 0 for a single request")
	fs.Int("max-events", 3000, "greetings kept in memory")
	fs.Int("max-retries", 5, "maximum retry attempts per RPC read")
	fs.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	fs.Duration("poll-interval", 3*time.Second, "log polling interval when subscriptions are unavailable")
	fs.Bool("resync", true, "reload history when the live feed drops")
	fs.String("account", "", "account to show stats for (defaults to the wallet account)")
	fs.String("explorer", "", "block explorer base URL")
	fs.String("format", "text", "output format (text, jsonl)")
	fs.String("out", "", "JSONL output file (jsonl format only, default stdout)")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
}

func addWalletFlags(fs *pflag.FlagSet) {
	fs.String("wallet", "none", "wallet backend (none, keystore, external)")
	fs.String("keystore", "", "keystore file or directory")
	fs.String("password-file", "", "file holding the keystore passphrase")
	fs.String("signer-url", "", "external signer JSON-RPC URL")
	fs.Uint64("chain-id", 2368, "target chain id")
	fs.String("chain-name", "", "target chain name")
	fs.StringSlice("chain-rpc", nil, "target chain RPC URLs")
	fs.String("currency-symbol", "", "target chain currency symbol")
	fs.Duration("confirmed-display", 6*time.Second, "how long a confirmed GM stays on screen")
	fs.Duration("failed-display", 8*time.Second, "how long a failed GM stays on screen")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}

	return cfg.Build()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
