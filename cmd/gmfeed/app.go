package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gmfeed/internal/chain"
	"gmfeed/internal/config"
	"gmfeed/internal/display"
	"gmfeed/internal/feed"
	"gmfeed/internal/greeter"
	"gmfeed/internal/session"
	"gmfeed/internal/submit"
	"gmfeed/internal/wallet"
)

// app carries the resources shared by every command.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	client  *chain.Client
	chainID uint64
	closers []func()
}

func setup(cmd *cobra.Command) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	if a.client != nil {
		a.client.Close()
	}
	a.logger.Sync()
}

// connect dials the read connection.
func (a *app) connect(ctx context.Context) error {
	client, err := chain.NewClient(ctx, a.cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	a.client = client

	chainID, err := client.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}
	a.chainID = chainID.Uint64()

	if a.chainID != a.cfg.Chain.ID {
		a.logger.Warn("read endpoint is not on the target chain", zap.Uint64("chain_id", a.chainID), zap.Uint64("target", a.cfg.Chain.ID))
	}
	a.logger.Info("connected", zap.String("rpc", a.cfg.RPCURL), zap.Uint64("chain_id", a.chainID))
	return nil
}

func (a *app) target() wallet.TargetChain {
	target := wallet.KiteTestnet()
	target.ID = a.cfg.Chain.ID
	if a.cfg.Chain.Name != "" {
		target.Name = a.cfg.Chain.Name
	}
	if len(a.cfg.Chain.RPCURLs) > 0 {
		target.RPCURLs = a.cfg.Chain.RPCURLs
	}
	if a.cfg.Chain.Explorer != "" {
		target.ExplorerURL = a.cfg.Chain.Explorer
	}
	if a.cfg.Chain.CurrencySymbol != "" {
		target.CurrencySymbol = a.cfg.Chain.CurrencySymbol
		target.CurrencyName = a.cfg.Chain.CurrencySymbol
	}
	return target
}

// openWallet connects the configured wallet backend. It returns nil for
// the "none" backend.
func (a *app) openWallet(ctx context.Context) (*wallet.Wallet, error) {
	var backend wallet.Backend
	switch a.cfg.Wallet {
	case config.WalletNone:
		return nil, nil
	case config.WalletKeystore:
		passphrase, err := wallet.ReadPassphrase(a.cfg.PasswordFile, os.Stderr)
		if err != nil {
			return nil, err
		}
		key, err := wallet.OpenKeystore(a.cfg.Keystore, a.cfg.Account, passphrase)
		if err != nil {
			return nil, err
		}
		ks := wallet.NewKeystore(key, nil, a.logger)
		if a.client != nil {
			ks.Register(a.chainID, a.cfg.RPCURL)
		}
		a.closers = append(a.closers, ks.Close)
		backend = ks
	case config.WalletExternal:
		var receipts wallet.ReceiptSource
		if a.client != nil {
			receipts = a.client
		}
		ext, err := wallet.DialExternal(ctx, a.cfg.SignerURL, receipts)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, ext.Close)
		backend = ext
	default:
		return nil, fmt.Errorf("unknown wallet %q", a.cfg.Wallet)
	}

	w := wallet.New(wallet.Config{
		Target:   a.target(),
		Contract: common.HexToAddress(a.cfg.Contract),
	}, backend, a.logger)

	if a.cfg.Account != "" && !strings.EqualFold(a.cfg.Account, w.Account()) {
		a.logger.Warn("configured account differs from wallet account", zap.String("account", a.cfg.Account), zap.String("wallet", w.Account()))
	}
	a.logger.Info("wallet connected", zap.String("backend", a.cfg.Wallet), zap.String("account", w.Account()))
	return w, nil
}

func (a *app) newSession(w *wallet.Wallet) (*session.Session, error) {
	decoder, err := greeter.NewDecoder()
	if err != nil {
		return nil, fmt.Errorf("decoder: %w", err)
	}
	contract := common.HexToAddress(a.cfg.Contract)

	loader := feed.NewLoader(feed.LoaderConfig{
		Contract:     contract,
		FromBlock:    a.cfg.FromBlock,
		BatchSize:    a.cfg.BatchSize,
		MaxRetries:   a.cfg.MaxRetries,
		RetryBackoff: a.cfg.RetryBackoff,
	}, a.client, decoder, a.logger)

	watcher := feed.NewWatcher(feed.WatcherConfig{
		Contract:     contract,
		PollInterval: a.cfg.PollInterval,
		MaxRetries:   a.cfg.MaxRetries,
		RetryBackoff: a.cfg.RetryBackoff,
	}, a.client, a.client, decoder, a.logger)

	var sw submit.Wallet
	if w != nil {
		sw = w
	}

	return session.New(session.Config{
		Account:          a.cfg.Account,
		MaxEvents:        a.cfg.MaxEvents,
		ConfirmedDisplay: a.cfg.ConfirmedDisplay,
		FailedDisplay:    a.cfg.FailedDisplay,
		Resync:           a.cfg.Resync,
		TickInterval:     time.Second,
	}, loader, watcher, sw, a.logger), nil
}

func (a *app) openRenderer() (display.Renderer, error) {
	explorer := a.cfg.Chain.Explorer
	if a.cfg.Format == config.FormatJSONL {
		if a.cfg.Out != "" {
			return display.OpenJSONL(a.cfg.Out, explorer)
		}
		return display.NewJSONL(os.Stdout, explorer), nil
	}
	return display.NewText(os.Stdout, explorer), nil
}

// attach routes session output to the renderer.
func (a *app) attach(s *session.Session, r display.Renderer, onView func(session.View), onNotice func(session.Notice)) {
	s.OnView(func(view session.View) {
		if err := r.Render(view); err != nil {
			a.logger.Warn("render failed", zap.Error(err))
		}
		if onView != nil {
			onView(view)
		}
	})
	s.OnNotice(func(notice session.Notice) {
		if err := r.Notice(notice); err != nil {
			a.logger.Warn("render notice failed", zap.Error(err))
		}
		if onNotice != nil {
			onNotice(notice)
		}
	})
}
