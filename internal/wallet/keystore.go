package wallet

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"gmfeed/internal/chain"
	"gmfeed/internal/model"
)

// DialFunc opens a connection to a network endpoint.
type DialFunc func(ctx context.Context, url string) (*chain.Client, error)

// Keystore is a Backend that signs locally with a decrypted keystore key.
// It keeps a registry of known networks the way browser wallets do:
// switching to an unknown chain fails with code 4902 until it is added.
type Keystore struct {
	key    *keystore.Key
	dial   DialFunc
	logger *zap.Logger

	mu       sync.Mutex
	networks map[uint64]string
	client   *chain.Client
	chainID  *big.Int
}

// NewKeystore builds a Keystore backend. dial defaults to chain.NewClient.
func NewKeystore(key *keystore.Key, dial DialFunc, logger *zap.Logger) *Keystore {
	if dial == nil {
		dial = chain.NewClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Keystore{key: key, dial: dial, logger: logger, networks: make(map[uint64]string)}
}

// Register records a network the wallet already knows.
func (k *Keystore) Register(chainID uint64, rpcURL string) {
	k.mu.Lock()
	k.networks[chainID] = rpcURL
	k.mu.Unlock()
}

// Close closes the active network connection.
func (k *Keystore) Close() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.client != nil {
		k.client.Close()
		k.client = nil
		k.chainID = nil
	}
}

func (k *Keystore) Account() common.Address {
	if k.key == nil {
		return common.Address{}
	}
	return k.key.Address
}

func (k *Keystore) SwitchChain(ctx context.Context, chainID string) error {
	id, err := hexutil.DecodeUint64(chainID)
	if err != nil {
		return fmt.Errorf("invalid chain id %q: %w", chainID, err)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.chainID != nil && k.chainID.Uint64() == id {
		return nil
	}
	url, ok := k.networks[id]
	if !ok {
		return &providerError{code: codeUnrecognizedChain, message: fmt.Sprintf("Unrecognized chain ID %q", chainID)}
	}

	client, err := k.dial(ctx, url)
	if err != nil {
		return err
	}
	remote, err := client.GetChainID(ctx)
	if err != nil {
		client.Close()
		return fmt.Errorf("chain id from %s: %w: %v", url, model.ErrNetwork, err)
	}
	if remote.Uint64() != id {
		client.Close()
		return fmt.Errorf("%s serves chain %s, want %d: %w", url, remote, id, model.ErrChainMismatch)
	}

	if k.client != nil {
		k.client.Close()
	}
	k.client = client
	k.chainID = remote
	k.logger.Info("wallet switched chain", zap.Uint64("chain_id", id), zap.String("rpc", url))
	return nil
}

func (k *Keystore) AddChain(ctx context.Context, target TargetChain) error {
	url := target.PrimaryRPC()
	if url == "" {
		return fmt.Errorf("chain %d has no rpc url", target.ID)
	}
	k.Register(target.ID, url)
	return nil
}

func (k *Keystore) Send(ctx context.Context, to common.Address, data []byte) (common.Hash, error) {
	k.mu.Lock()
	client, chainID := k.client, k.chainID
	k.mu.Unlock()
	if client == nil {
		return common.Hash{}, model.ErrChainMismatch
	}

	opts, err := bind.NewKeyedTransactorWithChainID(k.key.PrivateKey, chainID)
	if err != nil {
		return common.Hash{}, fmt.Errorf("transactor: %w", err)
	}
	opts.Context = ctx

	eth := client.Eth()
	contract := bind.NewBoundContract(to, abi.ABI{}, eth, eth, eth)
	tx, err := contract.RawTransact(opts, data)
	if err != nil {
		return common.Hash{}, err
	}
	return tx.Hash(), nil
}

func (k *Keystore) Receipts() ReceiptSource {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.client == nil {
		return nil
	}
	return k.client
}

// OpenKeystore decrypts a key file. path may be a key file or a keystore
// directory, in which case account selects the file.
func OpenKeystore(path, account, passphrase string) (*keystore.Key, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("keystore: %w", err)
	}
	if info.IsDir() {
		path, err = findKeyFile(path, account)
		if err != nil {
			return nil, err
		}
	}

	keyJSON, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	key, err := keystore.DecryptKey(keyJSON, passphrase)
	if err != nil {
		return nil, fmt.Errorf("decrypt %s: %w", filepath.Base(path), err)
	}
	if account != "" && !strings.EqualFold(key.Address.Hex(), account) {
		return nil, fmt.Errorf("key file holds %s, not %s", key.Address.Hex(), account)
	}
	return key, nil
}

// findKeyFile matches geth's UTC--<time>--<address> naming.
func findKeyFile(dir, account string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read keystore dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		files = append(files, entry.Name())
	}

	if account == "" {
		if len(files) == 1 {
			return filepath.Join(dir, files[0]), nil
		}
		return "", fmt.Errorf("keystore dir %s holds %d keys, set an account", dir, len(files))
	}

	want := strings.ToLower(strings.TrimPrefix(common.HexToAddress(account).Hex(), "0x"))
	for _, name := range files {
		if strings.HasSuffix(strings.ToLower(name), want) {
			return filepath.Join(dir, name), nil
		}
	}
	return "", fmt.Errorf("no key for %s in %s", account, dir)
}
