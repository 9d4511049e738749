package wallet

import "github.com/ethereum/go-ethereum/common/hexutil"

// TargetChain describes the single network the client works against.
type TargetChain struct {
	ID             uint64
	Name           string
	CurrencyName   string
	CurrencySymbol string
	Decimals       uint8
	RPCURLs        []string
	ExplorerURL    string
}

// KiteTestnet is the default target chain.
func KiteTestnet() TargetChain {
	return TargetChain{
		ID:             2368,
		Name:           "Kite AI Testnet",
		CurrencyName:   "KITE",
		CurrencySymbol: "KITE",
		Decimals:       18,
		RPCURLs:        []string{"https://rpc-testnet.gokite.ai/"},
		ExplorerURL:    "https://testnet.kitescan.ai/",
	}
}

// PrimaryRPC returns the first RPC endpoint of the chain definition.
func (c TargetChain) PrimaryRPC() string {
	if len(c.RPCURLs) == 0 {
		return ""
	}
	return c.RPCURLs[0]
}

// HexID returns the chain id as wallets expect it, e.g. "0x940".
func (c TargetChain) HexID() string {
	return hexutil.EncodeUint64(c.ID)
}

type nativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

type addChainParams struct {
	ChainID           string         `json:"chainId"`
	ChainName         string         `json:"chainName"`
	NativeCurrency    nativeCurrency `json:"nativeCurrency"`
	RPCURLs           []string       `json:"rpcUrls"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls"`
}

func (c TargetChain) addParams() addChainParams {
	return addChainParams{
		ChainID:   c.HexID(),
		ChainName: c.Name,
		NativeCurrency: nativeCurrency{
			Name:     c.CurrencyName,
			Symbol:   c.CurrencySymbol,
			Decimals: c.Decimals,
		},
		RPCURLs:           c.RPCURLs,
		BlockExplorerURLs: []string{c.ExplorerURL},
	}
}

type switchChainParams struct {
	ChainID string `json:"chainId"`
}
