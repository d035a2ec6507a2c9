package engine

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/holiman/uint256"

	"github.com/VaultonCrypto/vaulton-token-sub001/distribute"
	"github.com/VaultonCrypto/vaulton-token-sub001/token"
)

// Config is the engine's construction-time configuration. Amount fields are
// decimal strings in base units; Decimals is display metadata only and
// never scales them.
type Config struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`

	TotalSupply   string `json:"totalSupply"`
	InitialBurn   string `json:"initialBurn"`
	BurnThreshold string `json:"burnThreshold"`

	BuyTaxBps       uint16 `json:"buyTaxBps"`
	SellTaxBps      uint16 `json:"sellTaxBps"`
	WalletTaxBps    uint16 `json:"walletTaxBps"`
	BurnPercent     uint8  `json:"burnPercent"`
	TreasuryPercent uint8  `json:"treasuryPercent"`

	MaxTxAmount         string `json:"maxTxAmount"`
	MaxPairToPairAmount string `json:"maxPairToPairAmount"`
	CooldownSeconds     uint64 `json:"cooldownSeconds"`
	LaunchWindowBlocks  uint64 `json:"launchWindowBlocks"`
	StrictLaunch        bool   `json:"strictLaunch"`

	SwapTrigger            string `json:"swapTrigger"`
	SlippageBps            uint16 `json:"slippageBps"`
	GatewayDeadlineSeconds uint64 `json:"gatewayDeadlineSeconds"`

	MinQueueDelayBlocks uint64        `json:"minQueueDelayBlocks"`
	Beneficiaries       []Beneficiary `json:"beneficiaries,omitempty"`
}

// Beneficiary is one distribution share in the configuration file.
type Beneficiary struct {
	Account string `json:"account"`
	Bps     uint16 `json:"bps"`
}

// DefaultConfig returns a launch-ready configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:                   "Vaulton",
		Symbol:                 "VLTN",
		Decimals:               18,
		TotalSupply:            "50000000",
		InitialBurn:            "15000000",
		BurnThreshold:          "25000000",
		BuyTaxBps:              500,
		SellTaxBps:             500,
		WalletTaxBps:           100,
		BurnPercent:            60,
		TreasuryPercent:        25,
		MaxTxAmount:            "250000",
		MaxPairToPairAmount:    "100000",
		CooldownSeconds:        30,
		LaunchWindowBlocks:     3,
		StrictLaunch:           true,
		SwapTrigger:            "25000",
		SlippageBps:            500,
		GatewayDeadlineSeconds: 120,
		MinQueueDelayBlocks:    10,
	}
}

// LoadConfig reads a JSON configuration file over the defaults, so partial
// files only need the fields they change.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("engine: read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadConfig, err)
	}
	return cfg, nil
}

// Validate checks the configuration without building anything.
func (c *Config) Validate() error {
	_, err := c.parse()
	return err
}

// params is the parsed form of a Config.
type params struct {
	totalSupply   *uint256.Int
	initialBurn   *uint256.Int
	burnThreshold *uint256.Int
	maxTx         *uint256.Int
	maxPairToPair *uint256.Int
	swapTrigger   *uint256.Int
	shares        []distribute.Share
}

func (c *Config) parse() (*params, error) {
	if c.Name == "" || c.Symbol == "" {
		return nil, fmt.Errorf("%w: name and symbol are required", ErrBadConfig)
	}

	p := &params{}
	var err error
	amounts := []struct {
		name  string
		value string
		dst   **uint256.Int
	}{
		{"totalSupply", c.TotalSupply, &p.totalSupply},
		{"initialBurn", orZero(c.InitialBurn), &p.initialBurn},
		{"burnThreshold", orZero(c.BurnThreshold), &p.burnThreshold},
		{"maxTxAmount", orZero(c.MaxTxAmount), &p.maxTx},
		{"maxPairToPairAmount", orZero(c.MaxPairToPairAmount), &p.maxPairToPair},
		{"swapTrigger", orZero(c.SwapTrigger), &p.swapTrigger},
	}
	for _, a := range amounts {
		*a.dst, err = token.ParseAmount(a.value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadConfig, a.name, err)
		}
	}

	if p.totalSupply.IsZero() {
		return nil, fmt.Errorf("%w: totalSupply must be positive", ErrBadConfig)
	}
	if p.initialBurn.Gt(p.totalSupply) {
		return nil, fmt.Errorf("%w: initialBurn exceeds totalSupply", ErrBadConfig)
	}
	for _, r := range []uint16{c.BuyTaxBps, c.SellTaxBps, c.WalletTaxBps, c.SlippageBps} {
		if r > token.BpsDenominator {
			return nil, fmt.Errorf("%w: rate %d exceeds 10000 bps", ErrBadConfig, r)
		}
	}
	if int(c.BurnPercent)+int(c.TreasuryPercent) > 100 {
		return nil, fmt.Errorf("%w: burnPercent + treasuryPercent exceed 100", ErrBadConfig)
	}

	sum := 0
	for _, b := range c.Beneficiaries {
		addr, err := token.ParseAddress(b.Account)
		if err != nil {
			return nil, fmt.Errorf("%w: beneficiary: %v", ErrBadConfig, err)
		}
		p.shares = append(p.shares, distribute.Share{Account: addr, Bps: b.Bps})
		sum += int(b.Bps)
	}
	if len(p.shares) > 0 && sum != token.BpsDenominator {
		return nil, fmt.Errorf("%w: beneficiary shares sum to %d bps", ErrBadConfig, sum)
	}
	return p, nil
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
