// Package config loads the account registry, trading switches and credentials.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/purse/internal/domain"
)

const (
	DefaultPath     = "config/config.yaml"
	defaultAuditDir = "./wal/audit"
	defaultLogFile  = "purse.log"
	sandboxEnv      = "EXCHANGE_SANDBOX"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

type Config struct {
	Accounts Registry
	// Live places real orders; otherwise trades are only printed.
	Live       bool
	SkipAssets []string
	// SkipSmallAssetUSD hides assets worth less than this many USD.
	SkipSmallAssetUSD decimal.Decimal
	Sandbox           bool
	AuditDir          string
	LogFile           string
	// PaperWallets are starting balances of accounts on the simulate exchange.
	PaperWallets map[string]domain.Balances
}

type ConfigTmp struct {
	Accounts          Registry               `yaml:"accounts"`
	Live              bool                   `yaml:"live"`
	SkipAssets        []string               `yaml:"skip_assets,omitempty"`
	SkipSmallAssetUSD string                 `yaml:"skip_small_asset_usd,omitempty"`
	Sandbox           bool                   `yaml:"sandbox,omitempty"`
	AuditDir          string                 `yaml:"audit_dir,omitempty"`
	LogFile           string                 `yaml:"log_file,omitempty"`
	PaperWallets      map[string]paperWallet `yaml:"paper_wallets,omitempty"`
}

// Flags are the command line options.
type Flags struct {
	ConfigPath string
	Format     string
	// Args is the command to run once; empty starts the interactive loop.
	Args []string
}

// ParseFlags parses command line arguments (without the program name).
func ParseFlags(args []string) (Flags, error) {
	fs := flag.NewFlagSet("purse", flag.ContinueOnError)
	path := fs.String("config", DefaultPath, "path to yaml config")
	format := fs.String("format", FormatText, "output format: text or json")
	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}

	if *format != FormatText && *format != FormatJSON {
		return Flags{}, fmt.Errorf("invalid --format provided, --format=%s", *format)
	}

	return Flags{ConfigPath: *path, Format: *format, Args: fs.Args()}, nil
}

// Load reads and validates the yaml config at path.
func Load(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}
	return Parse(f)
}

// Parse validates a yaml config document.
func Parse(data []byte) (Config, error) {
	var c ConfigTmp
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}

	if err := c.Accounts.validate(); err != nil {
		return Config{}, errors.Wrap(err, "incorrect 'accounts' param in yaml config")
	}

	conf := Config{
		Accounts:          c.Accounts,
		Live:              c.Live,
		SkipAssets:        c.SkipAssets,
		SkipSmallAssetUSD: decimal.Zero,
		Sandbox:           c.Sandbox || strings.EqualFold(os.Getenv(sandboxEnv), "true"),
		AuditDir:          c.AuditDir,
		LogFile:           c.LogFile,
		PaperWallets:      make(map[string]domain.Balances, len(c.PaperWallets)),
	}

	if c.SkipSmallAssetUSD != "" {
		threshold, err := decimal.NewFromString(c.SkipSmallAssetUSD)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'skip_small_asset_usd' param in yaml config (must be a decimal), error: %w", err)
		}
		if threshold.IsNegative() {
			return Config{}, fmt.Errorf("incorrect 'skip_small_asset_usd' param in yaml config (must not be negative): %s", threshold)
		}
		conf.SkipSmallAssetUSD = threshold
	}

	if conf.AuditDir == "" {
		conf.AuditDir = defaultAuditDir
	}
	if conf.LogFile == "" {
		conf.LogFile = defaultLogFile
	}

	for name, wallet := range c.PaperWallets {
		conf.PaperWallets[name] = domain.Balances(wallet)
	}

	return conf, nil
}

// Save writes conf to path as yaml.
func Save(path string, conf Config) error {
	tmp := ConfigTmp{
		Accounts:   conf.Accounts,
		Live:       conf.Live,
		SkipAssets: conf.SkipAssets,
		Sandbox:    conf.Sandbox,
		AuditDir:   conf.AuditDir,
		LogFile:    conf.LogFile,
	}
	if !conf.SkipSmallAssetUSD.IsZero() {
		tmp.SkipSmallAssetUSD = conf.SkipSmallAssetUSD.String()
	}
	if len(conf.PaperWallets) > 0 {
		tmp.PaperWallets = make(map[string]paperWallet, len(conf.PaperWallets))
		for name, wallet := range conf.PaperWallets {
			tmp.PaperWallets[name] = paperWallet(wallet)
		}
	}

	payload, err := yaml.Marshal(tmp)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	return errors.Wrap(os.WriteFile(path, payload, 0o600), "write config")
}

// IsSkipped reports whether asset is listed in skip_assets.
func (c Config) IsSkipped(asset string) bool {
	for _, s := range c.SkipAssets {
		if s == asset {
			return true
		}
	}
	return false
}

// paperWallet is an ordered asset -> amount mapping.
type paperWallet domain.Balances

func (w *paperWallet) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: paper wallet must be a mapping of asset to amount", node.Line)
	}

	out := make(paperWallet, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		amount, err := decimal.NewFromString(value.Value)
		if err != nil {
			return errors.Wrapf(err, "line %d: amount of %s", value.Line, key.Value)
		}
		if amount.IsNegative() {
			return fmt.Errorf("line %d: amount of %s must not be negative", value.Line, key.Value)
		}
		out = append(out, domain.Balance{Asset: key.Value, Amount: amount})
	}

	*w = out
	return nil
}

func (w paperWallet) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Style: yaml.FlowStyle}
	for _, b := range w {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: b.Asset},
			&yaml.Node{Kind: yaml.ScalarNode, Value: b.Amount.String(), Style: yaml.DoubleQuotedStyle},
		)
	}
	return node, nil
}
