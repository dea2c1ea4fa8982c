// Package setup runs the interactive wizard that writes config.yaml.
package setup

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/purse/config"
	"github.com/vadiminshakov/purse/internal/domain"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// tradable exchanges, in the order they are offered
var exchangeOptions = []huh.Option[string]{
	huh.NewOption("Binance", domain.ExchangeBinance.String()),
	huh.NewOption("Bybit", domain.ExchangeBybit.String()),
	huh.NewOption("Hyperliquid", domain.ExchangeHyperliquid.String()),
	huh.NewOption("Kraken", domain.ExchangeKraken.String()),
	huh.NewOption("Bitfinex", domain.ExchangeBitfinex.String()),
	huh.NewOption("Paper wallet (simulation)", domain.ExchangeSimulate.String()),
}

func step(title string) {
	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("PURSE CONFIG WIZARD"))
	fmt.Println(stepStyle.Render(title))
}

// RunTUI launches the terminal configuration wizard and saves the result to path.
func RunTUI(path string) error {
	var (
		exchanges     []string
		live, sandbox bool
		confirm       bool
	)
	skipAssets := "USDT, USDC"
	threshold := "1"
	paperWallet := "USDT=1000"

	step("STEP 1: EXCHANGES")
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Pick every exchange you hold funds on.\n"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Exchanges").
				Options(exchangeOptions...).
				Value(&exchanges).
				Validate(func(s []string) error {
					if len(s) == 0 {
						return errors.New("select at least one exchange")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	step("STEP 2: ACCOUNTS")
	accountInputs := make([]string, len(exchanges))
	fields := make([]huh.Field, 0, len(exchanges))
	for i, name := range exchanges {
		accountInputs[i] = "main"
		fields = append(fields, huh.NewInput().
			Title(fmt.Sprintf("Accounts on %s", name)).
			Description("Comma separated names without underscores (e.g. main, alt)").
			Value(&accountInputs[i]).
			Validate(func(s string) error {
				_, err := parseAccountList(s)
				return err
			}))
	}
	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return err
	}

	step("STEP 3: TRADING")
	tradingFields := []huh.Field{
		huh.NewConfirm().
			Title("Place real orders?").
			Description("When off, buy and sell only print what they would do").
			Affirmative("Live").
			Negative("Simulate").
			Value(&live),
		huh.NewConfirm().
			Title("Use exchange testnets?").
			Value(&sandbox),
		huh.NewInput().
			Title("Assets never traded").
			Description("Comma separated symbols").
			Value(&skipAssets),
		huh.NewInput().
			Title("Hide assets worth less than (USD)").
			Value(&threshold).
			Validate(validateThreshold),
	}
	if contains(exchanges, domain.ExchangeSimulate.String()) {
		tradingFields = append(tradingFields, huh.NewInput().
			Title("Paper wallet").
			Description("Starting balances, e.g. USDT=1000, BTC=0.1").
			Value(&paperWallet).
			Validate(func(s string) error {
				_, err := parsePaperWallet(s)
				return err
			}))
	}
	if err := huh.NewForm(huh.NewGroup(tradingFields...)).Run(); err != nil {
		return err
	}

	conf, err := buildConfig(exchanges, accountInputs, live, sandbox, skipAssets, threshold, paperWallet)
	if err != nil {
		return err
	}

	step("FINAL CONFIRMATION")
	var summary strings.Builder
	for _, id := range conf.Accounts.AccountIDs() {
		fmt.Fprintf(&summary, "Account: %s\n", id)
	}
	fmt.Fprintf(&summary, "Live: %t\nSandbox: %t\nSkip: %s\nMin USD: %s\n",
		conf.Live, conf.Sandbox, strings.Join(conf.SkipAssets, ", "), conf.SkipSmallAssetUSD)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary.String()))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}

	if !confirm {
		return errors.New("setup cancelled by user")
	}

	if err := config.Save(path, conf); err != nil {
		return errors.Wrap(err, "failed to save config file")
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s", path)))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Put API keys into .env as <EXCHANGE>_<ACCOUNT>_API_KEY and <EXCHANGE>_<ACCOUNT>_API_SECRET."))
	time.Sleep(1500 * time.Millisecond) // small pause to read success message
	return nil
}

// buildConfig turns the raw wizard answers into a validated config.
func buildConfig(exchanges, accounts []string, live, sandbox bool, skipAssets, threshold, paperWallet string) (config.Config, error) {
	conf := config.Config{
		Live:         live,
		Sandbox:      sandbox,
		SkipAssets:   parseAssetList(skipAssets),
		PaperWallets: map[string]domain.Balances{},
	}

	for i, name := range exchanges {
		exchange, err := domain.ParseExchange(name)
		if err != nil {
			return config.Config{}, err
		}
		names, err := parseAccountList(accounts[i])
		if err != nil {
			return config.Config{}, errors.Wrapf(err, "accounts of %s", exchange)
		}
		conf.Accounts = append(conf.Accounts, config.ExchangeAccounts{Exchange: exchange, Accounts: names})

		if exchange == domain.ExchangeSimulate {
			wallet, err := parsePaperWallet(paperWallet)
			if err != nil {
				return config.Config{}, err
			}
			for _, n := range names {
				conf.PaperWallets[n] = wallet.Clone()
			}
		}
	}

	if err := validateThreshold(threshold); err != nil {
		return config.Config{}, err
	}
	conf.SkipSmallAssetUSD = decimal.RequireFromString(strings.TrimSpace(threshold))

	return conf, nil
}

func parseAccountList(s string) ([]string, error) {
	var names []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(s, ",") {
		name := strings.TrimSpace(part)
		if err := config.ValidateAccountName(name); err != nil {
			return nil, err
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("account %s is listed twice", name)
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names, nil
}

func parseAssetList(s string) []string {
	var assets []string
	for _, part := range strings.Split(s, ",") {
		if asset := strings.ToUpper(strings.TrimSpace(part)); asset != "" {
			assets = append(assets, asset)
		}
	}
	return assets
}

func parsePaperWallet(s string) (domain.Balances, error) {
	var wallet domain.Balances
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		asset, raw, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("%q must look like ASSET=AMOUNT", part)
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil || amount.IsNegative() {
			return nil, fmt.Errorf("amount of %s must be a non-negative number", asset)
		}
		wallet = append(wallet, domain.Balance{Asset: strings.ToUpper(strings.TrimSpace(asset)), Amount: amount})
	}
	if len(wallet) == 0 {
		return nil, errors.New("paper wallet must hold at least one asset")
	}
	return wallet, nil
}

func validateThreshold(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return errors.New("must be a valid number")
	}
	if d.IsNegative() {
		return errors.New("must not be negative")
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
