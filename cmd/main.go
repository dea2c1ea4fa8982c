// Command purse shows balances of many exchange accounts and places proportional market orders.
//
// Usage:
//
//	purse [--config config/config.yaml] [--format text|json]   interactive prompt
//	purse [flags] balance binance_main                        run one command and exit
//	purse [flags] setup                                       write the config with a wizard
//
// Credentials are read from the environment, .env is loaded when present:
//
//	<EXCHANGE>_<ACCOUNT>_API_KEY, <EXCHANGE>_<ACCOUNT>_API_SECRET
//	HYPERLIQUID_<ACCOUNT>_PRIVATE_KEY, optional HYPERLIQUID_<ACCOUNT>_ACCOUNT_ADDRESS
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/vadiminshakov/purse/config"
	"github.com/vadiminshakov/purse/internal/commands"
	"github.com/vadiminshakov/purse/internal/services/adapter"
	"github.com/vadiminshakov/purse/internal/services/portfolio"
	"github.com/vadiminshakov/purse/internal/services/render"
	"github.com/vadiminshakov/purse/internal/services/valuation"
	"github.com/vadiminshakov/purse/internal/setup"
	"github.com/vadiminshakov/purse/internal/storage/auditlog"
)

const prompt = "💰$$$ "

func main() {
	flags, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	if len(flags.Args) > 0 && flags.Args[0] == "setup" {
		if err := setup.RunTUI(flags.ConfigPath); err != nil {
			log.Fatal(err)
		}
		return
	}

	// .env goes first, it may carry EXCHANGE_SANDBOX
	creds := config.NewEnvCredentials()

	conf, err := config.Load(flags.ConfigPath)
	if err != nil {
		log.Fatalf("%v (run `purse setup` to create %s)", err, flags.ConfigPath)
	}

	logger := newLogger(conf.LogFile)
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	audit, err := auditlog.NewWALStore(conf.AuditDir)
	if err != nil {
		logger.Fatal("failed to open audit log", zap.String("dir", conf.AuditDir), zap.Error(err))
	}
	defer audit.Close()

	// progress lines and price warnings would break json output
	var progress io.Writer = os.Stdout
	if flags.Format == config.FormatJSON {
		progress = os.Stderr
	}

	factory := adapter.NewFactory(logger, creds, conf)
	cache := portfolio.NewBalanceCache()
	resolver := valuation.NewResolver(logger.Named("valuation"), progress)
	aggregator := portfolio.NewAggregator(logger.Named("portfolio"), factory, cache, resolver, conf.SkipSmallAssetUSD, progress)
	dispatcher := commands.NewDispatcher(logger, conf, aggregator, factory, cache, audit, render.New(flags.Format, os.Stdout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("purse started",
		zap.String("config", flags.ConfigPath),
		zap.Bool("live", conf.Live),
		zap.Bool("sandbox", conf.Sandbox),
		zap.Int("accounts", len(conf.Accounts.AccountIDs())))

	if len(flags.Args) > 0 {
		if err := dispatcher.Execute(ctx, strings.Join(flags.Args, " ")); err != nil {
			logger.Error("command failed", zap.Strings("args", flags.Args), zap.Error(err))
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			stop()
			logger.Sync()
			os.Exit(1)
		}
		return
	}

	fmt.Printf("\nSANDBOX = %t\n\n", conf.Sandbox)
	repl(ctx, logger, dispatcher)
}

// repl reads commands until EOF or interrupt. A failing command is reported and the loop goes on.
func repl(ctx context.Context, logger *zap.Logger, dispatcher *commands.Dispatcher) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		fmt.Print(prompt)
		select {
		case <-ctx.Done():
			fmt.Println("\nExiting...")
			return
		case line, ok := <-lines:
			if !ok {
				fmt.Println()
				return
			}
			if err := dispatcher.Execute(ctx, line); err != nil {
				fmt.Printf("Error: %v\n", err)
				logger.Error("command failed", zap.String("command", line), zap.Error(err))
			}
		}
	}
}

// newLogger writes json logs to a rotating file, the terminal is kept for command output.
func newLogger(path string) *zap.Logger {
	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	})
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), sink, zap.InfoLevel)
	return zap.New(core, zap.AddCaller())
}
