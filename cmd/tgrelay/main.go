package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"tgrelay/pkg/botapi"
	"tgrelay/pkg/config"
	"tgrelay/pkg/logger"
	"tgrelay/pkg/relay"
	"tgrelay/pkg/server"
)

const version = "0.1.0"

func main() {
	args := os.Args[1:]
	command := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command = args[0]
		args = args[1:]
	}

	switch command {
	case "serve":
		serveCmd(args)
	case "version", "--version", "-v":
		fmt.Printf("tgrelay v%s\n", version)
	case "help", "--help", "-h":
		printHelp()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printHelp()
		os.Exit(1)
	}
}

func serveCmd(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to JSON config file")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(args)

	if *debug {
		logger.SetLevel(logger.DEBUG)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.FatalC("config", "Failed to load config: "+err.Error())
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		for _, err := range errs {
			logger.ErrorC("config", err.Error())
		}
		os.Exit(1)
	}

	if cfg.Logging.Enabled {
		logger.EnableFileLogging(cfg.Logging.File, cfg.Logging.MaxSizeMB, cfg.Logging.RetentionDays)
		defer logger.DisableFileLogging()
	}

	engine := relay.NewEngine(botapi.NewClient(cfg.Relay.APIServer), cfg.Relay.Prefix, cfg.Relay.SecretToken)
	srv := server.NewServer(cfg, engine)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.FatalC("server", "HTTP server failed: "+err.Error())
	}
	logger.InfoC("server", "Shutdown complete")
}

func printHelp() {
	fmt.Println("tgrelay - relay between a Telegram bot and its owner")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  tgrelay serve [--config path] [--debug]")
	fmt.Println("  tgrelay version")
	fmt.Println("  tgrelay help")
	fmt.Println()
	fmt.Println("Routes (under the configured prefix):")
	fmt.Println("  /<prefix>/install/<ownerUid>/<botToken>   register the webhook")
	fmt.Println("  /<prefix>/uninstall/<botToken>            remove the webhook")
	fmt.Println("  /<prefix>/webhook/<ownerUid>/<botToken>   Telegram delivery endpoint")
}
