package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/sveinbjornt/ensk.is/internal"
	pkgconfig "github.com/sveinbjornt/ensk.is/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	path := cmd.String("config")
	if err := pkgconfig.Load(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func buildDict(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunBuild(cfg)
}

func verify(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunVerify(cfg)
}

func mcp(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(cfg)
}

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "ensk",
		Usage: "Public domain English-Icelandic dictionary: source compiler and search service",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the dictionary API over HTTP",
				Flags:  []cli.Flag{configFlag()},
				Action: serve,
			},
			{
				Name:   "build",
				Usage:  "Compile dictionary sources into a new store edition with export artifacts",
				Flags:  []cli.Flag{configFlag()},
				Action: buildDict,
			},
			{
				Name:   "verify",
				Usage:  "Validate dictionary sources without building",
				Flags:  []cli.Flag{configFlag()},
				Action: verify,
			},
			{
				Name:   "mcp",
				Usage:  "Serve dictionary tools over MCP stdio",
				Flags:  []cli.Flag{configFlag()},
				Action: mcp,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
