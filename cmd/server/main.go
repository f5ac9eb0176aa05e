package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/yurifrl/conciliu/pkg/config"
	"github.com/yurifrl/conciliu/pkg/server"
)

func main() {
	flags := pflag.NewFlagSet("conciliu-server", pflag.ExitOnError)
	cfgFile := flags.StringP("config", "c", "", "Config file (default is config.yaml)")
	flags.String("addr", "127.0.0.1:3000", "Listen address")
	config.RegisterFlags(flags)
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Build(*cfgFile, flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := cfg.Logger("conciliu")

	srv := server.New(cfg, logger)
	logger.Info("starting server", "addr", cfg.Addr, "settings", cfg.Settings)
	if err := srv.Start(cfg.Addr); err != nil {
		logger.Fatal("server error", "err", err)
	}
}
