package main

import (
	"crypto/rand"
	"fmt"
	"os"

	"github.com/nspcc-dev/lukchat"
	"github.com/nspcc-dev/lukchat/config"
	"github.com/nspcc-dev/lukchat/crypto"
	"github.com/nspcc-dev/lukchat/internal/chatmsg"
	"github.com/nspcc-dev/lukchat/storage"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lukchat",
		Short:         "LukChat chain-state node tool",
		Long:          "Command line interface for creating, inspecting and simulating LukChat chains.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to the YAML config file (defaults to $"+config.EnvConfigPath+" or environment variables)")

	root.AddCommand(
		newKeygenCmd(),
		newGenesisCmd(),
		newInspectCmd(),
		newSimulateCmd(),
	)

	return root
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}

	return config.Load()
}

// app holds resources shared by commands.
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	store storage.Store
	job   *storage.Job[chatmsg.Message]
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := cfg.Logger.Build()
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.Storage)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:   cfg,
		log:   log,
		store: store,
		job:   storage.NewJob[chatmsg.Message](store, chatmsg.Decode, log),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Error("can't close store", zap.Error(err))
	}
	_ = a.log.Sync()
}

// identity loads the configured key or generates an ephemeral one.
func (a *app) identity() (lukchat.Identity, error) {
	if a.cfg.Node.Key == "" {
		a.log.Warn("node key is not configured, using an ephemeral one")
		return newIdentity()
	}

	priv, pub, err := crypto.LoadKey(a.cfg.Node.Key)
	if err != nil {
		return lukchat.Identity{}, err
	}

	return lukchat.NewIdentity(priv, pub)
}

func newIdentity() (lukchat.Identity, error) {
	priv, pub := crypto.Generate(rand.Reader)
	if priv == nil {
		return lukchat.Identity{}, errors.New("can't generate key")
	}

	return lukchat.NewIdentity(priv, pub)
}
