// Command quartznode runs one peer's participation in a content-swarm
// overlay: it opens the local persistence gateway, dials its configured
// parent, and serves child connections until interrupted.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/urfave/cli.v1"

	"github.com/bamilab/quartznet/common"
	"github.com/bamilab/quartznet/internal/log"
	"github.com/bamilab/quartznet/node"
	"github.com/bamilab/quartznet/persistence"
	"github.com/bamilab/quartznet/reqresp"
	"github.com/bamilab/quartznet/transport"
)

var (
	configFileFlag = cli.StringFlag{Name: "config", Usage: "TOML configuration file"}
	channelFlag    = cli.StringFlag{Name: "channel", Usage: "hex-encoded channel owner public key"}
)

func main() {
	app := cli.NewApp()
	app.Name = "quartznode"
	app.Usage = "content-swarm overlay peer"
	app.Flags = []cli.Flag{configFileFlag, channelFlag}
	app.Action = run
	app.Commands = []cli.Command{
		{
			Name:   "dumpconfig",
			Usage:  "print the effective configuration",
			Flags:  []cli.Flag{configFileFlag},
			Action: dumpConfig,
		},
		{
			Name:   "channels",
			Usage:  "list locally persisted channels",
			Flags:  []cli.Flag{configFileFlag},
			Action: listChannels,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("fatal: %v", err))
		os.Exit(1)
	}
}

func loadedConfig(ctx *cli.Context) quartzConfig {
	cfg := defaultConfig
	if file := ctx.String(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			fmt.Fprintln(os.Stderr, color.RedString("config error: %v", err))
			os.Exit(1)
		}
	}
	return cfg
}

func dumpConfig(ctx *cli.Context) error {
	cfg := loadedConfig(ctx)
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}
	os.Stdout.Write(out)
	return nil
}

func openGateway(cfg quartzConfig) (*persistence.Gateway, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}
	return persistence.Open(filepath.Join(cfg.DataDir, "quartznet.db"), filepath.Join(cfg.DataDir, "blocks"))
}

func listChannels(ctx *cli.Context) error {
	cfg := loadedConfig(ctx)
	gw, err := openGateway(cfg)
	if err != nil {
		return err
	}
	defer gw.Close()

	channels, err := gw.ListChannels()
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Owner", "Title", "Publishers"})
	for _, ch := range channels {
		profile, err := ch.FetchProfile()
		if err != nil {
			return err
		}
		title := "-"
		if profile != nil {
			title = profile.Title
		}
		publishers, err := ch.Publishers()
		if err != nil {
			return err
		}
		table.Append([]string{ch.LoadAddress().String(), title, fmt.Sprintf("%d", len(publishers))})
	}
	table.Render()
	return nil
}

func run(ctx *cli.Context) error {
	cfg := loadedConfig(ctx)
	logger := log.New("component", "cmd")

	gw, err := openGateway(cfg)
	if err != nil {
		return err
	}
	defer gw.Close()

	channelHex := ctx.String(channelFlag.Name)
	if channelHex == "" {
		return fmt.Errorf("--channel is required")
	}
	raw, err := hex.DecodeString(channelHex)
	if err != nil {
		return fmt.Errorf("invalid channel key: %w", err)
	}
	channelOwner := common.BytesToPublicKey(raw)

	channel, ok, err := gw.GetChannel(channelOwner)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("channel %s not found locally; create it first", channelOwner.String())
	}

	sub, err := persistence.LoadSubscription(cfg.DataDir, channelOwner)
	if err != nil {
		return err
	}

	tr := &transport.WebsocketTransport{LocalAddr: channelOwner}
	search := reqresp.NewSearchIndex()

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var candidates []common.PublicKey
	if cfg.ParentAddr != "" {
		parentRaw, err := hex.DecodeString(cfg.ParentAddr)
		if err != nil {
			return fmt.Errorf("invalid parent_addr: %w", err)
		}
		candidates = append(candidates, common.BytesToPublicKey(parentRaw))
	}
	candidates = append(candidates, node.SwarmCandidates(sub, channelOwner)...)

	sock, parentAddr, err := node.FindSwarmConnection(rootCtx, tr, candidates,
		func(addr common.PublicKey, dialErr error) {
			logger.Warn("swarm entry attempt failed", "peer", addr.String(), "err", dialErr)
		})
	if err != nil {
		return fmt.Errorf("connect to swarm: %w", err)
	}

	n, err := node.ConnectVia(rootCtx, gw, tr, channel, sock, parentAddr, cfg.RelayPower, search)
	if err != nil {
		return fmt.Errorf("connect to parent: %w", err)
	}
	defer n.Disconnect()

	listener, err := tr.Listen(transport.OverlayPort())
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer listener.Close()
	n.AcceptChildren(rootCtx, listener)

	logger.Info("quartznode running", "channel", channelOwner.String(), "parent", parentAddr.String())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")

	sub.Publishers, err = channel.Publishers()
	if err != nil {
		return err
	}
	sub.CachedPeers = []common.PublicKey{parentAddr}
	return persistence.SaveSubscription(cfg.DataDir, sub)
}
