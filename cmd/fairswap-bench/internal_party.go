package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/urfave/cli/v2"

	"github.com/Layr-Labs/fairswap-bench/pkg/chainadapter"
	"github.com/Layr-Labs/fairswap-bench/pkg/contractdeploy"
	"github.com/Layr-Labs/fairswap-bench/pkg/p2pstream"
	"github.com/Layr-Labs/fairswap-bench/pkg/party"
	"github.com/Layr-Labs/fairswap-bench/pkg/protocols"
)

// internalPartyRunCommand is the hidden role pkg/party.Spawn re-execs this
// binary into: one seller or buyer, isolated in its own process, talking
// to its counterparty over a single UNIX socket (pkg/party.go's doc
// comment). It is not listed in any usage text a user would see, matching
// the reference implementation's own undocumented subprocess entrypoint.
var internalPartyRunCommand = &cli.Command{
	Name:   "internal-party-run",
	Hidden: true,
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "task", Required: true, Usage: "path to the JSON party.Task file"},
	},
	Action: internalPartyRunAction,
}

func internalPartyRunAction(c *cli.Context) error {
	task, err := loadTask(c.String("task"))
	if err != nil {
		return writeFailure(c.String("task"), task.ResultPath, err)
	}

	usage, runErr := runParty(c.Context, task)
	if err := party.WriteResult(task.ResultPath, usage, runErr); err != nil {
		return cli.Exit(err, 1)
	}
	if runErr != nil {
		return cli.Exit(runErr, 1)
	}
	return nil
}

func loadTask(path string) (party.Task, error) {
	var task party.Task
	data, err := os.ReadFile(path)
	if err != nil {
		return task, fmt.Errorf("read task file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &task); err != nil {
		return task, fmt.Errorf("parse task file %s: %w", path, err)
	}
	return task, nil
}

// writeFailure is the fallback path for a task we couldn't even parse: the
// parent is still waiting on resultPath, so write what we can to it rather
// than leaving it unwritten forever.
func writeFailure(taskPath, resultPath string, err error) error {
	if resultPath != "" {
		_ = party.WriteResult(resultPath, party.ResourceUsage{}, err)
	}
	return cli.Exit(fmt.Errorf("task %s: %w", taskPath, err), 1)
}

func runParty(ctx context.Context, task party.Task) (party.ResourceUsage, error) {
	logger, err := zapLoggerForLevel(os.Getenv("FAIRSWAP_BENCH_LOG_LEVEL"))
	if err != nil {
		return party.ResourceUsage{}, err
	}
	defer logger.Sync()
	named := logger.Named(string(task.Role))

	key, err := crypto.HexToECDSA(strings.TrimPrefix(task.PrivateKeyHex, "0x"))
	if err != nil {
		return party.ResourceUsage{}, fmt.Errorf("parse %s private key: %w", task.Role, err)
	}

	adapter, err := chainadapter.New(ctx, task.RPCURL, key, named)
	if err != nil {
		return party.ResourceUsage{}, err
	}
	deployer := contractdeploy.New(adapter)

	conn, err := dialWithRetry(ctx, task.SocketPath)
	if err != nil {
		return party.ResourceUsage{}, fmt.Errorf("%s dial %s: %w", task.Role, task.SocketPath, err)
	}
	stream := p2pstream.NewStream(conn)
	defer stream.Close()

	price, ok := new(big.Int).SetString(task.PriceWei, 10)
	if !ok {
		return party.ResourceUsage{}, fmt.Errorf("parse price %q", task.PriceWei)
	}

	pc := protocols.Context{
		Stream:       stream,
		Chain:        adapter,
		Deployer:     deployer,
		Logger:       named,
		Key:          key,
		Counterparty: common.HexToAddress(task.CounterpartyHex),
		FilePath:     task.FilePath,
		Price:        price,
		Timeout:      time.Duration(task.TimeoutSeconds) * time.Second,
		Parameters:   task.Parameters,
	}

	var strategy protocols.Strategy
	switch task.Role {
	case party.RoleSeller:
		strategy, err = protocols.NewSellerStrategy(task.Protocol, task.Strategy, pc)
	case party.RoleBuyer:
		strategy, err = protocols.NewBuyerStrategy(task.Protocol, task.Strategy, pc)
	default:
		err = fmt.Errorf("unknown party role %q", task.Role)
	}
	if err != nil {
		return party.ResourceUsage{}, err
	}

	return strategy.Run(ctx)
}

// dialWithRetry tolerates the parent's listener not having been set up yet
// by the time this freshly re-exec'd process reaches its first dial.
func dialWithRetry(ctx context.Context, path string) (net.Conn, error) {
	deadline := time.Now().Add(10 * time.Second)
	var lastErr error
	for time.Now().Before(deadline) {
		conn, err := net.Dial("unix", path)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	return nil, lastErr
}
