package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/Layr-Labs/fairswap-bench/pkg/bfeerrors"
	"github.com/Layr-Labs/fairswap-bench/pkg/config"
	"github.com/Layr-Labs/fairswap-bench/pkg/simulation"
)

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "run one protocol iteration (or a repeated batch) between a seller and a buyer",
	ArgsUsage: "<protocol> <seller_strategy> <buyer_strategy> <file>",
	Flags: []cli.Flag{
		&cli.Int64Flag{Name: "price", Usage: "sale price in wei", Value: 1},
		&cli.IntFlag{Name: "iterations", Aliases: []string{"n"}, Usage: "number of iterations to run", Value: 1},
		&cli.StringSliceFlag{Name: "param", Aliases: []string{"p"}, Usage: "protocol parameter key=value (repeatable)"},
		&cli.StringFlag{Name: "env-file", Aliases: []string{"e"}, Usage: "environments YAML file", Value: ".environments.yaml"},
		&cli.StringFlag{Name: "output-csv", Usage: "path to write the per-iteration CSV report"},
		&cli.DurationFlag{Name: "timeout", Usage: "per-message wait timeout", Value: 30 * time.Second},
	},
	Action: runAction,
}

func runAction(c *cli.Context) error {
	if c.NArg() != 4 {
		return cli.Exit("run requires <protocol> <seller_strategy> <buyer_strategy> <file>", 1)
	}
	protocol := c.Args().Get(0)
	sellerStrategy := c.Args().Get(1)
	buyerStrategy := c.Args().Get(2)
	filePath := c.Args().Get(3)

	logger, err := rootLogger(c)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer logger.Sync()

	params, err := parseParams(c.StringSlice("param"))
	if err != nil {
		return cli.Exit(err, 1)
	}

	env, err := config.LoadEnvironments(c.String("env-file"))
	if err != nil {
		return cli.Exit(err, 1)
	}

	self, err := os.Executable()
	if err != nil {
		return cli.Exit(fmt.Errorf("resolve own executable path: %w", err), 1)
	}

	input := simulation.IterationInput{
		BinaryPath:     self,
		Protocol:       protocol,
		SellerStrategy: sellerStrategy,
		BuyerStrategy:  buyerStrategy,
		FilePath:       filePath,
		PriceWei:       strconv.FormatInt(c.Int64("price"), 10),
		TimeoutSeconds: int64(c.Duration("timeout").Seconds()),
		SellerRPCURL:   env.Seller.Endpoint.URL,
		BuyerRPCURL:    env.Buyer.Endpoint.URL,
		SellerKeyHex:   env.Seller.Wallet.PrivateKey,
		BuyerKeyHex:    env.Buyer.Wallet.PrivateKey,
		SellerAddrHex:  env.Seller.Wallet.Address,
		BuyerAddrHex:   env.Buyer.Wallet.Address,
		Parameters:     params,
	}

	var csvWriter *config.CSVWriter
	if path := c.String("output-csv"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return cli.Exit(fmt.Errorf("create csv output %s: %w", path, err), 1)
		}
		defer f.Close()
		csvWriter = config.NewCSVWriter(f)
		defer csvWriter.Flush()
	}

	iterations := c.Int("iterations")
	for i := 0; i < iterations; i++ {
		logger.Info("running iteration", zap.Int("iteration", i+1), zap.Int("of", iterations))
		record, err := simulation.Iteration(c.Context, input)
		if err != nil {
			return cli.Exit(fmt.Errorf("iteration %d: %w", i+1, err), 1)
		}
		if csvWriter != nil {
			if err := csvWriter.WriteRecord(record); err != nil {
				return cli.Exit(err, 1)
			}
		} else {
			fmt.Fprintf(c.App.Writer, "iteration %d: seller real=%.3fs buyer real=%.3fs seller txs=%d buyer txs=%d\n",
				i+1, record.SRealSeconds, record.BRealSeconds, record.STxCount, record.BTxCount)
		}
	}
	return nil
}

// parseParams turns repeated "key=value" flag occurrences into the
// map[string]string every protocols.Context.Parameters expects.
func parseParams(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, &bfeerrors.ConfigurationError{Message: fmt.Sprintf("malformed -p %q, want key=value", pair)}
		}
		out[k] = v
	}
	return out, nil
}
