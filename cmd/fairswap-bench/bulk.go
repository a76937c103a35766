package main

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/Layr-Labs/fairswap-bench/pkg/config"
	"github.com/Layr-Labs/fairswap-bench/pkg/simulation"
)

var bulkExecuteCommand = &cli.Command{
	Name:  "bulk-execute",
	Usage: "sweep every configured protocol across a list of file sizes",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: ".bulk-execute.yaml", Usage: "bulk sweep YAML config"},
		&cli.IntFlag{Name: "target-iterations", Usage: "override the config's iteration count"},
		&cli.StringFlag{Name: "data-filename-template", Usage: "path template for generated test files, %d is replaced with the file size in bytes", Value: filepath.Join(os.TempDir(), "fairswap-bench-data-%d.bin")},
		&cli.Int64Flag{Name: "price", Usage: "override the config's sale price in wei"},
		&cli.StringFlag{Name: "env-file", Aliases: []string{"e"}, Usage: "environments YAML file", Value: ".environments.yaml"},
	},
	Action: bulkExecuteAction,
}

func bulkExecuteAction(c *cli.Context) error {
	logger, err := rootLogger(c)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer logger.Sync()

	cfg, err := config.LoadBulkConfig(c.String("config"))
	if err != nil {
		return cli.Exit(err, 1)
	}
	if n := c.Int("target-iterations"); n > 0 {
		cfg.Iterations = n
	}
	if p := c.Int64("price"); p > 0 {
		cfg.Price = p
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return cli.Exit(fmt.Errorf("create output dir %s: %w", cfg.OutputDir, err), 1)
	}

	env, err := config.LoadEnvironments(c.String("env-file"))
	if err != nil {
		return cli.Exit(err, 1)
	}
	self, err := os.Executable()
	if err != nil {
		return cli.Exit(fmt.Errorf("resolve own executable path: %w", err), 1)
	}
	template := c.String("data-filename-template")

	for _, entry := range cfg.Protocols {
		for _, size := range cfg.FileSizes {
			filePath, err := ensureDataFile(template, size)
			if err != nil {
				return cli.Exit(err, 1)
			}

			logger.Info("sweeping protocol/size combination",
				zap.String("protocol", entry.Protocol), zap.Int64("size", size), zap.Int("iterations", cfg.Iterations))

			input := simulation.IterationInput{
				BinaryPath:     self,
				Protocol:       entry.Protocol,
				SellerStrategy: entry.SellerStrategy,
				BuyerStrategy:  entry.BuyerStrategy,
				FilePath:       filePath,
				PriceWei:       strconv.FormatInt(cfg.Price, 10),
				TimeoutSeconds: 30,
				SellerRPCURL:   env.Seller.Endpoint.URL,
				BuyerRPCURL:    env.Buyer.Endpoint.URL,
				SellerKeyHex:   env.Seller.Wallet.PrivateKey,
				BuyerKeyHex:    env.Buyer.Wallet.PrivateKey,
				SellerAddrHex:  env.Seller.Wallet.Address,
				BuyerAddrHex:   env.Buyer.Wallet.Address,
				Parameters:     entry.Parameters,
			}

			records := make([]config.IterationRecord, 0, cfg.Iterations)
			for i := 0; i < cfg.Iterations; i++ {
				record, err := simulation.Iteration(c.Context, input)
				if err != nil {
					return cli.Exit(fmt.Errorf("%s/%d iteration %d: %w", entry.Protocol, size, i+1, err), 1)
				}
				records = append(records, record)
			}

			if err := writeSweepCSV(cfg.OutputDir, entry.Protocol, size, records); err != nil {
				return cli.Exit(err, 1)
			}

			summary := simulation.Summarize(records)
			fmt.Fprintf(c.App.Writer, "%s size=%d: %d iterations, mean real=%.3fs stdev=%.3fs\n",
				entry.Protocol, size, summary.Count, summary.MeanReal, summary.StdevReal)
		}
	}
	return nil
}

// ensureDataFile fills path (size bytes of random content) if it doesn't
// already exist, matching original_source/bfebench's generated fixture
// data convention of reusing one file per size across a sweep.
func ensureDataFile(template string, size int64) (string, error) {
	path := fmt.Sprintf(template, size)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	data := make([]byte, size)
	if _, err := rand.Read(data); err != nil {
		return "", fmt.Errorf("generate %d bytes of test data: %w", size, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write test data %s: %w", path, err)
	}
	return path, nil
}

func writeSweepCSV(outputDir, protocol string, size int64, records []config.IterationRecord) error {
	name := fmt.Sprintf("%s-%d-%s.csv", protocol, size, time.Now().UTC().Format("20060102-150405"))
	f, err := os.Create(filepath.Join(outputDir, name))
	if err != nil {
		return fmt.Errorf("create sweep csv: %w", err)
	}
	defer f.Close()

	w := config.NewCSVWriter(f)
	for _, r := range records {
		if err := w.WriteRecord(r); err != nil {
			return err
		}
	}
	return w.Flush()
}
