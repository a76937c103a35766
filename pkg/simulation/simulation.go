// Package simulation drives one or many iterations of a fair-exchange
// trade between a seller and a buyer party process, tapping a
// p2pstream.Forwarder onto their socket so it can report transport
// byte/object counts without interpreting the protocol itself, and
// aggregating the resulting per-iteration records (mean/stdev) the way
// original_source/bfebench's simulation.py does across a benchmark run.
package simulation

import (
	"context"
	"math"
	"os"
	"time"

	"github.com/Layr-Labs/fairswap-bench/pkg/bfeerrors"
	"github.com/Layr-Labs/fairswap-bench/pkg/config"
	"github.com/Layr-Labs/fairswap-bench/pkg/p2pstream"
	"github.com/Layr-Labs/fairswap-bench/pkg/party"
)

// IterationInput is everything Iteration needs to run a single trade
// between a freshly spawned seller and buyer process.
type IterationInput struct {
	BinaryPath    string
	Protocol      string
	SellerStrategy string
	BuyerStrategy  string
	FilePath      string
	PriceWei      string
	TimeoutSeconds int64
	SellerRPCURL  string
	BuyerRPCURL   string
	SellerKeyHex  string
	BuyerKeyHex   string
	SellerAddrHex string
	BuyerAddrHex  string
	Parameters    map[string]string
}

// Iteration spawns one seller and one buyer process connected through a
// forwarded UNIX socket pair, waits for both to finish, and returns the
// CSV row for that trade.
func Iteration(ctx context.Context, in IterationInput) (config.IterationRecord, error) {
	start := time.Now()

	dir, err := os.MkdirTemp("", "fairswap-bench-iter-*")
	if err != nil {
		return config.IterationRecord{}, &bfeerrors.EnvironmentRuntimeError{Message: "create iteration tempdir", Cause: err}
	}
	defer os.RemoveAll(dir)

	sellerSocket, buyerSocket, _ := party.NewSocketPair(dir)

	sellerListener, err := party.ListenUnix(sellerSocket)
	if err != nil {
		return config.IterationRecord{}, err
	}
	defer sellerListener.Close()
	buyerListener, err := party.ListenUnix(buyerSocket)
	if err != nil {
		return config.IterationRecord{}, err
	}
	defer buyerListener.Close()

	forwarderDone := make(chan *p2pstream.Forwarder, 1)
	go func() {
		sellerConn, err := sellerListener.Accept()
		if err != nil {
			forwarderDone <- nil
			return
		}
		buyerConn, err := buyerListener.Accept()
		if err != nil {
			forwarderDone <- nil
			return
		}
		fwd := p2pstream.NewForwarder(p2pstream.NewStream(sellerConn), p2pstream.NewStream(buyerConn))
		fwd.Run()
		forwarderDone <- fwd
	}()

	sellerResultPath := dir + "/seller-result.json"
	buyerResultPath := dir + "/buyer-result.json"

	sellerTask := party.Task{
		Role: party.RoleSeller, Protocol: in.Protocol, Strategy: in.SellerStrategy,
		SocketPath: sellerSocket, RPCURL: in.SellerRPCURL, PrivateKeyHex: in.SellerKeyHex,
		CounterpartyHex: in.BuyerAddrHex, FilePath: in.FilePath, PriceWei: in.PriceWei,
		TimeoutSeconds: in.TimeoutSeconds, Parameters: in.Parameters, ResultPath: sellerResultPath,
	}
	buyerTask := party.Task{
		Role: party.RoleBuyer, Protocol: in.Protocol, Strategy: in.BuyerStrategy,
		SocketPath: buyerSocket, RPCURL: in.BuyerRPCURL, PrivateKeyHex: in.BuyerKeyHex,
		CounterpartyHex: in.SellerAddrHex, FilePath: in.FilePath, PriceWei: in.PriceWei,
		TimeoutSeconds: in.TimeoutSeconds, Parameters: in.Parameters, ResultPath: buyerResultPath,
	}

	sellerHandle, err := party.Spawn(ctx, in.BinaryPath, sellerTask)
	if err != nil {
		return config.IterationRecord{}, err
	}
	buyerHandle, err := party.Spawn(ctx, in.BinaryPath, buyerTask)
	if err != nil {
		return config.IterationRecord{}, err
	}

	sellerResult, sellerErr := sellerHandle.Wait()
	buyerResult, buyerErr := buyerHandle.Wait()
	if sellerErr != nil {
		return config.IterationRecord{}, sellerErr
	}
	if buyerErr != nil {
		return config.IterationRecord{}, buyerErr
	}

	// Both parties have exited, so their ends of the forwarded socket pair
	// are closed and the relay goroutines have hit EOF by now.
	var sellerToBuyer, buyerToSeller p2pstream.Stats
	if fwd := <-forwarderDone; fwd != nil {
		sellerToBuyer = fwd.LeftToRight()
		buyerToSeller = fwd.RightToLeft()
	}

	record := config.IterationRecord{
		Start:                start,
		SRealSeconds:         sellerResult.Usage.RealSeconds,
		BRealSeconds:         buyerResult.Usage.RealSeconds,
		SUserSeconds:         sellerResult.Usage.UserSeconds,
		BUserSeconds:         buyerResult.Usage.UserSeconds,
		SSysSeconds:          sellerResult.Usage.SysSeconds,
		BSysSeconds:          buyerResult.Usage.SysSeconds,
		SellerToBuyerBytes:   sellerToBuyer.Bytes,
		BuyerToSellerBytes:   buyerToSeller.Bytes,
		SellerToBuyerObjects: sellerToBuyer.Objects,
		BuyerToSellerObjects: buyerToSeller.Objects,
		STxCount:             sellerResult.Usage.TxCount,
		BTxCount:             buyerResult.Usage.TxCount,
		STxFeesGas:           int64(sellerResult.Usage.TxFeesGas),
		BTxFeesGas:           int64(buyerResult.Usage.TxFeesGas),
		SFundsDiffEth:        sellerResult.Usage.BalanceDiffEth,
		BFundsDiffEth:        buyerResult.Usage.BalanceDiffEth,
	}
	return record, nil
}

// Summary holds the iteration count and the mean and sample standard
// deviation of wall-clock time (S real + B real) across a batch of
// iterations, for the bulk-execute sweep report. No other field is
// summarized.
type Summary struct {
	Count    int
	MeanReal float64
	StdevReal float64
}

// Summarize computes the across-iteration mean and sample stdev of wall
// clock time (S real + B real), the headline figure the bulk sweep report
// leads with.
func Summarize(records []config.IterationRecord) Summary {
	n := len(records)
	if n == 0 {
		return Summary{}
	}
	totals := make([]float64, n)
	for i, r := range records {
		totals[i] = r.SRealSeconds + r.BRealSeconds
	}
	mean := 0.0
	for _, t := range totals {
		mean += t
	}
	mean /= float64(n)

	variance := 0.0
	if n > 1 {
		for _, t := range totals {
			d := t - mean
			variance += d * d
		}
		variance /= float64(n - 1)
	}
	return Summary{Count: n, MeanReal: mean, StdevReal: math.Sqrt(variance)}
}
