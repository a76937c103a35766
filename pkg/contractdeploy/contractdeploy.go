// Package contractdeploy is the thin layer between a chainadapter.Adapter
// and the typed internal/bindings handles: it turns pre-compiled
// ABI+bytecode artifacts into deployed, ready-to-call contracts. Solidity
// compilation itself stays out of scope here; callers supply
// bytecode the way original_source/bfebench's
// SolidityContractSourceCodeManager would hand it to ContractDeployer.
package contractdeploy

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Layr-Labs/fairswap-bench/internal/bindings"
	"github.com/Layr-Labs/fairswap-bench/pkg/bfeerrors"
	"github.com/Layr-Labs/fairswap-bench/pkg/chainadapter"
)

// deployWaitTimeout bounds how long awaitDeployment polls for a deployment
// receipt; deployments that take longer indicate an unreachable chain, not
// a condition worth waiting out indefinitely.
const deployWaitTimeout = 2 * time.Minute

func deadlineFarFuture() time.Time {
	return time.Now().Add(deployWaitTimeout)
}

// Deployer deploys contracts using one party's chain adapter (and
// therefore its key, nonce stream and gas accounting).
type Deployer struct {
	adapter *chainadapter.Adapter
}

// New returns a Deployer submitting deployments through adapter.
func New(adapter *chainadapter.Adapter) *Deployer {
	return &Deployer{adapter: adapter}
}

// Fairswap deploys a one-shot Fairswap contract with price passed as a
// constructor argument; the deployment transaction carries no value.
func (d *Deployer) Fairswap(ctx context.Context, bytecode []byte, receiver common.Address, price *big.Int, keyCommit, ciphertextRoot, fileRoot [32]byte, timeout *big.Int) (*bindings.Fairswap, error) {
	opts, err := d.adapter.TransactOpts(ctx, nil)
	if err != nil {
		return nil, err
	}
	_, tx, contract, err := bindings.DeployFairswap(opts, d.adapter.Client(), bytecode, receiver, price, keyCommit, ciphertextRoot, fileRoot, timeout)
	if err != nil {
		return nil, &bfeerrors.EnvironmentRuntimeError{Message: "deploy fairswap", Cause: err}
	}
	if err := d.awaitDeployment(ctx, tx); err != nil {
		return nil, err
	}
	return contract, nil
}

// FairswapReusable deploys the session-multiplexed Fairswap variant.
func (d *Deployer) FairswapReusable(ctx context.Context, bytecode []byte) (*bindings.FairswapReusable, error) {
	opts, err := d.adapter.TransactOpts(ctx, nil)
	if err != nil {
		return nil, err
	}
	_, tx, contract, err := bindings.DeployFairswapReusable(opts, d.adapter.Client(), bytecode)
	if err != nil {
		return nil, &bfeerrors.EnvironmentRuntimeError{Message: "deploy fairswap reusable", Cause: err}
	}
	if err := d.awaitDeployment(ctx, tx); err != nil {
		return nil, err
	}
	return contract, nil
}

// Adjudicator deploys the state-channel dispute contract.
func (d *Deployer) Adjudicator(ctx context.Context, bytecode []byte) (*bindings.Adjudicator, error) {
	opts, err := d.adapter.TransactOpts(ctx, nil)
	if err != nil {
		return nil, err
	}
	_, tx, contract, err := bindings.DeployAdjudicator(opts, d.adapter.Client(), bytecode)
	if err != nil {
		return nil, &bfeerrors.EnvironmentRuntimeError{Message: "deploy adjudicator", Cause: err}
	}
	if err := d.awaitDeployment(ctx, tx); err != nil {
		return nil, err
	}
	return contract, nil
}

// AssetHolderETH deploys the ETH-backed funding/withdrawal ledger.
func (d *Deployer) AssetHolderETH(ctx context.Context, bytecode []byte) (*bindings.AssetHolderETH, error) {
	opts, err := d.adapter.TransactOpts(ctx, nil)
	if err != nil {
		return nil, err
	}
	_, tx, contract, err := bindings.DeployAssetHolderETH(opts, d.adapter.Client(), bytecode)
	if err != nil {
		return nil, &bfeerrors.EnvironmentRuntimeError{Message: "deploy asset holder", Cause: err}
	}
	if err := d.awaitDeployment(ctx, tx); err != nil {
		return nil, err
	}
	return contract, nil
}

// FileSaleApp deploys the app-logic contract the Adjudicator delegates
// validTransition checks to.
func (d *Deployer) FileSaleApp(ctx context.Context, bytecode []byte) (*bindings.FileSaleApp, error) {
	opts, err := d.adapter.TransactOpts(ctx, nil)
	if err != nil {
		return nil, err
	}
	_, tx, contract, err := bindings.DeployFileSaleApp(opts, d.adapter.Client(), bytecode)
	if err != nil {
		return nil, &bfeerrors.EnvironmentRuntimeError{Message: "deploy file sale app", Cause: err}
	}
	if err := d.awaitDeployment(ctx, tx); err != nil {
		return nil, err
	}
	return contract, nil
}

func (d *Deployer) awaitDeployment(ctx context.Context, tx interface{ Hash() common.Hash }) error {
	_, err := d.adapter.Wait(ctx, deadlineFarFuture(), func(ctx context.Context) (bool, error) {
		receipt, err := d.adapter.Client().TransactionReceipt(ctx, tx.Hash())
		if err != nil {
			return false, nil
		}
		return receipt != nil, nil
	})
	if err != nil {
		return &bfeerrors.EnvironmentRuntimeError{Message: "await deployment receipt", Cause: err}
	}
	return nil
}
