// Package bfeerrors defines the error taxonomy shared across the
// benchmarking harness: configuration problems, environment/runtime
// failures, protocol setup failures, and the state-channel disagreement
// that drives a strategy into its on-chain dispute path.
package bfeerrors

import (
	"fmt"

	"github.com/Layr-Labs/fairswap-bench/pkg/channel"
)

// ConfigurationError reports a problem in the CLI-level configuration:
// unknown protocol name, malformed protocol parameter, bad bulk-execute
// config.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return "configuration error: " + e.Message }

// EnvironmentsConfigurationError reports a problem loading or parsing the
// environments YAML file (missing file, malformed endpoint/wallet
// entries).
type EnvironmentsConfigurationError struct {
	Message string
	Cause   error
}

func (e *EnvironmentsConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("environments configuration error: %s: %v", e.Message, e.Cause)
	}
	return "environments configuration error: " + e.Message
}
func (e *EnvironmentsConfigurationError) Unwrap() error { return e.Cause }

// EnvironmentRuntimeError reports a failure talking to a configured chain
// endpoint or wallet at run time (RPC unreachable, insufficient balance).
type EnvironmentRuntimeError struct {
	Message string
	Cause   error
}

func (e *EnvironmentRuntimeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("environment runtime error: %s: %v", e.Message, e.Cause)
	}
	return "environment runtime error: " + e.Message
}
func (e *EnvironmentRuntimeError) Unwrap() error { return e.Cause }

// ProtocolInitializationError reports a failure setting up a protocol or
// iteration (bad file-size/slice-count combination, contract deployment
// failure during set-up).
type ProtocolInitializationError struct {
	Message string
	Cause   error
}

func (e *ProtocolInitializationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("protocol initialization error: %s: %v", e.Message, e.Cause)
	}
	return "protocol initialization error: " + e.Message
}
func (e *ProtocolInitializationError) Unwrap() error { return e.Cause }

// ProtocolRuntimeError reports a failure during the exchange itself that
// isn't an on-chain state-channel disagreement (e.g. the one-shot Fairswap
// seller's contract call reverted unexpectedly).
type ProtocolRuntimeError struct {
	Message string
	Cause   error
}

func (e *ProtocolRuntimeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("protocol runtime error: %s: %v", e.Message, e.Cause)
	}
	return "protocol runtime error: " + e.Message
}
func (e *ProtocolRuntimeError) Unwrap() error { return e.Cause }

// TimeoutError reports that a wait exceeded its deadline: a read of the
// counterparty's next message, or chainadapter's Wait for an on-chain
// condition. It carries no message: the caller always knows which wait
// timed out from context.
type TimeoutError struct{}

func (e *TimeoutError) Error() string { return "timed out waiting" }

// ComplainMethod is invoked by a buyer strategy's dispute loop once the
// Adjudicator has entered FORCEEXEC, submitting the on-chain complaint
// that proves the seller cheated. It is nil when the disagreement has no
// on-chain remedy (e.g. a bad key-commitment reveal).
type ComplainMethod func() error

// StateChannelDisagreement is raised whenever a party cannot validate the
// counterparty's proposed channel state, or detects a ciphertext/key
// problem mid-sale. It carries enough state for the dispute loop to
// register the last mutually signed state on-chain, optionally progress to
// a further local state, and optionally submit a complaint.
type StateChannelDisagreement struct {
	Reason           string
	LastCommonState  channel.SignedState
	HasLastLocalState bool
	LastLocalState   channel.State
	Complain         ComplainMethod
}

func (e *StateChannelDisagreement) Error() string {
	return fmt.Sprintf("state channel disagreement: %s", e.Reason)
}
