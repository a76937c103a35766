// Package party isolates each side of a simulated trade (seller, buyer) in
// its own OS process, the way original_source/bfebench's strategy_process.py
// forks a child per party. Go has no fork(); this package re-execs the
// harness binary in a hidden "internal-party-run" role instead, handing it
// a JSON task file and a UNIX socket to talk to its counterparty over, and
// reads back a JSON result file once the child exits.
package party

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Layr-Labs/fairswap-bench/pkg/bfeerrors"
)

// Role identifies which side of a trade a party process plays.
type Role string

const (
	RoleSeller Role = "seller"
	RoleBuyer  Role = "buyer"
)

// Task is everything a party subprocess needs to run one iteration,
// serialized to a JSON file and passed by path on the command line.
type Task struct {
	Role            Role              `json:"role"`
	Protocol        string            `json:"protocol"`
	Strategy        string            `json:"strategy"`
	SocketPath      string            `json:"socket_path"`
	RPCURL          string            `json:"rpc_url"`
	PrivateKeyHex   string            `json:"private_key_hex"`
	CounterpartyHex string            `json:"counterparty_hex"`
	FilePath        string            `json:"file_path"`
	PriceWei        string            `json:"price_wei"`
	TimeoutSeconds  int64             `json:"timeout_seconds"`
	Parameters      map[string]string `json:"parameters"`
	ResultPath      string            `json:"result_path"`
}

// ResourceUsage is the per-party accounting the CSV output reports,
// mirroring original_source/bfebench's ResourceUsage field set.
type ResourceUsage struct {
	RealSeconds   float64 `json:"real_seconds"`
	UserSeconds   float64 `json:"user_seconds"`
	SysSeconds    float64 `json:"sys_seconds"`
	TxCount       int     `json:"tx_count"`
	TxFeesGas     uint64  `json:"tx_fees_gas"`
	BalanceDiffEth float64 `json:"balance_diff_eth"`
}

// Result is what a party subprocess writes to its ResultPath on exit.
type Result struct {
	Usage ResourceUsage `json:"usage"`
	Err   string        `json:"error,omitempty"`
}

// Handle represents one spawned, running (or finished) party process.
type Handle struct {
	role   Role
	cmd    *exec.Cmd
	task   Task
	start  time.Time
}

// Spawn re-execs the current binary (binaryPath, typically os.Args[0]) in
// the "internal-party-run" role with task written to a fresh temp file,
// and returns a Handle. The child dials task.SocketPath, on which the
// parent is already listening.
func Spawn(ctx context.Context, binaryPath string, task Task) (*Handle, error) {
	taskFile, err := writeJSONTempFile("party-task-*.json", task)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, binaryPath, "internal-party-run", "-task", taskFile)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, &bfeerrors.EnvironmentRuntimeError{Message: fmt.Sprintf("spawn %s party", task.Role), Cause: err}
	}

	return &Handle{role: task.Role, cmd: cmd, task: task, start: time.Now()}, nil
}

// Wait blocks until the party process exits and returns its result,
// reading the result file it was told to write to and combining the
// child's own chain-accounting fields with the wall-clock and
// getrusage-derived CPU time this parent observed for that one child.
func (h *Handle) Wait() (Result, error) {
	err := h.cmd.Wait()
	wallClock := time.Since(h.start).Seconds()

	var result Result
	if data, readErr := os.ReadFile(h.task.ResultPath); readErr == nil {
		_ = json.Unmarshal(data, &result)
	}
	result.Usage.RealSeconds = wallClock

	if state := h.cmd.ProcessState; state != nil {
		if rusage, ok := state.SysUsage().(*syscall.Rusage); ok {
			result.Usage.UserSeconds = durationFromTimeval(rusage.Utime)
			result.Usage.SysSeconds = durationFromTimeval(rusage.Stime)
		}
	}

	if err != nil && result.Err == "" {
		result.Err = err.Error()
		return result, &bfeerrors.ProtocolRuntimeError{Message: fmt.Sprintf("%s party process", h.role), Cause: err}
	}
	if result.Err != "" {
		return result, &bfeerrors.ProtocolRuntimeError{Message: fmt.Sprintf("%s party reported error: %s", h.role, result.Err)}
	}
	return result, nil
}

// WriteResult is called by the child process itself, at the end of its
// run, to report back its chain-accounting fields (real/user/sys time are
// filled in by the parent in Wait, since only the parent can getrusage a
// child).
func WriteResult(resultPath string, usage ResourceUsage, runErr error) error {
	result := Result{Usage: usage}
	if runErr != nil {
		result.Err = runErr.Error()
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("party: marshal result: %w", err)
	}
	return os.WriteFile(resultPath, data, 0o600)
}

// NewSocketPair returns two UNIX socket paths under dir, one for the
// seller process and one for the buyer. It creates nothing itself: the
// parent listens on both paths and relays traffic between the two parties
// through a forwarder (see pkg/simulation).
func NewSocketPair(dir string) (leftPath, rightPath string, err error) {
	return filepath.Join(dir, "seller.sock"), filepath.Join(dir, "buyer.sock"), nil
}

// ListenUnix starts listening on a fresh UNIX socket at path.
func ListenUnix(path string) (net.Listener, error) {
	_ = os.Remove(path)
	l, err := net.Listen("unix", path)
	if err != nil {
		return nil, &bfeerrors.EnvironmentRuntimeError{Message: "listen on " + path, Cause: err}
	}
	return l, nil
}

func writeJSONTempFile(pattern string, v any) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("party: create temp file: %w", err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("party: write task: %w", err)
	}
	return f.Name(), nil
}

func durationFromTimeval(tv syscall.Timeval) float64 {
	return float64(tv.Sec) + float64(tv.Usec)/1e6
}
