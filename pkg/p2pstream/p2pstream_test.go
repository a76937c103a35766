package p2pstream

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func pipeStreams(t *testing.T) (*Stream, *Stream) {
	t.Helper()
	a, b := net.Pipe()
	return NewStream(a), NewStream(b)
}

type testMessage struct {
	Action string `json:"action"`
	Value  int    `json:"value"`
}

func TestWriteReadObjectRoundTrip(t *testing.T) {
	left, right := pipeStreams(t)
	defer left.Close()
	defer right.Close()

	done := make(chan error, 1)
	go func() {
		_, err := left.WriteObject(testMessage{Action: "open", Value: 42})
		done <- err
	}()

	var got testMessage
	_, err := right.ReadObject(&got)
	require.NoError(t, err)
	require.NoError(t, <-done)
	require.Equal(t, testMessage{Action: "open", Value: 42}, got)
}

func TestReadObjectRejectsOversizedFrame(t *testing.T) {
	left, right := pipeStreams(t)
	defer left.Close()
	defer right.Close()

	go func() {
		header := []byte{0xFF, 0xFF, 0xFF, 0xFF}
		left.conn.Write(header)
	}()

	var got testMessage
	_, err := right.ReadObject(&got)
	require.Error(t, err)
}

func TestForwarderCountsBytesAndObjects(t *testing.T) {
	leftOuter, leftInner := pipeStreams(t)
	rightInner, rightOuter := pipeStreams(t)
	defer leftOuter.Close()
	defer rightOuter.Close()

	fwd := NewForwarder(leftInner, rightInner)
	go fwd.Run()

	go func() {
		leftOuter.WriteObject(testMessage{Action: "ping", Value: 1})
	}()

	var got testMessage
	_, err := rightOuter.ReadObject(&got)
	require.NoError(t, err)
	require.Equal(t, "ping", got.Action)

	require.Eventually(t, func() bool {
		return fwd.LeftToRight().Objects == 1 && fwd.LeftToRight().Bytes > 0
	}, time.Second, 10*time.Millisecond)
}
