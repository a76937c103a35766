package p2pstream

import (
	"io"
	"sync"
	"sync/atomic"
)

// Stats accumulates the byte and object counts the CSV output reports for
// one direction of a forwarder.
type Stats struct {
	Bytes   int64
	Objects int64
}

// Forwarder relays length-prefixed frames between two connections, one
// goroutine per direction, counting bytes and objects moved each way. It
// mirrors original_source/bfebench's JsonObjectSocketStreamForwarder: the
// parent process never interprets the messages it relays between the
// seller and buyer party processes, it only measures them.
type Forwarder struct {
	left, right *Stream

	leftToRight Stats
	rightToLeft Stats

	wg   sync.WaitGroup
	errs chan error
}

// NewForwarder returns a Forwarder relaying frames between left and right.
func NewForwarder(left, right *Stream) *Forwarder {
	return &Forwarder{left: left, right: right, errs: make(chan error, 2)}
}

// Run starts both relay goroutines and blocks until both sides hit EOF or
// an error, returning the first error encountered (if any).
func (f *Forwarder) Run() error {
	f.wg.Add(2)
	go f.relay(f.left, f.right, &f.leftToRight)
	go f.relay(f.right, f.left, &f.rightToLeft)
	f.wg.Wait()
	close(f.errs)
	for err := range f.errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (f *Forwarder) relay(from, to *Stream, stats *Stats) {
	defer f.wg.Done()
	for {
		frame, err := from.ReadRaw()
		if err != nil {
			if err != io.EOF {
				f.errs <- err
			}
			return
		}
		if err := to.WriteRaw(frame); err != nil {
			f.errs <- err
			return
		}
		atomic.AddInt64(&stats.Bytes, int64(len(frame)))
		atomic.AddInt64(&stats.Objects, 1)
	}
}

// LeftToRight returns a snapshot of the bytes/objects relayed from left to
// right so far (seller-to-buyer, by the simulation's socket wiring
// convention).
func (f *Forwarder) LeftToRight() Stats {
	return Stats{
		Bytes:   atomic.LoadInt64(&f.leftToRight.Bytes),
		Objects: atomic.LoadInt64(&f.leftToRight.Objects),
	}
}

// RightToLeft returns a snapshot of the bytes/objects relayed from right
// to left so far.
func (f *Forwarder) RightToLeft() Stats {
	return Stats{
		Bytes:   atomic.LoadInt64(&f.rightToLeft.Bytes),
		Objects: atomic.LoadInt64(&f.rightToLeft.Objects),
	}
}
