/*******************************************************************************
The MIT License (MIT)

Copyright (c) 2019-2024 The fbclient-go Authors

Permission is hereby granted, free of charge, to any person obtaining a copy of
this software and associated documentation files (the "Software"), to deal in
the Software without restriction, including without limitation the rights to
use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
the Software, and to permit persons to whom the Software is furnished to do so,
subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*******************************************************************************/

package fbclient

import (
	"sync"
	"time"
)

// buildEPB encodes an event parameter block: a version byte followed by one
// (length, name, 4 byte count) entry per event. The counts are the baseline
// the engine compares against when deciding whether to notify.
func buildEPB(names []string, counts map[string]int) []byte {
	buf := []byte{epbVersion1}
	for _, name := range names {
		buf = append(buf, byte(len(name)))
		buf = append(buf, name...)
		buf = append(buf, int32ToBytes(int32(counts[name]))...)
	}
	return buf
}

// parseEPB decodes the counts out of an event parameter block, as delivered
// back by the engine.
func parseEPB(buf []byte) map[string]int {
	counts := make(map[string]int)
	if len(buf) < 1 {
		return counts
	}
	pos := 1
	for pos < len(buf) {
		n := int(buf[pos])
		pos++
		if pos+n+4 > len(buf) {
			break
		}
		name := string(buf[pos : pos+n])
		pos += n
		counts[name] = int(bytesToInt32(buf[pos:]))
		pos += 4
	}
	return counts
}

// eventNotification carries one engine notification from the native callback
// thread to the collector's dispatch goroutine.
type eventNotification struct {
	block  *eventBlock
	result []byte
}

// eventBlock is one registration of up to maxEventsPerBlock event names.
// The engine delivers the first notification immediately to establish the
// baseline counts; that delivery reports no events.
type eventBlock struct {
	names    []string
	baseline map[string]int
	events   eventsIntf
	first    bool
}

// register issues the event request. Runs on the dispatch goroutine (and
// once during Begin).
func (b *eventBlock) register(c *EventCollector) error {
	epb := buildEPB(b.names, b.baseline)
	events, err := c.att.queEvents(func(result []byte) {
		data := make([]byte, len(result))
		copy(data, result)
		select {
		case c.queue <- eventNotification{block: b, result: data}:
		case <-c.done:
		}
	}, epb)
	if err != nil {
		return err
	}
	if b.events != nil {
		b.events.release()
	}
	b.events = events
	return nil
}

// handle processes one notification and returns the per-event deltas, nil
// for the baseline delivery.
func (b *eventBlock) handle(result []byte) map[string]int {
	counts := parseEPB(result)
	if b.first {
		b.first = false
		b.baseline = counts
		return nil
	}
	deltas := make(map[string]int)
	for _, name := range b.names {
		if d := counts[name] - b.baseline[name]; d > 0 {
			deltas[name] = d
		}
	}
	b.baseline = counts
	return deltas
}

func (b *eventBlock) close() {
	if b.events != nil {
		b.events.cancel()
		b.events = nil
	}
}

// EventCollector accumulates database event notifications. Notifications
// start accumulating when Begin is called and keep accumulating in the
// background until the collector is closed.
type EventCollector struct {
	att    attachmentIntf
	names  []string
	blocks []*eventBlock

	queue chan eventNotification
	done  chan struct{}
	wg    sync.WaitGroup

	mu      sync.Mutex
	events  map[string]int
	ready   chan struct{}
	signal  bool
	started bool
	closed  bool
	err     error

	onClose func(*EventCollector)
}

func newEventCollector(att attachmentIntf, names []string) (*EventCollector, error) {
	for _, name := range names {
		if name == "" || len(name) > maxEventNameLength {
			return nil, newInterfaceError("invalid event name %q", name)
		}
	}
	c := &EventCollector{
		att:    att,
		names:  append([]string(nil), names...),
		queue:  make(chan eventNotification, 64),
		done:   make(chan struct{}),
		events: make(map[string]int),
		ready:  make(chan struct{}),
	}
	for _, name := range c.names {
		c.events[name] = 0
	}
	for start := 0; start < len(c.names); start += maxEventsPerBlock {
		end := start + maxEventsPerBlock
		if end > len(c.names) {
			end = len(c.names)
		}
		block := &eventBlock{
			names:    c.names[start:end],
			baseline: make(map[string]int),
			first:    true,
		}
		c.blocks = append(c.blocks, block)
	}
	return c, nil
}

// Begin starts listening. Event notifications are not accumulated before.
func (c *EventCollector) Begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return newInterfaceError("event collector is closed")
	}
	if c.started {
		return nil
	}
	c.wg.Add(1)
	go c.dispatch()
	for _, block := range c.blocks {
		if err := block.register(c); err != nil {
			close(c.done)
			c.wg.Wait()
			return err
		}
	}
	c.started = true
	return nil
}

// dispatch serializes notification processing: it applies count deltas and
// re-registers each block for further notifications. A failed re-registration
// stops delivery for that block; the error is recorded and wakes any waiters.
func (c *EventCollector) dispatch() {
	defer c.wg.Done()
	for {
		select {
		case <-c.done:
			return
		case n := <-c.queue:
			deltas := n.block.handle(n.result)
			if len(deltas) > 0 {
				c.mu.Lock()
				for name, d := range deltas {
					c.events[name] += d
				}
				if !c.signal {
					c.signal = true
					close(c.ready)
				}
				c.mu.Unlock()
			}
			if err := n.block.register(c); err != nil {
				c.mu.Lock()
				if c.err == nil {
					c.err = err
				}
				if !c.signal {
					c.signal = true
					close(c.ready)
				}
				c.mu.Unlock()
			}
		}
	}
}

// Wait blocks until at least one event occurs or the timeout expires, then
// returns a snapshot of the accumulated counts. A timeout of zero or less
// waits forever. If a standing event request could not be renewed, Wait
// reports that error instead.
func (c *EventCollector) Wait(timeout time.Duration) (map[string]int, error) {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil, newInterfaceError("event collection not initialized (Begin not called)")
	}
	if c.closed {
		c.mu.Unlock()
		return nil, newInterfaceError("event collector is closed")
	}
	ready := c.ready
	c.mu.Unlock()

	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-ready:
		case <-timer.C:
		case <-c.done:
		}
	} else {
		select {
		case <-ready:
		case <-c.done:
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	snapshot := make(map[string]int, len(c.events))
	for name, count := range c.events {
		snapshot[name] = count
	}
	return snapshot, nil
}

// Flush discards accumulated notifications and resets the counts to zero.
func (c *EventCollector) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	for name := range c.events {
		c.events[name] = 0
	}
	if c.signal {
		c.signal = false
		c.ready = make(chan struct{})
	}
}

// Closed reports whether the collector has been closed.
func (c *EventCollector) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close cancels the standing event requests. The collector must not be used
// afterwards. Close is idempotent.
func (c *EventCollector) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	started := c.started
	c.mu.Unlock()

	if started {
		close(c.done)
		c.wg.Wait()
	}
	for _, block := range c.blocks {
		block.close()
	}
	if c.onClose != nil {
		c.onClose(c)
	}
	return nil
}
