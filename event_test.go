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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEPB(t *testing.T) {
	epb := buildEPB([]string{"ev"}, map[string]int{"ev": 7})
	assert.Equal(t, []byte{epbVersion1, 2, 'e', 'v', 7, 0, 0, 0}, epb)
}

func TestParseEPB(t *testing.T) {
	epb := buildEPB([]string{"alpha", "beta"}, map[string]int{"alpha": 3, "beta": 260})
	counts := parseEPB(epb)
	assert.Equal(t, map[string]int{"alpha": 3, "beta": 260}, counts)

	// truncated blocks stop cleanly
	assert.Empty(t, parseEPB(nil))
	assert.Empty(t, parseEPB([]byte{epbVersion1, 5, 'a'}))
}

func TestEventCollectorInvalidName(t *testing.T) {
	att := newFakeAttachment()
	_, err := newEventCollector(att, []string{""})
	require.Error(t, err)
	assert.IsType(t, &InterfaceError{}, err)
	assert.Contains(t, err.Error(), "invalid event name")

	_, err = newEventCollector(att, []string{strings.Repeat("x", maxEventNameLength+1)})
	require.Error(t, err)
}

func TestEventCollectorBlockSplit(t *testing.T) {
	att := newFakeAttachment()
	names := make([]string, maxEventsPerBlock+5)
	for i := range names {
		names[i] = "ev" + string(rune('a'+i%26)) + string(rune('a'+i/26))
	}
	c, err := newEventCollector(att, names)
	require.NoError(t, err)
	require.Len(t, c.blocks, 2)
	assert.Len(t, c.blocks[0].names, maxEventsPerBlock)
	assert.Len(t, c.blocks[1].names, 5)
}

func TestEventCollectorWaitBeforeBegin(t *testing.T) {
	att := newFakeAttachment()
	c, err := newEventCollector(att, []string{"ev"})
	require.NoError(t, err)
	_, err = c.Wait(time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event collection not initialized (Begin not called)")
}

func TestEventCollectorAccumulates(t *testing.T) {
	att := newFakeAttachment()
	c, err := newEventCollector(att, []string{"ins", "del"})
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Begin())

	// the initial delivery only establishes the baseline
	att.deliver(map[string]int{"ins": 3, "del": 1})
	counts, err := c.Wait(20 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"ins": 0, "del": 0}, counts)

	att.deliver(map[string]int{"ins": 5, "del": 1})
	counts, err = c.Wait(5 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"ins": 2, "del": 0}, counts)
}

func TestEventCollectorFlush(t *testing.T) {
	att := newFakeAttachment()
	c, err := newEventCollector(att, []string{"ev"})
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Begin())

	att.deliver(map[string]int{"ev": 0})
	att.deliver(map[string]int{"ev": 4})
	counts, err := c.Wait(5 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, 4, counts["ev"])

	c.Flush()
	counts, err = c.Wait(20 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 0, counts["ev"])

	// counting continues against the last delivered baseline
	att.deliver(map[string]int{"ev": 7})
	counts, err = c.Wait(5 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3, counts["ev"])
}

func TestEventCollectorClose(t *testing.T) {
	att := newFakeAttachment()
	c, err := newEventCollector(att, []string{"ev"})
	require.NoError(t, err)

	var closedWith *EventCollector
	c.onClose = func(ec *EventCollector) { closedWith = ec }

	require.NoError(t, c.Begin())
	require.NoError(t, c.Close())
	assert.True(t, c.Closed())
	assert.Same(t, c, closedWith)

	// the standing event request was canceled
	require.NotEmpty(t, att.eventObjs)
	assert.True(t, att.eventObjs[len(att.eventObjs)-1].canceled)

	// idempotent
	require.NoError(t, c.Close())

	_, err = c.Wait(time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}

func TestEventCollectorRegisterFailure(t *testing.T) {
	att := newFakeAttachment()
	c, err := newEventCollector(att, []string{"ev"})
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Begin())

	// the baseline delivery triggers a re-registration, which now fails
	att.queEventsErr = &DatabaseError{Message: "connection shutdown", SQLState: "08006"}
	att.deliver(map[string]int{"ev": 2})

	_, err = c.Wait(5 * time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection shutdown")
}

func TestEventCollectorBeginTwice(t *testing.T) {
	att := newFakeAttachment()
	c, err := newEventCollector(att, []string{"ev"})
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Begin())
	require.NoError(t, c.Begin())
}
