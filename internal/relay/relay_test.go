// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package relay

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/rocket_groundstation/internal/telemetry"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func newFakeToken() *fakeToken { return &fakeToken{done: make(chan struct{})} }

func (t *fakeToken) WaitTimeout(time.Duration) bool { return t.isDone() }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

func (t *fakeToken) Wait() bool {
	<-t.done
	return true
}

func (t *fakeToken) complete(err error) {
	t.err = err
	close(t.done)
}

func (t *fakeToken) isDone() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

type published struct {
	topic   string
	payload []byte
}

type fakeClient struct {
	msgs         []published
	tokens       []*fakeToken
	disconnected bool
}

func (c *fakeClient) Publish(topic string, _ byte, _ bool, payload interface{}) mqtt.Token {
	c.msgs = append(c.msgs, published{topic: topic, payload: payload.([]byte)})
	tok := newFakeToken()
	c.tokens = append(c.tokens, tok)
	return tok
}

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func TestPublisher_Topics(t *testing.T) {
	c := &fakeClient{}
	p := newPublisher(c, "")

	p.Publish(telemetry.Sample{Time: 1.5, Roll: 10, Velocity: telemetry.Some(3.0)})
	p.Publish(telemetry.Status{Time: 2, Text: "ARMED"})
	p.Publish(telemetry.Error{Time: 3, Text: "bmp timeout"})

	require.Len(t, c.msgs, 3)
	assert.Equal(t, DefaultTopic, c.msgs[0].topic)
	assert.Equal(t, DefaultTopic+"/status", c.msgs[1].topic)
	assert.Equal(t, DefaultTopic+"/error", c.msgs[2].topic)

	var got map[string]any
	require.NoError(t, json.Unmarshal(c.msgs[0].payload, &got))
	assert.Equal(t, 1.5, got["time"])
	assert.Equal(t, 3.0, got["velocity"])
	assert.NotContains(t, got, "bno_status")

	assert.JSONEq(t, `{"time":2,"status":"ARMED"}`, string(c.msgs[1].payload))
}

func TestPublisher_SkipsWhileInFlight(t *testing.T) {
	c := &fakeClient{}
	p := newPublisher(c, "t")

	p.Publish(telemetry.Sample{Time: 1})
	p.Publish(telemetry.Sample{Time: 2})
	require.Len(t, c.msgs, 1)

	c.tokens[0].complete(errors.New("broker gone"))
	p.Publish(telemetry.Sample{Time: 3})
	require.Len(t, c.msgs, 2)

	sent, skipped := p.Counts()
	assert.Equal(t, uint64(2), sent)
	assert.Equal(t, uint64(1), skipped)
}

func TestPublisher_StatusAndErrorNeverSkipped(t *testing.T) {
	c := &fakeClient{}
	p := newPublisher(c, "t")

	p.Publish(telemetry.Sample{Time: 1})
	p.Publish(telemetry.Error{Time: 1, Text: "bmp timeout"})
	p.Publish(telemetry.Error{Time: 2, Text: "adxl timeout"})
	p.Publish(telemetry.Status{Time: 2, Text: "ARMED"})
	p.Publish(telemetry.Status{Time: 3, Text: "DEPLOYED"})
	p.Publish(telemetry.Sample{Time: 3})

	require.Len(t, c.msgs, 5, "only the second sample waits on the first")
	assert.Equal(t, []string{"t", "t/error", "t/error", "t/status", "t/status"},
		[]string{c.msgs[0].topic, c.msgs[1].topic, c.msgs[2].topic, c.msgs[3].topic, c.msgs[4].topic})
	assert.JSONEq(t, `{"time":2,"error":"adxl timeout"}`, string(c.msgs[2].payload))

	sent, skipped := p.Counts()
	assert.Equal(t, uint64(5), sent)
	assert.Equal(t, uint64(1), skipped)
}

func TestPublisher_Close(t *testing.T) {
	c := &fakeClient{}
	newPublisher(c, "t").Close()
	assert.True(t, c.disconnected)
}
