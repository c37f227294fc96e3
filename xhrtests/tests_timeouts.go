package xhrtests

import (
	"time"

	"github.com/launchdarkly/xhr-contract-tests/framework"
	"github.com/launchdarkly/xhr-contract-tests/servicedef"
	"github.com/launchdarkly/xhr-contract-tests/xhr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doTimeoutTests(s *suiteBuilder) {
	s.test("slow response times out", func(t *framework.T, serverURL string) {
		r := xhr.New()
		log := newEventLog(r)
		r.SetTimeout(time.Millisecond * 100)
		require.NoError(t, r.Open("GET", serverURL+"/delay/5000", false))

		start := time.Now()
		err := r.Send(nil)
		assert.ErrorIs(t, err, xhr.ErrTimeout)
		assert.Less(t, time.Since(start), time.Second*4)
		assert.Equal(t, xhr.Done, r.ReadyState())
		assert.Equal(t, 0, r.Status())
		assert.Contains(t, log.types(), xhr.EventTimeout)
		assert.NotContains(t, log.types(), xhr.EventError)
		assert.NotContains(t, log.types(), xhr.EventLoad)
	}, servicedef.CapabilityDelay)

	s.test("response within the timeout succeeds", func(t *framework.T, serverURL string) {
		r := xhr.New()
		r.SetTimeout(time.Second * 5)
		require.NoError(t, r.Open("GET", serverURL+"/delay/10", false))
		require.NoError(t, r.Send(nil))
		assert.Equal(t, "done", r.ResponseText())
	}, servicedef.CapabilityDelay)

	s.test("asynchronous request times out", func(t *framework.T, serverURL string) {
		r := xhr.New()
		r.SetTimeout(time.Millisecond * 100)
		require.NoError(t, r.Open("GET", serverURL+"/delay/5000", true))
		require.NoError(t, r.Send(nil))
		assert.ErrorIs(t, awaitDone(t, r), xhr.ErrTimeout)
	}, servicedef.CapabilityDelay)

	s.test("zero timeout means no limit", func(t *framework.T, serverURL string) {
		r := xhr.New()
		r.SetTimeout(0)
		require.NoError(t, r.Open("GET", serverURL+"/delay/200", false))
		require.NoError(t, r.Send(nil))
		assert.Equal(t, 200, r.Status())
	}, servicedef.CapabilityDelay)
}

func doAbortTests(s *suiteBuilder) {
	s.test("abort cancels a request in flight", func(t *framework.T, serverURL string) {
		r := xhr.New()
		log := newEventLog(r)
		require.NoError(t, r.Open("GET", serverURL+"/delay/5000", true))
		require.NoError(t, r.Send(nil))
		time.Sleep(time.Millisecond * 50)
		r.Abort()

		assert.ErrorIs(t, awaitDone(t, r), xhr.ErrAbort)
		assert.Equal(t, xhr.Unsent, r.ReadyState())
		assert.Equal(t, 0, r.Status())
		types := log.types()
		assert.Contains(t, types, xhr.EventAbort)
		assert.NotContains(t, types, xhr.EventLoad)
		assert.Equal(t, xhr.EventLoadEnd, types[len(types)-1])
	}, servicedef.CapabilityDelay)

	s.test("abort before send does nothing", func(t *framework.T, serverURL string) {
		r := xhr.New()
		log := newEventLog(r)
		require.NoError(t, r.Open("GET", serverURL+"/text", false))
		r.Abort()
		assert.Equal(t, xhr.Opened, r.ReadyState())
		assert.NotContains(t, log.types(), xhr.EventAbort)

		require.NoError(t, r.Send(nil))
		assert.Equal(t, 200, r.Status())
	})

	s.test("abort after completion does nothing", func(t *framework.T, serverURL string) {
		r := sendSync(t, "GET", serverURL+"/text?body=kept", nil)
		r.Abort()
		assert.Equal(t, xhr.Done, r.ReadyState())
		assert.Equal(t, "kept", r.ResponseText())
		assert.NoError(t, r.Err())
	})

	s.test("aborted request can be reopened", func(t *framework.T, serverURL string) {
		r := xhr.New()
		require.NoError(t, r.Open("GET", serverURL+"/delay/5000", true))
		require.NoError(t, r.Send(nil))
		r.Abort()
		assert.ErrorIs(t, awaitDone(t, r), xhr.ErrAbort)

		require.NoError(t, r.Open("GET", serverURL+"/text?body=again", false))
		require.NoError(t, r.Send(nil))
		assert.Equal(t, "again", r.ResponseText())
	}, servicedef.CapabilityDelay)
}
