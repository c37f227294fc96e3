package xhrtests

import (
	"strings"

	"github.com/launchdarkly/xhr-contract-tests/framework"
	"github.com/launchdarkly/xhr-contract-tests/xhr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doEventTests(s *suiteBuilder) {
	s.test("ready states of a successful request", func(t *framework.T, serverURL string) {
		r := xhr.New()
		log := newEventLog(r)
		require.NoError(t, r.Open("GET", serverURL+"/text?body=abc", false))
		require.NoError(t, r.Send(nil))
		assert.Equal(t, []xhr.ReadyState{xhr.Opened, xhr.HeadersReceived, xhr.Loading, xhr.Done}, log.readyStates())
	})

	s.test("events of a successful request", func(t *framework.T, serverURL string) {
		r := xhr.New()
		log := newEventLog(r)
		require.NoError(t, r.Open("GET", serverURL+"/text?body=abc", false))
		require.NoError(t, r.Send(nil))
		assert.Equal(t, []xhr.EventType{
			xhr.EventReadyStateChange,
			xhr.EventLoadStart,
			xhr.EventReadyStateChange,
			xhr.EventReadyStateChange,
			xhr.EventReadyStateChange,
			xhr.EventLoad,
			xhr.EventLoadEnd,
		}, log.types())
	})

	s.test("empty body skips LOADING", func(t *framework.T, serverURL string) {
		r := xhr.New()
		log := newEventLog(r)
		require.NoError(t, r.Open("GET", serverURL+"/text?body=", false))
		require.NoError(t, r.Send(nil))
		assert.Equal(t, []xhr.ReadyState{xhr.Opened, xhr.HeadersReceived, xhr.Done}, log.readyStates())
	})

	s.test("asynchronous events fire before Wait returns", func(t *framework.T, serverURL string) {
		r := xhr.New()
		log := newEventLog(r)
		require.NoError(t, r.Open("GET", serverURL+"/text?body=abc", true))
		require.NoError(t, r.Send(nil))
		require.NoError(t, awaitDone(t, r))
		types := log.types()
		require.NotEmpty(t, types)
		assert.Equal(t, xhr.EventLoadEnd, types[len(types)-1])
		assert.Contains(t, types, xhr.EventLoad)
	})

	s.test("progress reports loaded and total", func(t *framework.T, serverURL string) {
		body := strings.Repeat("0123456789", 1000)
		r := xhr.New()
		log := newEventLog(r)
		require.NoError(t, r.Open("GET", serverURL+"/text?body="+body, false))
		require.NoError(t, r.Send(nil))

		progress := log.ofType(xhr.EventProgress)
		require.NotEmpty(t, progress)
		var previous int64
		for _, e := range progress {
			assert.Greater(t, e.Loaded, previous)
			previous = e.Loaded
			assert.True(t, e.LengthComputable)
			assert.Equal(t, int64(len(body)), e.Total)
		}
		assert.Equal(t, int64(len(body)), previous)

		load := log.ofType(xhr.EventLoad)
		require.Len(t, load, 1)
		assert.Equal(t, int64(len(body)), load[0].Loaded)
	})

	s.test("error status fires load, not error", func(t *framework.T, serverURL string) {
		r := xhr.New()
		log := newEventLog(r)
		require.NoError(t, r.Open("GET", serverURL+"/status/500", false))
		require.NoError(t, r.Send(nil))
		assert.Contains(t, log.types(), xhr.EventLoad)
		assert.NotContains(t, log.types(), xhr.EventError)
	})

	s.test("network error fires error", func(t *framework.T, serverURL string) {
		r := xhr.New()
		log := newEventLog(r)
		require.NoError(t, r.Open("GET", closedServerURL(t), false))
		err := r.Send(nil)

		assert.ErrorIs(t, err, xhr.ErrNetwork)
		assert.Equal(t, xhr.Done, r.ReadyState())
		assert.Equal(t, 0, r.Status())
		assert.Empty(t, r.ResponseText())
		assert.Equal(t, []xhr.EventType{
			xhr.EventReadyStateChange,
			xhr.EventLoadStart,
			xhr.EventReadyStateChange,
			xhr.EventError,
			xhr.EventLoadEnd,
		}, log.types())
	})

	s.test("every listener is called", func(t *framework.T, serverURL string) {
		r := xhr.New()
		calls := 0
		r.AddEventListener(xhr.EventLoad, func(xhr.Event) { calls++ })
		r.AddEventListener(xhr.EventLoad, func(xhr.Event) { calls++ })
		require.NoError(t, r.Open("GET", serverURL+"/text", false))
		require.NoError(t, r.Send(nil))
		assert.Equal(t, 2, calls)
	})
}
