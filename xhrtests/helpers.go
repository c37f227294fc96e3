package xhrtests

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/launchdarkly/xhr-contract-tests/framework"
	"github.com/launchdarkly/xhr-contract-tests/servicedef"
	"github.com/launchdarkly/xhr-contract-tests/xhr"

	"github.com/stretchr/testify/require"
)

const asyncWaitTimeout = time.Second * 10

// sendSync opens and sends a synchronous request, failing the test if either step fails.
func sendSync(t *framework.T, method, url string, body interface{}, options ...xhr.Option) *xhr.Request {
	r := xhr.New(options...)
	require.NoError(t, r.Open(method, url, false))
	require.NoError(t, r.Send(body))
	return r
}

func newOpened(t *framework.T, method, url string, options ...xhr.Option) *xhr.Request {
	r := xhr.New(options...)
	require.NoError(t, r.Open(method, url, false))
	return r
}

func setHeader(t *framework.T, r *xhr.Request, name, value string) {
	require.NoError(t, r.SetRequestHeader(name, value))
}

func send(t *framework.T, r *xhr.Request, body interface{}) {
	require.NoError(t, r.Send(body))
}

func awaitDone(t *framework.T, r *xhr.Request) error {
	ctx, cancel := context.WithTimeout(context.Background(), asyncWaitTimeout)
	defer cancel()
	err := r.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded, "timed out waiting for request to finish")
	return err
}

func decodeJSON[V any](t *framework.T, r *xhr.Request) V {
	var value V
	require.Equal(t, 200, r.Status(), "unexpected status; body was: %s", r.ResponseText())
	require.NoError(t, json.Unmarshal([]byte(r.ResponseText()), &value),
		"response was not valid JSON: %s", r.ResponseText())
	return value
}

func echo(t *framework.T, r *xhr.Request) servicedef.EchoResponse {
	return decodeJSON[servicedef.EchoResponse](t, r)
}

// closedServerURL returns the URL of a port that nothing is listening on.
func closedServerURL(t *framework.T) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return fmt.Sprintf("http://127.0.0.1:%d", port)
}

// eventLog records the events fired by a request, in order.
type eventLog struct {
	lock   sync.Mutex
	events []xhr.Event
	states []xhr.ReadyState
}

var allEventTypes = []xhr.EventType{
	xhr.EventReadyStateChange,
	xhr.EventLoadStart,
	xhr.EventProgress,
	xhr.EventLoad,
	xhr.EventError,
	xhr.EventAbort,
	xhr.EventTimeout,
	xhr.EventLoadEnd,
}

func newEventLog(r *xhr.Request) *eventLog {
	log := &eventLog{}
	for _, et := range allEventTypes {
		r.AddEventListener(et, func(e xhr.Event) {
			log.lock.Lock()
			defer log.lock.Unlock()
			log.events = append(log.events, e)
			if e.Type == xhr.EventReadyStateChange {
				log.states = append(log.states, r.ReadyState())
			}
		})
	}
	return log
}

// types returns the event types seen so far, leaving out progress events.
func (l *eventLog) types() []xhr.EventType {
	l.lock.Lock()
	defer l.lock.Unlock()
	var ret []xhr.EventType
	for _, e := range l.events {
		if e.Type != xhr.EventProgress {
			ret = append(ret, e.Type)
		}
	}
	return ret
}

func (l *eventLog) ofType(et xhr.EventType) []xhr.Event {
	l.lock.Lock()
	defer l.lock.Unlock()
	var ret []xhr.Event
	for _, e := range l.events {
		if e.Type == et {
			ret = append(ret, e)
		}
	}
	return ret
}

func (l *eventLog) readyStates() []xhr.ReadyState {
	l.lock.Lock()
	defer l.lock.Unlock()
	return append([]xhr.ReadyState(nil), l.states...)
}
