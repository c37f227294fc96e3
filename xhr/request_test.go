package xhr

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventRecorder struct {
	lock   sync.Mutex
	events []EventType
	states []ReadyState
}

func (e *eventRecorder) attach(r *Request) {
	for _, t := range []EventType{EventReadyStateChange, EventLoadStart, EventLoad, EventError,
		EventAbort, EventTimeout, EventLoadEnd} {
		r.AddEventListener(t, func(ev Event) {
			e.lock.Lock()
			defer e.lock.Unlock()
			e.events = append(e.events, ev.Type)
			if ev.Type == EventReadyStateChange {
				e.states = append(e.states, r.ReadyState())
			}
		})
	}
}

func (e *eventRecorder) types() []EventType {
	e.lock.Lock()
	defer e.lock.Unlock()
	return append([]EventType(nil), e.events...)
}

func TestOpenValidatesArguments(t *testing.T) {
	r := New()
	assert.True(t, errors.Is(r.Open("bad method", "http://localhost", true), ErrSyntax))
	assert.True(t, errors.Is(r.Open("GET", "not a url", true), ErrSyntax))
	assert.True(t, errors.Is(r.Open("GET", "ftp://localhost/x", true), ErrSyntax))
	for _, m := range []string{"CONNECT", "trace", "Track"} {
		assert.True(t, errors.Is(r.Open(m, "http://localhost", true), ErrSecurity), m)
	}
	assert.Equal(t, Unsent, r.ReadyState())

	require.NoError(t, r.Open("get", "http://localhost", true))
	assert.Equal(t, Opened, r.ReadyState())
	assert.Equal(t, "GET", r.method)

	require.NoError(t, r.Open("patch", "http://localhost", true))
	assert.Equal(t, "patch", r.method, "only standard methods are normalized")
}

func TestSetRequestHeaderRequiresOpenedState(t *testing.T) {
	r := New()
	assert.True(t, errors.Is(r.SetRequestHeader("X-A", "b"), ErrInvalidState))

	require.NoError(t, r.Open("GET", "http://localhost", true))
	assert.True(t, errors.Is(r.SetRequestHeader("bad name", "b"), ErrSyntax))
	assert.True(t, errors.Is(r.SetRequestHeader("X-A", "b\r\nX-B: c"), ErrSyntax))
}

func TestRequestHeadersAreCombinedAndForbiddenOnesIgnored(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(200))
	server := httptest.NewServer(handler)
	defer server.Close()

	r := New()
	require.NoError(t, r.Open("GET", server.URL, false))
	require.NoError(t, r.SetRequestHeader("X-Custom", "one"))
	require.NoError(t, r.SetRequestHeader("x-custom", " two "))
	require.NoError(t, r.SetRequestHeader("Referer", "http://evil"))
	require.NoError(t, r.SetRequestHeader("Sec-Fetch-Mode", "cors"))
	require.NoError(t, r.Send(nil))

	require.Len(t, requestsCh, 1)
	info := <-requestsCh
	assert.Equal(t, "one, two", info.Request.Header.Get("X-Custom"))
	assert.Empty(t, info.Request.Header.Get("Referer"))
	assert.Empty(t, info.Request.Header.Get("Sec-Fetch-Mode"))
}

func TestSynchronousSendCompletesBeforeReturning(t *testing.T) {
	headers := make(http.Header)
	headers.Set("Content-Type", "text/plain")
	headers.Add("X-Multi", "a")
	headers.Add("X-Multi", "b")
	headers.Set("Set-Cookie", "secret=1")
	server := httptest.NewServer(httphelpers.HandlerWithResponse(201, headers, []byte("hello")))
	defer server.Close()

	var rec eventRecorder
	r := New()
	rec.attach(r)
	require.NoError(t, r.Open("GET", server.URL+"/path", false))
	require.NoError(t, r.Send(nil))

	assert.Equal(t, Done, r.ReadyState())
	assert.Equal(t, 201, r.Status())
	assert.Equal(t, "Created", r.StatusText())
	assert.Equal(t, "hello", r.ResponseText())
	assert.Equal(t, server.URL+"/path", r.ResponseURL())
	assert.Equal(t, "a, b", r.GetResponseHeader("x-multi"))
	assert.Empty(t, r.GetResponseHeader("Set-Cookie"))
	all := r.GetAllResponseHeaders()
	assert.Contains(t, all, "content-type: text/plain\r\n")
	assert.Contains(t, all, "x-multi: a, b\r\n")
	assert.NotContains(t, all, "set-cookie")

	assert.Equal(t, []EventType{
		EventReadyStateChange, // opened
		EventLoadStart,
		EventReadyStateChange, // headers received
		EventReadyStateChange, // loading
		EventReadyStateChange, // done
		EventLoad,
		EventLoadEnd,
	}, rec.types())
	assert.Equal(t, []ReadyState{Opened, HeadersReceived, Loading, Done}, rec.states)
}

func TestAsynchronousSendReturnsImmediately(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		<-release
		_, _ = io.WriteString(w, "late")
	}))
	defer server.Close()

	r := New()
	require.NoError(t, r.Open("GET", server.URL, true))
	require.NoError(t, r.Send(nil))
	assert.Equal(t, Opened, r.ReadyState())
	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	require.NoError(t, r.Wait(ctx))
	assert.Equal(t, Done, r.ReadyState())
	assert.Equal(t, "late", r.ResponseText())
}

func TestSendTwiceIsInvalid(t *testing.T) {
	server := httptest.NewServer(httphelpers.HandlerWithStatus(200))
	defer server.Close()

	r := New()
	assert.True(t, errors.Is(r.Send(nil), ErrInvalidState))
	require.NoError(t, r.Open("GET", server.URL, false))
	require.NoError(t, r.Send(nil))
	assert.True(t, errors.Is(r.Send(nil), ErrInvalidState))
	assert.True(t, errors.Is(r.SetRequestHeader("X-A", "b"), ErrInvalidState))
}

func TestSendBodies(t *testing.T) {
	type received struct {
		method, contentType, body string
	}
	gotCh := make(chan received, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		gotCh <- received{req.Method, req.Header.Get("Content-Type"), string(body)}
	}))
	defer server.Close()

	form := url.Values{}
	form.Set("a", "1 2")

	for _, p := range []struct {
		name        string
		method      string
		body        interface{}
		contentType string
		expected    string
	}{
		{"string", "POST", "text", "text/plain;charset=UTF-8", "text"},
		{"bytes", "POST", []byte{1, 2}, "", "\x01\x02"},
		{"url values", "PUT", form, "application/x-www-form-urlencoded;charset=UTF-8", "a=1+2"},
		{"reader", "POST", strings.NewReader("streamed"), "", "streamed"},
		{"GET ignores body", "GET", "ignored", "", ""},
		{"HEAD ignores body", "HEAD", "ignored", "", ""},
	} {
		t.Run(p.name, func(t *testing.T) {
			r := New()
			require.NoError(t, r.Open(p.method, server.URL, false))
			require.NoError(t, r.Send(p.body))
			got := <-gotCh
			assert.Equal(t, p.method, got.method)
			assert.Equal(t, p.contentType, got.contentType)
			assert.Equal(t, p.expected, got.body)
		})
	}
}

func TestExplicitContentTypeIsKept(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(200))
	server := httptest.NewServer(handler)
	defer server.Close()

	r := New()
	require.NoError(t, r.Open("POST", server.URL, false))
	require.NoError(t, r.SetRequestHeader("Content-Type", "application/json"))
	require.NoError(t, r.Send(`{}`))

	info := <-requestsCh
	assert.Equal(t, "application/json", info.Request.Header.Get("Content-Type"))
}

func TestUnsupportedBodyType(t *testing.T) {
	r := New()
	require.NoError(t, r.Open("POST", "http://localhost", false))
	assert.True(t, errors.Is(r.Send(42), ErrSyntax))
}

func TestNetworkErrorFiresErrorEvent(t *testing.T) {
	server := httptest.NewServer(httphelpers.HandlerWithStatus(200))
	target := server.URL
	server.Close()

	var rec eventRecorder
	r := New()
	rec.attach(r)
	require.NoError(t, r.Open("GET", target, false))
	err := r.Send(nil)

	assert.True(t, errors.Is(err, ErrNetwork))
	assert.Equal(t, Done, r.ReadyState())
	assert.Equal(t, 0, r.Status())
	assert.Equal(t, []EventType{EventReadyStateChange, EventLoadStart, EventReadyStateChange, EventError, EventLoadEnd},
		rec.types())
}

func TestTimeoutFiresTimeoutEvent(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		select {
		case <-release:
		case <-req.Context().Done():
		}
	}))
	defer server.Close()

	var rec eventRecorder
	r := New()
	rec.attach(r)
	r.SetTimeout(time.Millisecond * 50)
	require.NoError(t, r.Open("GET", server.URL, false))
	err := r.Send(nil)

	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Contains(t, rec.types(), EventTimeout)
	assert.NotContains(t, rec.types(), EventError)
}

func TestAbortCancelsRequestInFlight(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	arrived := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		close(arrived)
		select {
		case <-release:
		case <-req.Context().Done():
		}
	}))
	defer server.Close()

	var rec eventRecorder
	r := New()
	rec.attach(r)
	require.NoError(t, r.Open("GET", server.URL, true))
	require.NoError(t, r.Send(nil))
	<-arrived
	r.Abort()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	err := r.Wait(ctx)
	assert.True(t, errors.Is(err, ErrAbort))
	assert.Equal(t, Unsent, r.ReadyState())
	assert.Contains(t, rec.types(), EventAbort)
	assert.Equal(t, EventLoadEnd, rec.types()[len(rec.types())-1])
}

func TestReopenWhileInFlightStartsFreshRequest(t *testing.T) {
	arrived := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/slow", func(w http.ResponseWriter, req *http.Request) {
		close(arrived)
		<-req.Context().Done()
	})
	mux.Handle("/fast", httphelpers.HandlerWithResponse(200, nil, []byte("fast")))
	server := httptest.NewServer(mux)
	defer server.Close()

	r := New()
	require.NoError(t, r.Open("GET", server.URL+"/slow", true))
	require.NoError(t, r.Send(nil))
	<-arrived

	r.lock.Lock()
	previous := r.done
	r.lock.Unlock()

	require.NoError(t, r.Open("GET", server.URL+"/fast", false))
	select {
	case <-previous:
	case <-time.After(time.Second * 5):
		require.Fail(t, "timed out waiting for the first request to end")
	}

	assert.Equal(t, Opened, r.ReadyState())
	assert.NoError(t, r.Err())
	assert.Equal(t, 0, r.Status())

	require.NoError(t, r.Send(nil))
	assert.Equal(t, Done, r.ReadyState())
	assert.Equal(t, 200, r.Status())
	assert.Equal(t, "fast", r.ResponseText())
}

func TestAbortWithoutSendDoesNothing(t *testing.T) {
	r := New()
	r.Abort()
	assert.Equal(t, Unsent, r.ReadyState())
	assert.NoError(t, r.Err())
}

func TestProgressEventsReportLength(t *testing.T) {
	body := strings.Repeat("x", readChunkSize*3)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		_, _ = io.WriteString(w, body)
	}))
	defer server.Close()

	var progress []Event
	var load Event
	r := New()
	r.AddEventListener(EventProgress, func(e Event) { progress = append(progress, e) })
	r.AddEventListener(EventLoad, func(e Event) { load = e })
	require.NoError(t, r.Open("GET", server.URL, false))
	require.NoError(t, r.Send(nil))

	require.NotEmpty(t, progress)
	last := progress[len(progress)-1]
	assert.Equal(t, int64(len(body)), last.Loaded)
	assert.True(t, last.LengthComputable)
	assert.Equal(t, int64(len(body)), load.Total)
}

func TestRedirectIsFollowed(t *testing.T) {
	final := httptest.NewServer(httphelpers.HandlerWithResponse(200, nil, []byte("landed")))
	defer final.Close()
	headers := make(http.Header)
	headers.Set("Location", final.URL+"/end")
	redirector := httptest.NewServer(httphelpers.HandlerWithResponse(302, headers, nil))
	defer redirector.Close()

	r := New()
	require.NoError(t, r.Open("GET", redirector.URL, false))
	require.NoError(t, r.Send(nil))
	assert.Equal(t, 200, r.Status())
	assert.Equal(t, final.URL+"/end", r.ResponseURL())
	assert.Equal(t, "landed", r.ResponseText())
}

func TestCookieJarIsUsed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if c, err := req.Cookie("flavor"); err == nil {
			_, _ = io.WriteString(w, c.Value)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "flavor", Value: "oatmeal", Path: "/"})
	}))
	defer server.Close()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	first := New(WithCookieJar(jar))
	require.NoError(t, first.Open("GET", server.URL, false))
	require.NoError(t, first.Send(nil))
	assert.Empty(t, first.ResponseText())

	second := New(WithCookieJar(jar))
	require.NoError(t, second.Open("GET", server.URL, false))
	require.NoError(t, second.Send(nil))
	assert.Equal(t, "oatmeal", second.ResponseText())
}

func TestReadyStateString(t *testing.T) {
	assert.Equal(t, "UNSENT", Unsent.String())
	assert.Equal(t, "HEADERS_RECEIVED", HeadersReceived.String())
	assert.Equal(t, "DONE", Done.String())
	assert.Equal(t, "ReadyState(9)", ReadyState(9).String())
}
