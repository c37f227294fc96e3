// Package xhr is an XMLHttpRequest-style HTTP client. It keeps the browser object model: a
// request is opened, configured, and sent, moves through ready states, and reports progress
// through event listeners. It is the library exercised by the contract tests.
package xhr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ReadyState is the lifecycle state of a Request.
type ReadyState int

const (
	Unsent ReadyState = iota
	Opened
	HeadersReceived
	Loading
	Done
)

func (s ReadyState) String() string {
	switch s {
	case Unsent:
		return "UNSENT"
	case Opened:
		return "OPENED"
	case HeadersReceived:
		return "HEADERS_RECEIVED"
	case Loading:
		return "LOADING"
	case Done:
		return "DONE"
	default:
		return "ReadyState(" + strconv.Itoa(int(s)) + ")"
	}
}

var (
	ErrInvalidState = errors.New("invalid state")
	ErrSyntax       = errors.New("syntax error")
	ErrSecurity     = errors.New("security error")
	ErrNetwork      = errors.New("network error")
	ErrTimeout      = errors.New("timeout")
	ErrAbort        = errors.New("aborted")
)

const readChunkSize = 4096

// Request is a single XMLHttpRequest-style exchange. A Request can be reused by calling Open
// again once it is done.
type Request struct {
	client *http.Client

	lock        sync.Mutex
	method      string
	url         *url.URL
	async       bool
	header      http.Header
	timeout     time.Duration
	state       ReadyState
	sent        bool
	status      int
	statusText  string
	respHeader  http.Header
	respBody    []byte
	responseURL string
	err         error
	cancel      context.CancelFunc
	aborted     bool
	done        chan struct{}
	listeners   map[EventType][]func(Event)
}

// Option customizes a Request.
type Option func(*Request)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Request) { r.client = client }
}

// WithCookieJar sends and stores cookies through the given jar.
func WithCookieJar(jar http.CookieJar) Option {
	return func(r *Request) {
		c := *r.client
		c.Jar = jar
		r.client = &c
	}
}

func New(options ...Option) *Request {
	r := &Request{
		client:    &http.Client{},
		listeners: make(map[EventType][]func(Event)),
	}
	for _, o := range options {
		o(r)
	}
	return r
}

// Open initializes the request. Method names are case-insensitive for the standard methods, which
// are normalized to upper case. When async is false, Send blocks until the response is complete.
func (r *Request) Open(method, rawURL string, async bool) error {
	if !isToken(method) {
		return fmt.Errorf("%q is not a valid HTTP method: %w", method, ErrSyntax)
	}
	upper := strings.ToUpper(method)
	switch upper {
	case "CONNECT", "TRACE", "TRACK":
		return fmt.Errorf("method %s is forbidden: %w", upper, ErrSecurity)
	case "DELETE", "GET", "HEAD", "OPTIONS", "POST", "PUT":
		method = upper
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q is not a valid absolute http URL: %w", rawURL, ErrSyntax)
	}

	r.lock.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.method = method
	r.url = u
	r.async = async
	r.header = make(http.Header)
	r.sent = false
	r.aborted = false
	r.resetResponse()
	changed := r.state != Opened
	r.state = Opened
	r.lock.Unlock()

	if changed {
		r.dispatch(Event{Type: EventReadyStateChange})
	}
	return nil
}

func (r *Request) resetResponse() {
	r.status = 0
	r.statusText = ""
	r.respHeader = nil
	r.respBody = nil
	r.responseURL = ""
	r.err = nil
	r.cancel = nil
	r.done = nil
}

// SetRequestHeader adds a request header. Values for the same name are combined. Headers that a
// browser controls itself are silently ignored.
func (r *Request) SetRequestHeader(name, value string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.state != Opened || r.sent {
		return fmt.Errorf("SetRequestHeader requires an opened, unsent request: %w", ErrInvalidState)
	}
	if !isToken(name) || strings.ContainsAny(value, "\r\n\x00") {
		return fmt.Errorf("invalid header %q: %w", name, ErrSyntax)
	}
	if isForbiddenHeader(name) {
		return nil
	}
	value = strings.Trim(value, " \t")
	if existing := r.header.Get(name); existing != "" {
		value = existing + ", " + value
	}
	r.header.Set(name, value)
	return nil
}

// SetTimeout sets a limit on the whole exchange; zero means no limit.
func (r *Request) SetTimeout(timeout time.Duration) {
	r.lock.Lock()
	r.timeout = timeout
	r.lock.Unlock()
}

// Send starts the request. Supported bodies are nil, string, []byte, *FormData, url.Values and
// io.Reader; GET and HEAD requests never send a body. For a synchronous request, Send returns
// once the response is complete, with an error wrapping ErrNetwork, ErrTimeout or ErrAbort if it
// failed. For an asynchronous request it returns immediately; use listeners or Wait.
func (r *Request) Send(body interface{}) error {
	r.lock.Lock()
	if r.state != Opened || r.sent {
		r.lock.Unlock()
		return fmt.Errorf("Send requires an opened, unsent request: %w", ErrInvalidState)
	}
	method, target, async, timeout := r.method, r.url.String(), r.async, r.timeout
	header := r.header.Clone()
	r.lock.Unlock()

	var reader io.Reader
	var length int64
	if method != "GET" && method != "HEAD" && body != nil {
		data, contentType, err := extractBody(body)
		if err != nil {
			return err
		}
		if header.Get("Content-Type") == "" && contentType != "" {
			header.Set("Content-Type", contentType)
		}
		reader, length = bytes.NewReader(data), int64(len(data))
	}

	var ctx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		cancel()
		return fmt.Errorf("building request: %w", ErrSyntax)
	}
	req.Header = header
	req.ContentLength = length

	done := make(chan struct{})
	r.lock.Lock()
	r.sent = true
	r.cancel = cancel
	r.done = done
	r.lock.Unlock()

	r.dispatch(Event{Type: EventLoadStart})
	if !async {
		r.fetch(ctx, cancel, req, done)
		return r.Err()
	}
	go r.fetch(ctx, cancel, req, done)
	return nil
}

func extractBody(body interface{}) ([]byte, string, error) {
	switch b := body.(type) {
	case string:
		return []byte(b), "text/plain;charset=UTF-8", nil
	case []byte:
		return b, "", nil
	case *FormData:
		contentType, data, err := b.Encode()
		return data, contentType, err
	case url.Values:
		return []byte(b.Encode()), "application/x-www-form-urlencoded;charset=UTF-8", nil
	case io.Reader:
		data, err := io.ReadAll(b)
		if err != nil {
			return nil, "", fmt.Errorf("reading request body: %w", err)
		}
		return data, "", nil
	default:
		return nil, "", fmt.Errorf("unsupported body type %T: %w", body, ErrSyntax)
	}
}

// fetch performs one send. A call to Open while it runs starts a new exchange with a different
// done channel; from then on fetch leaves the request alone.
func (r *Request) fetch(ctx context.Context, cancel context.CancelFunc, req *http.Request, done chan struct{}) {
	defer close(done)
	defer cancel()

	resp, err := r.client.Do(req)
	if err != nil {
		r.fail(ctx, done, err)
		return
	}
	defer resp.Body.Close()

	r.lock.Lock()
	if r.done != done {
		r.lock.Unlock()
		return
	}
	r.status = resp.StatusCode
	r.statusText = strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" ")
	r.respHeader = resp.Header
	r.responseURL = resp.Request.URL.String()
	r.state = HeadersReceived
	r.lock.Unlock()
	r.dispatch(Event{Type: EventReadyStateChange})

	total := resp.ContentLength
	var body []byte
	buf := make([]byte, readChunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			body = append(body, buf[:n]...)
			r.lock.Lock()
			if r.done != done {
				r.lock.Unlock()
				return
			}
			r.respBody = body
			first := r.state != Loading
			r.state = Loading
			r.lock.Unlock()
			if first {
				r.dispatch(Event{Type: EventReadyStateChange})
			}
			r.dispatch(progressEvent(EventProgress, int64(len(body)), total))
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			r.fail(ctx, done, readErr)
			return
		}
	}

	r.lock.Lock()
	if r.done != done {
		r.lock.Unlock()
		return
	}
	r.respBody = body
	r.state = Done
	r.lock.Unlock()
	r.dispatch(Event{Type: EventReadyStateChange})
	r.dispatch(progressEvent(EventLoad, int64(len(body)), total))
	r.dispatch(progressEvent(EventLoadEnd, int64(len(body)), total))
}

// fail moves the request to DONE after a network error, timeout, or abort, and fires the
// matching events. An aborted request ends up UNSENT.
func (r *Request) fail(ctx context.Context, done chan struct{}, cause error) {
	r.lock.Lock()
	if r.done != done {
		r.lock.Unlock()
		return
	}
	var kind EventType
	switch {
	case r.aborted:
		kind, r.err = EventAbort, ErrAbort
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		kind, r.err = EventTimeout, fmt.Errorf("%w: %s", ErrTimeout, cause)
	default:
		kind, r.err = EventError, fmt.Errorf("%w: %s", ErrNetwork, cause)
	}
	r.status = 0
	r.statusText = ""
	r.respHeader = nil
	r.respBody = nil
	r.state = Done
	aborted := r.aborted
	r.lock.Unlock()

	r.dispatch(Event{Type: EventReadyStateChange})
	r.dispatch(Event{Type: kind})
	r.dispatch(Event{Type: EventLoadEnd})

	if aborted {
		r.lock.Lock()
		if r.done == done {
			r.state = Unsent
		}
		r.lock.Unlock()
	}
}

// Abort cancels a request in progress. It has no effect if nothing is in flight.
func (r *Request) Abort() {
	r.lock.Lock()
	inFlight := r.sent && r.state != Done && r.cancel != nil
	if inFlight {
		r.aborted = true
		r.cancel()
	}
	r.lock.Unlock()
}

// Wait blocks until the current request completes, or until ctx is done. It returns the same
// error that Err would.
func (r *Request) Wait(ctx context.Context) error {
	r.lock.Lock()
	done := r.done
	r.lock.Unlock()
	if done == nil {
		return fmt.Errorf("Wait requires a sent request: %w", ErrInvalidState)
	}
	select {
	case <-done:
		return r.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the error that ended the request, if any.
func (r *Request) Err() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.err
}

func (r *Request) ReadyState() ReadyState {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.state
}

// Status is the HTTP status code, or 0 before headers arrive or after an error.
func (r *Request) Status() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.status
}

func (r *Request) StatusText() string {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.statusText
}

// ResponseText returns the body received so far.
func (r *Request) ResponseText() string {
	r.lock.Lock()
	defer r.lock.Unlock()
	return string(r.respBody)
}

// ResponseURL is the final URL after redirects, without any fragment.
func (r *Request) ResponseURL() string {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.responseURL
}

// GetResponseHeader returns the combined values of a response header, or "" if it is absent.
// Set-Cookie headers are never exposed.
func (r *Request) GetResponseHeader(name string) string {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.respHeader == nil || isSetCookie(name) {
		return ""
	}
	return strings.Join(r.respHeader.Values(name), ", ")
}

// GetAllResponseHeaders returns all exposed response headers as lower-cased "name: value" lines
// separated by CRLF, sorted by name.
func (r *Request) GetAllResponseHeaders() string {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.respHeader == nil {
		return ""
	}
	names := make([]string, 0, len(r.respHeader))
	for name := range r.respHeader {
		if !isSetCookie(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s: %s\r\n", strings.ToLower(name), strings.Join(r.respHeader[name], ", "))
	}
	return b.String()
}

func isSetCookie(name string) bool {
	lower := strings.ToLower(name)
	return lower == "set-cookie" || lower == "set-cookie2"
}
