package xhr

import (
	"slices"
	"strings"
)

// EventType names an event fired by a Request.
type EventType string

const (
	EventReadyStateChange EventType = "readystatechange"
	EventLoadStart        EventType = "loadstart"
	EventProgress         EventType = "progress"
	EventLoad             EventType = "load"
	EventError            EventType = "error"
	EventAbort            EventType = "abort"
	EventTimeout          EventType = "timeout"
	EventLoadEnd          EventType = "loadend"
)

// Event is passed to listeners. Loaded and Total are only meaningful for progress-type events;
// Total is only known if LengthComputable is true.
type Event struct {
	Type             EventType
	Loaded           int64
	Total            int64
	LengthComputable bool
}

func progressEvent(t EventType, loaded, total int64) Event {
	e := Event{Type: t, Loaded: loaded}
	if total >= 0 {
		e.Total = total
		e.LengthComputable = true
	}
	return e
}

// AddEventListener registers fn to be called for every event of the given type. Listeners of an
// asynchronous request are called on the request's own goroutine.
func (r *Request) AddEventListener(t EventType, fn func(Event)) {
	r.lock.Lock()
	r.listeners[t] = append(r.listeners[t], fn)
	r.lock.Unlock()
}

func (r *Request) dispatch(e Event) {
	r.lock.Lock()
	fns := slices.Clone(r.listeners[e.Type])
	r.lock.Unlock()
	for _, fn := range fns {
		fn(e)
	}
}

func isToken(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c > 0x7e || c <= ' ' || strings.ContainsRune("()<>@,;:\\\"/[]?={}", c) {
			return false
		}
	}
	return true
}

var forbiddenHeaders = map[string]bool{
	"accept-charset":                 true,
	"accept-encoding":                true,
	"access-control-request-headers": true,
	"access-control-request-method":  true,
	"connection":                     true,
	"content-length":                 true,
	"cookie":                         true,
	"cookie2":                        true,
	"date":                           true,
	"dnt":                            true,
	"expect":                         true,
	"host":                           true,
	"keep-alive":                     true,
	"origin":                         true,
	"referer":                        true,
	"te":                             true,
	"trailer":                        true,
	"transfer-encoding":              true,
	"upgrade":                        true,
	"via":                            true,
}

func isForbiddenHeader(name string) bool {
	lower := strings.ToLower(name)
	return forbiddenHeaders[lower] || strings.HasPrefix(lower, "proxy-") || strings.HasPrefix(lower, "sec-")
}
