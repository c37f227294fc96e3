// Package testserver is the HTTP server that the contract tests send their requests to. Each
// resource produces a predictable response, so that a test can check what the xhr client sent
// and how it handled what came back.
package testserver

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/launchdarkly/xhr-contract-tests/framework"
	"github.com/launchdarkly/xhr-contract-tests/servicedef"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

const (
	// Description is what the server reports from its root resource.
	Description = "xhr contract test server"

	// DefaultText is the body of the /text resource when no body parameter is given.
	DefaultText = "hello, world"

	maxDelay          = time.Second * 30
	maxFormMemory     = 1 << 20
	defaultRedirectTo = "/echo"
)

type server struct {
	logger framework.Logger
	info   servicedef.TargetInfo
}

// NewHandler returns the server's request router. Every request is logged to logger, which may
// be nil.
func NewHandler(logger framework.Logger) http.Handler {
	if logger == nil {
		logger = framework.NullLogger()
	}
	s := &server{
		logger: logger,
		info: servicedef.TargetInfo{
			Description:  Description,
			Capabilities: servicedef.AllCapabilities,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.serveInfo)
	mux.HandleFunc("/echo", s.serveEcho)
	mux.HandleFunc("/status/{code}", s.serveStatus)
	mux.HandleFunc("/redirect/{code}", s.serveRedirect)
	mux.HandleFunc("/delay/{ms}", s.serveDelay)
	mux.HandleFunc("/text", s.serveText)
	mux.HandleFunc("/headers", s.serveHeaders)
	mux.HandleFunc("/cookies/set", s.serveSetCookies)
	mux.HandleFunc("GET /cookies", s.serveCookies)
	mux.HandleFunc("POST /form", s.serveForm)
	mux.HandleFunc("GET /chunked", s.serveChunked)

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		s.logger.Printf("%s %s", req.Method, req.URL.RequestURI())
		mux.ServeHTTP(w, req)
	})
}

func (s *server) serveInfo(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, s.info)
}

func (s *server) serveEcho(w http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		s.logger.Printf("Unexpected error trying to read request body: %s", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	resp := servicedef.EchoResponse{
		Method:  req.Method,
		Path:    req.URL.Path,
		Headers: make(map[string]string),
		Body:    string(body),
	}
	if q := req.URL.Query(); len(q) > 0 {
		resp.Query = make(map[string]string)
		for k := range q {
			resp.Query[k] = q.Get(k)
		}
	}
	for k := range req.Header {
		resp.Headers[strings.ToLower(k)] = req.Header.Get(k)
	}
	writeJSON(w, resp)
}

func (s *server) serveStatus(w http.ResponseWriter, req *http.Request) {
	code, ok := pathInt(w, req, "code", 100, 599)
	if !ok {
		return
	}
	if code < 200 || code == http.StatusNoContent || code == http.StatusNotModified {
		w.WriteHeader(code)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, "status %d", code)
}

// serveRedirect redirects to the "to" query parameter, or to /echo.
func (s *server) serveRedirect(w http.ResponseWriter, req *http.Request) {
	code, ok := pathInt(w, req, "code", 300, 399)
	if !ok {
		return
	}
	to := req.URL.Query().Get("to")
	if to == "" {
		to = defaultRedirectTo
	}
	w.Header().Set("Location", to)
	w.WriteHeader(code)
}

func (s *server) serveDelay(w http.ResponseWriter, req *http.Request) {
	ms, ok := pathInt(w, req, "ms", 0, int(maxDelay/time.Millisecond))
	if !ok {
		return
	}
	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-timer.C:
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "done")
	case <-req.Context().Done():
		s.logger.Printf("Client went away during %dms delay", ms)
	}
}

// serveText returns the "body" query parameter, or DefaultText, with the content type given by
// the "type" parameter.
func (s *server) serveText(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	body := DefaultText
	if q.Has("body") {
		body = q.Get("body")
	}
	contentType := q.Get("type")
	if contentType == "" {
		contentType = "text/plain; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	_, _ = io.WriteString(w, body)
}

// serveHeaders copies every query parameter into a response header.
func (s *server) serveHeaders(w http.ResponseWriter, req *http.Request) {
	for name, values := range req.URL.Query() {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.WriteHeader(http.StatusOK)
}

// serveSetCookies sets a cookie for every query parameter.
func (s *server) serveSetCookies(w http.ResponseWriter, req *http.Request) {
	for name := range req.URL.Query() {
		http.SetCookie(w, &http.Cookie{Name: name, Value: req.URL.Query().Get(name), Path: "/"})
	}
	w.WriteHeader(http.StatusOK)
}

func (s *server) serveCookies(w http.ResponseWriter, req *http.Request) {
	resp := servicedef.CookiesResponse{Cookies: make(map[string]string)}
	for _, c := range req.Cookies() {
		resp.Cookies[c.Name] = c.Value
	}
	writeJSON(w, resp)
}

func (s *server) serveForm(w http.ResponseWriter, req *http.Request) {
	contentType := req.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	resp := servicedef.FormResponse{ContentType: mediaType, Fields: make(map[string][]string)}

	switch mediaType {
	case "multipart/form-data":
		if err := req.ParseMultipartForm(maxFormMemory); err != nil {
			http.Error(w, fmt.Sprintf("malformed multipart body: %s", err), http.StatusBadRequest)
			return
		}
		for name, values := range req.MultipartForm.Value {
			resp.Fields[name] = values
		}
		for name, headers := range req.MultipartForm.File {
			if resp.Files == nil {
				resp.Files = make(map[string][]servicedef.FormFile)
			}
			for _, fh := range headers {
				f, err := fh.Open()
				if err != nil {
					http.Error(w, err.Error(), http.StatusInternalServerError)
					return
				}
				data, err := io.ReadAll(f)
				_ = f.Close()
				if err != nil {
					http.Error(w, err.Error(), http.StatusInternalServerError)
					return
				}
				resp.Files[name] = append(resp.Files[name], servicedef.FormFile{
					FileName:    fh.Filename,
					ContentType: fh.Header.Get("Content-Type"),
					Size:        int(fh.Size),
					Content:     string(data),
				})
			}
		}
	case "application/x-www-form-urlencoded":
		if err := req.ParseForm(); err != nil {
			http.Error(w, fmt.Sprintf("malformed form body: %s", err), http.StatusBadRequest)
			return
		}
		for name, values := range req.PostForm {
			resp.Fields[name] = values
		}
	default:
		http.Error(w, fmt.Sprintf("unsupported content type %q", contentType), http.StatusUnsupportedMediaType)
		return
	}
	writeJSON(w, resp)
}

// serveChunked streams the body described by servicedef.ChunkedParams, flushing each chunk.
func (s *server) serveChunked(w http.ResponseWriter, req *http.Request) {
	params, err := parseChunkedParams(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	chunks := params.Chunks.OrElse(servicedef.DefaultChunks)
	delay := time.Duration(params.DelayMS.OrElse(0)) * time.Millisecond

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	for i := 0; i < chunks; i++ {
		if _, err := io.WriteString(w, params.Chunk(i)); err != nil {
			return
		}
		flusher.Flush()
		if delay > 0 && i < chunks-1 {
			select {
			case <-time.After(delay):
			case <-req.Context().Done():
				return
			}
		}
	}
}

func parseChunkedParams(req *http.Request) (servicedef.ChunkedParams, error) {
	var p servicedef.ChunkedParams
	q := req.URL.Query()
	for _, f := range []struct {
		name   string
		target *ldvalue.OptionalInt
		min    int
	}{
		{"chunks", &p.Chunks, 1},
		{"size", &p.ChunkSize, 1},
		{"delay", &p.DelayMS, 0},
	} {
		if !q.Has(f.name) {
			continue
		}
		n, err := strconv.Atoi(q.Get(f.name))
		if err != nil || n < f.min {
			return p, fmt.Errorf("invalid %s parameter %q", f.name, q.Get(f.name))
		}
		*f.target = ldvalue.NewOptionalInt(n)
	}
	return p, nil
}

func pathInt(w http.ResponseWriter, req *http.Request, name string, min, max int) (int, bool) {
	n, err := strconv.Atoi(req.PathValue(name))
	if err != nil || n < min || n > max {
		http.Error(w, fmt.Sprintf("invalid %s %q", name, req.PathValue(name)), http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, value interface{}) {
	data, _ := json.Marshal(value)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}
