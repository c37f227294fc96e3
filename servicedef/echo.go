package servicedef

import (
	"net/url"
	"strconv"
	"strings"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// EchoResponse is returned by the /echo resource. Header names are lower-cased and only the
// first value of each header is kept.
type EchoResponse struct {
	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Query   map[string]string `json:"query,omitempty"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
}

// FormFile describes one uploaded file part seen by the /form resource.
type FormFile struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
	Content     string `json:"content"`
}

// FormResponse is returned by the /form resource.
type FormResponse struct {
	ContentType string                `json:"contentType"`
	Fields      map[string][]string   `json:"fields"`
	Files       map[string][]FormFile `json:"files,omitempty"`
}

// CookiesResponse is returned by the /cookies resource.
type CookiesResponse struct {
	Cookies map[string]string `json:"cookies"`
}

// Defaults used by the /chunked resource for undefined parameters.
const (
	DefaultChunks    = 3
	DefaultChunkSize = 16
)

const chunkAlphabet = "abcdefghijklmnopqrstuvwxyz"

// ChunkedParams controls the /chunked resource. Undefined values fall back to the server's
// defaults.
type ChunkedParams struct {
	Chunks    ldvalue.OptionalInt `json:"chunks,omitempty"`
	ChunkSize ldvalue.OptionalInt `json:"chunkSize,omitempty"`
	DelayMS   ldvalue.OptionalInt `json:"delayMs,omitempty"`
}

// Query encodes the defined parameters as a query string for the /chunked resource.
func (p ChunkedParams) Query() url.Values {
	q := make(url.Values)
	if p.Chunks.IsDefined() {
		q.Set("chunks", strconv.Itoa(p.Chunks.IntValue()))
	}
	if p.ChunkSize.IsDefined() {
		q.Set("size", strconv.Itoa(p.ChunkSize.IntValue()))
	}
	if p.DelayMS.IsDefined() {
		q.Set("delay", strconv.Itoa(p.DelayMS.IntValue()))
	}
	return q
}

// Chunk returns chunk i of the /chunked body. Chunk i is filled with the ith letter of the
// alphabet, so the whole body is predictable from the parameters.
func (p ChunkedParams) Chunk(i int) string {
	return strings.Repeat(string(chunkAlphabet[i%len(chunkAlphabet)]), p.ChunkSize.OrElse(DefaultChunkSize))
}

// Body returns the complete /chunked body for these parameters.
func (p ChunkedParams) Body() string {
	var b strings.Builder
	for i := 0; i < p.Chunks.OrElse(DefaultChunks); i++ {
		b.WriteString(p.Chunk(i))
	}
	return b.String()
}
