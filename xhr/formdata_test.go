package xhr

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormDataEntriesKeepOrderAndRepeats(t *testing.T) {
	f := NewFormData()
	f.Append("a", "1")
	f.Append("b", "2")
	f.Append("a", "3")

	assert.Equal(t, []string{"a", "b", "a"}, f.Keys())
	v, ok := f.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
	assert.Equal(t, []string{"1", "3"}, f.GetAll("a"))
	assert.True(t, f.Has("b"))
	assert.False(t, f.Has("c"))
	_, ok = f.Get("c")
	assert.False(t, ok)
	assert.Nil(t, f.GetAll("c"))
}

func TestFormDataSetReplacesFirstAndRemovesRest(t *testing.T) {
	f := NewFormData()
	f.Append("a", "1")
	f.Append("b", "2")
	f.Append("a", "3")
	f.Set("a", "new")

	assert.Equal(t, []string{"a", "b"}, f.Keys())
	assert.Equal(t, []string{"new"}, f.GetAll("a"))

	f.Set("c", "appended")
	assert.Equal(t, []string{"a", "b", "c"}, f.Keys())
}

func TestFormDataDelete(t *testing.T) {
	f := NewFormData()
	f.Append("a", "1")
	f.Append("b", "2")
	f.Append("a", "3")
	f.Delete("a")
	assert.Equal(t, []string{"b"}, f.Keys())
	f.Delete("missing")
	assert.Equal(t, []string{"b"}, f.Keys())
}

func TestFormDataFileDefaults(t *testing.T) {
	f := NewFormData()
	f.AppendFile("upload", File{Data: []byte("x")})

	entries := f.Entries()
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].File)
	assert.Equal(t, "blob", entries[0].Value)
	assert.Equal(t, "application/octet-stream", entries[0].File.ContentType)
}

func TestFormDataEntriesIsACopy(t *testing.T) {
	f := NewFormData()
	f.Append("a", "1")
	entries := f.Entries()
	entries[0].Value = "changed"
	v, _ := f.Get("a")
	assert.Equal(t, "1", v)
}

func TestFormDataEncode(t *testing.T) {
	f := NewFormData()
	f.Append("greeting", "hello\nworld")
	f.AppendFile("doc", File{Name: `my "file".txt`, ContentType: "text/plain", Data: []byte("contents")})
	f.Append("greeting", "again")

	contentType, body, err := f.Encode()
	require.NoError(t, err)

	mediaType, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)

	reader := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	type part struct {
		name, fileName, contentType, data string
	}
	var parts []part
	for {
		p, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(p)
		require.NoError(t, err)
		parts = append(parts, part{p.FormName(), p.FileName(), p.Header.Get("Content-Type"), string(data)})
	}

	assert.Equal(t, []part{
		{"greeting", "", "", "hello\r\nworld"},
		{"doc", "my %22file%22.txt", "text/plain", "contents"},
		{"greeting", "", "", "again"},
	}, parts)
}

func TestFormDataEncodeEmpty(t *testing.T) {
	contentType, body, err := NewFormData().Encode()
	require.NoError(t, err)
	assert.Contains(t, contentType, "multipart/form-data; boundary=")
	assert.NotEmpty(t, body)
}
