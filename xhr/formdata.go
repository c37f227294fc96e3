package xhr

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// File is the content of a file entry in a FormData.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// FormEntry is one name/value pair of a FormData. File is non-nil for file entries, in which case
// Value is the file name.
type FormEntry struct {
	Name  string
	Value string
	File  *File
}

// FormData is an ordered list of form entries that can be sent as a multipart/form-data body.
// Names may repeat.
type FormData struct {
	entries []FormEntry
}

func NewFormData() *FormData {
	return &FormData{}
}

// Append adds a string entry at the end.
func (f *FormData) Append(name, value string) {
	f.entries = append(f.entries, FormEntry{Name: name, Value: value})
}

// AppendFile adds a file entry at the end. An empty file name becomes "blob" and an empty content
// type becomes application/octet-stream.
func (f *FormData) AppendFile(name string, file File) {
	if file.Name == "" {
		file.Name = "blob"
	}
	if file.ContentType == "" {
		file.ContentType = "application/octet-stream"
	}
	f.entries = append(f.entries, FormEntry{Name: name, Value: file.Name, File: &file})
}

// Set replaces the first entry with the given name and removes any others, or appends a new entry
// if there was none.
func (f *FormData) Set(name, value string) {
	entry := FormEntry{Name: name, Value: value}
	replaced := false
	kept := f.entries[:0]
	for _, e := range f.entries {
		if e.Name != name {
			kept = append(kept, e)
			continue
		}
		if !replaced {
			kept = append(kept, entry)
			replaced = true
		}
	}
	f.entries = kept
	if !replaced {
		f.entries = append(f.entries, entry)
	}
}

// Get returns the value of the first entry with the given name.
func (f *FormData) Get(name string) (string, bool) {
	for _, e := range f.entries {
		if e.Name == name {
			return e.Value, true
		}
	}
	return "", false
}

// GetAll returns the values of every entry with the given name, in order.
func (f *FormData) GetAll(name string) []string {
	var ret []string
	for _, e := range f.entries {
		if e.Name == name {
			ret = append(ret, e.Value)
		}
	}
	return ret
}

func (f *FormData) Has(name string) bool {
	_, ok := f.Get(name)
	return ok
}

// Delete removes every entry with the given name.
func (f *FormData) Delete(name string) {
	kept := f.entries[:0]
	for _, e := range f.entries {
		if e.Name != name {
			kept = append(kept, e)
		}
	}
	f.entries = kept
}

// Keys returns the name of every entry, repeats included.
func (f *FormData) Keys() []string {
	ret := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		ret = append(ret, e.Name)
	}
	return ret
}

// Entries returns a copy of all entries.
func (f *FormData) Entries() []FormEntry {
	return append([]FormEntry(nil), f.entries...)
}

// Encode serializes the form as a multipart/form-data body. It returns the Content-Type header
// value, which includes the boundary.
func (f *FormData) Encode() (contentType string, body []byte, err error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, e := range f.entries {
		if e.File == nil {
			if err := w.WriteField(e.Name, normalizeNewlines(e.Value)); err != nil {
				return "", nil, fmt.Errorf("encoding form field %q: %w", e.Name, err)
			}
			continue
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(e.Name), escapeQuotes(e.File.Name)))
		h.Set("Content-Type", e.File.ContentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return "", nil, fmt.Errorf("encoding form file %q: %w", e.Name, err)
		}
		if _, err := part.Write(e.File.Data); err != nil {
			return "", nil, fmt.Errorf("encoding form file %q: %w", e.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return "", nil, err
	}
	return w.FormDataContentType(), buf.Bytes(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "%22", "\n", "%0A", "\r", "%0D")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// String values are sent with CRLF line breaks, whatever they were built with.
func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}
