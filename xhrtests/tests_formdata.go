package xhrtests

import (
	"github.com/launchdarkly/xhr-contract-tests/framework"
	"github.com/launchdarkly/xhr-contract-tests/servicedef"
	"github.com/launchdarkly/xhr-contract-tests/xhr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postForm(t *framework.T, serverURL string, form *xhr.FormData) servicedef.FormResponse {
	return decodeJSON[servicedef.FormResponse](t, sendSync(t, "POST", serverURL+"/form", form))
}

func doFormDataTests(s *suiteBuilder) {
	s.test("entries keep insertion order", func(t *framework.T, serverURL string) {
		f := xhr.NewFormData()
		f.Append("b", "1")
		f.Append("a", "2")
		f.Append("b", "3")
		assert.Equal(t, []string{"b", "a", "b"}, f.Keys())
		assert.Equal(t, []string{"1", "3"}, f.GetAll("b"))
		v, ok := f.Get("b")
		assert.True(t, ok)
		assert.Equal(t, "1", v)
	})

	s.test("set replaces every entry with the name", func(t *framework.T, serverURL string) {
		f := xhr.NewFormData()
		f.Append("a", "1")
		f.Append("b", "2")
		f.Append("a", "3")
		f.Set("a", "replaced")
		assert.Equal(t, []string{"a", "b"}, f.Keys())
		assert.Equal(t, []string{"replaced"}, f.GetAll("a"))
	})

	s.test("delete removes every entry with the name", func(t *framework.T, serverURL string) {
		f := xhr.NewFormData()
		f.Append("a", "1")
		f.Append("a", "2")
		f.Delete("a")
		assert.False(t, f.Has("a"))
		assert.Empty(t, f.Keys())
	})

	s.test("fields are posted as multipart", func(t *framework.T, serverURL string) {
		f := xhr.NewFormData()
		f.Append("name", "value")
		f.Append("empty", "")
		form := postForm(t, serverURL, f)
		assert.Equal(t, "multipart/form-data", form.ContentType)
		assert.Equal(t, map[string][]string{"name": {"value"}, "empty": {""}}, form.Fields)
	}, servicedef.CapabilityForms)

	s.test("repeated fields are all posted in order", func(t *framework.T, serverURL string) {
		f := xhr.NewFormData()
		f.Append("item", "first")
		f.Append("item", "second")
		f.Append("item", "third")
		form := postForm(t, serverURL, f)
		assert.Equal(t, []string{"first", "second", "third"}, form.Fields["item"])
	}, servicedef.CapabilityForms)

	s.test("line breaks in fields become CRLF", func(t *framework.T, serverURL string) {
		f := xhr.NewFormData()
		f.Append("text", "one\ntwo\rthree\r\nfour")
		form := postForm(t, serverURL, f)
		assert.Equal(t, []string{"one\r\ntwo\r\nthree\r\nfour"}, form.Fields["text"])
	}, servicedef.CapabilityForms)

	s.test("non-ASCII field values", func(t *framework.T, serverURL string) {
		f := xhr.NewFormData()
		f.Append("greeting", "こんにちは")
		form := postForm(t, serverURL, f)
		assert.Equal(t, []string{"こんにちは"}, form.Fields["greeting"])
	}, servicedef.CapabilityForms)

	s.test("file is uploaded with name and type", func(t *framework.T, serverURL string) {
		f := xhr.NewFormData()
		f.Append("description", "a file")
		f.AppendFile("upload", xhr.File{Name: "notes.txt", ContentType: "text/plain", Data: []byte("file contents")})
		form := postForm(t, serverURL, f)

		assert.Equal(t, []string{"a file"}, form.Fields["description"])
		require.Len(t, form.Files["upload"], 1)
		assert.Equal(t, servicedef.FormFile{
			FileName:    "notes.txt",
			ContentType: "text/plain",
			Size:        13,
			Content:     "file contents",
		}, form.Files["upload"][0])
	}, servicedef.CapabilityForms)

	s.test("file without name or type gets defaults", func(t *framework.T, serverURL string) {
		f := xhr.NewFormData()
		f.AppendFile("upload", xhr.File{Data: []byte{0, 1, 2}})
		form := postForm(t, serverURL, f)

		require.Len(t, form.Files["upload"], 1)
		assert.Equal(t, "blob", form.Files["upload"][0].FileName)
		assert.Equal(t, "application/octet-stream", form.Files["upload"][0].ContentType)
		assert.Equal(t, 3, form.Files["upload"][0].Size)
	}, servicedef.CapabilityForms)

	s.test("several files under one name", func(t *framework.T, serverURL string) {
		f := xhr.NewFormData()
		f.AppendFile("files", xhr.File{Name: "a.txt", Data: []byte("a")})
		f.AppendFile("files", xhr.File{Name: "b.txt", Data: []byte("bb")})
		form := postForm(t, serverURL, f)

		require.Len(t, form.Files["files"], 2)
		assert.Equal(t, "a.txt", form.Files["files"][0].FileName)
		assert.Equal(t, "b.txt", form.Files["files"][1].FileName)
	}, servicedef.CapabilityForms)

	s.test("multipart content type includes the boundary", func(t *framework.T, serverURL string) {
		f := xhr.NewFormData()
		f.Append("a", "1")
		e := echo(t, sendSync(t, "POST", serverURL+"/echo", f))
		assert.Regexp(t, `^multipart/form-data; boundary=\S+$`, e.Headers["content-type"])
	})
}
