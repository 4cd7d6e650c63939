package ai

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/viniciussvasques/crm-innexar/internal/application/errs"
)

type manifest struct {
	Files map[string]string `json:"files"`
}

func TestDecodeObjectPlain(t *testing.T) {
	var m manifest
	err := DecodeObject(`{"files": {"index.html": "<html></html>"}}`, &m)
	require.NoError(t, err)
	require.Equal(t, "<html></html>", m.Files["index.html"])
}

func TestDecodeObjectMarkdownFence(t *testing.T) {
	content := "Here is the site:\n```json\n{\"files\": {\"index.html\": \"ok\"}}\n```\nDone."
	var m manifest
	require.NoError(t, DecodeObject(content, &m))
	require.Equal(t, "ok", m.Files["index.html"])
}

func TestDecodeObjectSurroundingProse(t *testing.T) {
	content := `Sure! {"files": {"a.css": "body{}"}} hope that helps`
	var m manifest
	require.NoError(t, DecodeObject(content, &m))
	require.Equal(t, "body{}", m.Files["a.css"])
}

func TestDecodeObjectComments(t *testing.T) {
	content := `{
		"files": {
			"index.html": "hi", // homepage
			"style.css": "body{}"
		}
	}`
	var m manifest
	require.NoError(t, DecodeObject(content, &m))
	require.Len(t, m.Files, 2)
}

func TestDecodeObjectKeepsSlashesInsideStrings(t *testing.T) {
	content := `{"files": {"index.html": "<a href=\"https://example.com\">x</a>"}}`
	var m manifest
	require.NoError(t, DecodeObject(content, &m))
	require.Contains(t, m.Files["index.html"], "https://example.com")
}

func TestDecodeObjectTrailingCommas(t *testing.T) {
	content := `{"files": {"index.html": "hi",},}`
	var m manifest
	require.NoError(t, DecodeObject(content, &m))
	require.Equal(t, "hi", m.Files["index.html"])
}

func TestDecodeObjectRawNewlineInString(t *testing.T) {
	content := "{\"files\": {\"index.html\": \"line one\nline two\"}}"
	var m manifest
	require.NoError(t, DecodeObject(content, &m))
	require.Equal(t, "line one\nline two", m.Files["index.html"])
}

func TestDecodeObjectBadEscape(t *testing.T) {
	content := `{"files": {"index.html": "C:\Users\site"}}`
	var m manifest
	require.NoError(t, DecodeObject(content, &m))
	require.Equal(t, `C:\Users\site`, m.Files["index.html"])
}

func TestDecodeObjectNoJSON(t *testing.T) {
	var m manifest
	err := DecodeObject("I could not produce the site, sorry.", &m)
	require.Error(t, err)
	var malformed errs.MalformedResponseError
	require.True(t, errors.As(err, &malformed))
}

func TestDecodeObjectUnrepairable(t *testing.T) {
	var m manifest
	err := DecodeObject(`{"files": {{{`, &m)
	require.Error(t, err)
	var malformed errs.MalformedResponseError
	require.True(t, errors.As(err, &malformed))
}
