package filestorage

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUpload(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func TestLocalStorage_SaveAndDelete(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir(), "http://localhost:8080", "key")
	require.NoError(t, err)

	key, err := ls.Save(newUpload(t, "Transcript.PDF", []byte("%PDF-1.4")), "applications/7")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "applications/7/"))
	assert.True(t, strings.HasSuffix(key, ".pdf"))

	full, err := ls.FullPath(key)
	require.NoError(t, err)
	data, err := os.ReadFile(full)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	require.NoError(t, ls.Delete(key))
	_, err = os.Stat(full)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, ls.Delete(key))
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir(), "", "key")
	require.NoError(t, err)

	_, err = ls.FullPath("../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = ls.FullPath("")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestLocalStorage_SignedURL(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/", "key")
	require.NoError(t, err)
	now := time.Unix(1_700_000_000, 0)
	ls.now = func() time.Time { return now }

	link, expiresAt, err := ls.SignedURL("applications/1/a.pdf", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, now.Add(15*time.Minute), expiresAt)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/files/applications/1/a.pdf", u.Path)
	expires, err := strconv.ParseInt(u.Query().Get("expires"), 10, 64)
	require.NoError(t, err)
	sig := u.Query().Get("signature")

	assert.NoError(t, ls.Verify("applications/1/a.pdf", expires, sig))
	assert.ErrorIs(t, ls.Verify("applications/1/b.pdf", expires, sig), ErrInvalidSignature)
	assert.ErrorIs(t, ls.Verify("applications/1/a.pdf", expires+60, sig), ErrInvalidSignature)

	ls.now = func() time.Time { return now.Add(time.Hour) }
	assert.ErrorIs(t, ls.Verify("applications/1/a.pdf", expires, sig), ErrLinkExpired)
}
