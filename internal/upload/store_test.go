package upload

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskTracker/internal/apperr"
)

func newStore(t *testing.T, max int64) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "uploads"), max)
	require.NoError(t, err)
	return s
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestSaveAndOpen(t *testing.T) {
	s := newStore(t, 1024)

	name, err := s.Save(strings.NewReader("proof"), "scan 1.png")
	require.NoError(t, err)
	assert.Equal(t, "scan_1.png", name)

	f, info, err := s.Open(name)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, int64(5), info.Size())
	b, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "proof", string(b))
}

func TestSaveTraversalStaysInside(t *testing.T) {
	s := newStore(t, 1024)

	name, err := s.Save(strings.NewReader("x"), "../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, "etc_passwd", name)
	assert.Equal(t, []string{"etc_passwd"}, listDir(t, s.Dir()))
}

func TestSaveGeneratesNameWhenNothingSurvives(t *testing.T) {
	s := newStore(t, 1024)

	name, err := s.Save(strings.NewReader("x"), "日本")
	require.NoError(t, err)
	assert.NotEmpty(t, name)
	assert.Equal(t, name, SanitizeFilename(name))
}

func TestSaveReplacesExisting(t *testing.T) {
	s := newStore(t, 1024)

	_, err := s.Save(strings.NewReader("first"), "a.txt")
	require.NoError(t, err)
	_, err = s.Save(strings.NewReader("second"), "a.txt")
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(s.Dir(), "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(b))
	assert.Equal(t, []string{"a.txt"}, listDir(t, s.Dir()))
}

func TestSaveTooLarge(t *testing.T) {
	s := newStore(t, 4)

	_, err := s.Save(strings.NewReader("12345"), "big.bin")
	assert.ErrorIs(t, err, apperr.ErrPayloadTooLarge)
	assert.Empty(t, listDir(t, s.Dir()))

	name, err := s.Save(strings.NewReader("1234"), "fits.bin")
	require.NoError(t, err)
	assert.Equal(t, "fits.bin", name)
}

func TestOpenRejectsUnsanitizedNames(t *testing.T) {
	s := newStore(t, 1024)
	outside := filepath.Join(filepath.Dir(s.Dir()), "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("top"), 0o644))

	for _, name := range []string{"", "../secret.txt", ".upload-123", "a b.txt", "missing.txt"} {
		_, _, err := s.Open(name)
		assert.ErrorIs(t, err, apperr.ErrNotFound, name)
	}
}

func multipartRequest(t *testing.T, field, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "t"))
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/add", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestStageFormFile(t *testing.T) {
	s := newStore(t, 1024)

	st, err := s.StageFormFile(multipartRequest(t, "proof_file", "done.pdf", "pdf"), "proof_file")
	require.NoError(t, err)
	assert.Equal(t, "done.pdf", st.Name)
	require.NoError(t, st.Commit())
	assert.Equal(t, []string{"done.pdf"}, listDir(t, s.Dir()))

	_, err = s.StageFormFile(multipartRequest(t, "", "", ""), "proof_file")
	assert.ErrorIs(t, err, ErrNoFile)

	_, err = s.StageFormFile(multipartRequest(t, "proof_file", "", "pdf"), "proof_file")
	assert.ErrorIs(t, err, ErrNoFile)

	req := httptest.NewRequest(http.MethodPost, "/add", strings.NewReader("title=t"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	_, err = s.StageFormFile(req, "proof_file")
	assert.ErrorIs(t, err, ErrNoFile)
}

func TestStagedIsInvisibleUntilCommit(t *testing.T) {
	s := newStore(t, 1024)
	_, err := s.Save(strings.NewReader("original"), "proof.txt")
	require.NoError(t, err)

	st, err := s.Stage(strings.NewReader("replacement"), "proof.txt")
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(s.Dir(), "proof.txt"))
	require.NoError(t, err)
	assert.Equal(t, "original", string(b))

	st.Discard()
	st.Discard()
	assert.Equal(t, []string{"proof.txt"}, listDir(t, s.Dir()))
	assert.Error(t, st.Commit())

	st, err = s.Stage(strings.NewReader("replacement"), "proof.txt")
	require.NoError(t, err)
	require.NoError(t, st.Commit())
	st.Discard()
	b, err = os.ReadFile(filepath.Join(s.Dir(), "proof.txt"))
	require.NoError(t, err)
	assert.Equal(t, "replacement", string(b))
}
