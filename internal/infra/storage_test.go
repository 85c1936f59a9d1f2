package infra

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"catalogo/internal/apierror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fileHeader builds a real multipart.FileHeader the way gin would hand it over.
func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("imagen", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["imagen"][0]
}

func TestFileStorage_Guardar(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	s := NewFileStorage(dir, 1)
	s.now = func() time.Time { return time.UnixMilli(1718000000000) }

	nombre, err := s.Guardar(fileHeader(t, "mi foto (1).JPG", []byte("jpeg-bytes")))
	require.NoError(t, err)
	assert.Equal(t, "1718000000000-mi foto _1_.jpg", nombre)

	data, err := os.ReadFile(filepath.Join(dir, nombre))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
}

func TestFileStorage_Guardar_RejectsExtension(t *testing.T) {
	s := NewFileStorage(t.TempDir(), 1)

	_, err := s.Guardar(fileHeader(t, "script.php", []byte("<?php")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierror.ErrValidation))
}

func TestFileStorage_Guardar_RejectsSize(t *testing.T) {
	s := NewFileStorage(t.TempDir(), 1)

	_, err := s.Guardar(fileHeader(t, "grande.png", bytes.Repeat([]byte{1}, 1<<20+1)))
	require.Error(t, err)
	var apiErr *apierror.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "imagen", apiErr.Field)
	assert.Equal(t, "max=1MB", apiErr.Rule)
}

func TestFileStorage_Eliminar(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStorage(dir, 1)
	path := filepath.Join(dir, "1-a.png")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	require.NoError(t, s.Eliminar("1-a.png"))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Eliminar("1-a.png"), "missing files are ignored")
	assert.NoError(t, s.Eliminar(""))
}

func TestFileStorage_Eliminar_StaysInsideDir(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(root, "keep.png")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))
	s := NewFileStorage(filepath.Join(root, "uploads"), 1)

	require.NoError(t, s.Eliminar("../keep.png"))
	_, err := os.Stat(outside)
	assert.NoError(t, err)
}
