package infra

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"catalogo/internal/apierror"
)

var (
	extensionesImagen = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true}
	caracterInvalido  = regexp.MustCompile(`[^\w,\s-]`)
)

const maxNombreBase = 200

// FileStorage keeps product images as flat files under a single directory.
// Stored names are <unix-millis>-<original name> with nothing but word
// characters, commas, spaces and hyphens before the extension.
type FileStorage struct {
	dir      string
	maxBytes int64
	now      func() time.Time
}

func NewFileStorage(dir string, maxMB int) *FileStorage {
	return &FileStorage{dir: dir, maxBytes: int64(maxMB) << 20, now: time.Now}
}

// Dir is the directory served under /uploads.
func (s *FileStorage) Dir() string { return s.dir }

// Guardar validates and writes the uploaded file, returning its stored name.
func (s *FileStorage) Guardar(fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !extensionesImagen[ext] {
		return "", apierror.Validation("imagen", "imagen", "Solo se permiten imagenes jpg, jpeg, png o gif")
	}
	if s.maxBytes > 0 && fh.Size > s.maxBytes {
		return "", apierror.Validation("imagen", fmt.Sprintf("max=%dMB", s.maxBytes>>20),
			fmt.Sprintf("La imagen no puede superar %d MB", s.maxBytes>>20))
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: crear directorio: %w", err)
	}

	nombre := s.nombreDestino(fh.Filename, ext)
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("storage: abrir upload: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(filepath.Join(s.dir, nombre), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("storage: crear archivo: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("storage: escribir archivo: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("storage: cerrar archivo: %w", err)
	}
	return nombre, nil
}

func (s *FileStorage) nombreDestino(original, ext string) string {
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	base = strings.TrimSpace(caracterInvalido.ReplaceAllString(base, "_"))
	if base == "" {
		base = "imagen"
	}
	if len(base) > maxNombreBase {
		base = base[:maxNombreBase]
	}
	return fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), base, ext)
}

// Eliminar removes a stored image. A missing file is not an error.
func (s *FileStorage) Eliminar(nombre string) error {
	if nombre == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.Base(nombre)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: eliminar %s: %w", nombre, err)
	}
	return nil
}
