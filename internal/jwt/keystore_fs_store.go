package jwt

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dropDatabas3/keyrotor/internal/util/atomicwrite"
)

const (
	privateSuffix = "_private.pem"
	publicSuffix  = "_public.pem"
)

// FileKeyStore guarda cada par como {kid}_private.pem + {kid}_public.pem en un directorio.
type FileKeyStore struct {
	dir string
}

// NewFileKeyStore crea el directorio si no existe.
func NewFileKeyStore(dir string) (*FileKeyStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("keys dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir keys dir: %w", err)
	}
	return &FileKeyStore{dir: dir}, nil
}

func (s *FileKeyStore) Name() Source { return SourceFilesystem }

// Dir retorna el directorio de claves.
func (s *FileKeyStore) Dir() string { return s.dir }

func (s *FileKeyStore) privatePath(kid string) string {
	return filepath.Join(s.dir, kid+privateSuffix)
}

func (s *FileKeyStore) publicPath(kid string) string {
	return filepath.Join(s.dir, kid+publicSuffix)
}

// Load recorre el directorio; un registro existe solo si está el archivo público.
// CreatedAt es el mtime del público (Go no expone ctime de forma portable).
func (s *FileKeyStore) Load(ctx context.Context) ([]KeyRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read keys dir: %w", err)
	}

	out := make([]KeyRecord, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, publicSuffix) {
			continue
		}
		kid := strings.TrimSuffix(name, publicSuffix)
		if kid == "" {
			continue
		}

		pubPath := s.publicPath(kid)
		pub, err := os.ReadFile(pubPath)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				// borrado entre ReadDir y ReadFile
				continue
			}
			return nil, fmt.Errorf("read %s: %w", pubPath, err)
		}
		st, err := os.Stat(pubPath)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", pubPath, err)
		}

		rec := KeyRecord{
			KID:       kid,
			PublicPEM: string(pub),
			CreatedAt: st.ModTime().UTC(),
			Source:    SourceFilesystem,
		}
		priv, err := os.ReadFile(s.privatePath(kid))
		switch {
		case err == nil:
			rec.PrivatePEM = string(priv)
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("read private %s: %w", kid, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Save escribe primero el privado y después el público. Cada archivo se crea
// de forma atómica y sin reemplazo: si el kid ya tiene archivos en disco (aunque
// los haya escrito otro proceso) devuelve ErrKIDExists y no toca nada. El par
// no es atómico: si el proceso muere entre ambos queda un privado huérfano que
// Load ignora.
func (s *FileKeyStore) Save(ctx context.Context, kid, privatePEM, publicPEM string) error {
	if !ValidKID(kid) {
		return fmt.Errorf("%w: %q", ErrInvalidKID, kid)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(s.publicPath(kid)); err == nil {
		return fmt.Errorf("%w: %s", ErrKIDExists, kid)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat public %s: %w", kid, err)
	}
	if privatePEM != "" {
		if err := atomicwrite.CreateFile(s.privatePath(kid), []byte(privatePEM), 0o600); err != nil {
			if errors.Is(err, fs.ErrExist) {
				return fmt.Errorf("%w: %s", ErrKIDExists, kid)
			}
			return fmt.Errorf("write private %s: %w", kid, err)
		}
	}
	if err := atomicwrite.CreateFile(s.publicPath(kid), []byte(publicPEM), 0o644); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrKIDExists, kid)
		}
		return fmt.Errorf("write public %s: %w", kid, err)
	}
	// mtime con resolución de ns para que dos rotaciones seguidas no empaten
	now := time.Now()
	_ = os.Chtimes(s.publicPath(kid), now, now)
	return nil
}

// Retire borra el archivo privado. El público queda para verificar tokens viejos.
func (s *FileKeyStore) Retire(_ context.Context, kid string) error {
	if kid == "" || kid == "." || kid == ".." || strings.ContainsAny(kid, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidKID, kid)
	}
	if err := os.Remove(s.privatePath(kid)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove private %s: %w", kid, err)
	}
	return nil
}
