package storage

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

const appDirName = "DuckStudio"

var (
	dataDirOnce     sync.Once
	dataDirPath     string
	dataDirOverride string
)

// SetDataDir overrides the data directory. It must be called before the
// first DataDir call to have any effect.
func SetDataDir(path string) {
	dataDirOverride = path
}

// DataDir returns the platform-appropriate writable data directory and creates it if missing.
func DataDir() string {
	dataDirOnce.Do(func() {
		dataDirPath = resolveDataDir()
		_ = os.MkdirAll(dataDirPath, 0o755)
	})
	return dataDirPath
}

// DataFile joins the data directory with the provided relative name.
func DataFile(name string) string {
	return filepath.Join(DataDir(), name)
}

// ReadDataFile reads a file from the data directory.
func ReadDataFile(name string) ([]byte, error) {
	return os.ReadFile(DataFile(name))
}

// WriteDataFile writes data to the data directory, ensuring the directory exists.
func WriteDataFile(name string, data []byte, perm os.FileMode) error {
	return writeFileAtomic(DataFile(name), data, perm)
}

// writeFileAtomic writes through a temporary file in the same directory so
// readers never see a half-written file.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

func resolveDataDir() string {
	if dataDirOverride != "" {
		return dataDirOverride
	}
	if custom := os.Getenv("DUCKSTUDIO_DATA_DIR"); custom != "" {
		return custom
	}

	switch runtime.GOOS {
	case "windows":
		if base := os.Getenv("APPDATA"); base != "" {
			return filepath.Join(base, appDirName)
		}
		if base := os.Getenv("LOCALAPPDATA"); base != "" {
			return filepath.Join(base, appDirName)
		}
	case "darwin":
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, "Library", "Application Support", appDirName)
		}
	default: // Linux and others
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, appDirName)
		}
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, ".local", "share", appDirName)
		}
	}

	// Final fallback: use current directory
	return "./" + appDirName
}
