// Package platform locates the per-user directories the player writes to.
package platform

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	appName   = "ampwave"
	appBundle = "ru.akarpov.ampwave"
)

// GetCacheDir returns the directory for log files and other disposable state.
func GetCacheDir() (string, error) {
	return userDir(os.UserCacheDir, "cache")
}

// GetConfigDir returns the directory searched for config.yaml.
func GetConfigDir() (string, error) {
	return userDir(os.UserConfigDir, "files")
}

// userDir resolves base (XDG, Library or AppData) on desktop systems. Android
// has no HOME, so the app's private data directory is used instead.
func userDir(base func() (string, error), androidSub string) (string, error) {
	if runtime.GOOS == "android" {
		return androidDir(os.Getenv("ANDROID_DATA"), androidSub), nil
	}
	dir, err := base()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

func androidDir(dataRoot, sub string) string {
	if dataRoot == "" {
		dataRoot = "/data"
	}
	return filepath.Join(dataRoot, "data", appBundle, sub)
}
