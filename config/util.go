package config

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"
	"unicode"
)

func homeDir() string {
	if usr, err := user.Current(); err == nil && usr.HomeDir != "" {
		return usr.HomeDir
	}
	return os.Getenv("HOME")
}

func appDataDir(goos, appName string, roaming bool) string {
	appName = strings.TrimPrefix(appName, ".")
	if appName == "" {
		return "."
	}
	upper := string(unicode.ToUpper(rune(appName[0]))) + appName[1:]
	lower := string(unicode.ToLower(rune(appName[0]))) + appName[1:]
	home := homeDir()

	switch goos {
	case "windows":
		appData := os.Getenv("LOCALAPPDATA")
		if roaming || appData == "" {
			appData = os.Getenv("APPDATA")
		}
		if appData != "" {
			return filepath.Join(appData, upper)
		}
	case "darwin":
		if home != "" {
			return filepath.Join(home, "Library", "Application Support", upper)
		}
	case "plan9":
		if home != "" {
			return filepath.Join(home, lower)
		}
	default:
		if home != "" {
			return filepath.Join(home, "."+lower)
		}
	}
	return "."
}

// AppDataDir returns the per-user data directory of appName:
//  POSIX: ~/.appname
//  Mac OS: $HOME/Library/Application Support/Appname
//  Windows: %LOCALAPPDATA%\Appname (%APPDATA% when roaming)
//  Plan 9: $home/appname
func AppDataDir(appName string, roaming bool) string {
	return appDataDir(runtime.GOOS, appName, roaming)
}

// CleanAndExpandPath expands a leading ~ and environment variables in path
// and cleans the result.
func CleanAndExpandPath(path string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~") {
		path = strings.Replace(path, "~", homeDir(), 1)
	}
	return filepath.Clean(os.ExpandEnv(path))
}
