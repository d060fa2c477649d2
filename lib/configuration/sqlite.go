package configuration

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Sqlite points at the state database. A url switches to a remote libsql
// instance, otherwise the file is opened directly.
type Sqlite struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func (config Sqlite) OpenDB() (*sql.DB, error) {
	if config.Url == "" {
		if config.File == "" {
			return nil, fmt.Errorf("neither a file nor a url was specified")
		}
		path, err := resolvePath(config.File)
		if err != nil {
			return nil, err
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, err
			}
		}
		return sql.Open("sqlite", path)
	}

	values := url.Values{}
	if config.AuthToken != "" {
		values.Add("authToken", config.AuthToken)
	}
	return sql.Open("libsql", config.Url+"?"+values.Encode())
}

// expands a leading ~/ to the user home directory
func resolvePath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
