package testutil

import (
	"database/sql"
	"fmt"
	"sitetester-cli/lib/telemetry"
	"strings"
	"testing"

	"github.com/mazen160/go-random"
	_ "modernc.org/sqlite"
)

type ServiceParams struct {
	Name string
	// if unspecified, it will skip setting up a db
	DbSchema string
	// if unspecified, it will use `:memory:`
	DbPath string
}

type ServiceResult struct {
	DB *sql.DB
}

func SetupService(t testing.TB, params ServiceParams) (ServiceResult, func()) {
	cleanup := telemetry.SetupForTesting(t, fmt.Sprintf("test:%s", params.Name))

	if params.DbSchema == "" {
		return ServiceResult{}, cleanup
	}

	dbpath := params.DbPath
	if dbpath == "" {
		dbpath = ":memory:"
	}
	sqlite, err := sql.Open("sqlite", dbpath)
	if err != nil {
		t.Fatal(err)
	}
	_, err = sqlite.Exec(params.DbSchema)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		t.Fatal(err)
	}

	return ServiceResult{
		DB: sqlite,
	}, cleanup
}

// RandomSessionId generates a plausible backend session id for fixtures.
func RandomSessionId(t testing.TB) string {
	id, err := random.String(8)
	if err != nil {
		t.Fatal(err)
	}
	return strings.ToLower(id)
}
