package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestDSNs(t *testing.T) {
	tests := []struct {
		name   string
		envVar string
		value  string
		get    func() string
		want   string
	}{
		{"PostgresDefault", "TEST_POSTGRES_DSN", "", GetPostgresTestDSN, defaultPostgresTestDSN},
		{
			"PostgresFromEnv", "TEST_POSTGRES_DSN", "postgres://ci:ci@db:5432/trustlog",
			GetPostgresTestDSN, "postgres://ci:ci@db:5432/trustlog",
		},
		{"MySQLDefault", "TEST_MYSQL_DSN", "", GetMySQLTestDSN, defaultMySQLTestDSN},
		{
			"MySQLFromEnv", "TEST_MYSQL_DSN", "ci:ci@tcp(db:3306)/trustlog",
			GetMySQLTestDSN, "ci:ci@tcp(db:3306)/trustlog",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.envVar, tt.value)
			assert.Equal(t, tt.want, tt.get())
		})
	}
}

func TestGetMigrationsPath(t *testing.T) {
	for _, dbType := range []string{"postgresql", "mysql"} {
		t.Run(dbType, func(t *testing.T) {
			got, err := getMigrationsPath(dbType)
			require.NoError(t, err)
			assert.Equal(t, dbType, filepath.Base(got))

			ups, err := filepath.Glob(filepath.Join(got, "*.up.sql"))
			require.NoError(t, err)
			downs, err := filepath.Glob(filepath.Join(got, "*.down.sql"))
			require.NoError(t, err)
			assert.NotEmpty(t, ups)
			assert.Len(t, downs, len(ups), "every migration needs a down file")
		})
	}

	t.Run("UnknownDialect", func(t *testing.T) {
		got, err := getMigrationsPath("oracle")
		assert.Error(t, err)
		assert.Empty(t, got)
	})

	t.Run("FromNestedWorkingDir", func(t *testing.T) {
		wd, err := os.Getwd()
		require.NoError(t, err)
		nested := filepath.Join(wd, "testdata", "nested")
		require.NoError(t, os.MkdirAll(nested, 0o750))
		t.Cleanup(func() { _ = os.RemoveAll(filepath.Join(wd, "testdata")) })

		t.Chdir(nested)
		got, err := getMigrationsPath("postgresql")
		require.NoError(t, err)
		assert.Equal(t, "postgresql", filepath.Base(got))
	})
}

// Every table created by the migrations must be truncated by the cleanup helpers.
func TestTablesCoverMigrations(t *testing.T) {
	dir, err := getMigrationsPath("postgresql")
	require.NoError(t, err)
	ups, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	require.NoError(t, err)

	created := regexp.MustCompile(`(?i)CREATE TABLE (?:IF NOT EXISTS )?(\w+)`)
	for _, up := range ups {
		body, err := os.ReadFile(up) //nolint:gosec // test reads repository files
		require.NoError(t, err)
		for _, m := range created.FindAllStringSubmatch(string(body), -1) {
			assert.Contains(t, tables, m[1], "%s creates a table cleanup does not truncate", filepath.Base(up))
		}
	}
}

func TestSetupPostgresDB(t *testing.T) {
	SkipIfNoPostgres(t)

	db := SetupPostgresDB(t)
	defer TeardownDB(t, db)

	err := db.Ping()
	assert.NoError(t, err)

	// Verify database is clean (no tenants should exist)
	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM tenants").Scan(&count)
	assert.NoError(t, err)
	assert.Equal(t, 0, count, "database should be clean after setup")
}

func TestSetupMySQLDB(t *testing.T) {
	SkipIfNoMySQL(t)

	db := SetupMySQLDB(t)
	defer TeardownDB(t, db)

	err := db.Ping()
	assert.NoError(t, err)

	// Verify database is clean (no tenants should exist)
	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM tenants").Scan(&count)
	assert.NoError(t, err)
	assert.Equal(t, 0, count, "database should be clean after setup")
}

func TestTeardownDB(t *testing.T) {
	SkipIfNoPostgres(t)

	db := SetupPostgresDB(t)
	require.NotNil(t, db)

	TeardownDB(t, db)

	// Attempting to ping after teardown should fail
	err := db.Ping()
	assert.Error(t, err, "database should be closed after teardown")
}

func TestTeardownDBWithNilDB(t *testing.T) {
	assert.NotPanics(t, func() {
		TeardownDB(t, nil)
	})
}

func TestCleanupPostgresDB(t *testing.T) {
	SkipIfNoPostgres(t)

	db := SetupPostgresDB(t)
	defer TeardownDB(t, db)

	tenantID := CreateTestTenant(t, db, "postgres", "cleanup-tenant")
	CreateTestOperator(t, db, "postgres", "cleanup-operator", tenantID)

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM operators").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	CleanupPostgresDB(t, db)

	for _, table := range []string{"tenants", "operators", "operator_memberships"} {
		err = db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 0, count, "cleanup should remove all rows from "+table)
	}
}

func TestCleanupMySQLDB(t *testing.T) {
	SkipIfNoMySQL(t)

	db := SetupMySQLDB(t)
	defer TeardownDB(t, db)

	tenantID := CreateTestTenant(t, db, "mysql", "cleanup-tenant")
	CreateTestOperator(t, db, "mysql", "cleanup-operator", tenantID)

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM operators").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	CleanupMySQLDB(t, db)

	for _, table := range []string{"tenants", "operators", "operator_memberships"} {
		err = db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 0, count, "cleanup should remove all rows from "+table)
	}
}

func TestCreateTestFixtures(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		setup  func(t *testing.T) *sql.DB
		skip   func(t *testing.T)
	}{
		{
			name:   "create fixtures in postgres",
			driver: "postgres",
			setup:  SetupPostgresDB,
			skip:   SkipIfNoPostgres,
		},
		{
			name:   "create fixtures in mysql",
			driver: "mysql",
			setup:  SetupMySQLDB,
			skip:   SkipIfNoMySQL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.skip(t)

			db := tt.setup(t)
			defer TeardownDB(t, db)

			tenantID := CreateTestTenant(t, db, tt.driver, "fixture-tenant")
			assert.NotEqual(t, uuid.Nil, tenantID)
			assert.True(t, ValidateTestTenant(t, db, tt.driver, tenantID), "tenant should exist")

			operatorID := CreateTestOperator(t, db, tt.driver, "fixture-operator", tenantID)
			assert.NotEqual(t, uuid.Nil, operatorID)
			assert.True(t, ValidateTestOperator(t, db, tt.driver, operatorID), "operator should be active")

			assert.False(t, ValidateTestTenant(t, db, tt.driver, uuid.New()))
		})
	}
}
