package config

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseConfig_URLEscapesCredentials(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db",
		Port:     "5432",
		User:     "app user",
		Password: "p@ss#w/rd:1?",
		Name:     "uniguide",
		SSLMode:  "disable",
	}

	u, err := url.Parse(d.URL())
	require.NoError(t, err)

	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "db", u.Hostname())
	assert.Equal(t, "5432", u.Port())
	assert.Equal(t, "/uniguide", u.Path)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
	assert.Equal(t, "app user", u.User.Username())
	password, ok := u.User.Password()
	assert.True(t, ok)
	assert.Equal(t, "p@ss#w/rd:1?", password)
}

func TestDatabaseConfig_URLWithIPv6Host(t *testing.T) {
	d := DatabaseConfig{Host: "::1", Port: "5432", User: "postgres", Name: "uniguide", SSLMode: "require"}

	u, err := url.Parse(d.URL())
	require.NoError(t, err)
	assert.Equal(t, "::1", u.Hostname())
	assert.Equal(t, "5432", u.Port())
}

func TestDatabaseConfig_DSNQuotesValues(t *testing.T) {
	d := DatabaseConfig{
		Host:     "localhost",
		Port:     "5432",
		User:     "postgres",
		Password: `it's a \secret`,
		Name:     "uniguide",
		SSLMode:  "disable",
	}

	assert.Equal(t,
		`host=localhost user=postgres password='it\'s a \\secret' dbname=uniguide port=5432 sslmode=disable TimeZone=UTC`,
		d.DSN(),
	)
}

func TestDatabaseConfig_DSNEmptyPassword(t *testing.T) {
	d := DatabaseConfig{Host: "localhost", Port: "5432", User: "postgres", Name: "uniguide", SSLMode: "disable"}
	assert.Contains(t, d.DSN(), "password='' dbname=uniguide")
}
