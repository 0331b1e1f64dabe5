package shared_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"nps_survey/internal/shared"
)

// unsetenv clears keys for the test; cleanenv treats a set-but-empty var as a value.
func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		if old, ok := os.LookupEnv(k); ok {
			t.Cleanup(func() { _ = os.Setenv(k, old) })
		}
		_ = os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetenv(t, "APP_ENV", "HTTP_ADDR", "STORE_DRIVER", "TESTING_ENABLED", "TESTING_HEADER", "CACHE_TTL_SECONDS")

	c := shared.Load()
	assert.Equal(t, "prod", c.AppEnv)
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, shared.StoreMySQL, c.StoreDriver)
	assert.Equal(t, "X-Testing-Key", c.TestingHeader)
	assert.False(t, c.TestingEnabled)
	assert.Equal(t, 300*time.Second, c.CacheTTL())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "testing")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("TESTING_SECRET", "s3cret")
	t.Setenv("CACHE_TTL_SECONDS", "15")
	t.Setenv("COMMENT_ALLOW_PUNCTUATION", "true")

	c := shared.Load()
	assert.True(t, c.TestingEnabled, "APP_ENV=testing enables testing endpoints")
	assert.Equal(t, shared.StoreMemory, c.StoreDriver)
	assert.Equal(t, "s3cret", c.TestingSecret)
	assert.Equal(t, 15*time.Second, c.CacheTTL())
	assert.True(t, c.AllowCommentPunctuation)
}

func TestLoad_UnknownDriverFallsBack(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	assert.Equal(t, shared.StoreMySQL, shared.Load().StoreDriver)
}
