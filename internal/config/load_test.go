package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp moves the test into a fresh directory holding a configs/ subdirectory
func chdirTemp(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(tempDir, "configs"), 0755))

	originalWD, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(originalWD) })
	require.NoError(t, os.Chdir(tempDir))
	return tempDir
}

func TestLoadConfig_HappyPath(t *testing.T) {
	tempDir := chdirTemp(t)

	envContent := fmt.Sprintf(
		"APP_NAME=%s\nSERVER_PORT=%d\nLOG_LEVEL=%s\nCORE_BASE_URL=%s\nCORE_TIMEOUT=%d\nCORE_APPROVED_STATUSES=%s\n",
		"TestCore", 9090, "debug", "http://core.test:8080/", 5, "APROBADO, OK ,",
	)
	err := os.WriteFile(filepath.Join(tempDir, "configs", "test_happy.env"), []byte(envContent), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig("test_happy")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "TestCore", cfg.Application.Name)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 5*time.Second, cfg.CoreBank.Timeout())
	assert.Equal(t, []string{"APROBADO", "OK"}, cfg.CoreBank.ApprovedStatuses)
	assert.Equal(t, "http://core.test:8080/v1/transacciones/tarjeta", cfg.CoreBank.DebitURL())
	assert.Equal(t, "http://core.test:8080/v1/transacciones/cuenta", cfg.CoreBank.CreditURL())
	assert.Equal(t, "http://core.test:8080/v1/transacciones/tarjeta/reverso", cfg.CoreBank.ReversalURL())

	assert.Equal(t, "development", cfg.Application.Env)
	assert.Equal(t, 3, cfg.CoreBank.RetryMaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.CoreBank.RetryBackoff())
	assert.Equal(t, "core_transaction_requests", cfg.Kafka.RequestTopic)
	assert.Equal(t, "core_transaction_results", cfg.Kafka.ResultTopic)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoDB.URI)
	assert.Equal(t, 10, cfg.WorkerPool.Size)

	cfgWithName, err := LoadConfigWithName("configs/test_happy")
	require.NoError(t, err)
	assert.Equal(t, "TestCore", cfgWithName.Application.Name)

	cfgWithNameAndType, err := LoadConfigWithNameAndType("configs/test_happy", "env")
	require.NoError(t, err)
	assert.Equal(t, "TestCore", cfgWithNameAndType.Application.Name)
}

func TestLoadConfig_EnvironmentOverridesFile(t *testing.T) {
	tempDir := chdirTemp(t)
	err := os.WriteFile(filepath.Join(tempDir, "configs", "test_env.env"), []byte("CORE_RETRY_MAX_ATTEMPTS=7\n"), 0644)
	require.NoError(t, err)
	t.Setenv("CORE_RETRY_MAX_ATTEMPTS", "2")

	cfg, err := LoadConfig("test_env")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.CoreBank.RetryMaxAttempts)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CORE_BASE_URL", "core-without-scheme")
	t.Setenv("CORE_RETRY_MAX_ATTEMPTS", "0")
	t.Setenv("WORKER_POOL_SIZE", "0")

	cfg, err := LoadConfig("missing")
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "CORE_BASE_URL must be an absolute URL")
	assert.Contains(t, err.Error(), "CORE_RETRY_MAX_ATTEMPTS must be greater than 0")
	assert.Contains(t, err.Error(), "WORKER_POOL_SIZE must be greater than 0")
}

func TestConfig_Validate_Defaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.NoError(t, cfg.validate(), "Default config should be valid")
	assert.Equal(t, []string{"APROBADO", "APROBADA", "APPROVED"}, cfg.CoreBank.ApprovedStatuses)
}

func TestConfig_Validate_EmptyApprovedStatuses(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("CORE_APPROVED_STATUSES", " , ")

	err := fromViper(v).validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CORE_APPROVED_STATUSES")
}

func TestConfig_WriteTimeout(t *testing.T) {
	t.Run("DefaultsToWorstCaseSaga", func(t *testing.T) {
		v := viper.New()
		setDefaults(v)

		cfg := fromViper(v)
		// three legs of 3 x 30s calls with 100ms and 200ms pauses, plus the margin
		assert.Equal(t, 270900*time.Millisecond, cfg.CoreBank.WorstCaseSaga())
		assert.Equal(t, 285900*time.Millisecond, cfg.Server.WriteTimeout)
		assert.NoError(t, cfg.validate())
	})

	t.Run("FollowsCoreSettings", func(t *testing.T) {
		v := viper.New()
		setDefaults(v)
		v.Set("CORE_TIMEOUT", 5)
		v.Set("CORE_RETRY_MAX_ATTEMPTS", 2)
		v.Set("CORE_RETRY_BACKOFF_MS", 50)

		cfg := fromViper(v)
		assert.Equal(t, 30150*time.Millisecond, cfg.CoreBank.WorstCaseSaga())
		assert.Equal(t, 45150*time.Millisecond, cfg.Server.WriteTimeout)
	})

	t.Run("ExplicitValueKept", func(t *testing.T) {
		v := viper.New()
		setDefaults(v)
		v.Set("SERVER_WRITE_TIMEOUT", "10m")

		cfg := fromViper(v)
		assert.Equal(t, 10*time.Minute, cfg.Server.WriteTimeout)
		assert.NoError(t, cfg.validate())
	})

	t.Run("ShorterThanSagaRejected", func(t *testing.T) {
		v := viper.New()
		setDefaults(v)
		v.Set("SERVER_WRITE_TIMEOUT", "90s")

		err := fromViper(v).validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SERVER_WRITE_TIMEOUT must be at least 4m30.9s")
	})
}

func TestConfig_Validate_DLQTopicOptional(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("KAFKA_DLQ_TOPIC", "")

	cfg := fromViper(v)
	assert.Empty(t, cfg.Kafka.DLQTopic)
	assert.NoError(t, cfg.validate())
}
