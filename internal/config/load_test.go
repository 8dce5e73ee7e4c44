package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadConfig_HappyPath(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "config_test")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	tempConfigsSubDir := filepath.Join(tempDir, "configs")
	err = os.Mkdir(tempConfigsSubDir, 0755)
	require.NoError(t, err)

	testAppName := "TestApp"
	testPort := 9090
	testLogLevel := "debug"
	testKafkaBrokers := "kafka1:9092,kafka2:9092"

	envContent := fmt.Sprintf(
		"APP_NAME=%s\nSERVER_PORT=%d\nLOG_LEVEL=%s\nKAFKA_BROKERS=%s\nJWT_SECRET=%s\nJWT_EXPIRATION_MS=60000\n",
		testAppName, testPort, testLogLevel, testKafkaBrokers, testSecret,
	)
	envFilePath := filepath.Join(tempConfigsSubDir, "test_happy.env")
	err = os.WriteFile(envFilePath, []byte(envContent), 0644)
	require.NoError(t, err)

	originalWD, err := os.Getwd()
	require.NoError(t, err)
	defer func() {
		_ = os.Chdir(originalWD)
	}()

	err = os.Chdir(tempDir)
	require.NoError(t, err)

	cfg, err := LoadConfig("test_happy")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, testAppName, cfg.Application.Name)
	assert.Equal(t, testPort, cfg.Server.Port)
	assert.Equal(t, testLogLevel, cfg.Logging.Level)
	assert.Equal(t, testKafkaBrokers, cfg.Kafka.Brokers)
	assert.Equal(t, testSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, time.Minute, cfg.Auth.TokenTTL)

	assert.Equal(t, "development", cfg.Application.Env)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "transaction_events", cfg.Kafka.EventsTopic)
	assert.Equal(t, "principals", cfg.MongoDB.PrincipalsCollection)
	assert.Equal(t, PrincipalSourceMemory, cfg.Auth.PrincipalSource)
	assert.Equal(t, 10, cfg.WorkerPool.Size)
	assert.NoError(t, cfg.ValidateAuth())

	cfgWithName, err := LoadConfigWithName("configs/test_happy")
	require.NoError(t, err)
	require.NotNil(t, cfgWithName)
	assert.Equal(t, testAppName, cfgWithName.Application.Name)

	cfgWithNameAndType, err := LoadConfigWithNameAndType("configs/test_happy", "env")
	require.NoError(t, err)
	require.NotNil(t, cfgWithNameAndType)
	assert.Equal(t, testAppName, cfgWithNameAndType.Application.Name)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	tempDir := t.TempDir()
	err := os.WriteFile(filepath.Join(tempDir, "test_invalid.env"), []byte("SERVER_PORT=0\nOUTBOX_BATCH_SIZE=0\n"), 0644)
	require.NoError(t, err)

	originalWD, err := os.Getwd()
	require.NoError(t, err)
	defer func() {
		_ = os.Chdir(originalWD)
	}()
	require.NoError(t, os.Chdir(tempDir))

	cfg, err := LoadConfig("test_invalid")
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERVER_PORT must be greater than 0")
	assert.Contains(t, err.Error(), "OUTBOX_BATCH_SIZE must be greater than 0")
}

func TestConfig_Validate_HappyPath(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.NoError(t, cfg.validate(), "Default config should be valid")
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Len(t, strings.Split(cfg.Auth.Principals, ";"), 2)
}

func TestConfig_ValidateAuth(t *testing.T) {
	testCases := []struct {
		name        string
		auth        AuthConfig
		expectedErr string
	}{
		{
			name:        "MissingSecret",
			auth:        AuthConfig{TokenTTL: time.Hour, PrincipalSource: PrincipalSourceMongo},
			expectedErr: "JWT_SECRET is required",
		},
		{
			name:        "ShortSecret",
			auth:        AuthConfig{JWTSecret: "short", TokenTTL: time.Hour, PrincipalSource: PrincipalSourceMongo},
			expectedErr: "JWT_SECRET must be at least 32 bytes",
		},
		{
			name:        "NonPositiveTTL",
			auth:        AuthConfig{JWTSecret: testSecret, PrincipalSource: PrincipalSourceMongo},
			expectedErr: "JWT_EXPIRATION_MS must be greater than 0",
		},
		{
			name:        "UnknownSource",
			auth:        AuthConfig{JWTSecret: testSecret, TokenTTL: time.Hour, PrincipalSource: "ldap"},
			expectedErr: "AUTH_PRINCIPAL_SOURCE must be one of: memory, mongo",
		},
		{
			name:        "MemorySourceWithoutSeed",
			auth:        AuthConfig{JWTSecret: testSecret, TokenTTL: time.Hour, PrincipalSource: PrincipalSourceMemory},
			expectedErr: "AUTH_PRINCIPALS is required",
		},
		{
			name: "Valid",
			auth: AuthConfig{JWTSecret: testSecret, TokenTTL: time.Hour, PrincipalSource: PrincipalSourceMemory, Principals: defaultPrincipals},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{Auth: tc.auth}
			err := cfg.ValidateAuth()
			if tc.expectedErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedErr)
		})
	}
}
