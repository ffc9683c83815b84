package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
			wantErr:  false,
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)

				// Verify some key fields are populated
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, "http://localhost:8081", cfg.Services.AnalyticsURL)
				assert.Equal(t, "http://localhost:8082", cfg.Services.VehicleURL)
				assert.Equal(t, StoragePostgres, cfg.Storage.Driver)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "reports_db", cfg.Database.Database)
				assert.Equal(t, "report_exchange", cfg.RabbitMQ.Exchange.Name)
				assert.Equal(t, "report_jobs", cfg.RabbitMQ.Queue.Name)
				assert.Equal(t, time.Hour, cfg.RabbitMQ.Queue.MessageTTL)
				assert.Equal(t, "report.generate", cfg.RabbitMQ.RoutingKey)
				assert.Equal(t, 1, cfg.RabbitMQ.Consumer.PrefetchCount)
				assert.Equal(t, 3, cfg.Worker.Concurrency)
				assert.Equal(t, "report-service", cfg.App.Name)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Services: ServicesConfig{
			AnalyticsURL: "http://localhost:8081",
			VehicleURL:   "http://localhost:8082",
		},
		Storage: StorageConfig{Driver: StorageMemory},
		RabbitMQ: RabbitMQConfig{
			Host: "localhost",
			Port: 5672,
			Exchange: ExchangeConfig{
				Name: "report_exchange",
			},
			Queue: QueueConfig{
				Name: "report_jobs",
			},
		},
		Worker: WorkerConfig{Concurrency: 3},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(cfg *Config)
		wantErr   bool
		errString string
	}{
		{
			name:    "valid config",
			mutate:  func(cfg *Config) {},
			wantErr: false,
		},
		{
			name: "empty storage driver defaults to memory",
			mutate: func(cfg *Config) {
				cfg.Storage.Driver = ""
			},
			wantErr: false,
		},
		{
			name: "invalid server port - too low",
			mutate: func(cfg *Config) {
				cfg.Server.Port = 0
			},
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name: "invalid server port - too high",
			mutate: func(cfg *Config) {
				cfg.Server.Port = 70000
			},
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name: "empty analytics URL",
			mutate: func(cfg *Config) {
				cfg.Services.AnalyticsURL = ""
			},
			wantErr:   true,
			errString: "analytics service URL is required",
		},
		{
			name: "empty vehicle URL",
			mutate: func(cfg *Config) {
				cfg.Services.VehicleURL = ""
			},
			wantErr:   true,
			errString: "vehicle service URL is required",
		},
		{
			name: "unknown storage driver",
			mutate: func(cfg *Config) {
				cfg.Storage.Driver = "redis"
			},
			wantErr:   true,
			errString: "unknown storage driver",
		},
		{
			name: "postgres driver without database host",
			mutate: func(cfg *Config) {
				cfg.Storage.Driver = StoragePostgres
				cfg.Database = DatabaseConfig{Port: 5432, Database: "reports_db"}
			},
			wantErr:   true,
			errString: "database host is required",
		},
		{
			name: "postgres driver without database name",
			mutate: func(cfg *Config) {
				cfg.Storage.Driver = StoragePostgres
				cfg.Database = DatabaseConfig{Host: "localhost", Port: 5432}
			},
			wantErr:   true,
			errString: "database name is required",
		},
		{
			name: "memory driver ignores database section",
			mutate: func(cfg *Config) {
				cfg.Storage.Driver = StorageMemory
				cfg.Database = DatabaseConfig{}
			},
			wantErr: false,
		},
		{
			name: "empty rabbitmq host",
			mutate: func(cfg *Config) {
				cfg.RabbitMQ.Host = ""
			},
			wantErr:   true,
			errString: "rabbitmq host is required",
		},
		{
			name: "empty exchange name",
			mutate: func(cfg *Config) {
				cfg.RabbitMQ.Exchange.Name = ""
			},
			wantErr:   true,
			errString: "rabbitmq exchange name is required",
		},
		{
			name: "empty queue name",
			mutate: func(cfg *Config) {
				cfg.RabbitMQ.Queue.Name = ""
			},
			wantErr:   true,
			errString: "rabbitmq queue name is required",
		},
		{
			name: "zero worker concurrency",
			mutate: func(cfg *Config) {
				cfg.Worker.Concurrency = 0
			},
			wantErr:   true,
			errString: "worker concurrency must be greater than 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestLoad_ValidateIntegration(t *testing.T) {
	t.Run("load and validate valid config", func(t *testing.T) {
		cfg, err := Load("testdata/valid_config.yaml")
		require.NoError(t, err)
		require.NotNil(t, cfg)

		err = cfg.Validate()
		require.NoError(t, err)
	})

	t.Run("load config with invalid port", func(t *testing.T) {
		cfg, err := Load("testdata/invalid_port.yaml")
		require.NoError(t, err)
		require.NotNil(t, cfg)

		err = cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid server port")
	})

	t.Run("load config with missing database", func(t *testing.T) {
		cfg, err := Load("testdata/missing_database.yaml")
		require.NoError(t, err)
		require.NotNil(t, cfg)

		err = cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database name is required")
	})
}

func TestPortConstants(t *testing.T) {
	t.Run("port constants are correct", func(t *testing.T) {
		assert.Equal(t, 1, MinPort)
		assert.Equal(t, 65535, MaxPort)
	})

	t.Run("valid port range", func(t *testing.T) {
		validPorts := []int{1, 80, 443, 8080, 65535}
		for _, port := range validPorts {
			assert.GreaterOrEqual(t, port, MinPort)
			assert.LessOrEqual(t, port, MaxPort)
		}
	})

	t.Run("invalid port range", func(t *testing.T) {
		invalidPorts := []int{0, -1, 65536, 70000}
		for _, port := range invalidPorts {
			valid := port >= MinPort && port <= MaxPort
			assert.False(t, valid, "port %d should be invalid", port)
		}
	})
}
