package config

import "fmt"

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	Path            string `mapstructure:"path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// MySQLDSN builds the MySQL connection string.
// Use loc=UTC so time columns round-trip as UTC.
func (d *DatabaseConfig) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

// PostgresDSN builds the PostgreSQL connection string.
func (d *DatabaseConfig) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		d.Host, d.Port, d.Username, d.Password, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// UsageConfig controls the usage settlement jobs.
type UsageConfig struct {
	// Cycle cadences in seconds.
	RecordUserUsagesInterval int `mapstructure:"record_user_usages_interval"`
	RecordNodeUsagesInterval int `mapstructure:"record_node_usages_interval"`
	// When true, hourly fact tables are not written; running totals
	// still update every cycle.
	DisableRecordingNodeUsage bool `mapstructure:"disable_recording_node_usage"`
}

type NodeConfig struct {
	HealthCheckInterval int `mapstructure:"health_check_interval"` // seconds
	APITimeout          int `mapstructure:"api_timeout"`           // seconds
}
