package config

import "time"

// Media definition media_service YAML structure
type Media struct {
	Port           string `mapstructure:"port"`
	IP             string `mapstructure:"ip"`
	GRPCHealthPort string `mapstructure:"grpc_health_port"`

	PostgreSQL DatabaseConfig `mapstructure:"pg"`
	MinIO      MinIOConfig    `mapstructure:"minio"`
	RabbitMQ   RabbitMQConfig `mapstructure:"rabbitmq"`
	Kafka      KafkaConfig    `mapstructure:"kafka"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Encoding   EncodingConfig `mapstructure:"encoding"`
	Storage    StorageConfig  `mapstructure:"storage"`
	Auth       AuthConfig     `mapstructure:"auth"`
}

// DatabaseConfig definition db setting
type DatabaseConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// MinIOConfig definition minio setting
type MinIOConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	User          string        `mapstructure:"user"`
	Password      string        `mapstructure:"password"`
	BucketName    string        `mapstructure:"bucket_name"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
	RetryCount    int           `mapstructure:"retry_count"`
}

// RabbitMQConfig definition rabbitmq setting
type RabbitMQConfig struct {
	IP            string        `mapstructure:"ip"`
	Port          string        `mapstructure:"port"`
	User          string        `mapstructure:"user"`
	Password      string        `mapstructure:"password"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
	RetryCount    int           `mapstructure:"retry_count"`
}

// KafkaConfig definition kafka setting, Enabled=false 時不發送 media event
type KafkaConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Brokers       []string      `mapstructure:"brokers"`
	Topic         string        `mapstructure:"topic"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
	RetryCount    int           `mapstructure:"retry_count"`
}

// RedisConfig definition redis setting
type RedisConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	RedisDB int           `mapstructure:"redis_db"`
	LockTTL time.Duration `mapstructure:"lock_ttl"`
}

// EncodingConfig definition encoder queues and consumer workers
type EncodingConfig struct {
	JobQueue    string        `mapstructure:"job_queue"`
	ResultQueue string        `mapstructure:"result_queue"`
	Workers     int           `mapstructure:"workers"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
}

// StorageConfig choose the gateway drivers ("minio" | "memory", "pg" | "memory")
type StorageConfig struct {
	MediaDriver string `mapstructure:"media_driver"`
	VideoDriver string `mapstructure:"video_driver"`
}

// AuthConfig JWT 驗證, Enabled=false 時修改類 API 不檢查 token
type AuthConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	JWTSecret  string        `mapstructure:"jwt_secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}
