package config

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
port: "8080"
ip: 0.0.0.0
grpc_health_port: "9090"
pg:
  host: localhost
  port: 5432
  user: media
  password: ${MEDIA_PG_PASSWORD}
  database: catalog
  retry_count: 3
  retry_interval: 2
minio:
  host: localhost
  port: 9000
  bucket_name: catalog-media
kafka:
  enabled: true
  brokers: ["kafka-1:9092", "kafka-2:9092"]
  topic: media.events
redis:
  lock_ttl: 30s
encoding:
  job_queue: video.encode
  result_queue: video.encoded
  workers: 4
  retry_delay: 5s
storage:
  media_driver: minio
  video_driver: pg
`

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "media_test.yaml"), []byte(testYAML), 0o644))
	t.Setenv("MEDIA_PG_PASSWORD", "s3cret")

	cfg, err := LoadConfig[Media]("media_test", dir)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "s3cret", cfg.PostgreSQL.Password)
	assert.Equal(t, 5432, cfg.PostgreSQL.Port)
	assert.Equal(t, "catalog-media", cfg.MinIO.BucketName)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 30*time.Second, cfg.Redis.LockTTL)
	assert.Equal(t, "video.encoded", cfg.Encoding.ResultQueue)
	assert.Equal(t, 4, cfg.Encoding.Workers)
	assert.Equal(t, 5*time.Second, cfg.Encoding.RetryDelay)
	assert.Equal(t, "minio", cfg.Storage.MediaDriver)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig[Media]("does_not_exist", t.TempDir())
	assert.Error(t, err)
}

func TestGetRedisSetting(t *testing.T) {
	t.Setenv("REDIS_MASTER_NAME", "media-master")
	t.Setenv("REDIS_SENTINEL1_IP", "10.0.0.1")
	t.Setenv("REDIS_SENTINEL1_PORT", "26379")
	t.Setenv("REDIS_SENTINEL2_IP", "10.0.0.2")
	t.Setenv("REDIS_SENTINEL2_PORT", "26380")

	master, addrs := GetRedisSetting()
	sort.Strings(addrs)

	assert.Equal(t, "media-master", master)
	assert.Equal(t, []string{"10.0.0.1:26379", "10.0.0.2:26380"}, addrs)
}
