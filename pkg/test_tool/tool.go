package testtool

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// IntegrationEnv 設為 1 才跑需要 docker 的測試
const IntegrationEnv = "MEDIA_INTEGRATION"

// SkipUnlessIntegration skip test when docker based tests are disabled
func SkipUnlessIntegration(t *testing.T) {
	t.Helper()
	if testing.Short() || os.Getenv(IntegrationEnv) != "1" {
		t.Skipf("set %s=1 to run integration tests", IntegrationEnv)
	}
}

// SetupContainer 通用函式來啟動測試容器, 回傳第一個 exposed port 的 host/port
func SetupContainer(ctx context.Context, req testcontainers.ContainerRequest) (testcontainers.Container, string, string, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, "", "", err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, "", "", err
	}

	natPort, err := nat.NewPort("tcp", strings.TrimSuffix(req.ExposedPorts[0], "/tcp"))
	if err != nil {
		return nil, "", "", err
	}

	port, err := container.MappedPort(ctx, natPort)
	if err != nil {
		return nil, "", "", err
	}

	return container, host, port.Port(), nil
}

// MinIOContainer running minio for tests
type MinIOContainer struct {
	Container testcontainers.Container
	Endpoint  string
	User      string
	Password  string
}

// StartMinIO start minio/minio and wait for the S3 port
func StartMinIO(ctx context.Context) (*MinIOContainer, error) {
	const user, password = "minioadmin", "minioadmin"

	container, host, port, err := SetupContainer(ctx, testcontainers.ContainerRequest{
		Image: "minio/minio:latest",
		Cmd:   []string{"server", "/data"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     user,
			"MINIO_ROOT_PASSWORD": password,
		},
		ExposedPorts: []string{"9000/tcp"},
		WaitingFor:   wait.ForListeningPort("9000/tcp"),
	})
	if err != nil {
		return nil, fmt.Errorf("start minio: %w", err)
	}

	return &MinIOContainer{
		Container: container,
		Endpoint:  fmt.Sprintf("%s:%s", host, port),
		User:      user,
		Password:  password,
	}, nil
}

// PostgresContainer running postgres for tests
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
}

// StartPostgres start postgres:16-alpine and wait until it accepts connections
func StartPostgres(ctx context.Context) (*PostgresContainer, error) {
	const user, password, dbName = "media", "media", "catalog_media"

	container, host, port, err := SetupContainer(ctx, testcontainers.ContainerRequest{
		Image: "postgres:16-alpine",
		Env: map[string]string{
			"POSTGRES_USER":     user,
			"POSTGRES_PASSWORD": password,
			"POSTGRES_DB":       dbName,
		},
		ExposedPorts: []string{"5432/tcp"},
		// postgres 初始化時會重啟一次
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	})
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	return &PostgresContainer{
		Container: container,
		DSN: fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			host, user, password, dbName, port),
	}, nil
}

// RedisContainer running redis for tests
type RedisContainer struct {
	Container testcontainers.Container
	Addr      string
}

// StartRedis start redis:7-alpine and wait until it accepts connections
func StartRedis(ctx context.Context) (*RedisContainer, error) {
	container, host, port, err := SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	})
	if err != nil {
		return nil, fmt.Errorf("start redis: %w", err)
	}

	return &RedisContainer{
		Container: container,
		Addr:      fmt.Sprintf("%s:%s", host, port),
	}, nil
}
