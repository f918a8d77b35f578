package backends

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"pnoti/internal/backends/ddb"
	"pnoti/internal/backends/memory"
	"pnoti/internal/backends/sqlite"
	"pnoti/internal/ports"
	"pnoti/internal/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	redisbackend "pnoti/internal/backends/redis"
)

const AmazonRootCA1PEM = `-----BEGIN CERTIFICATE-----
MIIDQTCCAimgAwIBAgITBmyfz5m/jAo54vB4ikPmljZbyjANBgkqhkiG9w0BAQsF
ADA5MQswCQYDVQQGEwJVUzEPMA0GA1UEChMGQW1hem9uMRkwFwYDVQQDExBBbWF6
b24gUm9vdCBDQSAxMB4XDTE1MDUyNjAwMDAwMFoXDTM4MDExNzAwMDAwMFowOTEL
MAkGA1UEBhMCVVMxDzANBgNVBAoTBkFtYXpvbjEZMBcGA1UEAxMQQW1hem9uIFJv
b3QgQ0EgMTCCASIwDQYJKoZIhvcNAQEBBQADggEPADCCAQoCggEBALJ4gHHKeNXj
ca9HgFB0fW7Y14h29Jlo91ghYPl0hAEvrAIthtOgQ3pOsqTQNroBvo3bSMgHFzZM
9O6II8c+6zf1tRn4SWiw3te5djgdYZ6k/oI2peVKVuRF4fn9tBb6dNqcmzU5L/qw
IFAGbHrQgLKm+a/sRxmPUDgH3KKHOVj4utWp+UhnMJbulHheb4mjUcAwhmahRWa6
VOujw5H5SNz/0egwLX0tdHA114gk957EWW67c4cX8jJGKLhD+rcdqsq08p8kDi1L
93FcXmn/6pUCyziKrlA4b9v7LWIbxcceVOF34GfID5yHI9Y/QCB/IIDEgEw+OyQm
jgSubJrIqg0CAwEAAaNCMEAwDwYDVR0TAQH/BAUwAwEB/zAOBgNVHQ8BAf8EBAMC
AYYwHQYDVR0OBBYEFIQYzIU07LwMlJQuCFmcx7IQTgoIMA0GCSqGSIb3DQEBCwUA
A4IBAQCY8jdaQZChGsV2USggNiMOruYou6r4lK5IpDB/G/wkjUu0yKGX9rbxenDI
U5PMCCjjmCXPI6T53iHTfIUJrU6adTrCC2qJeHZERxhlbI1Bjjt/msv0tadQ1wUs
N+gDS63pYaACbvXy8MWy7Vu33PqUXHeeE6V/Uq2V8viTO96LXFvKWlJbYK8U90vv
o/ufQJVtMVT8QtPHRh8jrdkPSHCa2XV4cdFyQzR1bldZwgJcJmApzyMZFo6IQ6XU
5MsI+yMRQ+hDKXJioaldXgjUkK642M4UwtBV8ob2xJNDd2ZhwLnoQdeXeGADbkpy
rqXRfboQnoZsG4q5WTP468SQvvG5
-----END CERTIFICATE-----`

// RegistryBackend constructs the RegistryStore selected by settings.Backend. Backend selection is a
// deployment-time choice; the facade only ever sees ports.RegistryStore.
// The returned close function releases backend resources and is never nil.
func RegistryBackend(ctx context.Context, settings types.Settings) (store ports.RegistryStore, closeFn func() error, err error) {
	closeFn = func() error { return nil }
	switch settings.Backend {
	case types.BackendMemory:
		store = memory.NewRegistryStore()

	case types.BackendRedis:
		var redisClient *redis.Client
		redisClient, err = redisClientFromSettings(ctx, settings.Redis)
		if err != nil {
			return nil, closeFn, err
		}
		store = redisbackend.NewRegistryStore(redisClient, settings.Redis.KeyPrefix)
		closeFn = redisClient.Close

	case types.BackendDDB:
		var ddbClient *dynamodb.Client
		ddbClient, err = ddbClientFromSettings(ctx, settings.DDB)
		if err != nil {
			return nil, closeFn, err
		}
		store, err = ddb.NewRegistryStore(ctx, settings.DDB.Table, ddbClient)
		if err != nil {
			return nil, closeFn, err
		}

	case types.BackendSQLite:
		var sqliteStore *sqlite.RegistryStore
		sqliteStore, err = sqlite.Open(ctx, settings.SQLite.Path)
		if err != nil {
			return nil, closeFn, err
		}
		store = sqliteStore
		closeFn = sqliteStore.Close

	default:
		return nil, closeFn, types.Err(types.ErrInvalidBackend, nil, "unknown registry backend %q", settings.Backend)
	}
	log.WithField("backend", settings.Backend).Info("registry store ready")
	return store, closeFn, nil
}

// ddbClientFromSettings creates a DynamoDB client. A non-empty endpoint points it at a local mock.
func ddbClientFromSettings(ctx context.Context, cfg types.DDBSettings) (*dynamodb.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}

	ddbClient := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Region != "" {
			o.Region = cfg.Region
		}
		if cfg.Endpoint != "" {
			// This is used for testing only locally
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			if o.Region == "" {
				o.Region = "us-east-1"
			}
			o.Credentials = credentials.NewStaticCredentialsProvider("x", "x", "")
		}
	})
	return ddbClient, nil
}

// redisClientFromSettings creates a Redis client and pings it so a wrong address fails at startup.
func redisClientFromSettings(ctx context.Context, cfg types.RedisSettings) (*redis.Client, error) {
	var tlsConfig *tls.Config
	if cfg.TLS {
		// Create a CA certificate pool and add our CA certificate
		caCerts := x509.NewCertPool()
		if !caCerts.AppendCertsFromPEM([]byte(AmazonRootCA1PEM)) {
			return nil, fmt.Errorf("failed to retrieve CA certificate")
		}
		tlsConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
			RootCAs:    caCerts,
		}
	}

	cli := redis.NewClient(&redis.Options{
		Addr:      fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Username:  cfg.User,
		Password:  cfg.Pass,
		DB:        cfg.DBNum,
		TLSConfig: tlsConfig,
	})
	if _, err := cli.Ping(ctx).Result(); err != nil {
		_ = cli.Close()
		return nil, types.Err(types.ErrStoreUnavailable, err, "failed to ping Redis")
	}
	return cli, nil
}
