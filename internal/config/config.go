package config

import (
	"errors"
	"io/fs"
	"os"
	"pnoti/internal/types"
	"strconv"

	"github.com/goccy/go-yaml"
)

const (
	ConfigFileEnvKey  = "PNOTI_CONFIG"
	DefaultConfigFile = "config.yml"

	PortKey            = "PORT"
	BackendKey         = "REGISTRY_BACKEND"
	DDBEndpointKey     = "DDB_ENDPOINT"
	DDBTableKey        = "DDB_TABLE"
	AWSRegionKey       = "AWS_REGION"
	RedisHost          = "REDIS_HOST"
	RedisPort          = "REDIS_PORT"
	RedisUser          = "REDIS_USER"
	RedisPass          = "REDIS_PASS"
	RedisTLS           = "REDIS_SSL"
	RedisDBNum         = "REDIS_DB_NUM"
	RedisKeyPrefix     = "REDIS_KEY_PREFIX"
	SQLitePathKey      = "SQLITE_PATH"
	PublisherKey       = "PUBLISHER"
	SNSTopicArnKey     = "SNS_TOPIC_ARN"
	SNSEndpointKey     = "SNS_ENDPOINT"
	MQTTBrokerKey      = "MQTT_BROKER"
	MQTTClientIDKey    = "MQTT_CLIENT_ID"
	MQTTTopicPrefixKey = "MQTT_TOPIC_PREFIX"
	MQTTQoSKey         = "MQTT_QOS"
	DebounceKey        = "EVENT_DEBOUNCE_SECONDS"
	LogLevelKey        = "LOG_LEVEL"
	LogFormatKey       = "LOG_FORMAT"
)

// Defaults is what the service runs with when neither a config file nor the environment says
// otherwise: an in-memory registry on port 8080 with no event publishing.
func Defaults() types.Settings {
	return types.Settings{
		Port:    types.DefaultPort,
		Backend: types.BackendMemory,
		DDB:     types.DDBSettings{Table: types.DefaultTable},
		Redis: types.RedisSettings{
			Host:      "localhost",
			Port:      6379,
			KeyPrefix: types.DefaultKeyPrefix,
		},
		SQLite: types.SQLiteSettings{Path: "pnoti.db"},
		Log:    types.LogSettings{Level: "info", Format: "text"},
	}
}

// Load layers defaults, then the YAML file at path (a missing file is fine), then environment
// variables, and validates the result. An empty path falls back to $PNOTI_CONFIG, then config.yml.
func Load(path string) (types.Settings, error) {
	s := Defaults()
	if path == "" {
		path = getenv(ConfigFileEnvKey, DefaultConfigFile)
	}
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &s); err != nil {
			return s, types.Err(types.ErrInvalidSettings, err, "failed to parse %s", path)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return s, types.Err(types.ErrInvalidSettings, err, "failed to read %s", path)
	}

	if err := applyEnv(&s); err != nil {
		return s, err
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

func applyEnv(s *types.Settings) (err error) {
	if s.Port, err = getenvInt(PortKey, s.Port); err != nil {
		return err
	}
	s.Backend = getenv(BackendKey, s.Backend)

	s.DDB.Endpoint = getenv(DDBEndpointKey, s.DDB.Endpoint)
	s.DDB.Table = getenv(DDBTableKey, s.DDB.Table)
	s.DDB.Region = getenv(AWSRegionKey, s.DDB.Region)

	s.Redis.Host = getenv(RedisHost, s.Redis.Host)
	if s.Redis.Port, err = getenvInt(RedisPort, s.Redis.Port); err != nil {
		return err
	}
	s.Redis.User = getenv(RedisUser, s.Redis.User)
	s.Redis.Pass = getenv(RedisPass, s.Redis.Pass)
	if v := os.Getenv(RedisTLS); v != "" {
		s.Redis.TLS = parseBoolean(v)
	}
	if s.Redis.DBNum, err = getenvInt(RedisDBNum, s.Redis.DBNum); err != nil {
		return err
	}
	s.Redis.KeyPrefix = getenv(RedisKeyPrefix, s.Redis.KeyPrefix)

	s.SQLite.Path = getenv(SQLitePathKey, s.SQLite.Path)

	p := &s.Publisher
	p.Kind = getenv(PublisherKey, p.Kind)
	p.SNSTopicArn = getenv(SNSTopicArnKey, p.SNSTopicArn)
	p.SNSEndpoint = getenv(SNSEndpointKey, p.SNSEndpoint)
	p.MQTTBroker = getenv(MQTTBrokerKey, p.MQTTBroker)
	p.MQTTClientID = getenv(MQTTClientIDKey, p.MQTTClientID)
	p.MQTTTopicPrefix = getenv(MQTTTopicPrefixKey, p.MQTTTopicPrefix)
	if p.MQTTQoS, err = getenvInt(MQTTQoSKey, p.MQTTQoS); err != nil {
		return err
	}
	if p.DebounceSeconds, err = getenvInt(DebounceKey, p.DebounceSeconds); err != nil {
		return err
	}

	s.Log.Level = getenv(LogLevelKey, s.Log.Level)
	s.Log.Format = getenv(LogFormatKey, s.Log.Format)
	return nil
}

// getenv retrieves the value of the environment variable named by the key.
func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, types.Err(types.ErrInvalidSettings, err, "invalid %s", key)
	}
	return n, nil
}

func parseBoolean(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return b
}
