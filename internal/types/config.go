package types

// Settings drives how the service is wired at startup: which registry backend holds the entries,
// where change events are published, and how logging behaves.
// Backend is one of BackendMemory, BackendDDB, BackendRedis, BackendSQLite.
// Publisher is empty (no events), PublisherSNS or PublisherMQTT.
// DebounceSeconds drops identical change events inside the window; 0 disables debouncing.
type Settings struct {
	Port      int             `yaml:"port"`
	Backend   string          `yaml:"backend"`
	DDB       DDBSettings     `yaml:"ddb"`
	Redis     RedisSettings   `yaml:"redis"`
	SQLite    SQLiteSettings  `yaml:"sqlite"`
	Publisher PublishSettings `yaml:"publisher"`
	Log       LogSettings     `yaml:"log"`
}

type DDBSettings struct {
	// Endpoint is only set for local testing against a mock.
	Endpoint string `yaml:"endpoint"`
	Table    string `yaml:"table"`
	Region   string `yaml:"region"`
}

type RedisSettings struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	User      string `yaml:"user"`
	Pass      string `yaml:"pass"`
	TLS       bool   `yaml:"tls"`
	DBNum     int    `yaml:"db_num"`
	KeyPrefix string `yaml:"key_prefix"`
}

type SQLiteSettings struct {
	Path string `yaml:"path"`
}

type PublishSettings struct {
	Kind            string `yaml:"kind"`
	SNSTopicArn     string `yaml:"sns_topic_arn"`
	SNSEndpoint     string `yaml:"sns_endpoint"`
	MQTTBroker      string `yaml:"mqtt_broker"`
	MQTTClientID    string `yaml:"mqtt_client_id"`
	MQTTTopicPrefix string `yaml:"mqtt_topic_prefix"`
	MQTTQoS         int    `yaml:"mqtt_qos"`
	DebounceSeconds int    `yaml:"debounce_seconds"`
}

type LogSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const (
	BackendMemory = "memory"
	BackendDDB    = "ddb"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"

	PublisherNone = ""
	PublisherSNS  = "sns"
	PublisherMQTT = "mqtt"

	DefaultPort      = 8080
	DefaultTable     = "pending_notifications"
	DefaultOffset    = 0
	DefaultCount     = 1000
	MaxMQTTQoS       = 2
	DefaultKeyPrefix = "_pnoti_"
)

func (s Settings) Validate() error {
	if s.Port <= 0 || s.Port > 65535 {
		return Err(ErrInvalidSettings, nil, "port must be within 1..65535, got %d", s.Port)
	}
	switch s.Backend {
	case BackendMemory, BackendRedis:
	case BackendDDB:
		if s.DDB.Table == "" {
			return Err(ErrInvalidSettings, nil, "ddb.table is required")
		}
	case BackendSQLite:
		if s.SQLite.Path == "" {
			return Err(ErrInvalidSettings, nil, "sqlite.path is required")
		}
	default:
		return Err(ErrInvalidBackend, nil, "unknown registry backend %q", s.Backend)
	}
	p := s.Publisher
	switch p.Kind {
	case PublisherNone:
	case PublisherSNS:
		if p.SNSTopicArn == "" {
			return Err(ErrInvalidSettings, nil, "publisher.sns_topic_arn is required")
		}
	case PublisherMQTT:
		if p.MQTTBroker == "" {
			return Err(ErrInvalidSettings, nil, "publisher.mqtt_broker is required")
		}
		if p.MQTTQoS < 0 || p.MQTTQoS > MaxMQTTQoS {
			return Err(ErrInvalidSettings, nil, "publisher.mqtt_qos must be within 0..%d", MaxMQTTQoS)
		}
	default:
		return Err(ErrInvalidSettings, nil, "unknown publisher %q", p.Kind)
	}
	if p.DebounceSeconds < 0 {
		return Err(ErrInvalidSettings, nil, "publisher.debounce_seconds must be non-negative")
	}
	return nil
}
