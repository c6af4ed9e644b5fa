package global

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig carries everything the service needs at boot. All knobs come
// from the environment with the CHAT_ prefix, e.g. CHAT_HTTP_ADDR.
type AppConfig struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	MongoURI string `envconfig:"MONGO_URI" default:"mongodb://127.0.0.1:27017"`
	MongoDB  string `envconfig:"MONGO_DB" default:"easychat"`

	JWTSecret string        `envconfig:"JWT_SECRET" default:"dev-secret-change-me"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"2h"`

	// ActiveChatTTL is the sliding expiry of the "currently viewing this
	// conversation" marker.
	ActiveChatTTL time.Duration `envconfig:"ACTIVE_CHAT_TTL" default:"60s"`

	// SendQueueSize bounds each connection's outbound queue; a full queue
	// counts as a delivery failure for that recipient.
	SendQueueSize int           `envconfig:"SEND_QUEUE_SIZE" default:"256"`
	WriteDeadline time.Duration `envconfig:"WRITE_DEADLINE" default:"5s"`

	// DeliverOnPresenceOutage keeps pushing to online recipients when the
	// presence/unread backend is unreachable, skipping the unread
	// bookkeeping. Set to false to withhold delivery instead.
	DeliverOnPresenceOutage bool `envconfig:"PRESENCE_DEGRADED_DELIVER" default:"true"`

	// SnowNodeID feeds the message id generator (0~1023).
	SnowNodeID int64 `envconfig:"SNOW_NODE_ID" default:"1"`
}

func LoadConfig() (*AppConfig, error) {
	var c AppConfig
	if err := envconfig.Process("CHAT", &c); err != nil {
		return nil, err
	}
	return &c, nil
}
