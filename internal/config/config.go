package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds the storefront configuration.
// Tags used:
// - mapstructure: key read by viper (env var or .env entry)
// - default: value used when the key is missing
// - required: "true" fails Load when the key is missing
type AppConfig struct {
	Environment string `mapstructure:"APP_ENV" default:"development"`
	LogLevel    string `mapstructure:"LOG_LEVEL" default:"info"`

	HTTPPort        int           `mapstructure:"HTTP_PORT" default:"8080"`
	GRPCPort        int           `mapstructure:"GRPC_PORT" default:"50051"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT" default:"10s"`

	CatalogDBPath string `mapstructure:"CATALOG_DB_PATH" default:"./catalog.db"`
	// SessionIdleTTL is how long an untouched shopping session stays in memory. Zero disables eviction.
	SessionIdleTTL time.Duration `mapstructure:"SESSION_IDLE_TTL" default:"2h"`

	Mongo  MongoConfig  `mapstructure:",squash"`
	Redis  RedisConfig  `mapstructure:",squash"`
	Orders OrdersConfig `mapstructure:",squash"`
	Kafka  KafkaConfig  `mapstructure:",squash"`
	Store  StoreConfig  `mapstructure:",squash"`
}

type MongoConfig struct {
	URI    string `mapstructure:"MONGO_URI" default:"mongodb://localhost:27017"`
	DBName string `mapstructure:"MONGO_DB_NAME" default:"storefront"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"REDIS_ADDR" default:"localhost:6379"`
	Password string `mapstructure:"REDIS_PASSWORD"`
}

// OrdersConfig selects and configures the order store.
type OrdersConfig struct {
	// Store is "postgres" or "memory".
	Store    string `mapstructure:"ORDERS_STORE" default:"postgres"`
	Host     string `mapstructure:"DB_HOST" default:"localhost"`
	Port     int    `mapstructure:"DB_PORT" default:"5432"`
	User     string `mapstructure:"DB_USER" default:"postgres"`
	Password string `mapstructure:"DB_PASSWORD" default:"postgres"`
	DBName   string `mapstructure:"DB_NAME" default:"storefront"`
	// AwaitingStaleAfter is how long an online order may wait for its payment before it is reported.
	AwaitingStaleAfter time.Duration `mapstructure:"AWAITING_STALE_AFTER" default:"30m"`
}

type KafkaConfig struct {
	// Brokers is a comma separated list; empty disables Kafka publishing.
	Brokers        string `mapstructure:"KAFKA_BROKERS"`
	NotifyTopic    string `mapstructure:"NOTIFY_TOPIC" default:"order-summaries"`
	ReconcileTopic string `mapstructure:"RECONCILE_TOPIC" default:"order-reconciliation"`
}

// StoreConfig holds merchant-facing settings.
type StoreConfig struct {
	MerchantWhatsApp string `mapstructure:"MERCHANT_WHATSAPP" required:"true"`
	MerchantEmail    string `mapstructure:"MERCHANT_EMAIL"`
	// PaymentKeySecret enables signature checks on payment callbacks. Required in production.
	PaymentKeySecret string `mapstructure:"PAYMENT_KEY_SECRET"`
	CityMaxLength    int    `mapstructure:"CITY_MAX_LENGTH" default:"50"`
}

func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

// BrokerList splits KAFKA_BROKERS.
func (k KafkaConfig) BrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(k.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// Load loads configuration from a .env file in path and from the environment.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig

	processTags(v, &config)

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validateRequired(&config); err != nil {
		return nil, err
	}

	if config.Orders.Store != "postgres" && config.Orders.Store != "memory" {
		return nil, fmt.Errorf("invalid ORDERS_STORE %q: want postgres or memory", config.Orders.Store)
	}

	if config.IsProduction() && config.Store.PaymentKeySecret == "" {
		return nil, fmt.Errorf("missing required configuration: PAYMENT_KEY_SECRET (APP_ENV=%s)", config.Environment)
	}

	if config.SessionIdleTTL < 0 {
		return nil, fmt.Errorf("invalid SESSION_IDLE_TTL %s: must not be negative", config.SessionIdleTTL)
	}

	return &config, nil
}

// processTags binds every tagged field to its env var and registers defaults.
func processTags(v *viper.Viper, config interface{}) {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Duration(0)) {
			processTags(v, val.Field(i).Addr().Interface())
			continue
		}

		key := field.Tag.Get("mapstructure")
		defaultValue := field.Tag.Get("default")

		if key != "" {
			_ = v.BindEnv(key)
		}

		if key != "" && defaultValue != "" {
			v.SetDefault(key, defaultValue)
		}
	}
}

// validateRequired checks if fields marked as required have non-zero values.
func validateRequired(config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := validateRequired(val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		if field.Tag.Get("required") == "true" && val.Field(i).IsZero() {
			return fmt.Errorf("missing required configuration: %s", field.Tag.Get("mapstructure"))
		}
	}
	return nil
}
