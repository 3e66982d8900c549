package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config est chargé une seule fois au démarrage puis injecté partout.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" validate:"required"`
	Auth    AuthConfig    `mapstructure:"auth" validate:"required"`
	Scylla  ScyllaConfig  `mapstructure:"scylla" validate:"required"`
	Redis   RedisConfig   `mapstructure:"redis" validate:"required"`
	Elastic ElasticConfig `mapstructure:"elastic" validate:"required"`
	MinIO   MinIOConfig   `mapstructure:"minio" validate:"required"`
	Cart    CartConfig    `mapstructure:"cart" validate:"required"`
}

type ServerConfig struct {
	Port       int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	Env        string `mapstructure:"env" validate:"required,oneof=development production test"`
	LogLevel   string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	CORSOrigin string `mapstructure:"cors_origin" validate:"required"`
	BodyLimit  int64  `mapstructure:"body_limit" validate:"gt=0"`
}

type AuthConfig struct {
	AccessTokenSecret  string        `mapstructure:"access_token_secret" validate:"required,min=16"`
	AccessTokenExpiry  time.Duration `mapstructure:"access_token_expiry" validate:"gt=0"`
	RefreshTokenSecret string        `mapstructure:"refresh_token_secret" validate:"required,min=16,nefield=AccessTokenSecret"`
	RefreshTokenExpiry time.Duration `mapstructure:"refresh_token_expiry" validate:"gt=0"`
	SecureCookies      bool          `mapstructure:"secure_cookies"`
	RegisterLimitPerIP int           `mapstructure:"register_limit_per_ip" validate:"gt=0"`
	LoginLimitPerIP    int           `mapstructure:"login_limit_per_ip" validate:"gt=0"`
	LoginLimitWindow   time.Duration `mapstructure:"login_limit_window" validate:"gt=0"`
}

type ScyllaConfig struct {
	Hosts       []string      `mapstructure:"hosts" validate:"required,min=1,dive,required"`
	Keyspace    string        `mapstructure:"keyspace" validate:"required"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	CACertPath  string        `mapstructure:"ca_cert_path"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	NumConns    int           `mapstructure:"num_conns" validate:"gt=0"`
	Consistency string        `mapstructure:"consistency" validate:"required"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"required"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

type ElasticConfig struct {
	URL          string `mapstructure:"url" validate:"required,url"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	ProductIndex string `mapstructure:"product_index" validate:"required"`
}

type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint" validate:"required"`
	AccessKey string `mapstructure:"access_key" validate:"required"`
	SecretKey string `mapstructure:"secret_key" validate:"required"`
	Bucket    string `mapstructure:"bucket" validate:"required"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	PublicURL string `mapstructure:"public_url"`
}

type CartConfig struct {
	TTL               time.Duration `mapstructure:"ttl" validate:"gt=0"`
	AddLimitPerMinute int           `mapstructure:"add_limit_per_minute" validate:"gt=0"`
	ProductCacheTTL   time.Duration `mapstructure:"product_cache_ttl" validate:"gt=0"`
}

// envKeys associe chaque clé de configuration à sa variable d'environnement.
var envKeys = map[string]string{
	"server.port":                "PORT",
	"server.env":                 "APP_ENV",
	"server.log_level":           "LOG_LEVEL",
	"server.cors_origin":         "CORS_ORIGIN",
	"server.body_limit":          "BODY_LIMIT",
	"auth.access_token_secret":   "ACCESS_TOKEN_SECRET",
	"auth.access_token_expiry":   "ACCESS_TOKEN_EXPIRY",
	"auth.refresh_token_secret":  "REFRESH_TOKEN_SECRET",
	"auth.refresh_token_expiry":  "REFRESH_TOKEN_EXPIRY",
	"auth.secure_cookies":        "SECURE_COOKIES",
	"auth.register_limit_per_ip": "REGISTER_LIMIT_PER_IP",
	"auth.login_limit_per_ip":    "LOGIN_LIMIT_PER_IP",
	"auth.login_limit_window":    "LOGIN_LIMIT_WINDOW",
	"scylla.hosts":               "SCYLLA_HOSTS",
	"scylla.keyspace":            "SCYLLA_KEYSPACE",
	"scylla.username":            "SCYLLA_USERNAME",
	"scylla.password":            "SCYLLA_PASSWORD",
	"scylla.ca_cert_path":        "SCYLLA_SSL_CA_PATH",
	"scylla.timeout":             "SCYLLA_TIMEOUT",
	"scylla.num_conns":           "SCYLLA_NUM_CONNS",
	"scylla.consistency":         "SCYLLA_CONSISTENCY",
	"redis.addr":                 "REDIS_HOST",
	"redis.password":             "REDIS_PASSWORD",
	"redis.db":                   "REDIS_DB",
	"elastic.url":                "ELASTIC_URL",
	"elastic.username":           "ELASTIC_USER",
	"elastic.password":           "ELASTIC_PASSWORD",
	"elastic.product_index":      "ELASTIC_PRODUCT_INDEX",
	"minio.endpoint":             "MINIO_ENDPOINT",
	"minio.access_key":           "MINIO_ACCESS_KEY",
	"minio.secret_key":           "MINIO_SECRET_KEY",
	"minio.bucket":               "MINIO_BUCKET",
	"minio.use_ssl":              "MINIO_USE_SSL",
	"minio.public_url":           "MINIO_PUBLIC_URL",
	"cart.ttl":                   "CART_TTL",
	"cart.add_limit_per_minute":  "CART_ADD_LIMIT_PER_MINUTE",
	"cart.product_cache_ttl":     "PRODUCT_CACHE_TTL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.env", "development")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.cors_origin", "http://localhost:3000")
	v.SetDefault("server.body_limit", 16<<20)
	v.SetDefault("auth.access_token_expiry", "15m")
	v.SetDefault("auth.refresh_token_expiry", "240h")
	v.SetDefault("auth.register_limit_per_ip", 3)
	v.SetDefault("auth.login_limit_per_ip", 20)
	v.SetDefault("auth.login_limit_window", "15m")
	v.SetDefault("scylla.hosts", "127.0.0.1")
	v.SetDefault("scylla.timeout", "5s")
	v.SetDefault("scylla.num_conns", 20)
	v.SetDefault("scylla.consistency", "QUORUM")
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("elastic.url", "http://127.0.0.1:9200")
	v.SetDefault("elastic.product_index", "products")
	v.SetDefault("cart.ttl", "720h")
	v.SetDefault("cart.add_limit_per_minute", 20)
	v.SetDefault("cart.product_cache_ttl", "10m")
}

// Load lit .env (optionnel), puis l'environnement, et valide le résultat.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé, on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
	return FromEnv()
}

// FromEnv construit la configuration depuis l'environnement courant uniquement.
func FromEnv() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("liaison %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("lecture configuration: %w", err)
	}
	cfg.Scylla.Hosts = splitHosts(cfg.Scylla.Hosts)

	validate := validator.New()
	validate.RegisterStructValidation(serverRules, ServerConfig{})
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration invalide: %w", err)
	}
	return &cfg, nil
}

// serverRules refuse CORS_ORIGIN="*" en production : les cookies d'auth exigent des origines explicites.
func serverRules(sl validator.StructLevel) {
	s := sl.Current().Interface().(ServerConfig)
	if s.Env != "production" {
		return
	}
	for _, origin := range strings.Split(s.CORSOrigin, ",") {
		if strings.TrimSpace(origin) == "*" {
			sl.ReportError(s.CORSOrigin, "CORSOrigin", "CORSOrigin", "explicit_origin", "")
			return
		}
	}
}

// splitHosts gère SCYLLA_HOSTS="a,b" quand viper le livre en un seul élément.
func splitHosts(hosts []string) []string {
	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		for _, part := range strings.Split(h, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}
