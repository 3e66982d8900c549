package database

import (
	"context"
	"fmt"
	"time"

	"ecommerce_back_end/internal/config"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Clients regroupe les connexions ouvertes au démarrage.
type Clients struct {
	Scylla  *gocql.Session
	Redis   *redis.Client
	Elastic *elasticsearch.Client
	MinIO   *minio.Client
}

// ConnectDatabases ouvre toutes les connexions et s'arrête à la première erreur.
func ConnectDatabases(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Clients, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	clients := &Clients{}

	// 1. ScyllaDB
	session, err := connectScylla(cfg.Scylla)
	if err != nil {
		return nil, fmt.Errorf("scylla: %w", err)
	}
	clients.Scylla = session
	log.Info("✅ Connecté à ScyllaDB", zap.Strings("hosts", cfg.Scylla.Hosts), zap.String("keyspace", cfg.Scylla.Keyspace))

	if err := EnsureSchema(ctx, session); err != nil {
		clients.Close()
		return nil, fmt.Errorf("schéma scylla: %w", err)
	}

	// 2. Redis
	rdb, err := connectRedis(ctx, cfg.Redis)
	if err != nil {
		clients.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}
	clients.Redis = rdb
	log.Info("✅ Connecté à Redis", zap.String("addr", cfg.Redis.Addr))

	// 3. Elasticsearch
	es, err := connectElastic(cfg.Elastic)
	if err != nil {
		clients.Close()
		return nil, fmt.Errorf("elasticsearch: %w", err)
	}
	clients.Elastic = es
	log.Info("✅ Connecté à Elasticsearch", zap.String("url", cfg.Elastic.URL))

	// 4. MinIO
	mc, created, err := connectMinIO(ctx, cfg.MinIO)
	if err != nil {
		clients.Close()
		return nil, fmt.Errorf("minio: %w", err)
	}
	clients.MinIO = mc
	if created {
		log.Info("🪣 Bucket créé", zap.String("bucket", cfg.MinIO.Bucket))
	}
	log.Info("✅ Connecté à MinIO", zap.String("endpoint", cfg.MinIO.Endpoint))

	log.Info("✅ Toutes les bases de données sont connectées")
	return clients, nil
}

func (c *Clients) Close() {
	if c.Scylla != nil {
		c.Scylla.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}

// =============================================
// SCYLLA DB
// =============================================

func createScyllaCluster(cfg config.ScyllaConfig) (*gocql.ClusterConfig, error) {
	consistency, err := gocql.ParseConsistencyWrapper(cfg.Consistency)
	if err != nil {
		return nil, err
	}

	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = cfg.Keyspace
	cluster.Consistency = consistency
	cluster.Timeout = cfg.Timeout
	cluster.NumConns = cfg.NumConns
	cluster.MaxWaitSchemaAgreement = 30 * time.Second
	cluster.ReconnectInterval = 1 * time.Second

	if cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}

	if cfg.CACertPath != "" {
		cluster.SslOpts = &gocql.SslOptions{
			CaPath:                 cfg.CACertPath,
			EnableHostVerification: true,
		}
	}

	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	return cluster, nil
}

func connectScylla(cfg config.ScyllaConfig) (*gocql.Session, error) {
	cluster, err := createScyllaCluster(cfg)
	if err != nil {
		return nil, err
	}
	return cluster.CreateSession()
}

// =============================================
// REDIS
// =============================================

func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// =============================================
// ELASTICSEARCH
// =============================================

func connectElastic(cfg config.ElasticConfig) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, err
	}

	res, err := client.Info()
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("réponse info: %s", res.Status())
	}
	return client, nil
}

// =============================================
// MINIO
// =============================================

func connectMinIO(ctx context.Context, cfg config.MinIOConfig) (*minio.Client, bool, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, false, err
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, false, err
	}
	if exists {
		return client, false, nil
	}
	if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
		return nil, false, err
	}
	return client, true, nil
}
