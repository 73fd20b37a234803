package db

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"freepaste/cfg"
	"freepaste/pkg/domain"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Redis is the document-oriented adapter. Each paste lives as a JSON
// document under paste:<id>; the owner index is a per-token sorted set
// scored by creation time, so newest-first listing is a single ZREVRANGE.
type Redis struct {
	client  *redis.Client
	timeout time.Duration
}

// pasteDoc is the stored document shape. domain.Paste hides the owner
// token from JSON, so the adapter keeps its own marshalling view.
type pasteDoc struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	OwnerToken string    `json:"owner_token"`
	CreatedAt  time.Time `json:"created_at"`
}

func pasteKey(id string) string    { return "paste:" + id }
func ownerKey(token string) string { return "owner:" + token }

// insertScript claims the paste key and indexes the owner in one atomic
// step. Returns 0 when the id is already taken. This is the storage-level
// uniqueness guarantee; a check-then-insert pre-flight would race.
var insertScript = redis.NewScript(`
	if redis.call("EXISTS", KEYS[1]) == 1 then
		return 0
	end
	redis.call("SET", KEYS[1], ARGV[1])
	redis.call("ZADD", KEYS[2], ARGV[2], ARGV[3])
	return 1
`)

func NewRedis(url string, c *cfg.Cfg) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	opt.PoolSize = 50
	opt.MinIdleConns = 10
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute
	opt.MaxRetries = 3
	opt.MinRetryBackoff = 8 * time.Millisecond
	opt.MaxRetryBackoff = 512 * time.Millisecond
	if c.RedisTLS {
		tlsConfig, err := buildRedisTLSConfig()
		if err != nil {
			return nil, errors.Wrap(err, "failed to build Redis TLS config")
		}
		opt.TLSConfig = tlsConfig
	}
	if c.RedisUsername != "" {
		opt.Username = c.RedisUsername
	}
	if c.RedisPassword.Value() != "" {
		opt.Password = c.RedisPassword.Value()
	}
	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, errors.Wrap(err, "ping redis")
	}
	return &Redis{
		client:  client,
		timeout: c.RedisTimeout,
	}, nil
}

func buildRedisTLSConfig() (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS13,
	}
	redisHostname := os.Getenv("REDIS_HOSTNAME")
	if redisHostname == "" {
		return nil, fmt.Errorf("REDIS_HOSTNAME must be set when REDIS_TLS=true")
	}
	tlsConfig.ServerName = redisHostname
	certPath := os.Getenv("REDIS_TLS_CA_CERT")
	if certPath != "" {
		caCert, err := os.ReadFile(certPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read Redis CA cert: %w", err)
		}
		certPool := x509.NewCertPool()
		if !certPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to append Redis CA cert to pool")
		}
		tlsConfig.RootCAs = certPool
	} else {
		systemPool, err := x509.SystemCertPool()
		if err != nil {
			return nil, fmt.Errorf("failed to load system cert pool: %w", err)
		}
		tlsConfig.RootCAs = systemPool
	}
	return tlsConfig, nil
}

func (r *Redis) Insert(ctx context.Context, p *domain.Paste) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	doc := pasteDoc{
		ID:         p.ID,
		Title:      p.Title,
		Content:    p.Content,
		OwnerToken: p.OwnerToken,
		CreatedAt:  p.CreatedAt,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "marshal paste")
	}
	score := float64(p.CreatedAt.UnixNano())
	inserted, err := insertScript.Run(ctx, r.client,
		[]string{pasteKey(p.ID), ownerKey(p.OwnerToken)},
		data, score, p.ID,
	).Int()
	if err != nil {
		return errors.Wrap(err, "insert paste")
	}
	if inserted == 0 {
		return ErrDuplicateID
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, id string) (*domain.Paste, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	data, err := r.client.Get(ctx, pasteKey(id)).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrPasteNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get paste")
	}
	var doc pasteDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "unmarshal paste")
	}
	return &domain.Paste{
		ID:         doc.ID,
		Title:      doc.Title,
		Content:    doc.Content,
		OwnerToken: doc.OwnerToken,
		CreatedAt:  doc.CreatedAt,
	}, nil
}

func (r *Redis) UpdateContent(ctx context.Context, id, title, content string) error {
	current, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	doc := pasteDoc{
		ID:         current.ID,
		Title:      title,
		Content:    content,
		OwnerToken: current.OwnerToken,
		CreatedAt:  current.CreatedAt,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "marshal paste")
	}
	// XX: replace only while the document still exists.
	set, err := r.client.SetXX(ctx, pasteKey(id), data, 0).Result()
	if err != nil {
		return errors.Wrap(err, "update paste")
	}
	if !set {
		return domain.ErrPasteNotFound
	}
	return nil
}

func (r *Redis) ListByOwner(ctx context.Context, token string) ([]domain.PasteSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	ids, err := r.client.ZRevRange(ctx, ownerKey(token), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "list owner index")
	}
	summaries := make([]domain.PasteSummary, 0, len(ids))
	if len(ids) == 0 {
		return summaries, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = pasteKey(id)
	}
	docs, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrap(err, "fetch pastes")
	}
	for _, raw := range docs {
		s, ok := raw.(string)
		if !ok {
			continue
		}
		var doc pasteDoc
		if err := json.Unmarshal([]byte(s), &doc); err != nil {
			return nil, errors.Wrap(err, "unmarshal paste")
		}
		summaries = append(summaries, domain.PasteSummary{
			ID:        doc.ID,
			Title:     doc.Title,
			CreatedAt: doc.CreatedAt,
		})
	}
	return summaries, nil
}

func (r *Redis) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
