package config

import (
	"crypto/tls"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultBaseURL        = "https://jsonplaceholder.typicode.com"
	DefaultFetchLimit     = 50
	DefaultPageSize       = 5
	DefaultRequestTimeout = 10 * time.Second
	DefaultListenAddr     = ":8080"
	DefaultCacheTTL       = 30 * time.Second
	DefaultSeedCount      = 200
)

// Backend names accepted by MOCK_BACKEND.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendTables = "tables"
)

// Client configures the task client side: the remote base URL, the store and
// the list view.
type Client struct {
	BaseURL            string
	FetchLimit         int
	PageSize           int
	RequestTimeout     time.Duration
	SerializeMutations bool
	Debug              bool
}

// Mock configures the development task service.
type Mock struct {
	ListenAddr    string
	Backend       string
	RedisConn     string
	StorageConn   string
	TasksTable    string
	ChangeQueue   string
	CacheTTL      time.Duration
	SeedCount     int
	FailMutations bool
	Debug         bool
}

// LoadClient reads the client configuration from the environment.
func LoadClient() (Client, error) {
	cfg := Client{BaseURL: DefaultBaseURL}
	if v := strings.TrimSpace(os.Getenv("TODOS_API_BASE_URL")); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}
	var err error
	if cfg.FetchLimit, err = envInt("TODOS_FETCH_LIMIT", DefaultFetchLimit); err != nil {
		return Client{}, err
	}
	if cfg.PageSize, err = envInt("TODOS_PAGE_SIZE", DefaultPageSize); err != nil {
		return Client{}, err
	}
	if cfg.RequestTimeout, err = envDur("TODOS_REQUEST_TIMEOUT", DefaultRequestTimeout); err != nil {
		return Client{}, err
	}
	if cfg.SerializeMutations, err = envBool("TODOS_SERIALIZE_MUTATIONS", false); err != nil {
		return Client{}, err
	}
	cfg.Debug = debugEnabled()
	return cfg, nil
}

// LoadMock reads the mock service configuration from the environment.
func LoadMock() (Mock, error) {
	cfg := Mock{
		ListenAddr:  DefaultListenAddr,
		Backend:     BackendMemory,
		RedisConn:   os.Getenv("REDIS_CONNECTION_STRING"),
		StorageConn: os.Getenv("STORAGE_CONNECTION_STRING"),
		TasksTable:  os.Getenv("TODOS_TABLE"),
		ChangeQueue: os.Getenv("CHANGE_QUEUE"),
		Debug:       debugEnabled(),
	}
	if val, ok := os.LookupEnv("FUNCTIONS_CUSTOMHANDLER_PORT"); ok {
		cfg.ListenAddr = ":" + val
	}
	if v := os.Getenv("MOCK_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("MOCK_BACKEND"))); v != "" {
		cfg.Backend = v
	}

	var err error
	if cfg.CacheTTL, err = envDur("CACHE_TTL", DefaultCacheTTL); err != nil {
		return Mock{}, err
	}
	if cfg.SeedCount, err = envInt("MOCK_SEED_COUNT", DefaultSeedCount); err != nil {
		return Mock{}, err
	}
	if cfg.FailMutations, err = envBool("MOCK_FAIL_MUTATIONS", false); err != nil {
		return Mock{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Mock{}, err
	}
	return cfg, nil
}

// Validate checks that the selected backend has the settings it needs.
func (m Mock) Validate() error {
	switch m.Backend {
	case BackendMemory:
	case BackendRedis:
		if m.RedisConn == "" {
			return fmt.Errorf("missing redis config: REDIS_CONNECTION_STRING is required for backend %q", m.Backend)
		}
	case BackendTables:
		if m.StorageConn == "" || m.TasksTable == "" {
			return fmt.Errorf("missing storage config: STORAGE_CONNECTION_STRING and TODOS_TABLE are required for backend %q", m.Backend)
		}
	default:
		return fmt.Errorf("invalid MOCK_BACKEND %q: want memory, redis or tables", m.Backend)
	}
	return nil
}

// RedisOptions parses a redis:// URL, falling back to the Azure style
// "host:port,password=...,ssl=True" connection string.
func RedisOptions(conn string) *redis.Options {
	opts, err := redis.ParseURL(conn)
	if err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts = &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(kv[0])) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.EqualFold(kv[1], "true") {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}

func debugEnabled() bool {
	dbg, err := strconv.ParseBool(os.Getenv("DEBUG"))
	return err == nil && dbg
}

func envInt(name string, def int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be greater than zero", name)
	}
	return n, nil
}

func envDur(name string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", name)
	}
	return d, nil
}

func envBool(name string, def bool) (bool, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", name, err)
	}
	return b, nil
}
