// Package config loads runtime settings from the environment, reading a
// .env file first when one is present.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	StoreDriver string
	MongoURI    string
	MongoDB     string

	RedisURL      string
	RedisPassword string
	RedisDB       int

	JWTSecret string
	JWTIssuer string

	SiteURL    string
	CDNBaseURL string

	StorageDriver string
	UploadDir     string
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	AWSAccessKey  string
	AWSSecretKey  string

	TagRecountSchedule string
	RateLimitRPS       float64
	RateLimitBurst     int
	CORSOrigins        []string
	ShutdownTimeout    time.Duration
}

// Load reads .env (if any) and the process environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		log.Println("[config] No .env file found; using system environment")
	}
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from environment variables with defaults.
func FromEnv() *Config {
	port := getenv("PORT", ":8080")
	if port[0] != ':' {
		port = ":" + port
	}
	return &Config{
		Port:               port,
		StoreDriver:        getenv("STORE_DRIVER", "mongo"),
		MongoURI:           getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:            getenv("MONGO_DB", "saffron"),
		RedisURL:           getenv("REDIS_URL", "localhost:6379"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            getint("REDIS_DB", 0),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		JWTIssuer:          os.Getenv("JWT_ISSUER"),
		SiteURL:            strings.TrimRight(getenv("SITE_URL", "http://localhost:8080"), "/"),
		CDNBaseURL:         strings.TrimRight(os.Getenv("CDN_BASE_URL"), "/"),
		StorageDriver:      getenv("STORAGE_DRIVER", "local"),
		UploadDir:          getenv("UPLOAD_DIR", "./static/uploads"),
		S3Bucket:           os.Getenv("S3_BUCKET"),
		S3Region:           getenv("S3_REGION", "us-east-1"),
		S3Endpoint:         os.Getenv("S3_ENDPOINT"),
		AWSAccessKey:       os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretKey:       os.Getenv("AWS_SECRET_ACCESS_KEY"),
		TagRecountSchedule: getenv("TAG_RECOUNT_SCHEDULE", "@every 6h"),
		RateLimitRPS:       getfloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:     getint("RATE_LIMIT_BURST", 20),
		CORSOrigins:        splitList(getenv("CORS_ORIGINS", "*")),
		ShutdownTimeout:    getduration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

var (
	ErrUnknownStore   = errors.New("unknown STORE_DRIVER")
	ErrUnknownStorage = errors.New("unknown STORAGE_DRIVER")
	ErrMissingBucket  = errors.New("S3_BUCKET is required when STORAGE_DRIVER=s3")
)

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case "mongo", "memory":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStore, c.StoreDriver)
	}
	switch c.StorageDriver {
	case "local":
	case "s3":
		if c.S3Bucket == "" {
			return ErrMissingBucket
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStorage, c.StorageDriver)
	}
	if c.JWTSecret == "" {
		log.Println("[config] JWT_SECRET is empty; authenticated routes will reject every token")
	}
	return nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return def
}

func getfloat(key string, def float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return def
}

func getduration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
