package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr        string
		CORSOrigins []string
	}
	Log struct {
		Level string
	}
	App struct {
		// BaseURL is where the browser lands after a successful login.
		BaseURL string
		// LoginURL receives ?error=... when a login attempt fails.
		LoginURL string
		// PublicURL is this API's externally visible origin, used for the OpenID realm.
		PublicURL string
	}
	Database struct {
		Path string
	}
	Auth struct {
		JWTSecret          string
		AccessTokenTTL     time.Duration
		RefreshTokenTTL    time.Duration
		LoginRatePerMinute int
		// SessionSweep is how often expired refresh sessions are purged; 0 disables it.
		SessionSweep time.Duration
	}
	Steam struct {
		APIKey          string
		APIBaseURL      string
		CommunityURL    string
		OpenIDURL       string
		VerifyAssertion bool
		Timeout         time.Duration
	}
	Inventory struct {
		FreshFor time.Duration
	}
	Catalog struct {
		DatasetURL string
	}
	Cache struct {
		TTL      time.Duration
		RedisURL string
		Prefix   string
	}
	Storage struct {
		Bucket    string
		KeyPrefix string
		Region    string
		Endpoint  string
		// KeepArchives bounds how many dataset copies stay in the bucket.
		KeepArchives int
		URLTTL       time.Duration
	}
	AWS struct {
		Profile string
	}
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	_ = godotenv.Load() // optional .env, never overrides the real environment

	v := viper.New()
	v.SetEnvPrefix("SKINVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	// env values arrive as one comma separated string
	if raw := v.GetString("server.corsorigins"); raw != "" {
		cfg.Server.CORSOrigins = splitList(raw)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("server.corsorigins", "http://localhost:5173")
	v.SetDefault("log.level", "info")

	v.SetDefault("app.baseurl", "http://localhost:5173/")
	v.SetDefault("app.loginurl", "http://localhost:5173/login")
	v.SetDefault("app.publicurl", "http://localhost:8080")

	v.SetDefault("database.path", "data/skinvault.db")

	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.accesstokenttl", time.Hour)
	v.SetDefault("auth.refreshtokenttl", 30*24*time.Hour)
	v.SetDefault("auth.loginrateperminute", 30)
	v.SetDefault("auth.sessionsweep", time.Hour)

	v.SetDefault("steam.apikey", "")
	v.SetDefault("steam.apibaseurl", "https://api.steampowered.com")
	v.SetDefault("steam.communityurl", "https://steamcommunity.com")
	v.SetDefault("steam.openidurl", "https://steamcommunity.com/openid/login")
	v.SetDefault("steam.verifyassertion", false)
	v.SetDefault("steam.timeout", 15*time.Second)

	v.SetDefault("inventory.freshfor", time.Hour)

	v.SetDefault("catalog.dataseturl", "https://raw.githubusercontent.com/ByMykel/CSGO-API/main/public/api/en/skins.json")

	v.SetDefault("cache.ttl", 30*time.Minute)
	v.SetDefault("cache.redisurl", "")
	v.SetDefault("cache.prefix", "skinvault")

	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "catalog-datasets")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.keeparchives", 10)
	v.SetDefault("storage.urlttl", 15*time.Minute)
	v.SetDefault("aws.profile", "")
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
