/*
Package configs is responsible for loading and parsing the application's configuration settings.

It configures server parameters by reading operating system environment variables,
including the running environment, the relay UDP port, admission and flood-control limits,
timeouts, the wire charset, and the optional access-store database connection.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig contains all configuration parameters required for the application to run.
// All configuration values are loaded from environment variables.
type AppConfig struct {
	// General Server Settings
	Environment string
	ServerName  string
	RelayPort   int
	HTTPPort    int

	// Admission Limits
	MaxUsers int
	MaxGames int
	MaxPing  int

	// Allowed connection types (protocol enum values 1..6, LAN..Bad).
	ConnectionTypes []int

	// Flood Control (windows in seconds; zero disables the check)
	ChatFloodTime       int
	CreateGameFloodTime int

	// Length Limits (zero disables the check)
	MaxUserNameLength    int
	MaxClientNameLength  int
	MaxGameNameLength    int
	MaxChatLength        int
	MaxQuitMessageLength int

	// Timeouts
	KeepAliveTimeout time.Duration
	IdleTimeout      time.Duration

	// AllowMultipleConnections permits several logins from one source address.
	AllowMultipleConnections bool

	// Wire Settings
	Charset           string
	GameDataCacheSize int
	EventQueueSize    int

	// Welcome lines sent, in order, after a successful login.
	LoginMessages []string

	// SocialReportDelay is how long a new game must stay open before its
	// looking-for-game notice goes out. Zero disables the broadcaster.
	SocialReportDelay time.Duration

	// TriviaEnabled turns on the lobby trivia scorekeeper.
	TriviaEnabled bool

	// Static access lists, used when no database is configured. Address
	// patterns may end in '*' for prefix matching.
	BannedAddresses     []string
	AdminAddresses      []string
	SilencedAddresses   []string
	RestrictedEmulators []string
	RestrictedGames     []string

	// Security Settings
	AllowedOrigins []string
	JWTSecret      string

	// Database Settings (optional; empty disables the postgres access store)
	DatabaseDSN string
}

// LoadConfig reads and parses the application configuration from environment variables.
// It provides default values for each configuration item and performs necessary type
// conversions and validation. It returns a pointer to the AppConfig struct and any
// error encountered.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Server Settings ---
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	cfg.ServerName = os.Getenv("SERVER_NAME")
	if cfg.ServerName == "" {
		cfg.ServerName = "krelay"
	}

	var err error

	cfg.RelayPort, err = intEnv("RELAY_PORT", 27888)
	if err != nil {
		return nil, err
	}
	if cfg.RelayPort < 1024 || cfg.RelayPort > 65535 {
		return nil, fmt.Errorf("relay port %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.RelayPort, 1024, 65535)
	}

	cfg.HTTPPort, err = intEnv("HTTP_PORT", 8080)
	if err != nil {
		return nil, err
	}

	// --- Admission Limits ---
	cfg.MaxUsers, err = intEnv("MAX_USERS", 150)
	if err != nil {
		return nil, err
	}

	cfg.MaxGames, err = intEnv("MAX_GAMES", 40)
	if err != nil {
		return nil, err
	}

	cfg.MaxPing, err = intEnv("MAX_PING", 300)
	if err != nil {
		return nil, err
	}
	if cfg.MaxPing <= 0 {
		return nil, fmt.Errorf("MAX_PING must be positive, got %d", cfg.MaxPing)
	}

	typesStr := os.Getenv("CONNECTION_TYPES")
	if typesStr == "" {
		typesStr = "1,2,3,4,5,6"
	}
	for _, part := range strings.Split(typesStr, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		ct, err := strconv.Atoi(trimmed)
		if err != nil || ct < 1 || ct > 6 {
			return nil, fmt.Errorf("invalid CONNECTION_TYPES entry %q: must be 1-6", trimmed)
		}
		cfg.ConnectionTypes = append(cfg.ConnectionTypes, ct)
	}

	// --- Flood Control ---
	cfg.ChatFloodTime, err = intEnv("CHAT_FLOOD_TIME", 2)
	if err != nil {
		return nil, err
	}

	cfg.CreateGameFloodTime, err = intEnv("CREATE_GAME_FLOOD_TIME", 2)
	if err != nil {
		return nil, err
	}

	// --- Length Limits ---
	cfg.MaxUserNameLength, err = intEnv("MAX_USERNAME_LENGTH", 30)
	if err != nil {
		return nil, err
	}

	cfg.MaxClientNameLength, err = intEnv("MAX_CLIENT_NAME_LENGTH", 127)
	if err != nil {
		return nil, err
	}

	cfg.MaxGameNameLength, err = intEnv("MAX_GAME_NAME_LENGTH", 127)
	if err != nil {
		return nil, err
	}

	cfg.MaxChatLength, err = intEnv("MAX_CHAT_LENGTH", 150)
	if err != nil {
		return nil, err
	}

	cfg.MaxQuitMessageLength, err = intEnv("MAX_QUIT_MESSAGE_LENGTH", 100)
	if err != nil {
		return nil, err
	}

	// --- Timeouts ---
	keepAliveSecs, err := intEnv("KEEPALIVE_TIMEOUT_SECONDS", 100)
	if err != nil {
		return nil, err
	}
	cfg.KeepAliveTimeout = time.Duration(keepAliveSecs) * time.Second

	idleSecs, err := intEnv("IDLE_TIMEOUT_SECONDS", 0)
	if err != nil {
		return nil, err
	}
	cfg.IdleTimeout = time.Duration(idleSecs) * time.Second

	cfg.AllowMultipleConnections = os.Getenv("ALLOW_MULTIPLE_CONNECTIONS") == "true"

	// --- Wire Settings ---
	cfg.Charset = os.Getenv("CHARSET")
	if cfg.Charset == "" {
		cfg.Charset = "windows-1252"
	}

	cfg.GameDataCacheSize, err = intEnv("GAME_DATA_CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}
	if cfg.GameDataCacheSize < 1 || cfg.GameDataCacheSize > 256 {
		return nil, fmt.Errorf("GAME_DATA_CACHE_SIZE %d out of range: cache keys are a single byte (1-256)", cfg.GameDataCacheSize)
	}

	cfg.EventQueueSize, err = intEnv("EVENT_QUEUE_SIZE", 512)
	if err != nil {
		return nil, err
	}

	// --- Welcome Lines ---
	messagesStr := os.Getenv("LOGIN_MESSAGES")
	if messagesStr == "" {
		messagesStr = "Welcome to a krelay netplay server.|Be respectful in chat."
	}
	for _, line := range strings.Split(messagesStr, "|") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			cfg.LoginMessages = append(cfg.LoginMessages, trimmed)
		}
	}

	// --- Extras ---
	socialDelaySecs, err := intEnv("SOCIAL_REPORT_DELAY_SECONDS", 0)
	if err != nil {
		return nil, err
	}
	cfg.SocialReportDelay = time.Duration(socialDelaySecs) * time.Second

	cfg.TriviaEnabled = os.Getenv("TRIVIA_ENABLED") == "true"

	// --- Static Access Lists ---
	cfg.BannedAddresses = listEnv("BANNED_ADDRESSES")
	cfg.AdminAddresses = listEnv("ADMIN_ADDRESSES")
	cfg.SilencedAddresses = listEnv("SILENCED_ADDRESSES")
	cfg.RestrictedEmulators = listEnv("RESTRICTED_EMULATORS")
	cfg.RestrictedGames = listEnv("RESTRICTED_GAMES")

	// --- Security Settings ---
	originsStr := os.Getenv("ALLOWED_ORIGINS")
	if originsStr != "" {
		for _, origin := range strings.Split(originsStr, ",") {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{}
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if cfg.Environment == "development" {
		if jwtSecret == "" {
			jwtSecret = "your_default_insecure_secret_key_change_me"
		}
	} else {
		if jwtSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required in %s environment for security", cfg.Environment)
		}
	}
	cfg.JWTSecret = jwtSecret

	// --- Database Settings ---
	// Optional: when unset the server falls back to the static access lists.
	cfg.DatabaseDSN = os.Getenv("DATABASE_URL")

	return cfg, nil
}

// listEnv reads a comma-separated environment variable into a trimmed slice.
func listEnv(name string) []string {
	str := os.Getenv(name)
	if str == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(str, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// intEnv reads an integer environment variable, returning def when unset.
func intEnv(name string, def int) (int, error) {
	str := os.Getenv(name)
	if str == "" {
		return def, nil
	}
	value, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return value, nil
}
