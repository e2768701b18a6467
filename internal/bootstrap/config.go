package bootstrap

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr string
	LogLevel   string

	DatabaseDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	StatusTTL     time.Duration

	MQTTBroker      string
	MQTTClientID    string
	MQTTUsername    string
	MQTTPassword    string
	MQTTTopicPrefix string

	InferenceProvider string
	GeminiAPIKey      string
	GeminiBaseURL     string
	GeminiModel       string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string
	InferenceTimeout  time.Duration

	CaptureInterval time.Duration
	HistoryLen      int
	JPEGQuality     int

	WebcamDevices   []string
	WebcamWidth     int
	WebcamHeight    int
	FileDeviceDir   string

	RTCICEServers []ICEServerConfig
	RTCPortMin    int
	RTCPortMax    int

	StaticDir string
	IndexHTML string
}

type ICEServerConfig struct {
	URLs       []string
	Username   string
	Credential string
}

// LoadConfig reads the environment, after loading .env from the working
// directory when one exists.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		DatabaseDSN: getEnv("DATABASE_DSN", "host=localhost user=postgres dbname=careflow sslmode=disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		StatusTTL:     getEnvDuration("STATUS_TTL", 24*time.Hour),

		MQTTBroker:      getEnv("MQTT_BROKER", ""),
		MQTTClientID:    getEnv("MQTT_CLIENT_ID", "careflow-monitor"),
		MQTTUsername:    getEnv("MQTT_USERNAME", ""),
		MQTTPassword:    getEnv("MQTT_PASSWORD", ""),
		MQTTTopicPrefix: getEnv("MQTT_TOPIC_PREFIX", "careflow/monitor"),

		InferenceProvider: getEnv("INFERENCE_PROVIDER", "gemini"),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiBaseURL:     getEnv("GEMINI_BASE_URL", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		InferenceTimeout:  getEnvDuration("INFERENCE_TIMEOUT", 30*time.Second),

		CaptureInterval: getEnvDuration("CAPTURE_INTERVAL", 3*time.Second),
		HistoryLen:      getEnvInt("HISTORY_LEN", 4),
		JPEGQuality:     getEnvInt("JPEG_QUALITY", 80),

		WebcamDevices:   getEnvList("WEBCAM_DEVICES", []string{"/dev/video0"}),
		WebcamWidth:     getEnvInt("WEBCAM_WIDTH", 640),
		WebcamHeight:    getEnvInt("WEBCAM_HEIGHT", 480),
		FileDeviceDir:   getEnv("FILE_DEVICE_DIR", ""),

		RTCICEServers: parseICEServers(
			getEnv("RTC_ICE_SERVERS", "stun:stun.l.google.com:19302"),
			getEnv("RTC_ICE_USERNAME", ""),
			getEnv("RTC_ICE_CREDENTIAL", ""),
		),
		RTCPortMin: getEnvInt("RTC_PORT_MIN", 10000),
		RTCPortMax: getEnvInt("RTC_PORT_MAX", 20000),

		StaticDir: getEnv("STATIC_DIR", "./static"),
		IndexHTML: getEnv("INDEX_HTML", "./static/index.html"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("3s") or bare milliseconds ("3000").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// parseICEServers splits a comma list of ICE URLs. TURN entries get the
// shared credentials.
func parseICEServers(envValue, username, credential string) []ICEServerConfig {
	var servers []ICEServerConfig
	for _, url := range strings.Split(envValue, ",") {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		server := ICEServerConfig{URLs: []string{url}}
		if strings.HasPrefix(url, "turn:") || strings.HasPrefix(url, "turns:") {
			server.Username = username
			server.Credential = credential
		}
		servers = append(servers, server)
	}

	if len(servers) == 0 {
		return []ICEServerConfig{{URLs: []string{"stun:stun.l.google.com:19302"}}}
	}

	return servers
}
