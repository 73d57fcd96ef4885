package config // package config loads application configuration from environment variables

import (
    "log"     // log reports configuration errors before the structured logger exists
    "os"      // os provides access to environment variables
    "strings"

    "github.com/joho/godotenv" // .env loading for local development
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
    Env             string   // application environment (e.g. "dev", "prod")
    Port            string   // HTTP port to listen on
    DBUser          string   // database username
    DBPass          string   // database password (optional)
    DBHost          string   // database host address
    DBPort          string   // database port number
    DBName          string   // database name
    AutoMigrate     bool     // run embedded migrations at startup
    JWTSecret       string   // secret used to sign JWTs
    AccessTTLMin    int      // access token time‑to‑live in minutes
    RefreshTTLDays  int      // refresh token time‑to‑live in days
    BcryptCost      int      // bcrypt cost for password hashing
    AppURL          string   // public base URL encoded into member QR codes
    AdminEmail      string   // bootstrap admin email
    AdminPassword   string   // bootstrap admin password; no seeding when empty
    MaintenanceMode bool     // public member routes answer 503
    EntityNames     []string // overrides the built-in entity list when set
    AMQPURL         string   // RabbitMQ URL; publishing and the consumer are off when empty
    ActivityLogDir  string   // where the consumer writes activity.log
    OTLPEndpoint    string   // OTLP/HTTP collector host:port; tracing stays local when empty
    ServiceName     string   // service.name resource attribute
    LogLevel        string   // debug | info | warn | error
    LogFormat       string   // json | text
}

// Load reads .env (if present) and then the environment.  Required
// variables are enforced by must() and missing values cause the program to
// exit with a fatal log message.
func Load() Config {
    _ = godotenv.Load() // a missing .env is normal outside local dev

    return Config{
        Env:             envStr("APP_ENV", "dev"),
        Port:            envStr("APP_PORT", "8080"),
        DBUser:          must("DB_USER"),
        DBPass:          os.Getenv("DB_PASS"), // empty allowed
        DBHost:          must("DB_HOST"),
        DBPort:          envStr("DB_PORT", "3306"),
        DBName:          must("DB_NAME"),
        AutoMigrate:     envBool("AUTO_MIGRATE", false),
        JWTSecret:       must("JWT_SECRET"),
        AccessTTLMin:    envInt("ACCESS_TOKEN_TTL_MIN", 15),
        RefreshTTLDays:  envInt("REFRESH_TOKEN_TTL_DAYS", 7),
        BcryptCost:      envInt("BCRYPT_COST", 12),
        AppURL:          envStr("APP_URL", "http://localhost:3000"),
        AdminEmail:      envStr("ADMIN_EMAIL", "admin@odwyaty.com"),
        AdminPassword:   os.Getenv("ADMIN_PASSWORD"),
        MaintenanceMode: envBool("MAINTENANCE_MODE", false),
        EntityNames:     splitList(os.Getenv("ENTITY_NAMES")),
        AMQPURL:         firstEnv("RABBITMQ_URL", "AMQP_URL"),
        ActivityLogDir:  envStr("ACTIVITY_LOG_DIR", "logs"),
        OTLPEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
        ServiceName:     envStr("OTEL_SERVICE_NAME", "odwyaty"),
        LogLevel:        envStr("LOG_LEVEL", "info"),
        LogFormat:       envStr("LOG_FORMAT", "json"),
    }
}

// LoadDB reads only the database settings.  Tools such as cmd/migrate use
// it so they do not need the HTTP secrets.
func LoadDB() Config {
    _ = godotenv.Load()

    return Config{
        DBUser: must("DB_USER"),
        DBPass: os.Getenv("DB_PASS"),
        DBHost: must("DB_HOST"),
        DBPort: envStr("DB_PORT", "3306"),
        DBName: must("DB_NAME"),
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

func firstEnv(keys ...string) string {
    for _, k := range keys {
        if v := os.Getenv(k); v != "" {
            return v
        }
    }
    return ""
}

// splitList parses a comma separated list, dropping blanks.
func splitList(s string) []string {
    var out []string
    for _, p := range strings.Split(s, ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}
