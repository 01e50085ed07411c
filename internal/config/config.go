package config // package config loads application configuration from environment variables

import (
    "log"  // log is used to report configuration errors and halt execution
    "os"   // os provides access to environment variables
    "time" // time is used for sweeper durations

    "github.com/joho/godotenv" // godotenv loads a local .env file when present
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, durations for the
// sweeper schedule.
type Config struct {
    Env                string        // application environment (e.g. "dev", "prod")
    Port               string        // HTTP port to listen on
    DBUser             string        // database username
    DBPass             string        // database password (optional)
    DBHost             string        // database host address
    DBPort             string        // database port number
    DBName             string        // database name
    JWTSecret          string        // secret used to sign device tokens
    DeviceTokenTTLDays int           // device token time-to-live in days
    SweepInterval      time.Duration // how often the expiry sweeper ticks
    VisitMaxAge        time.Duration // open-visit age beyond which the sweeper force-closes
}

// Load reads configuration values from environment variables and returns a
// Config.  A .env file in the working directory is loaded first when
// present.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  The sweeper knobs
// have defaults so a bare deployment sweeps every 30 minutes with a
// four-hour visit ceiling.
func Load() Config {
    _ = godotenv.Load() // absent .env is fine; real env vars win either way
    return Config{
        Env:                must("APP_ENV"),      // environment (dev/test/prod)
        Port:               must("APP_PORT"),     // port to bind the HTTP server
        DBUser:             must("DB_USER"),      // database user
        DBPass:             os.Getenv("DB_PASS"), // database password (empty allowed)
        DBHost:             must("DB_HOST"),      // database host
        DBPort:             must("DB_PORT"),      // database port
        DBName:             must("DB_NAME"),      // database name
        JWTSecret:          must("JWT_SECRET"),   // secret used for signing device tokens
        DeviceTokenTTLDays: envInt("DEVICE_TOKEN_TTL_DAYS", 365),
        SweepInterval:      envDur("SWEEP_INTERVAL", 30*time.Minute),
        VisitMaxAge:        envDur("VISIT_MAX_AGE", 4*time.Hour),
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
