package config

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

var DB *sql.DB

// LoadEnv loads environment variables from a .env file if one exists.
func LoadEnv() error {
	possiblePaths := []string{
		".env",
		"../.env",
		os.Getenv("CHAMGAB_ENV"),
	}

	var loadedFile string
	for _, path := range possiblePaths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			loadedFile = path
			log.Printf("Found .env file at: %s", path)
			break
		}
	}

	if loadedFile == "" {
		// Nothing to load; running off the process environment is fine.
		return nil
	}

	file, err := os.Open(loadedFile)
	if err != nil {
		return fmt.Errorf("error opening .env file: %v", err)
	}
	defer file.Close()

	log.Printf("Loading environment variables from %s", loadedFile)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)
		os.Setenv(key, value)
		if !strings.Contains(strings.ToLower(key), "password") && !strings.Contains(strings.ToLower(key), "secret") {
			log.Printf("Set environment variable: %s", key)
		}
	}

	return scanner.Err()
}

// InitDBWithRetry attempts to connect to PostgreSQL with retries.
func InitDBWithRetry(maxRetries int) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		err = InitDB()
		if err == nil {
			return nil
		}
		log.Printf("Failed to connect to PostgreSQL (attempt %d/%d): %v", i+1, maxRetries, err)
		time.Sleep(5 * time.Second)
	}
	return fmt.Errorf("failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err)
}

func InitDB() error {
	dbParams := map[string]string{
		"dbname":   getEnvWithDefault("DB_NAME", "chamgab"),
		"user":     getEnvWithDefault("DB_USER", "postgres"),
		"password": os.Getenv("DB_PASSWORD"),
		"host":     getEnvWithDefault("DB_HOST", "localhost"),
		"port":     getEnvWithDefault("DB_PORT", "5432"),
		"sslmode":  os.Getenv("DB_SSL_MODE"),
	}

	if dbParams["sslmode"] == "" {
		// Supabase pooler endpoints require SSL.
		if strings.Contains(dbParams["host"], "supabase.co") || strings.Contains(dbParams["host"], "pooler.supabase.com") {
			dbParams["sslmode"] = "require"
		} else {
			dbParams["sslmode"] = "disable"
		}
	}

	log.Printf("DB Host: %s", dbParams["host"])
	log.Printf("DB Port: %s", dbParams["port"])
	log.Printf("DB Name: %s", dbParams["dbname"])
	log.Printf("SSL Mode: %s", dbParams["sslmode"])

	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		dbParams["host"], dbParams["port"], dbParams["user"],
		dbParams["password"], dbParams["dbname"], dbParams["sslmode"])

	var err error
	DB, err = sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("error opening PostgreSQL database: %v", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(5)
	DB.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err = DB.PingContext(ctx); err != nil {
		return fmt.Errorf("error connecting to PostgreSQL database: %v", err)
	}

	log.Printf("Successfully connected to PostgreSQL database: %s", dbParams["dbname"])

	// Verify the statistics tables exist before serving anything.
	for _, table := range []string{"business_stats", "sales_stats", "store_stats", "foot_traffic"} {
		var tableExists bool
		err = DB.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT FROM information_schema.tables
				WHERE table_name = $1
			)`, table).Scan(&tableExists)
		if err != nil {
			return fmt.Errorf("error checking %s table: %v", table, err)
		}
		if !tableExists {
			return fmt.Errorf("%s table does not exist in the database", table)
		}
	}

	log.Printf("Verified statistics tables exist")
	return nil
}

func CheckPostgresHealth() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := DB.PingContext(ctx); err != nil {
		return fmt.Errorf("PostgreSQL health check failed: %v", err)
	}
	return nil
}

func CloseDB() {
	if DB != nil {
		if err := DB.Close(); err != nil {
			log.Printf("Error closing PostgreSQL connection: %v", err)
		}
	}
}
