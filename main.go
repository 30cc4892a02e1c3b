package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	apimod "github.com/example/task-crud-demo/modules/api"
	taskmod "github.com/example/task-crud-demo/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	// Load configuration from environment
	httpPort := getEnvInt("HTTP_PORT", 3000)
	dbPath := getEnv("DB_PATH", "tasks.db")
	dbDebug := getEnvBool("DB_DEBUG", false)
	corsOrigins := getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080")
	shutdownTimeout := getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second)

	logLevel := mono.LogLevelInfo
	if getEnvBool("LOG_QUIET", false) {
		logLevel = mono.LogLevelError
	}

	log.Println("=== Task CRUD Demo ===")
	log.Printf("Database: %s", dbPath)
	log.Printf("HTTP Port: %d", httpPort)
	log.Printf("Shutdown Timeout: %s", shutdownTimeout)

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(logLevel),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	taskModule := taskmod.NewModule(taskmod.Config{
		DBPath:  dbPath,
		DBDebug: dbDebug,
	}, app.Logger())
	apiModule := apimod.NewModule(apimod.Config{
		Port:        httpPort,
		CORSOrigins: corsOrigins,
		AccessLog:   true,
	}, app.Logger())
	apiModule.SetTaskModule(taskModule)

	// Register modules; task must start before api
	app.Register(taskModule)
	app.Register(apiModule)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	log.Println("=== Application Started ===")
	log.Printf("API available at http://localhost:%d", httpPort)
	log.Println("Endpoints:")
	log.Println("  GET    /health     - Health check")
	log.Println("  GET    /tasks      - List tasks (newest first)")
	log.Println("  POST   /tasks      - Create task")
	log.Println("  PUT    /tasks/:id  - Update task")
	log.Println("  PATCH  /tasks/:id  - Update task")
	log.Println("  DELETE /tasks/:id  - Delete task")
	log.Println("")
	log.Println("Services (via NATS request-reply):")
	log.Println("  services.task.list, services.task.create, services.task.update, services.task.delete")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown")

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

// getEnv returns environment variable value or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as int or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvBool returns environment variable as bool or default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		log.Printf("Warning: invalid bool value for %s: %s, using default: %t", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns environment variable as duration or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}
