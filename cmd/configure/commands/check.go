package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wilbertliawantara/fitness-companion/internal/config"
	"github.com/wilbertliawantara/fitness-companion/internal/database"
	"github.com/wilbertliawantara/fitness-companion/internal/middleware"
	"github.com/wilbertliawantara/fitness-companion/internal/queue"
)

// NewCheckCmd creates the check command
func NewCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check backing service connectivity",
		Long:  "Verify the configured database, Redis, and RabbitMQ connections are reachable.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			failed := false

			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				fmt.Printf("✗ database: %v\n", err)
				failed = true
			} else {
				defer func() {
					if err := db.Close(); err != nil {
						fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
					}
				}()
				if err := db.PingContext(ctx); err != nil {
					fmt.Printf("✗ database: %v\n", err)
					failed = true
				} else {
					fmt.Println("✓ database is reachable")
				}
			}

			limiter, err := middleware.NewRedisRateLimiter(cfg.RedisURL)
			if err != nil {
				fmt.Printf("✗ redis: %v\n", err)
				failed = true
			} else {
				fmt.Println("✓ redis is reachable")
				if err := limiter.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close redis: %v\n", err)
				}
			}

			jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
			if err != nil {
				fmt.Printf("✗ rabbitmq: %v\n", err)
				failed = true
			} else {
				if err := jobQueue.HealthCheck(ctx); err != nil {
					fmt.Printf("✗ rabbitmq: %v\n", err)
					failed = true
				} else {
					fmt.Println("✓ rabbitmq is reachable")
				}
				if err := jobQueue.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close rabbitmq: %v\n", err)
				}
			}

			if failed {
				return fmt.Errorf("one or more connectivity checks failed")
			}
			fmt.Println("\n✓ all connectivity checks passed")
			return nil
		},
	}
}
