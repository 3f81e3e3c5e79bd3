package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/safar/go-inventory-sales/internal/config"
	"github.com/safar/go-inventory-sales/internal/database"
	"github.com/spf13/cobra"
)

var timeout time.Duration

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back the inventory sales schema",
	Long: `migrate runs the SQL migrations embedded in the binary against the
database named by DATABASE_URL (or a .env file).

"up" applies every migration in order; "down" rolls them all back in
reverse order.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "Abort if the migrations take longer than this")

	rootCmd.AddCommand(directionCmd(database.Up, "Apply all migrations"))
	rootCmd.AddCommand(directionCmd(database.Down, "Roll back all migrations"))
}

func directionCmd(direction database.Direction, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(direction),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), direction)
		},
	}
}

func run(ctx context.Context, direction database.Direction) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	applied, err := database.Migrate(ctx, db, direction)
	for _, name := range applied {
		fmt.Printf("Ran migration: %s\n", name)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Successfully ran %d migration(s) %s\n", len(applied), direction)
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
