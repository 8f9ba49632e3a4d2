package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sahilchouksey/uniguide-api/app"
	"github.com/sahilchouksey/uniguide-api/config"
	"github.com/sahilchouksey/uniguide-api/database"
	"github.com/sahilchouksey/uniguide-api/services/sources"
	"github.com/sahilchouksey/uniguide-api/utils"
	"github.com/sahilchouksey/uniguide-api/utils/auth"
)

var (
	refreshSource string
	runsLimit     int
	rollbackSteps int
	tokenSubject  string
	tokenTTL      time.Duration

	rootCmd = &cobra.Command{
		Use:           "catalogctl",
		Short:         "Operate the UniGuide course catalog",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	migrateUpCmd = &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE:  runMigrateUp,
	}
	migrateDownCmd = &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		RunE:  runMigrateDown,
	}
	migrateVersionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE:  runMigrateVersion,
	}

	refreshCmd = &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the catalog from a data source",
		RunE:  runRefresh,
	}

	runsCmd = &cobra.Command{
		Use:   "runs",
		Short: "List recent refresh runs",
		RunE:  runListRuns,
	}

	sourcesCmd = &cobra.Command{
		Use:   "sources",
		Short: "List the data sources enabled by the current configuration",
		RunE:  runListSources,
	}

	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Mint an admin token for the refresh endpoints",
		RunE:  runToken,
	}
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
	migrateDownCmd.Flags().IntVar(&rollbackSteps, "steps", 1, "Number of migrations to roll back")

	rootCmd.AddCommand(refreshCmd)
	refreshCmd.Flags().StringVarP(&refreshSource, "source", "s", sources.SampleSourceName, "Data source to refresh from")

	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Number of runs to show")

	rootCmd.AddCommand(sourcesCmd)

	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "operator", "Token subject")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "Token lifetime")
}

// loadConfig reads the environment without connecting to anything.
func loadConfig(ctx context.Context) (*config.Config, *zap.Logger, error) {
	if err := config.LoadENV(); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Get(ctx)
	if err != nil {
		return nil, nil, err
	}
	logger, err := utils.NewLogger(cfg.GoEnv)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd.Context())
	if err != nil {
		return err
	}
	return database.RunMigrations(cfg.Database.URL(), logger)
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	if rollbackSteps < 1 {
		return fmt.Errorf("--steps must be at least 1")
	}
	cfg, logger, err := loadConfig(cmd.Context())
	if err != nil {
		return err
	}
	return database.RollbackMigrations(cfg.Database.URL(), rollbackSteps, logger)
}

func runMigrateVersion(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig(cmd.Context())
	if err != nil {
		return err
	}
	version, dirty, err := database.MigrationVersion(cfg.Database.URL())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty=%t)\n", version, dirty)
	return nil
}

func runRefresh(cmd *cobra.Command, _ []string) error {
	rt, err := app.Bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), rt.Config.Refresh.Timeout)
	defer cancel()

	result, err := rt.Refresh.Refresh(ctx, refreshSource)
	if err != nil {
		return fmt.Errorf("data refresh failed: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func runListRuns(cmd *cobra.Command, _ []string) error {
	rt, err := app.Bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	runs, err := rt.Repo.RefreshLog.ListRecent(cmd.Context(), runsLimit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOURCE\tSTATUS\tRECORDS\tSTARTED\tCOMPLETED\tERROR")
	for _, r := range runs {
		completed, errMsg := "-", ""
		if r.CompletedAt != nil {
			completed = r.CompletedAt.Format(time.RFC3339)
		}
		if r.ErrorMessage != nil {
			errMsg = *r.ErrorMessage
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Source, r.Status, strconv.Itoa(r.RecordsFetched),
			r.StartedAt.Format(time.RFC3339), completed, errMsg)
	}
	return w.Flush()
}

func runListSources(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd.Context())
	if err != nil {
		return err
	}
	registry, err := sources.NewRegistryFromConfig(cfg.Sources, logger)
	if err != nil {
		return err
	}
	for _, name := range registry.Names() {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig(cmd.Context())
	if err != nil {
		return err
	}
	if cfg.Refresh.APISecret == "" {
		return fmt.Errorf("REFRESH_API_SECRET is not set")
	}

	token, err := auth.NewJWTManager(auth.JWTConfig{
		Secret: cfg.Refresh.APISecret,
		Expiry: tokenTTL,
	}).GenerateToken(tokenSubject, auth.RoleAdmin)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
