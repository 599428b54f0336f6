package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Stratus-Compute-Labs/worker-toolkit/internal/database"
	"github.com/Stratus-Compute-Labs/worker-toolkit/internal/storage"
	"github.com/Stratus-Compute-Labs/worker-toolkit/internal/utils"
)

var (
	configPath string
	envFile    string
	config     *utils.ConfigManager
	logger     *utils.LogsManager
)

var rootCmd = &cobra.Command{
	Use:   "stratus-worker",
	Short: "Stratus Compute worker toolkit",
	Long: `Job environment toolkit for Stratus Compute workers.

Inside a job's execution environment it downloads the files referenced by
job_input.json into the input directory, synthesizes bash variables describing
the inputs, and uploads whatever the job left in the output directory.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Load credentials and overrides from an env file when present
		if envFile != "" {
			if err := godotenv.Load(envFile); err != nil {
				fmt.Printf("Error loading env file %s: %v\n", envFile, err)
				os.Exit(1)
			}
		} else {
			_ = godotenv.Load()
		}

		// Initialize configuration
		config = utils.NewConfigManager(configPath)

		// Initialize logging
		logger = utils.NewLogsManager(config)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		// Cleanup
		if logger != nil {
			logger.Close()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// openCatalog creates the file catalog or exits
func openCatalog() *database.FileCatalog {
	catalog, err := database.NewFileCatalog(config)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to open file catalog: %v", err), "cli")
		fmt.Printf("Error opening file catalog: %v\n", err)
		os.Exit(1)
	}
	return catalog
}

// openStore creates the configured object store or exits
func openStore() storage.ObjectStore {
	store, err := storage.NewObjectStore(config, logger)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to open object store: %v", err), "cli")
		fmt.Printf("Error opening object store: %v\n", err)
		os.Exit(1)
	}
	return store
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVarP(&envFile, "env-file", "e", "", "env file with credentials and overrides")
}
