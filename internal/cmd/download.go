package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Stratus-Compute-Labs/worker-toolkit/internal/jobenv"
	"github.com/Stratus-Compute-Labs/worker-toolkit/internal/types"
	"github.com/Stratus-Compute-Labs/worker-toolkit/internal/workers"
)

var downloadInputPath string

var downloadCmd = &cobra.Command{
	Use:   "download-inputs",
	Short: "Download the files referenced by the job input document",
	Long: `Download every file referenced by job_input.json into $HOME/in.

Each file-valued input key gets its own directory; array-valued keys get one
numbered subdirectory per element so identical filenames cannot collide.`,
	Run: func(cmd *cobra.Command, args []string) {
		env := jobenv.SnapshotEnviron()
		paths, err := jobenv.NewJobPaths(env)
		if err != nil {
			logger.Error(fmt.Sprintf("Failed to locate job home: %v", err), "cli")
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		inputPath := downloadInputPath
		if inputPath == "" {
			inputPath = paths.InputJSONPath()
		}
		input, err := jobenv.LoadJobInput(inputPath)
		if err != nil {
			logger.Error(fmt.Sprintf("Failed to load job input: %v", err), "cli")
			fmt.Printf("Error loading job input: %v\n", err)
			os.Exit(1)
		}

		catalog := openCatalog()
		defer catalog.Close()
		store := openStore()

		ctx := context.Background()
		plan, err := jobenv.NewPlanner(catalog, logger).Plan(ctx, input)
		if err != nil {
			logger.Error(fmt.Sprintf("Failed to plan downloads: %v", err), "cli")
			fmt.Printf("Error planning downloads: %v\n", err)
			os.Exit(1)
		}

		downloader := workers.NewInputDownloader(store, config, logger)
		report, err := downloader.DownloadInputs(ctx, paths, plan)
		if err != nil {
			logger.Error(fmt.Sprintf("Download failed: %v", err), "cli")
			fmt.Printf("Error downloading inputs: %v\n", err)
			os.Exit(1)
		}

		for _, file := range report.Files {
			if file.Status == types.TransferStatusFailed {
				fmt.Printf("FAILED  %s: %s\n", file.Path, file.Error)
			}
		}
		fmt.Printf("Downloaded %d file(s) to %s", len(report.Files)-report.Failed, paths.InputDir(true))
		if report.Failed > 0 {
			fmt.Printf(", %d failed", report.Failed)
		}
		fmt.Println()

		if report.Failed > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadInputPath, "input", "i", "", "job input document (default $HOME/job_input.json)")
	rootCmd.AddCommand(downloadCmd)
}
