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

var uploadProject string

var uploadCmd = &cobra.Command{
	Use:   "upload-outputs",
	Short: "Upload the job's output files and write job_output.json",
	Long: `Upload every file under $HOME/out to the object store.

First-level subdirectories of the output directory are output keys. Each
uploaded file is registered in the file catalog; job_output.json receives one
link per key, or a link array when a key holds several files.`,
	Run: func(cmd *cobra.Command, args []string) {
		env := jobenv.SnapshotEnviron()
		paths, err := jobenv.NewJobPaths(env)
		if err != nil {
			logger.Error(fmt.Sprintf("Failed to locate job home: %v", err), "cli")
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		project := uploadProject
		if project == "" {
			project = config.GetConfigWithDefault("default_project", "")
		}

		catalog := openCatalog()
		defer catalog.Close()
		store := openStore()

		uploader := workers.NewOutputUploader(store, catalog, config, logger)
		report, err := uploader.UploadOutputs(context.Background(), paths, project)
		if err != nil {
			logger.Error(fmt.Sprintf("Upload failed: %v", err), "cli")
			fmt.Printf("Error uploading outputs: %v\n", err)
			os.Exit(1)
		}

		for _, file := range report.Files {
			if file.Status == types.TransferStatusFailed {
				fmt.Printf("FAILED  %s: %s\n", file.Path, file.Error)
			}
		}
		fmt.Printf("Uploaded %d file(s)", len(report.Files)-report.Failed)
		if report.Failed > 0 {
			fmt.Printf(", %d failed", report.Failed)
		}
		fmt.Printf(", output document written to %s\n", report.OutputJSONPath)

		if report.Failed > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadProject, "project", "p", "", "project to register uploads under (default from config)")
	rootCmd.AddCommand(uploadCmd)
}
