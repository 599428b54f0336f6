package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Stratus-Compute-Labs/worker-toolkit/internal/jobenv"
)

var (
	varsInputPath string
	varsLegacy    bool
	varsRawInput  bool
)

var varsCmd = &cobra.Command{
	Use:   "bash-vars",
	Short: "Print bash variable bindings for the job input",
	Long: `Print export statements describing the job input, for eval in the job shell.

File-valued keys yield four variables: the link itself plus _filename, _prefix
and _path companions. Everything else is re-encoded as a single shell-safe
value. Names already taken in the environment are skipped with a warning,
unless --legacy or --raw-input selects one of the historic formats.`,
	Run: func(cmd *cobra.Command, args []string) {
		env := jobenv.SnapshotEnviron()
		paths, err := jobenv.NewJobPaths(env)
		if err != nil {
			logger.Error(fmt.Sprintf("Failed to locate job home: %v", err), "cli")
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		inputPath := varsInputPath
		if inputPath == "" {
			inputPath = paths.InputJSONPath()
		}
		input, err := jobenv.LoadJobInput(inputPath)
		if err != nil {
			logger.Error(fmt.Sprintf("Failed to load job input: %v", err), "cli")
			fmt.Printf("Error loading job input: %v\n", err)
			os.Exit(1)
		}

		// The raw format predates file planning and needs no resolution
		if varsRawInput {
			lines, err := jobenv.RawExportLines(input)
			if err != nil {
				logger.Error(fmt.Sprintf("Failed to encode variables: %v", err), "cli")
				fmt.Printf("Error encoding variables: %v\n", err)
				os.Exit(1)
			}
			for _, line := range lines {
				fmt.Println(line)
			}
			return
		}

		catalog := openCatalog()
		defer catalog.Close()

		plan, err := jobenv.NewPlanner(catalog, logger).Plan(context.Background(), input)
		if err != nil {
			logger.Error(fmt.Sprintf("Failed to plan inputs: %v", err), "cli")
			fmt.Printf("Error planning inputs: %v\n", err)
			os.Exit(1)
		}

		if varsLegacy {
			lines, err := jobenv.ExportLines(plan)
			if err != nil {
				logger.Error(fmt.Sprintf("Failed to encode variables: %v", err), "cli")
				fmt.Printf("Error encoding variables: %v\n", err)
				os.Exit(1)
			}
			for _, line := range lines {
				fmt.Println(line)
			}
			return
		}

		vars, err := jobenv.NewSynthesizer(env, logger).Synthesize(plan)
		if err != nil {
			logger.Error(fmt.Sprintf("Failed to synthesize variables: %v", err), "cli")
			fmt.Printf("Error synthesizing variables: %v\n", err)
			os.Exit(1)
		}

		names := make([]string, 0, len(vars))
		for name := range vars {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("export %s=%s\n", name, vars[name])
		}
	},
}

func init() {
	varsCmd.Flags().StringVarP(&varsInputPath, "input", "i", "", "job input document (default $HOME/job_input.json)")
	varsCmd.Flags().BoolVar(&varsLegacy, "legacy", false, "print the historic unguarded format")
	varsCmd.Flags().BoolVar(&varsRawInput, "raw-input", false, "print the raw input values without file planning")
	rootCmd.AddCommand(varsCmd)
}
