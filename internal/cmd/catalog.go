package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Stratus-Compute-Labs/worker-toolkit/internal/storage"
)

var (
	catalogListProject string
	catalogListVerify  bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and populate the local file catalog",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <manifest>",
	Short: "Import file entries from a YAML manifest",
	Long: `Import file entries from a YAML manifest into the catalog.

The manifest lists files with name, project, size_bytes and checksum; entries
without an id get a fresh one assigned.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		catalog := openCatalog()
		defer catalog.Close()

		imported, err := catalog.ImportManifest(args[0])
		if err != nil {
			logger.Error(fmt.Sprintf("Manifest import failed: %v", err), "cli")
			fmt.Printf("Error importing manifest: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Imported %d file(s)\n", imported)
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cataloged files",
	Run: func(cmd *cobra.Command, args []string) {
		catalog := openCatalog()
		defer catalog.Close()

		handles, err := catalog.ListFiles(catalogListProject)
		if err != nil {
			logger.Error(fmt.Sprintf("Catalog listing failed: %v", err), "cli")
			fmt.Printf("Error listing catalog: %v\n", err)
			os.Exit(1)
		}

		if len(handles) == 0 {
			fmt.Println("Catalog is empty")
			return
		}

		var store storage.ObjectStore
		if catalogListVerify {
			store = openStore()
		}

		missing := 0
		for _, handle := range handles {
			if store == nil {
				fmt.Printf("%s  %12d  %s\n", handle.ID, handle.Size, handle.Name)
				continue
			}

			status := "ok"
			if _, err := store.StatObject(context.Background(), handle.ID); err != nil {
				if errors.Is(err, storage.ErrObjectNotFound) {
					status = "MISSING"
					missing++
				} else {
					logger.Error(fmt.Sprintf("Store check failed for %s: %v", handle.ID, err), "cli")
					fmt.Printf("Error checking %s: %v\n", handle.ID, err)
					os.Exit(1)
				}
			}
			fmt.Printf("%s  %12d  %-7s  %s\n", handle.ID, handle.Size, status, handle.Name)
		}

		if missing > 0 {
			fmt.Printf("%d file(s) missing from the object store\n", missing)
			os.Exit(1)
		}
	},
}

var catalogRemoveCmd = &cobra.Command{
	Use:   "remove <file-id>",
	Short: "Remove a file entry from the catalog",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		catalog := openCatalog()
		defer catalog.Close()

		if err := catalog.RemoveFile(args[0]); err != nil {
			logger.Error(fmt.Sprintf("Catalog removal failed: %v", err), "cli")
			fmt.Printf("Error removing %s: %v\n", args[0], err)
			os.Exit(1)
		}

		fmt.Printf("Removed %s\n", args[0])
	},
}

func init() {
	catalogListCmd.Flags().StringVarP(&catalogListProject, "project", "p", "", "only list files of this project")
	catalogListCmd.Flags().BoolVar(&catalogListVerify, "verify", false, "check that every listed file exists in the object store")
	catalogCmd.AddCommand(catalogImportCmd)
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogRemoveCmd)
	rootCmd.AddCommand(catalogCmd)
}
