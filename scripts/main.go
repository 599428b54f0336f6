package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "gen-manifest":
		RunGenManifest(args)
	case "inspect-catalog":
		RunInspectCatalog(args)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: go run scripts/main.go <command> [args...]")
	fmt.Println("")
	fmt.Println("Available commands:")
	fmt.Println("  gen-manifest <dir> <output.yaml> [project_id]")
	fmt.Println("    Scan a directory and write a catalog manifest with fresh file IDs")
	fmt.Println("    Example: go run scripts/main.go gen-manifest ./reference-data manifest.yaml")
	fmt.Println("")
	fmt.Println("  inspect-catalog [db_path]")
	fmt.Println("    Print file catalog statistics straight from the SQLite database")
	fmt.Println("    Example: go run scripts/main.go inspect-catalog")
}
