package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

func RunInspectCatalog(args []string) {
	var dbPath string
	if len(args) > 0 {
		dbPath = args[0]
	} else {
		// Default catalog location under the XDG data directory
		dataHome := os.Getenv("XDG_DATA_HOME")
		if dataHome == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				fmt.Printf("Failed to get home directory: %v\n", err)
				os.Exit(1)
			}
			dataHome = filepath.Join(homeDir, ".local", "share")
		}
		dbPath = filepath.Join(dataHome, "stratus-worker", "file-catalog.db")
	}

	if _, err := os.Stat(dbPath); err != nil {
		fmt.Printf("Catalog database not found: %s\n", dbPath)
		os.Exit(1)
	}

	// Connect to database (using modernc.org/sqlite driver name)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	var fileCount int64
	var totalBytes sql.NullInt64
	err = db.QueryRow(`SELECT COUNT(*), SUM(size_bytes) FROM files`).Scan(&fileCount, &totalBytes)
	if err != nil {
		fmt.Printf("Failed to query catalog: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== Catalog Overview ===")
	fmt.Printf("Database: %s\n", dbPath)
	fmt.Printf("Files: %d\n", fileCount)
	fmt.Printf("Total Size: %d bytes (%.2f MB)\n", totalBytes.Int64, float64(totalBytes.Int64)/(1024*1024))
	fmt.Println()

	if fileCount == 0 {
		fmt.Println("✓ Catalog is empty")
		return
	}

	fmt.Println("=== Files Per Project ===")
	rows, err := db.Query(`SELECT project, COUNT(*), SUM(size_bytes)
	                       FROM files GROUP BY project ORDER BY COUNT(*) DESC`)
	if err != nil {
		fmt.Printf("Failed to query projects: %v\n", err)
		os.Exit(1)
	}
	defer rows.Close()

	for rows.Next() {
		var project string
		var count, bytes int64
		if err := rows.Scan(&project, &count, &bytes); err != nil {
			fmt.Printf("Failed to scan project row: %v\n", err)
			os.Exit(1)
		}
		if project == "" {
			project = "(no project)"
		}
		fmt.Printf("  %s: %d file(s), %d bytes\n", project, count, bytes)
	}
	if err := rows.Err(); err != nil {
		fmt.Printf("Failed to read project rows: %v\n", err)
		os.Exit(1)
	}
	fmt.Println()

	fmt.Println("=== Largest Files ===")
	largest, err := db.Query(`SELECT id, name, size_bytes
	                          FROM files ORDER BY size_bytes DESC, name ASC LIMIT 10`)
	if err != nil {
		fmt.Printf("Failed to query largest files: %v\n", err)
		os.Exit(1)
	}
	defer largest.Close()

	for largest.Next() {
		var id, name string
		var bytes int64
		if err := largest.Scan(&id, &name, &bytes); err != nil {
			fmt.Printf("Failed to scan file row: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("  %s  %s (%d bytes)\n", id, name, bytes)
	}
	if err := largest.Err(); err != nil {
		fmt.Printf("Failed to read file rows: %v\n", err)
		os.Exit(1)
	}

	var missingChecksums int64
	err = db.QueryRow(`SELECT COUNT(*) FROM files WHERE checksum = ''`).Scan(&missingChecksums)
	if err != nil {
		fmt.Printf("Failed to count missing checksums: %v\n", err)
		os.Exit(1)
	}
	if missingChecksums > 0 {
		fmt.Printf("\nFiles without a checksum: %d\n", missingChecksums)
	}

	fmt.Println("\n✓ Catalog inspection complete")
}
