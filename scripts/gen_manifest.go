package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

// manifestFile mirrors the entry format accepted by `stratus-worker catalog import`
type manifestFile struct {
	ID       string `yaml:"id"`
	Project  string `yaml:"project,omitempty"`
	Name     string `yaml:"name"`
	Size     int64  `yaml:"size_bytes"`
	Checksum string `yaml:"checksum"`
}

type manifestDoc struct {
	Files []manifestFile `yaml:"files"`
}

func RunGenManifest(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: go run main.go gen-manifest <dir> <output.yaml> [project_id]")
		fmt.Println("Example: go run main.go gen-manifest ./reference-data manifest.yaml")
		os.Exit(1)
	}

	dir := args[0]
	outputPath := args[1]
	project := ""
	if len(args) > 2 {
		project = args[2]
	}

	info, err := os.Stat(dir)
	if err != nil {
		fmt.Printf("Failed to stat directory: %v\n", err)
		os.Exit(1)
	}
	if !info.IsDir() {
		fmt.Printf("Not a directory: %s\n", dir)
		os.Exit(1)
	}

	fmt.Println("=== Scanning Directory ===")
	fmt.Printf("Directory: %s\n", dir)
	if project != "" {
		fmt.Printf("Project: %s\n", project)
	}
	fmt.Println()

	var doc manifestDoc
	var totalBytes int64

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		fileInfo, err := d.Info()
		if err != nil {
			return err
		}

		checksum, err := checksumFile(path)
		if err != nil {
			return err
		}

		entry := manifestFile{
			ID:       newFileID(),
			Project:  project,
			Name:     d.Name(),
			Size:     fileInfo.Size(),
			Checksum: checksum,
		}
		doc.Files = append(doc.Files, entry)
		totalBytes += fileInfo.Size()

		fmt.Printf("  %s  %s (%d bytes)\n", entry.ID, d.Name(), fileInfo.Size())
		return nil
	})
	if err != nil {
		fmt.Printf("Failed to scan directory: %v\n", err)
		os.Exit(1)
	}

	if len(doc.Files) == 0 {
		fmt.Println("No files found")
		os.Exit(1)
	}

	out, err := yaml.Marshal(&doc)
	if err != nil {
		fmt.Printf("Failed to marshal manifest: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(outputPath, out, 0644); err != nil {
		fmt.Printf("Failed to write manifest: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Printf("Total: %d file(s), %d bytes (%.2f KB)\n", len(doc.Files), totalBytes, float64(totalBytes)/1024)
	fmt.Printf("\n✓ Manifest written to %s\n", outputPath)
}

// checksumFile calculates the BLAKE3 checksum of a file as "b3:<hex>"
func checksumFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return "b3:" + hex.EncodeToString(hasher.Sum(nil)), nil
}

// newFileID mints a platform file ID from a fresh UUID
func newFileID() string {
	return "file-" + strings.ReplaceAll(uuid.New().String(), "-", "")
}
