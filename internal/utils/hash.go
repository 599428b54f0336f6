package utils

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/zeebo/blake3"
)

// ChecksumPrefix marks BLAKE3 checksums stored in the file catalog.
const ChecksumPrefix = "b3:"

// ChecksumFile calculates the BLAKE3 checksum of a file, returned as "b3:<hex>"
func ChecksumFile(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	hash := hasher.Sum(nil)
	return ChecksumPrefix + hex.EncodeToString(hash), nil
}

// ChecksumBytes calculates the BLAKE3 checksum of a byte slice
func ChecksumBytes(data []byte) string {
	hasher := blake3.New()
	hasher.Write(data)
	hash := hasher.Sum(nil)
	return ChecksumPrefix + hex.EncodeToString(hash)
}

// VerifyFileChecksum verifies that a file matches the expected BLAKE3 checksum.
// The expected value may carry the "b3:" prefix or be a bare hex string.
func VerifyFileChecksum(filePath, expected string) error {
	actual, err := ChecksumFile(filePath)
	if err != nil {
		return err
	}
	if strings.TrimPrefix(actual, ChecksumPrefix) != strings.TrimPrefix(expected, ChecksumPrefix) {
		return fmt.Errorf("checksum mismatch for %s: got %s, want %s", filePath, actual, expected)
	}
	return nil
}
