package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// fingerprintSample is the size of each region hashed by Fingerprint
const fingerprintSample = 1024 * 1024

// Fingerprint identifies a file's content by hashing its size and up to
// three 1MB samples (start, middle, end). Large media files are identified
// without reading them in full.
func Fingerprint(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", err
	}
	size := info.Size()

	hasher := sha256.New()
	fmt.Fprintf(hasher, "size:%d", size)

	offsets := []int64{0}
	if size > fingerprintSample*3 {
		offsets = append(offsets, size/2-fingerprintSample/2)
	}
	if size > fingerprintSample*2 {
		offsets = append(offsets, size-fingerprintSample)
	}

	buffer := make([]byte, fingerprintSample)
	for _, off := range offsets {
		n, err := file.ReadAt(buffer, off)
		if err != nil && err != io.EOF {
			return "", err
		}
		hasher.Write(buffer[:n])
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
