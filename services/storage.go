package services

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// StorageService manages the shared downloads directory holding retained
// artifacts, keyed by their token-prefixed filenames.
type StorageService struct {
	DownloadsDir string
}

func NewStorageService(downloadsDir string) *StorageService {
	return &StorageService{
		DownloadsDir: downloadsDir,
	}
}

func (s *StorageService) GetFormattedFileSize(filename string) string {
	if filename == "" {
		return "0 Bytes"
	}

	filePath := filepath.Join(s.DownloadsDir, filename)
	info, err := os.Stat(filePath)
	if err != nil {
		return "0 Bytes"
	}

	return s.FormatFileSize(info.Size())
}

func (s *StorageService) FormatFileSize(bytes int64) string {
	if bytes == 0 {
		return "0 Bytes"
	}
	const k = 1024
	sizes := []string{"Bytes", "KB", "MB", "GB"}
	i := int(math.Log(float64(bytes)) / math.Log(float64(k)))
	return fmt.Sprintf("%.1f %s", float64(bytes)/math.Pow(float64(k), float64(i)), sizes[i])
}

// ValidateFilePath rejects names that would escape the downloads directory.
// Published names are bare filenames, so anything absolute or containing a
// separator is rejected outright.
func (s *StorageService) ValidateFilePath(filename string) (string, error) {
	if filename == "" || filepath.IsAbs(filename) || strings.ContainsAny(filename, `/\`) {
		return "", fmt.Errorf("invalid file path")
	}

	filename = filepath.Clean(filename)
	filePath := filepath.Join(s.DownloadsDir, filename)

	absDownloadsDir, err := filepath.Abs(s.DownloadsDir)
	if err != nil {
		return "", fmt.Errorf("error processing directory path")
	}

	absFilePath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("error processing file path")
	}

	absDownloadsDirNormalized := strings.TrimSuffix(absDownloadsDir, string(filepath.Separator)) + string(filepath.Separator)
	absFilePathNormalized := strings.TrimSuffix(absFilePath, string(filepath.Separator)) + string(filepath.Separator)

	if !strings.HasPrefix(absFilePathNormalized, absDownloadsDirNormalized) {
		return "", fmt.Errorf("invalid file path")
	}

	return filePath, nil
}

func (s *StorageService) DeleteFile(filename string) error {
	filePath, err := s.ValidateFilePath(filename)
	if err != nil {
		return err
	}

	return os.Remove(filePath)
}

func (s *StorageService) FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}
