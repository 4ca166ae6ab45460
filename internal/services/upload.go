package services

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "sunburst/internal/errors"
	"sunburst/internal/table"
)

var allowedExtensions = map[string]struct{}{
	".csv": {}, ".xls": {}, ".xlsx": {},
}

// SaveUpload stores an uploaded file under a timestamped name and returns
// the stored file name. Excel uploads are converted to CSV once here so
// every later read takes the CSV path.
func (s *ChartService) SaveUpload(originalName string, src io.Reader) (string, error) {
	base := filepath.Base(strings.TrimSpace(originalName))
	ext := strings.ToLower(filepath.Ext(base))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", apperrors.ErrFileTypeNotAllowed
	}

	if err := os.MkdirAll(s.cfg.Paths.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	stem := sanitizeFileName(strings.TrimSuffix(base, ext))
	storedName := fmt.Sprintf("%s-%s.csv", stem, timestamp)
	storedPath := s.cfg.UploadPath(storedName)

	if ext == ".xls" || ext == ".xlsx" {
		tempPath := s.cfg.UploadPath(fmt.Sprintf("temp_%s%s", timestamp, ext))
		if err := writeFile(tempPath, src); err != nil {
			return "", fmt.Errorf("save upload: %w", err)
		}
		defer os.Remove(tempPath)

		if _, err := table.ExcelToCSV(tempPath, storedPath); err != nil {
			return "", fmt.Errorf("convert excel upload: %w", err)
		}
	} else {
		if err := writeFile(storedPath, src); err != nil {
			return "", fmt.Errorf("save upload: %w", err)
		}
	}

	s.logger.Info("file uploaded",
		slog.String("original_name", base),
		slog.String("stored_name", storedName))
	return storedName, nil
}

func writeFile(path string, src io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, src); err != nil {
		return err
	}
	return f.Sync()
}

// sanitizeFileName keeps a conservative character set so stored names are
// safe in paths and URLs.
func sanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "upload"
	}
	return b.String()
}
