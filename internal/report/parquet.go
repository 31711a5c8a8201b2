package report

import (
	"fmt"

	"github.com/parquet-go/parquet-go"
)

// WriteParquet writes one row per result to path
func WriteParquet(path string, rep *Report) error {
	if err := parquet.WriteFile(path, rep.Results); err != nil {
		return fmt.Errorf("failed to write parquet file: %w", err)
	}
	return nil
}

// ReadParquet reads result rows written by WriteParquet
func ReadParquet(path string) ([]Entry, error) {
	rows, err := parquet.ReadFile[Entry](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet file: %w", err)
	}
	return rows, nil
}
