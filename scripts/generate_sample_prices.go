//go:build ignore

// Generates sample price sheets for the import-prices command:
//
//	go run scripts/generate_sample_prices.go
//	storefront import-prices data/pricelists/*.csv.gz
package main

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

func main() {
	dataDir := "data/pricelists"

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	// PEN-1 is split over two sheets; they are merged into one table on import.
	sheets := map[string][][]string{
		"writing.csv.gz": {
			{"PEN-1", "1", "499", "1.00"},
			{"PEN-1", "500", "1999", "0.80"},
			{"PENCIL-1", "1", "", "0.35"},
		},
		"bulk.csv.gz": {
			{"PEN-1", "2000", "", "0.65"},
			{"TOTE-1", "1", "249", "2.40"},
			{"TOTE-1", "250", "", "1.95"},
		},
		"signage.csv.gz": {
			{"BAN-1", "1", "9", "150.00"},
			{"BAN-1", "10", "", "120.00"},
		},
	}

	for filename, rows := range sheets {
		filePath := filepath.Join(dataDir, filename)

		if err := createSheet(filePath, rows); err != nil {
			log.Fatalf("Failed to create %s: %v", filename, err)
		}

		fmt.Printf("Created %s with %d rows\n", filePath, len(rows))
	}

	fmt.Println("\nSample price sheets created successfully!")
	fmt.Println("\nImport them with:")
	fmt.Printf("  storefront import-prices %s\n", filepath.Join(dataDir, "*.csv.gz"))
}

func createSheet(filePath string, rows [][]string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	w := csv.NewWriter(gzipWriter)
	if err := w.Write([]string{"sku", "quantity_min", "quantity_max", "unit_price"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}

	return nil
}
