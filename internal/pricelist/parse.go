package pricelist

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

// checkEvery is how many rows are read between context checks.
const checkEvery = 10_000

// Parse reads a gzipped CSV price sheet from r. source names the sheet in
// errors.
func Parse(ctx context.Context, r io.Reader, source string) (*Sheet, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for %s: %w", source, err)
	}
	defer gz.Close()

	reader := csv.NewReader(gz)
	reader.FieldsPerRecord = len(Header)
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, model.NewValidationError(source, "price sheet is empty")
		}
		return nil, fmt.Errorf("failed to read header of %s: %w", source, err)
	}
	if err := checkHeader(header); err != nil {
		return nil, model.NewValidationError(source, err.Error())
	}

	sheet := &Sheet{Source: source}
	for line := 2; ; line++ {
		if line%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", source, err)
		}

		row, err := parseRow(record, line)
		if err != nil {
			return nil, model.NewValidationError(fmt.Sprintf("%s:%d", source, line), err.Error())
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	return sheet, nil
}

func checkHeader(header []string) error {
	for i, want := range Header {
		if strings.ToLower(strings.TrimSpace(header[i])) != want {
			return fmt.Errorf("column %d is %q, expected %q", i+1, header[i], want)
		}
	}
	return nil
}

func parseRow(record []string, line int) (Row, error) {
	sku := strings.TrimSpace(record[0])
	if sku == "" {
		return Row{}, errors.New("sku is empty")
	}

	minQty, err := strconv.Atoi(strings.TrimSpace(record[1]))
	if err != nil {
		return Row{}, fmt.Errorf("quantity_min %q is not an integer", record[1])
	}

	var maxQty *int
	if s := strings.TrimSpace(record[2]); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return Row{}, fmt.Errorf("quantity_max %q is not an integer", record[2])
		}
		maxQty = &v
	}

	price, err := decimal.NewFromString(strings.TrimSpace(record[3]))
	if err != nil {
		return Row{}, fmt.Errorf("unit_price %q is not a decimal", record[3])
	}

	return Row{
		SKU:  sku,
		Line: line,
		Tier: model.PriceTier{
			QuantityMin: minQty,
			QuantityMax: maxQty,
			UnitPrice:   price,
		},
	}, nil
}
