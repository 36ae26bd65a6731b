package pricelist

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for gzipped sheets on the local file system.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based price sheet loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "pricelist-loader").Logger(),
	}
}

// Load reads the gzipped price sheet at filePath.
func (l *fileLoader) Load(ctx context.Context, filePath string) (*Sheet, error) {
	l.logger.Info().Str("file", filePath).Msg("loading price sheet")

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open price sheet")
		return nil, fmt.Errorf("failed to open price sheet %s: %w", filePath, err)
	}
	defer file.Close()

	sheet, err := Parse(ctx, file, filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to parse price sheet")
		return nil, err
	}

	l.logger.Info().
		Str("file", filePath).
		Int("rows", len(sheet.Rows)).
		Int("skus", sheet.SKUs()).
		Msg("price sheet loaded")

	return sheet, nil
}
