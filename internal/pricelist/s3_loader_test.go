package pricelist

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 serves objects from memory.
type fakeS3 struct {
	objects map[string][]byte
	keys    []string
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(params.Key)
	f.keys = append(f.keys, key)

	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

// stubLoader is a Loader backed by a function.
type stubLoader struct {
	loadFunc func(ctx context.Context, path string) (*Sheet, error)
}

func (s *stubLoader) Load(ctx context.Context, path string) (*Sheet, error) {
	return s.loadFunc(ctx, path)
}

func TestS3Loader_Load(t *testing.T) {
	client := &fakeS3{objects: map[string][]byte{
		"price-sheets/pens.csv.gz": gzipped(t, header, "PEN-001,1,,1.00"),
	}}
	loader := NewS3LoaderWithClient(client, "prices", zerolog.Nop())

	sheet, err := loader.Load(context.Background(), "price-sheets/pens.csv.gz")

	require.NoError(t, err)
	assert.Equal(t, "s3://prices/price-sheets/pens.csv.gz", sheet.Source)
	assert.Len(t, sheet.Rows, 1)

	_, err = loader.Load(context.Background(), "price-sheets/missing.csv.gz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket=prices")
}

func TestFallbackLoader(t *testing.T) {
	s3Sheet := &Sheet{Source: "s3"}
	localSheet := &Sheet{Source: "local"}

	tests := []struct {
		name        string
		s3Enabled   bool
		s3Err       error
		withS3      bool
		expected    *Sheet
		expectS3Key string
	}{
		{name: "S3 succeeds", s3Enabled: true, withS3: true, expected: s3Sheet, expectS3Key: "sheets/a.gz"},
		{name: "S3 fails, local used", s3Enabled: true, withS3: true, s3Err: errors.New("S3 connection failed"), expected: localSheet, expectS3Key: "sheets/a.gz"},
		{name: "S3 disabled", s3Enabled: false, withS3: true, expected: localSheet},
		{name: "No S3 loader", s3Enabled: true, withS3: false, expected: localSheet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s3Key string
			var remote Loader
			if tt.withS3 {
				remote = &stubLoader{loadFunc: func(ctx context.Context, path string) (*Sheet, error) {
					s3Key = path
					if tt.s3Err != nil {
						return nil, tt.s3Err
					}
					return s3Sheet, nil
				}}
			}
			local := &stubLoader{loadFunc: func(ctx context.Context, path string) (*Sheet, error) {
				assert.Equal(t, "a.gz", path, "local path has no prefix")
				return localSheet, nil
			}}

			sheet, err := NewFallbackLoader(remote, local, "sheets/", tt.s3Enabled, zerolog.Nop()).
				Load(context.Background(), "a.gz")

			require.NoError(t, err)
			assert.Same(t, tt.expected, sheet)
			assert.Equal(t, tt.expectS3Key, s3Key)
		})
	}
}
