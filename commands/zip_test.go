//go:build !integration

package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parzip/parzip/helpers/archives"
)

func TestGetCompressionMethod(t *testing.T) {
	tests := map[string]archives.CompressionMethod{
		"":         archives.Deflate,
		"deflate":  archives.Deflate,
		"deflated": archives.Deflate,
		"stored":   archives.Stored,
		"lzma":     archives.Deflate,
	}

	for name, expected := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, expected, getCompressionMethod(name))
		})
	}
}

func TestGetCompressionLevel(t *testing.T) {
	tests := map[string]archives.CompressionLevel{
		"fastest": archives.FastestCompression,
		"fast":    archives.FastCompression,
		"":        archives.DefaultCompression,
		"default": archives.DefaultCompression,
		"slow":    archives.SlowCompression,
		"slowest": archives.SlowestCompression,
		"invalid": archives.DefaultCompression,
	}

	for name, expected := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, expected, getCompressionLevel(name))
		})
	}
}
