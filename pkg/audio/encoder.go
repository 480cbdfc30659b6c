// Package audio reads local audio files and encodes them for inline submission
// to a multimodal conversation API.
package audio

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultFormat is used when a file has no recognizable audio extension.
const DefaultFormat = "mp3"

var knownFormats = map[string]bool{
	"mp3":  true,
	"wav":  true,
	"m4a":  true,
	"aac":  true,
	"amr":  true,
	"flac": true,
	"ogg":  true,
	"opus": true,
	"webm": true,
}

// EncodeFile reads the file at path and returns the standard base64 encoding
// of its contents. A missing file yields an error matching fs.ErrNotExist.
func EncodeFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	return Encode(f)
}

// Encode reads r to EOF and returns the standard base64 encoding of the bytes.
func Encode(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}

	return base64.StdEncoding.EncodeToString(data), nil
}

// DataURI embeds encoded audio into a data URI, e.g. data:audio/mp3;base64,....
func DataURI(format, encoded string) string {
	if format == "" {
		format = DefaultFormat
	}
	return "data:audio/" + format + ";base64," + encoded
}

// FormatFromPath derives the audio format from the file extension.
func FormatFromPath(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if knownFormats[ext] {
		return ext
	}
	return DefaultFormat
}

// IsAudioFile reports whether path has a known audio extension.
func IsAudioFile(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	return knownFormats[ext]
}
