package ai

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/johnquangdev/lumina/internal/domain/entities"
)

// DefaultMaxAudioBytes is the upload limit used when none is configured (50 MiB)
const DefaultMaxAudioBytes int64 = 50 << 20

// DefaultAudioMIMEType is used when neither the declared type, the payload nor
// the extension identifies the recording format
const DefaultAudioMIMEType = "audio/mpeg"

// acceptedExtensions are accepted even when the declared type is not audio/*.
// .wav is deliberately absent; a .wav upload needs an audio/* type.
var acceptedExtensions = map[string]string{
	".mp3": "audio/mpeg",
	".m4a": "audio/mp4",
}

// Normalizer converts user input into a canonical AnalysisRequest
type Normalizer struct {
	maxAudioBytes int64
	logger        *zap.Logger
}

// NewNormalizer creates a Normalizer. A non-positive limit falls back to DefaultMaxAudioBytes.
func NewNormalizer(maxAudioBytes int64, logger *zap.Logger) *Normalizer {
	if maxAudioBytes <= 0 {
		maxAudioBytes = DefaultMaxAudioBytes
	}
	return &Normalizer{
		maxAudioBytes: maxAudioBytes,
		logger:        logger,
	}
}

// Check validates the input without reading any file contents
func (n *Normalizer) Check(src entities.InputSource) error {
	switch src.Mode {
	case entities.InputModeTranscript:
		if strings.TrimSpace(src.Text) == "" {
			return entities.NewValidationError("Please enter a meeting transcript.")
		}
	case entities.InputModeAudio:
		if src.File == nil || src.File.Open == nil {
			return entities.NewValidationError("Please select an audio file.")
		}
		if !IsAcceptedAudio(src.File.Name, src.File.ContentType) {
			return entities.NewValidationError(fmt.Sprintf("Unsupported file %q: upload an audio file (MP3 or M4A).", src.File.Name))
		}
		if src.File.Size > n.maxAudioBytes {
			return entities.NewValidationError(fmt.Sprintf("Audio file exceeds the %d MB limit.", n.maxAudioBytes>>20))
		}
	case "":
		return entities.NewValidationError("Please provide an audio file or a transcript.")
	default:
		return entities.NewValidationError(fmt.Sprintf("Unknown input mode %q.", src.Mode))
	}
	return nil
}

// Normalize validates the input and, for audio, reads and encodes the file.
// The read is the only I/O performed.
func (n *Normalizer) Normalize(ctx context.Context, src entities.InputSource) (*entities.AnalysisRequest, error) {
	if err := n.Check(src); err != nil {
		return nil, err
	}

	if src.Mode == entities.InputModeTranscript {
		return entities.NewTextRequest(strings.TrimSpace(src.Text)), nil
	}

	if err := ctx.Err(); err != nil {
		return nil, entities.NewIOError("Audio file could not be read.", err)
	}

	data, err := n.readFile(src.File)
	if err != nil {
		return nil, err
	}

	mimeType := ResolveAudioMIMEType(src.File.Name, src.File.ContentType, data)
	req := entities.NewAudioRequest(data, mimeType)

	if n.logger != nil {
		n.logger.Debug("🎧 Audio input normalized",
			zap.String("file_name", src.File.Name),
			zap.Int("bytes", len(data)),
			zap.String("mime_type", mimeType),
		)
	}

	return req, nil
}

func (n *Normalizer) readFile(f *entities.FileInput) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, entities.NewIOError("Audio file could not be opened.", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, n.maxAudioBytes+1))
	if err != nil {
		return nil, entities.NewIOError("Audio file could not be read.", err)
	}
	if int64(len(data)) > n.maxAudioBytes {
		return nil, entities.NewValidationError(fmt.Sprintf("Audio file exceeds the %d MB limit.", n.maxAudioBytes>>20))
	}
	if len(data) == 0 {
		return nil, entities.NewValidationError("Audio file is empty.")
	}
	return data, nil
}

// IsAcceptedAudio reports whether a file is accepted by its declared media
// type (audio/*) or by its extension (case-insensitive)
func IsAcceptedAudio(name, contentType string) bool {
	if strings.HasPrefix(mediaType(contentType), "audio/") {
		return true
	}
	_, ok := acceptedExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// ResolveAudioMIMEType picks the MIME type sent with an audio payload: the
// declared audio/* type, then the sniffed type, then the extension, then audio/mpeg
func ResolveAudioMIMEType(name, contentType string, data []byte) string {
	if declared := mediaType(contentType); strings.HasPrefix(declared, "audio/") {
		return declared
	}
	if len(data) > 0 {
		if sniffed := mediaType(mimetype.Detect(data).String()); strings.HasPrefix(sniffed, "audio/") {
			return sniffed
		}
	}
	if byExt, ok := acceptedExtensions[strings.ToLower(filepath.Ext(name))]; ok {
		return byExt
	}
	return DefaultAudioMIMEType
}

// mediaType strips parameters and normalizes case
func mediaType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return strings.ToLower(mt)
	}
	return strings.ToLower(contentType)
}
