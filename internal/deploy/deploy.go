// Package deploy copies track datafiles into the layout the genome browser
// serves them from:
//
//	{base}/{genome[:2]}/{genome}/{dataset}_{track}.{ext}
package deploy

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/tansive/trackcatalog/pkg/api"
)

type Status string

const (
	StatusCopied   Status = "copied"
	StatusSkipped  Status = "skipped"
	StatusVerified Status = "verified"
)

var (
	ErrInvalidUUID       = errors.New("invalid UUID")
	ErrSourceMissing     = errors.New("source file does not exist")
	ErrSourceNotFile     = errors.New("source path is not a file")
	ErrDestinationExists = errors.New("destination file already exists")
	ErrNoDestinationDir  = errors.New("destination directory does not exist")
	ErrInvalidInput      = errors.New("unable to parse deployment input")
)

// Options control what happens when the destination is already there.
// SkipExisting takes precedence over Overwrite. With Verify, an existing file
// is only skipped when its checksum matches the source; otherwise it is
// copied again.
type Options struct {
	BasePath     string
	CreateDirs   bool
	Overwrite    bool
	SkipExisting bool
	Verify       bool
}

func DefaultOptions(basePath string) Options {
	return Options{BasePath: basePath, CreateDirs: true, Verify: true}
}

// Item is one file to deploy.
type Item struct {
	SourceFile string `json:"source_file" validate:"required"`
	TrackName  string `json:"track_name" validate:"required"`
	DatasetID  string `json:"dataset_uuid" validate:"required"`
	GenomeID   string `json:"genome_uuid" validate:"required"`
}

type Failure struct {
	Index int    `json:"index"`
	Item  Item   `json:"item"`
	Error string `json:"error"`
}

// Results partitions a batch by outcome. Paths are destinations.
type Results struct {
	Copied   []string  `json:"copied"`
	Skipped  []string  `json:"skipped"`
	Verified []string  `json:"verified"`
	Failed   []Failure `json:"failed"`
}

func newResults() *Results {
	return &Results{Copied: []string{}, Skipped: []string{}, Verified: []string{}, Failed: []Failure{}}
}

func (r *Results) add(dest string, status Status) {
	switch status {
	case StatusCopied:
		r.Copied = append(r.Copied, dest)
	case StatusSkipped:
		r.Skipped = append(r.Skipped, dest)
	case StatusVerified:
		r.Verified = append(r.Verified, dest)
	}
}

// DestinationPath builds the target path of a track file. ext may be given
// with or without the leading dot.
func DestinationPath(basePath, genomeID, datasetID, trackName, ext string) (string, error) {
	if _, err := uuid.Parse(genomeID); err != nil {
		return "", errors.Wrapf(ErrInvalidUUID, "genome_uuid %q", genomeID)
	}
	if _, err := uuid.Parse(datasetID); err != nil {
		return "", errors.Wrapf(ErrInvalidUUID, "dataset_uuid %q", datasetID)
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	prefix := strings.ToLower(genomeID[:2])
	return filepath.Join(basePath, prefix, genomeID, datasetID+"_"+trackName+ext), nil
}

// Checksum returns the hex encoded sha256 of a file.
func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "unable to open file for checksum")
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrap(err, "unable to read file for checksum")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SameContent reports whether two files have the same checksum. Any error
// counts as a mismatch.
func SameContent(ctx context.Context, src, dst string) bool {
	a, err := Checksum(src)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("path", src).Msg("checksum verification failed")
		return false
	}
	b, err := Checksum(dst)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("path", dst).Msg("checksum verification failed")
		return false
	}
	return a == b
}

// CopyTrackFile deploys a single file and returns its destination.
func CopyTrackFile(ctx context.Context, item Item, opts Options) (string, Status, error) {
	logger := log.Ctx(ctx)
	info, err := os.Stat(item.SourceFile)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", errors.Wrap(ErrSourceMissing, item.SourceFile)
		}
		return "", "", errors.Wrap(err, "unable to stat source file")
	}
	if !info.Mode().IsRegular() {
		return "", "", errors.Wrap(ErrSourceNotFile, item.SourceFile)
	}
	dest, err := DestinationPath(opts.BasePath, item.GenomeID, item.DatasetID, item.TrackName, filepath.Ext(item.SourceFile))
	if err != nil {
		return "", "", err
	}

	if _, err := os.Stat(dest); err == nil {
		switch {
		case opts.SkipExisting && !opts.Verify:
			logger.Info().Str("path", dest).Msg("Skipped existing file")
			return dest, StatusSkipped, nil
		case opts.SkipExisting:
			if SameContent(ctx, item.SourceFile, dest) {
				logger.Info().Str("path", dest).Msg("Verified existing file")
				return dest, StatusVerified, nil
			}
			logger.Warn().Str("path", dest).Msg("Checksum mismatch, copying again")
		case !opts.Overwrite:
			return "", "", errors.Wrap(ErrDestinationExists, dest)
		}
	}

	dir := filepath.Dir(dest)
	if opts.CreateDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", "", errors.Wrap(err, "unable to create destination directory")
		}
	} else if _, err := os.Stat(dir); err != nil {
		return "", "", errors.Wrap(ErrNoDestinationDir, dir)
	}

	if err := copyFile(item.SourceFile, dest, info); err != nil {
		return "", "", errors.Wrap(err, "failed to copy file")
	}
	logger.Info().Str("source", item.SourceFile).Str("path", dest).Msg("Copied")
	return dest, StatusCopied, nil
}

// copyFile copies the content, mode and modification time of src.
func copyFile(src, dst string, info os.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// ParseItems decodes a single item or a list of items.
func ParseItems(b []byte) ([]Item, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, errors.Wrap(ErrInvalidInput, "empty input")
	}
	switch b[0] {
	case '[':
		var items []Item
		if err := json.Unmarshal(b, &items); err != nil {
			return nil, errors.Wrap(ErrInvalidInput, err.Error())
		}
		return items, nil
	case '{':
		var item Item
		if err := json.Unmarshal(b, &item); err != nil {
			return nil, errors.Wrap(ErrInvalidInput, err.Error())
		}
		return []Item{item}, nil
	}
	return nil, errors.Wrap(ErrInvalidInput, "JSON must be an object or a list of objects")
}

// ReadItems accepts either inline JSON or the path of a JSON file.
func ReadItems(input string) ([]Item, error) {
	trimmed := strings.TrimSpace(input)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return ParseItems([]byte(trimmed))
	}
	b, err := os.ReadFile(input)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidInput, err.Error())
	}
	return ParseItems(b)
}

// Deploy copies every item. A failing item is recorded and the rest still run.
func Deploy(ctx context.Context, items []Item, opts Options) *Results {
	logger := log.Ctx(ctx)
	res := newResults()
	for i, item := range items {
		if msgs := api.Validate(item); len(msgs) > 0 {
			msg := "missing required fields: " + strings.Join(msgs, ", ")
			logger.Error().Int("index", i).Msg(msg)
			res.Failed = append(res.Failed, Failure{Index: i, Item: item, Error: msg})
			continue
		}
		dest, status, err := CopyTrackFile(ctx, item, opts)
		if err != nil {
			logger.Error().Err(err).Int("index", i).Msg("Failed to copy item")
			res.Failed = append(res.Failed, Failure{Index: i, Item: item, Error: err.Error()})
			continue
		}
		res.add(dest, status)
	}
	logger.Info().
		Int("copied", len(res.Copied)).
		Int("verified", len(res.Verified)).
		Int("skipped", len(res.Skipped)).
		Int("failed", len(res.Failed)).
		Msg("Deployment finished")
	return res
}
