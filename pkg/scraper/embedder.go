package scraper

import (
	"bytes"
	"context"
	"fmt"
	"time"

	errs "tcphotos/pkg/errors"
	"tcphotos/pkg/logger"
	"tcphotos/pkg/metadata"
	"tcphotos/pkg/portal"
	"tcphotos/pkg/storage"
)

// EmbedResult describes what happened to one photo record
type EmbedResult struct {
	PostID      int64
	Path        string
	Description string
	Author      string
	TakenAt     time.Time
	// Downloaded is false when the file was already present
	Downloaded bool
	// DryRun means nothing was written
	DryRun bool
}

// EmbedderOptions configures an Embedder
type EmbedderOptions struct {
	Storage  *storage.Manager
	Tagger   metadata.Tagger
	Location metadata.Coordinate
	Keywords string
	// TimeZone is used to read the portal's creation timestamps
	TimeZone *time.Location
	DryRun   bool
	Logger   logger.Logger
}

// Embedder materializes one photo record on disk: download once, then stamp
// EXIF, IPTC and file times on every run.
type Embedder struct {
	opts EmbedderOptions
}

// NewEmbedder creates an Embedder
func NewEmbedder(opts EmbedderOptions) *Embedder {
	if opts.Tagger == nil {
		opts.Tagger = metadata.NopTagger{}
	}
	if opts.TimeZone == nil {
		opts.TimeZone = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	return &Embedder{opts: opts}
}

// Embed processes post. Every failure is returned as an embedding error
// wrapping its cause.
func (e *Embedder) Embed(ctx context.Context, session Session, post portal.Post) (*EmbedResult, error) {
	result, err := e.embed(ctx, session, post)
	if err != nil {
		return nil, errs.Embedding(post.ID, err)
	}
	return result, nil
}

func (e *Embedder) embed(ctx context.Context, session Session, post portal.Post) (*EmbedResult, error) {
	log := e.opts.Logger.WithField("photo_id", post.ID)

	description, err := metadata.PlainText(post.HTML)
	if err != nil {
		return nil, fmt.Errorf("description: %w", err)
	}
	author, err := metadata.PlainText(post.Author)
	if err != nil {
		return nil, fmt.Errorf("author: %w", err)
	}
	takenAt, err := metadata.ParseCreatedAt(post.CreatedAt, e.opts.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}

	result := &EmbedResult{
		PostID:      post.ID,
		Path:        e.opts.Storage.PhotoPath(post.ID),
		Description: description,
		Author:      author,
		TakenAt:     takenAt,
		DryRun:      e.opts.DryRun,
	}

	exists := e.opts.Storage.Exists(post.ID)
	if e.opts.DryRun {
		result.Downloaded = !exists
		log.InfoWithFields("Dry run", map[string]interface{}{
			"path":           result.Path,
			"would_download": !exists,
		})
		return result, nil
	}

	if !exists {
		data, err := session.Download(ctx, post.OriginalPhotoURL)
		if err != nil {
			return nil, err
		}
		if _, err := e.opts.Storage.SavePhoto(bytes.NewReader(data), post.ID); err != nil {
			return nil, err
		}
		result.Downloaded = true
		log.DebugWithFields("Downloaded photo", map[string]interface{}{
			"path":  result.Path,
			"bytes": len(data),
		})
	}

	if err := metadata.WriteExif(result.Path, metadata.ExifFields{
		Description: description,
		TakenAt:     takenAt,
		Location:    e.opts.Location,
	}); err != nil {
		return nil, err
	}

	if err := e.opts.Tagger.Tag(ctx, result.Path, metadata.IPTC{
		ObjectName: description,
		ByLine:     author,
		Keywords:   e.opts.Keywords,
	}); err != nil {
		return nil, fmt.Errorf("iptc: %w", err)
	}

	if err := e.opts.Storage.SetTimes(post.ID, takenAt); err != nil {
		return nil, err
	}

	return result, nil
}
