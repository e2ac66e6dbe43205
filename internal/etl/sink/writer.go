// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/vivat7on/filmindex/internal/etl/backoff"
	"github.com/vivat7on/filmindex/internal/platform/errkind"
)

// Writer owns a single Elasticsearch client and the three indices the
// sync engine maintains.
type Writer struct {
	client      *elasticsearch.Client
	movieIndex  string
	genreIndex  string
	personIndex string
	deadLetter  DeadLetterRecorder
	logger      *slog.Logger
	backoffCfg  backoff.Config
}

// DeadLetterRecorder records document ids that a bulk write dropped, so an
// operator can see what needs attention without grepping logs. A nil
// recorder (the default when Redis is not configured) silently drops
// these records; partial failures are still logged either way.
type DeadLetterRecorder interface {
	Record(ctx context.Context, index string, docID string, cause string) error
}

// NewWriter builds a [Writer] for the given indices. deadLetter may be nil.
func NewWriter(client *elasticsearch.Client, movieIndex, genreIndex, personIndex string, deadLetter DeadLetterRecorder, logger *slog.Logger) *Writer {
	cfg := backoff.Default()
	cfg.Retryable = errkind.IsTransient

	return &Writer{
		client:      client,
		movieIndex:  movieIndex,
		genreIndex:  genreIndex,
		personIndex: personIndex,
		deadLetter:  deadLetter,
		logger:      logger,
		backoffCfg:  cfg,
	}
}

// SetBackoffConfig overrides the retry pacing ensure/bulk operations use.
// Production callers never need this; it exists so tests can swap in a
// fast, deterministic [backoff.Config] instead of waiting out
// [backoff.Default]'s real sleeps.
func (w *Writer) SetBackoffConfig(cfg backoff.Config) {
	w.backoffCfg = cfg
}

// EnsureIndices creates any of the three indices that do not already
// exist, using the fixed mappings this package defines.
func (w *Writer) EnsureIndices(ctx context.Context) error {
	if err := w.ensureIndex(ctx, w.movieIndex, movieIndexBody); err != nil {
		return err
	}
	if err := w.ensureIndex(ctx, w.genreIndex, genreIndexBody()); err != nil {
		return err
	}
	if err := w.ensureIndex(ctx, w.personIndex, personIndexBody()); err != nil {
		return err
	}
	return nil
}

func (w *Writer) ensureIndex(ctx context.Context, index, body string) error {
	var exists bool
	err := backoff.Do(ctx, w.backoffCfg, w.logger, "sink.ensure_index.exists", func() error {
		existsRes, err := esapi.IndicesExistsRequest{Index: []string{index}}.Do(ctx, w.client)
		if err != nil {
			return errkind.Transientf("sink.ensure_index", err, "failed to check existence of index %s", index)
		}
		defer existsRes.Body.Close()
		exists = existsRes.StatusCode == 200
		return nil
	})
	if err != nil {
		return err
	}

	if exists {
		w.logger.Debug("index_exists", slog.String("index", index))
		return nil
	}

	return backoff.Do(ctx, w.backoffCfg, w.logger, "sink.ensure_index.create", func() error {
		createRes, err := esapi.IndicesCreateRequest{Index: index, Body: bytes.NewReader([]byte(body))}.Do(ctx, w.client)
		if err != nil {
			return errkind.Transientf("sink.ensure_index", err, "failed to create index %s", index)
		}
		defer createRes.Body.Close()

		if createRes.IsError() {
			// Another writer may have created the index between the
			// existence check and this call; that race counts as success.
			raw, _ := io.ReadAll(createRes.Body)
			if bytes.Contains(raw, []byte("resource_already_exists_exception")) {
				w.logger.Info("index_already_exists", slog.String("index", index))
				return nil
			}
			return errkind.Transientf("sink.ensure_index", nil, "failed to create index %s: %s", index, createRes.Status())
		}

		w.logger.Info("index_created", slog.String("index", index))
		return nil
	})
}

// BulkResult summarizes a bulk write's outcome.
type BulkResult struct {
	Indexed int
	Failed  int
}

// BulkGenres writes genre documents to the genres index.
func (w *Writer) BulkGenres(ctx context.Context, docs []GenreDocument) (BulkResult, error) {
	items := make([]bulkItem, len(docs))
	for i, d := range docs {
		items[i] = bulkItem{id: d.documentID(), source: d}
	}
	return w.bulkLoad(ctx, w.genreIndex, items)
}

// BulkPersons writes person documents to the persons index.
func (w *Writer) BulkPersons(ctx context.Context, docs []PersonDocument) (BulkResult, error) {
	items := make([]bulkItem, len(docs))
	for i, d := range docs {
		items[i] = bulkItem{id: d.documentID(), source: d}
	}
	return w.bulkLoad(ctx, w.personIndex, items)
}

// BulkFilmWorks writes film documents to the movies index.
func (w *Writer) BulkFilmWorks(ctx context.Context, docs []FilmDocument) (BulkResult, error) {
	items := make([]bulkItem, len(docs))
	for i, d := range docs {
		items[i] = bulkItem{id: d.documentID(), source: d}
	}
	return w.bulkLoad(ctx, w.movieIndex, items)
}

type bulkItem struct {
	id     string
	source any
}

type bulkActionLine struct {
	Index bulkActionMeta `json:"index"`
}

type bulkActionMeta struct {
	Index string `json:"_index"`
	ID    string `json:"_id"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  *struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"index"`
	} `json:"items"`
}

// bulkLoad writes items to index as a single bulk request. Per-document
// failures are tolerated: they do not fail the call, the first three are
// logged, every one is forwarded to the dead-letter recorder, and the
// tick's watermark still
// advances. This mirrors at-least-once delivery: a dropped document will
// be picked up again whenever its source row changes next.
func (w *Writer) bulkLoad(ctx context.Context, index string, items []bulkItem) (BulkResult, error) {
	if len(items) == 0 {
		w.logger.Debug("bulk_load_skipped_empty", slog.String("index", index))
		return BulkResult{}, nil
	}

	var body bytes.Buffer
	encoder := json.NewEncoder(&body)
	for _, item := range items {
		if err := encoder.Encode(bulkActionLine{Index: bulkActionMeta{Index: index, ID: item.id}}); err != nil {
			return BulkResult{}, errkind.Fatalf("sink.bulk_load", err, "failed to encode bulk action line")
		}
		if err := encoder.Encode(item.source); err != nil {
			return BulkResult{}, errkind.Fatalf("sink.bulk_load", err, "failed to encode document %s", item.id)
		}
	}

	var result BulkResult
	err := backoff.Do(ctx, w.backoffCfg, w.logger, "sink.bulk_load", func() error {
		res, err := esapi.BulkRequest{Body: bytes.NewReader(body.Bytes())}.Do(ctx, w.client)
		if err != nil {
			return errkind.Transientf("sink.bulk_load", err, "bulk request to index %s failed", index)
		}
		defer res.Body.Close()

		if res.IsError() {
			return errkind.Transientf("sink.bulk_load", nil, "bulk request to index %s returned %s", index, res.Status())
		}

		var parsed bulkResponse
		if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
			return errkind.Transientf("sink.bulk_load", err, "failed to decode bulk response for index %s", index)
		}

		result = BulkResult{Indexed: len(items)}
		if !parsed.Errors {
			w.logger.Info("bulk_load_succeeded", slog.String("index", index), slog.Int("count", len(items)))
			return nil
		}

		const maxLoggedFailures = 3
		for _, it := range parsed.Items {
			if it.Index.Error == nil {
				continue
			}
			result.Indexed--
			result.Failed++

			cause := fmt.Sprintf("%s: %s", it.Index.Error.Type, it.Index.Error.Reason)
			if result.Failed <= maxLoggedFailures {
				w.logger.Error("bulk_item_failed",
					slog.String("index", index),
					slog.String("doc_id", it.Index.ID),
					slog.String("cause", cause),
				)
			}

			if w.deadLetter != nil {
				if derr := w.deadLetter.Record(ctx, index, it.Index.ID, cause); derr != nil {
					w.logger.Error("dead_letter_record_failed",
						slog.String("index", index),
						slog.String("doc_id", it.Index.ID),
						slog.Any("error", derr),
					)
				}
			}
		}

		return nil
	})
	if err != nil {
		return BulkResult{}, err
	}

	return result, nil
}
