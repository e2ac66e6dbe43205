// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pipeline

import "github.com/vivat7on/filmindex/internal/etl/sink"

// These aliases let [Coordinator] depend on the sink's document and result
// shapes without every caller needing to know the coordinator talks to the
// sink package specifically; a test fake only needs to satisfy [Sink].
type (
	GenreDoc  = sink.GenreDocument
	PersonDoc = sink.PersonDocument
	FilmDoc   = sink.FilmDocument
	Result    = sink.BulkResult
)
