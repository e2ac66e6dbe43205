// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package errkind_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vivat7on/filmindex/internal/platform/errkind"
)

func TestIsTransient(t *testing.T) {
	cause := errors.New("connection refused")
	err := errkind.Transient("postgres.connect", cause)

	assert.True(t, errkind.IsTransient(err))
	assert.False(t, errkind.IsFatal(err))
}

func TestIsFatal(t *testing.T) {
	cause := errors.New("state file corrupt")
	err := errkind.Fatal("state.load", cause)

	assert.True(t, errkind.IsFatal(err))
	assert.False(t, errkind.IsTransient(err))
}

func TestIsTransient_UnclassifiedErrorIsNeither(t *testing.T) {
	plain := errors.New("something went wrong")

	assert.False(t, errkind.IsTransient(plain))
	assert.False(t, errkind.IsFatal(plain))
}

func TestUnwrap_PreservesCauseChainForErrorsIs(t *testing.T) {
	cause := errors.New("timeout")
	wrapped := errkind.Transient("elastic.bulk", cause)

	assert.True(t, errors.Is(wrapped, cause))
}

func TestWrappedThroughFmtErrorf_StillClassifiable(t *testing.T) {
	inner := errkind.Transient("source.query", errors.New("timeout"))
	outer := fmt.Errorf("run tick: %w", inner)

	assert.True(t, errkind.IsTransient(outer))
}

func TestTransientf_FormatsMessage(t *testing.T) {
	err := errkind.Transientf("elastic.bulk", errors.New("cause"), "index %s rejected %d docs", "movies", 3)

	assert.Contains(t, err.Error(), "index movies rejected 3 docs")
}

func TestAs_ExtractsUnderlyingError(t *testing.T) {
	err := errkind.Fatal("state.save", errors.New("disk full"))

	extracted := errkind.As(err)
	if assert.NotNil(t, extracted) {
		assert.Equal(t, errkind.KindFatal, extracted.Kind)
		assert.Equal(t, "state.save", extracted.Op)
	}
}

func TestAs_ReturnsNilForUnclassifiedError(t *testing.T) {
	assert.Nil(t, errkind.As(errors.New("plain")))
}
