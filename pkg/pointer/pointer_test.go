// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pointer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vivat7on/filmindex/pkg/pointer"
)

func TestTo(t *testing.T) {
	p := pointer.To(42)
	if assert.NotNil(t, p) {
		assert.Equal(t, 42, *p)
	}
}

func TestVal(t *testing.T) {
	assert.Equal(t, 42, pointer.Val(pointer.To(42)))
	assert.Equal(t, 0, pointer.Val[int](nil))
	assert.Equal(t, "", pointer.Val[string](nil))
}

func TestFallback(t *testing.T) {
	assert.Equal(t, 42, pointer.Fallback(pointer.To(42), 7))
	assert.Equal(t, 7, pointer.Fallback[int](nil, 7))
}
