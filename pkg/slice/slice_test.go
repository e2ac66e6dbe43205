// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slice_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vivat7on/filmindex/pkg/slice"
)

func TestMap(t *testing.T) {
	got := slice.Map([]int{1, 2, 3}, func(v int) string { return strconv.Itoa(v * 2) })
	assert.Equal(t, []string{"2", "4", "6"}, got)
}

func TestMap_NilInputReturnsNil(t *testing.T) {
	var input []int
	assert.Nil(t, slice.Map(input, func(v int) int { return v }))
}

func TestFilter(t *testing.T) {
	got := slice.Filter([]int{1, 2, 3, 4, 5}, func(v int) bool { return v%2 == 0 })
	assert.Equal(t, []int{2, 4}, got)
}

func TestFilter_NoMatchesReturnsNil(t *testing.T) {
	got := slice.Filter([]int{1, 3, 5}, func(v int) bool { return v%2 == 0 })
	assert.Nil(t, got)
}

func TestReduce(t *testing.T) {
	sum := slice.Reduce([]int{1, 2, 3, 4}, 0, func(acc, v int) int { return acc + v })
	assert.Equal(t, 10, sum)
}

func TestReduce_EmptyInputReturnsInitial(t *testing.T) {
	sum := slice.Reduce([]int{}, 99, func(acc, v int) int { return acc + v })
	assert.Equal(t, 99, sum)
}
