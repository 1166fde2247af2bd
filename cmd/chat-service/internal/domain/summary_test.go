package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSummary(t *testing.T) {
	testCases := []struct {
		name     string
		startPos int
		endPos   int
		wantErr  bool
	}{
		{"合法区间", 1, 10, false},
		{"单消息区间", 5, 5, false},
		{"起点小于 1", 0, 10, true},
		{"终点小于起点", 10, 5, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			summary, err := NewSummary("conv-1", tc.startPos, tc.endPos, "text")
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSummaryRange)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.endPos-tc.startPos+1, summary.MessageCount)
			assert.NoError(t, summary.Validate())
		})
	}
}

func TestSummary_Validate_CountInvariant(t *testing.T) {
	summary, err := NewSummary("conv-1", 1, 10, "text")
	assert.NoError(t, err)

	// 计数被破坏后校验失败
	summary.MessageCount = 9
	assert.ErrorIs(t, summary.Validate(), ErrInvalidSummaryRange)
}

func TestSummary_Overlaps(t *testing.T) {
	a, _ := NewSummary("conv-1", 1, 10, "a")

	testCases := []struct {
		name     string
		startPos int
		endPos   int
		overlaps bool
	}{
		{"紧邻的下一个窗口", 11, 20, false},
		{"完全分离", 30, 40, false},
		{"部分重叠", 5, 15, true},
		{"完全包含", 2, 9, true},
		{"相同区间", 1, 10, true},
		{"共享一个端点", 10, 12, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, _ := NewSummary("conv-1", tc.startPos, tc.endPos, "b")
			assert.Equal(t, tc.overlaps, a.Overlaps(b))
			assert.Equal(t, tc.overlaps, b.Overlaps(a))
		})
	}
}

func TestSummary_Covers(t *testing.T) {
	summary, _ := NewSummary("conv-1", 5, 8, "text")

	assert.False(t, summary.Covers(4))
	assert.True(t, summary.Covers(5))
	assert.True(t, summary.Covers(8))
	assert.False(t, summary.Covers(9))
}
