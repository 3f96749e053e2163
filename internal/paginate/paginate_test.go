package paginate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ints(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestPaginate_Basic(t *testing.T) {
	p := Paginate(ints(45), 2, 20)

	assert.Equal(t, 2, p.CurrentPage)
	assert.Equal(t, 45, p.TotalItems)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 20, p.ItemsPerPage)
	assert.Len(t, p.Items, 20)
	assert.Equal(t, 20, p.Items[0])
}

func TestPaginate_LastPagePartial(t *testing.T) {
	p := Paginate(ints(45), 3, 20)
	assert.Len(t, p.Items, 5)
	assert.Equal(t, 40, p.Items[0])
	assert.Equal(t, 44, p.Items[4])
}

func TestPaginate_ClampsOutOfRange(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		page     int
		wantPage int
	}{
		{"page too high", 45, 99, 3},
		{"page zero", 45, 0, 1},
		{"negative page", 45, -4, 1},
		{"empty collection", 0, 7, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(ints(tt.total), tt.page, 20)
			assert.Equal(t, tt.wantPage, p.CurrentPage)
			assert.GreaterOrEqual(t, p.CurrentPage, 1)
			assert.LessOrEqual(t, p.CurrentPage, p.TotalPages)
		})
	}
}

func TestPaginate_EmptyCollection(t *testing.T) {
	p := Paginate([]int{}, 1, 20)
	assert.Empty(t, p.Items)
	assert.Equal(t, 1, p.CurrentPage)
	assert.Equal(t, 1, p.TotalPages)
	assert.Zero(t, p.TotalItems)
}

func TestPaginate_SliceLengthProperty(t *testing.T) {
	for total := 0; total <= 61; total += 7 {
		for page := -1; page <= 6; page++ {
			p := Paginate(ints(total), page, 20)
			want := p.TotalItems - (p.CurrentPage-1)*20
			if want > 20 {
				want = 20
			}
			if want < 0 {
				want = 0
			}
			assert.Len(t, p.Items, want, "total=%d page=%d", total, page)
		}
	}
}

func TestPaginate_Idempotent(t *testing.T) {
	items := ints(33)
	first := Paginate(items, 2, 10)
	second := Paginate(items, 2, 10)
	assert.Equal(t, first, second)
}

func TestWindow_MatchesLocalSemantics(t *testing.T) {
	// Remote mode consumers use Window with a store-side total; metadata
	// must match what local slicing produces for the same inputs.
	local := Paginate(ints(45), 3, 20)
	remote := Window(45, 3, 20)
	assert.Equal(t, local.Meta, remote)

	start, end := remote.Bounds()
	assert.Equal(t, 40, start)
	assert.Equal(t, 45, end)
}

func TestWindow_DegeneratePageSize(t *testing.T) {
	m := Window(10, 1, 0)
	assert.Equal(t, 1, m.ItemsPerPage)
	assert.Equal(t, 10, m.TotalPages)
}
