package filter

import "testing"

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name               string
		n, page, size      int
		wantFirst, wantLen int
		wantPage, wantSize int
		wantHasMore        bool
	}{
		{"first page", 45, 1, 20, 1, 20, 1, 20, true},
		{"last partial page", 45, 3, 20, 41, 5, 3, 20, false},
		{"exact fit has no more", 40, 2, 20, 21, 20, 2, 20, false},
		{"page past the end", 45, 9, 20, 0, 0, 9, 20, false},
		{"zero page means first", 5, 0, 2, 1, 2, 1, 2, true},
		{"zero size means default", 30, 1, 0, 1, DefaultPageSize, 1, DefaultPageSize, true},
		{"size capped", 500, 1, 1000, 1, MaxPageSize, 1, MaxPageSize, true},
		{"huge page does not overflow", 10, int(^uint(0) >> 1), 50, 0, 0, int(^uint(0) >> 1), 50, false},
		{"empty listing", 0, 1, 20, 0, 0, 1, 20, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(seq(tt.n), tt.page, tt.size)
			if len(p.Items) != tt.wantLen {
				t.Fatalf("len(Items) = %d, want %d", len(p.Items), tt.wantLen)
			}
			if p.Items == nil {
				t.Error("Items is nil")
			}
			if tt.wantLen > 0 && p.Items[0] != tt.wantFirst {
				t.Errorf("first item = %d, want %d", p.Items[0], tt.wantFirst)
			}
			if p.Total != tt.n || p.Page != tt.wantPage || p.PageSize != tt.wantSize || p.HasMore != tt.wantHasMore {
				t.Errorf("got %+v", p)
			}
		})
	}
}

func TestParsePage(t *testing.T) {
	for in, want := range map[string]int{"": 0, "abc": 0, "-1": 0, "0": 0, "3": 3} {
		if got := ParsePage(in); got != want {
			t.Errorf("ParsePage(%q) = %d, want %d", in, got, want)
		}
	}
}
