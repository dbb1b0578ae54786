package parser

import "testing"

func TestParsePageRange(t *testing.T) {
	testCases := []struct {
		name      string
		spec      string
		pageCount int
		want      []int
		wantErr   bool
	}{
		{"empty selects all", "", 3, []int{1, 2, 3}, false},
		{"single page", "2", 5, []int{2}, false},
		{"simple range", "1-3", 5, []int{1, 2, 3}, false},
		{"mixed list", "1,3,5-7", 10, []int{1, 3, 5, 6, 7}, false},
		{"duplicates collapse", "1,1-2,2", 5, []int{1, 2}, false},
		{"out of bounds", "1-9", 5, nil, true},
		{"zero page", "0-2", 5, nil, true},
		{"reversed range", "5-2", 5, nil, true},
		{"garbage", "abc", 5, nil, true},
		{"trailing comma", "1,", 5, nil, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			selected, err := ParsePageRange(tc.spec, tc.pageCount)
			if tc.wantErr {
				if err == nil {
					t.Fatal("Expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(selected) != len(tc.want) {
				t.Fatalf("Expected %d pages, got %d (%v)", len(tc.want), len(selected), selected)
			}
			for _, page := range tc.want {
				if !selected[page] {
					t.Errorf("Expected page %d selected", page)
				}
			}
		})
	}
}
