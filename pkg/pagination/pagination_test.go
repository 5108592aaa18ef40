package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, query string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/beds?"+query, nil)
	rec := httptest.NewRecorder()
	return FromContext(e.NewContext(req, rec))
}

func TestFromContext(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", DefaultLimit, 0},
		{"explicit", "limit=50&offset=10", 50, 10},
		{"limit capped", "limit=1000", MaxLimit, 0},
		{"zero limit", "limit=0", DefaultLimit, 0},
		{"negative limit", "limit=-5", DefaultLimit, 0},
		{"negative offset", "offset=-1", DefaultLimit, 0},
		{"garbage", "limit=abc&offset=xyz", DefaultLimit, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := paramsFor(t, tt.query)
			if p.Limit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", p.Limit, tt.wantLimit)
			}
			if p.Offset != tt.wantOffset {
				t.Errorf("offset = %d, want %d", p.Offset, tt.wantOffset)
			}
		})
	}
}

func TestNewResponse(t *testing.T) {
	r := NewResponse([]string{"a", "b"}, 50, 20, 0)
	if !r.HasMore {
		t.Error("expected has_more when more rows remain")
	}

	r = NewResponse([]string{"a"}, 50, 20, 40)
	if r.HasMore {
		t.Error("expected has_more false on last page")
	}

	r = NewResponse(nil, 0, 20, 0)
	if r.HasMore {
		t.Error("expected has_more false for empty result")
	}
}
