package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func params(t *testing.T, query string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	rec := httptest.NewRecorder()
	return FromContext(e.NewContext(req, rec))
}

func TestFromContext(t *testing.T) {
	cases := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"", DefaultLimit, 0},
		{"limit=10&offset=30", 10, 30},
		{"limit=-5", DefaultLimit, 0},
		{"limit=1000", MaxLimit, 0},
		{"offset=-1", DefaultLimit, 0},
	}
	for _, tc := range cases {
		p := params(t, tc.query)
		if p.Limit != tc.wantLimit || p.Offset != tc.wantOffset {
			t.Errorf("%q: got %+v, want limit=%d offset=%d", tc.query, p, tc.wantLimit, tc.wantOffset)
		}
	}
}

func TestNewResponse_HasMore(t *testing.T) {
	if !NewResponse(nil, 50, 20, 0).HasMore {
		t.Error("expected more pages")
	}
	if NewResponse(nil, 50, 20, 40).HasMore {
		t.Error("expected last page")
	}
}
