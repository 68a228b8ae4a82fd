package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, target string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return FromContext(e.NewContext(req, httptest.NewRecorder()))
}

func TestFromContext_Defaults(t *testing.T) {
	p := paramsFor(t, "/")
	if p.Limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, p.Limit)
	}
	if p.Offset != 0 {
		t.Errorf("expected default offset 0, got %d", p.Offset)
	}
}

func TestFromContext_CustomValues(t *testing.T) {
	p := paramsFor(t, "/?limit=50&offset=10")
	if p.Limit != 50 || p.Offset != 10 {
		t.Errorf("expected 50/10, got %d/%d", p.Limit, p.Offset)
	}
}

func TestFromContext_Page(t *testing.T) {
	p := paramsFor(t, "/?limit=10&page=3")
	if p.Offset != 20 {
		t.Errorf("expected offset 20, got %d", p.Offset)
	}
}

func TestFromContext_MaxLimit(t *testing.T) {
	p := paramsFor(t, "/?limit=500")
	if p.Limit != MaxLimit {
		t.Errorf("expected limit capped at %d, got %d", MaxLimit, p.Limit)
	}
}

func TestFromContext_NegativeOffset(t *testing.T) {
	p := paramsFor(t, "/?offset=-5")
	if p.Offset != 0 {
		t.Errorf("expected offset 0, got %d", p.Offset)
	}
}

func TestNewResponse_HasMore(t *testing.T) {
	if r := NewResponse(nil, 25, 10, 10); !r.HasMore {
		t.Error("expected has_more for 10+10 < 25")
	}
	if r := NewResponse(nil, 20, 10, 10); r.HasMore {
		t.Error("expected no more results at the end")
	}
}

func TestLinks(t *testing.T) {
	p := Params{Limit: 10, Offset: 5}
	links := p.Links("/api/v1/patients/x/pregnancies", 30)
	if len(links) != 3 {
		t.Fatalf("expected 3 links, got %d", len(links))
	}
	want := map[string]string{
		"self":     "/api/v1/patients/x/pregnancies?offset=5&limit=10",
		"next":     "/api/v1/patients/x/pregnancies?offset=15&limit=10",
		"previous": "/api/v1/patients/x/pregnancies?offset=0&limit=10",
	}
	for _, l := range links {
		if want[l.Relation] != l.URL {
			t.Errorf("%s: expected %s, got %s", l.Relation, want[l.Relation], l.URL)
		}
	}
}

func TestLinks_FirstAndLastPage(t *testing.T) {
	links := Params{Limit: 10}.Links("/x", 5)
	if len(links) != 1 || links[0].Relation != "self" {
		t.Errorf("expected only self link, got %v", links)
	}
}

func TestResponse_WithLinks(t *testing.T) {
	r := NewResponse([]int{1}, 11, 10, 0).WithLinks("/x")
	if len(r.Links) != 2 {
		t.Errorf("expected self and next, got %v", r.Links)
	}
}
