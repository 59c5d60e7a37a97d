package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func ctxWithQuery(query string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func TestFromContext_Defaults(t *testing.T) {
	p := FromContext(ctxWithQuery(""))
	if p.Page != 1 {
		t.Fatalf("expected page 1, got %d", p.Page)
	}
	if p.PageSize != DefaultPageSize {
		t.Fatalf("expected default page size, got %d", p.PageSize)
	}
	if p.Offset() != 0 {
		t.Fatalf("expected offset 0, got %d", p.Offset())
	}
}

func TestFromContext_Explicit(t *testing.T) {
	p := FromContext(ctxWithQuery("page=3&page_size=10"))
	if p.Page != 3 || p.PageSize != 10 {
		t.Fatalf("expected page=3 size=10, got %+v", p)
	}
	if p.Offset() != 20 {
		t.Fatalf("expected offset 20, got %d", p.Offset())
	}
}

func TestFromContext_ClampsAndSanitizes(t *testing.T) {
	p := FromContext(ctxWithQuery("page=-5&page_size=9999"))
	if p.Page != 1 {
		t.Fatalf("expected page clamped to 1, got %d", p.Page)
	}
	if p.PageSize != MaxPageSize {
		t.Fatalf("expected page size clamped to %d, got %d", MaxPageSize, p.PageSize)
	}

	p = FromContext(ctxWithQuery("page=abc&page_size=xyz"))
	if p.Page != 1 || p.PageSize != DefaultPageSize {
		t.Fatalf("expected defaults for garbage input, got %+v", p)
	}
}

func TestNewResponse_HasMore(t *testing.T) {
	p := Params{Page: 2, PageSize: 10}

	resp := NewResponse([]int{1, 2, 3}, 25, p)
	if !resp.HasMore {
		t.Fatal("expected has_more=true for page 2 of 25")
	}

	p.Page = 3
	resp = NewResponse([]int{1, 2, 3}, 25, p)
	if resp.HasMore {
		t.Fatal("expected has_more=false for final page")
	}
}
