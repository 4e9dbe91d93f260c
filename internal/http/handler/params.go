package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/sandeepkv93/catalog-editor/internal/view"
)

var errInvalidProductID = errors.New("invalid product id")

func parsePathID(input string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(input), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidProductID
	}
	return id, nil
}

// parseQuery reads search, category and sort from the URL query or a
// submitted form; both surfaces use the same parameter names.
func parseQuery(values func(string) string) (view.Query, error) {
	sortKey, err := view.ParseSortKey(values("sort"))
	if err != nil {
		return view.Query{}, fmt.Errorf("invalid sort: %s", strings.TrimSpace(values("sort")))
	}
	return view.Query{
		Search:   values("search"),
		Category: strings.TrimSpace(values("category")),
		Sort:     sortKey,
	}, nil
}

func queryFromRequest(r *http.Request) (view.Query, error) {
	return parseQuery(r.URL.Query().Get)
}

func confirmed(r *http.Request, param, want string) bool {
	return strings.EqualFold(strings.TrimSpace(r.URL.Query().Get(param)), want) ||
		strings.EqualFold(strings.TrimSpace(r.PostFormValue(param)), want)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
