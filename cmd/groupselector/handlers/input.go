package handlers

import (
	"strconv"
	"strings"

	"github.com/gnps/groupselector/pkg/dashboard"
	"github.com/labstack/echo/v4"
)

// FilterPrefix prefixes query parameters carrying feature table filters,
// as in "filter_parent mass=>= 300".
const FilterPrefix = "filter_"

// ParseInput reads the dashboard input from query parameters of c.
//
// The feature table page is "page" (0-origin, from the pager buttons) or,
// without it, "goto" (1-origin, typed by the user).
//
// task is used when the query does not name one.
func ParseInput(c echo.Context, task string) (dashboard.Input, error) {
	q := c.QueryParams()

	in := dashboard.Input{
		Task:    task,
		Column:  q.Get("column"),
		Group1:  q["group1"],
		Group2:  q["group2"],
		Feature: strings.TrimSpace(q.Get("feature")),
		Filters: map[string]string{},
	}
	if t := strings.TrimSpace(q.Get("task")); t != "" {
		in.Task = t
	}

	for k, vs := range q {
		col, ok := strings.CutPrefix(k, FilterPrefix)
		if !ok || col == "" || len(vs) == 0 {
			continue
		}
		in.Filters[col] = vs[0]
	}

	switch p, g := q.Get("page"), q.Get("goto"); {
	case p != "":
		page, err := strconv.Atoi(p)
		if err != nil || page < 0 {
			return dashboard.Input{}, errBadPage(p, err)
		}
		in.Page = page
	case g != "":
		page, err := strconv.Atoi(g)
		if err != nil || page < 1 {
			return dashboard.Input{}, errBadGoto(g, err)
		}
		in.Page = page - 1
	}
	return in, nil
}
