package handlers

import (
	"errors"
	"fmt"
	"net/http"

	apierr "github.com/gnps/groupselector/pkg/api/errors"
	apitasks "github.com/gnps/groupselector/pkg/api/types/tasks"
	"github.com/gnps/groupselector/pkg/dashboard"
	"github.com/gnps/groupselector/pkg/features"
	"github.com/gnps/groupselector/pkg/gnps"
	"github.com/gnps/groupselector/pkg/groups"
	"github.com/gnps/groupselector/pkg/metadata"
	"github.com/labstack/echo/v4"
)

// resolveColumn returns the column named by the "column" query parameter, or
// the default column when it is empty.
func resolveColumn(c echo.Context, cols metadata.Columns) (string, error) {
	column := c.QueryParam("column")
	if column == "" {
		return cols.Default, nil
	}
	if !cols.Contains(column) {
		return "", apierr.BadRequest(
			fmt.Sprintf("column %q is not a grouping column of the metadata", column), nil,
		)
	}
	return column, nil
}

// GetColumnsHandler responds the grouping columns of a task.
func GetColumnsHandler(fetcher gnps.Fetcher, taskParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		task := c.Param(taskParam)
		md, err := fetcher.Fetch(c.Request().Context(), task, gnps.MetadataMerged)
		if err != nil {
			return apierr.FromFetch(err)
		}
		return c.JSON(http.StatusOK, apitasks.ComposeColumns(task, metadata.ResolveColumns(md)))
	}
}

// GetTermsHandler responds the terms of a grouping column of a task.
func GetTermsHandler(fetcher gnps.Fetcher, taskParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		task := c.Param(taskParam)
		md, err := fetcher.Fetch(c.Request().Context(), task, gnps.MetadataMerged)
		if err != nil {
			return apierr.FromFetch(err)
		}
		column, err := resolveColumn(c, metadata.ResolveColumns(md))
		if err != nil {
			return err
		}
		return c.JSON(
			http.StatusOK,
			apitasks.ComposeTerms(task, column, metadata.ResolveTerms(md, column)),
		)
	}
}

// GetGroupHandler responds the spectrum identifiers of files having any of the
// terms given as "term" query parameters in a column.
//
// Without terms, the first term of the column is used.
func GetGroupHandler(fetcher gnps.Fetcher, taskParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		task := c.Param(taskParam)
		ts := groups.NewTables(fetcher, task)
		if err := ts.Prefetch(ctx); err != nil {
			return apierr.FromFetch(err)
		}
		md, err := ts.Metadata(ctx)
		if err != nil {
			return apierr.FromFetch(err)
		}
		column, err := resolveColumn(c, metadata.ResolveColumns(md))
		if err != nil {
			return err
		}
		if column == "" {
			return apierr.BadRequest("the metadata has no grouping column", nil)
		}

		terms := c.QueryParams()["term"]
		if len(terms) == 0 {
			if t := metadata.ResolveTerms(md, column); !t.Empty() {
				terms = []string{t.Default1}
			}
		}

		usis, err := ts.Resolve(ctx, column, terms...)
		if err != nil {
			return apierr.FromFetch(err)
		}
		return c.JSON(http.StatusOK, apitasks.ComposeGroup(task, column, terms, usis))
	}
}

// GetFeaturesHandler responds a page of the feature table of a task.
//
// Query parameters "filter_<column>" filter rows, and "page" (0-origin)
// selects a page.
func GetFeaturesHandler(fetcher gnps.Fetcher, taskParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		task := c.Param(taskParam)
		in, err := ParseInput(c, task)
		if err != nil {
			return err
		}
		cs, err := fetcher.Fetch(c.Request().Context(), task, gnps.ClusterSummary)
		if err != nil {
			return apierr.FromFetch(err)
		}
		ft, err := features.New(cs).Filter(in.Filters)
		if err != nil {
			return apierr.BadRequest("filter is malformed", err)
		}
		return c.JSON(
			http.StatusOK,
			apitasks.ComposeFeatures(task, ft, in.Page, features.PageSize),
		)
	}
}

// GetLinkHandler responds the viewer URL for groups and a feature, with the
// same defaults as the dashboard page.
func GetLinkHandler(o *dashboard.Orchestrator, taskParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		in, err := ParseInput(c, c.Param(taskParam))
		if err != nil {
			return err
		}
		st := o.Run(c.Request().Context(), in)

		switch {
		case st.Errors.Metadata != nil:
			return apierr.FromFetch(st.Errors.Metadata)
		case st.Errors.Groups != nil:
			return apierr.FromFetch(st.Errors.Groups)
		case st.Columns.Empty():
			return apierr.BadRequest("the metadata has no grouping column", nil)
		case in.Feature != "" && st.Errors.Features != nil:
			return apierr.FromFetch(st.Errors.Features)
		case st.Errors.Filter != nil:
			return apierr.BadRequest("filter is malformed", st.Errors.Filter)
		case errors.Is(st.Errors.Select, dashboard.ErrNoFeature):
			return apierr.BadRequest(
				fmt.Sprintf("feature %q is not in the feature table", in.Feature), st.Errors.Select,
			)
		case st.Errors.Select != nil:
			return apierr.BadRequest("feature cannot be visualized", st.Errors.Select)
		}
		return c.JSON(http.StatusOK, apitasks.ComposeLink(st))
	}
}
