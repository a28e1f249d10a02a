package handlers

import (
	"fmt"

	apierr "github.com/gnps/groupselector/pkg/api/errors"
	"github.com/labstack/echo/v4"
)

func errBadPage(page string, err error) *echo.HTTPError {
	return apierr.BadRequest(
		fmt.Sprintf("page should be a non-negative integer, but %q", page), err,
	)
}

func errBadGoto(page string, err error) *echo.HTTPError {
	return apierr.BadRequest(
		fmt.Sprintf("page number should be 1 or more, but %q", page), err,
	)
}
