// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"codeberg.org/oliverandrich/accountd/internal/failure"
	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Render renders a templ component with the given status code.
func Render(c echo.Context, statusCode int, component templ.Component) error {
	buf := templ.GetBuffer()
	defer templ.ReleaseBuffer(buf)

	if err := component.Render(c.Request().Context(), buf); err != nil {
		return err
	}

	c.Response().Header().Set("Cache-Control", "no-store")
	return c.HTML(statusCode, buf.String())
}

// responseType reads the response_type query parameter. Empty means json.
func responseType(c echo.Context) (string, error) {
	switch rt := c.QueryParam("response_type"); rt {
	case "", "json":
		return "json", nil
	case "html":
		return rt, nil
	default:
		return "", failure.New(failure.RequestRejected, "response_type must be json or html")
	}
}
