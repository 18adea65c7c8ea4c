package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Response is the success envelope of every JSON endpoint.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func ok(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func created(c echo.Context, data any, message string) error {
	return c.JSON(http.StatusCreated, Response{Success: true, Data: data, Message: message})
}
