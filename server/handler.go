package server

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aouyang1/go-forecast-api/pipeline"
	"github.com/aouyang1/go-forecast-api/plot"
)

type StatusResponse struct {
	Status  string `json:"status"`
	Service string `json:"service,omitempty"`
	Version string `json:"version,omitempty"`
}

func (s *Server) root(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{
		Status:  "ok",
		Service: ServiceName,
		Version: Version,
	})
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{Status: "healthy"})
}

func (s *Server) run(c echo.Context) (*pipeline.ForecastResponse, error) {
	req := &pipeline.ForecastRequest{}
	if err := s.bind(c, req); err != nil {
		return nil, err
	}
	return s.pipeline.Run(c.Request().Context(), *req)
}

func (s *Server) forecast(c echo.Context) error {
	resp, err := s.run(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) plot(c echo.Context) error {
	resp, err := s.run(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := plot.Render(&buf, resp); err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}
