// Package server provides a thin debug/visualization HTTP API over the
// pipeline: one endpoint that runs an analysis and returns the resulting
// StructuralMap, including its debug curves. There is no static/HTML
// serving here — UI/grid-rendering is outside this module's scope, but the
// ambient logging/recovery/CORS stack a Go service in this corpus always
// carries is kept regardless.
package server

import (
	"net/http"

	"github.com/beatlab/structuralmap/pkg/config"
	"github.com/beatlab/structuralmap/pkg/model"
	"github.com/beatlab/structuralmap/pkg/pipeline"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// DecodeFunc turns a file path into the Listener's PCM contract. Injected
// rather than imported directly, since decoding is a CLI-boundary concern
// (cmd/app/decode.go) that pkg/server has no business depending on.
type DecodeFunc func(path string) (model.PCMInput, error)

// Run starts the debug API server on :8080 with no decoding capability;
// every /api/analyze request that names a file fails with 501 until
// RunWithDecoder is used.
func Run() error {
	return RunWithDecoder(nil)
}

// RunWithDecoder starts the debug API server using decode to turn a
// requested file path into PCM.
func RunWithDecoder(decode DecodeFunc) error {
	return newEcho(decode).Start(":8080")
}

func newEcho(decode DecodeFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET("/api/analyze", analyzeHandler(decode))

	return e
}

// analyzeHandler drives one pipeline run over the file named by the
// `file` query parameter and returns its StructuralMap as JSON, optionally
// tuned by the `template` query parameter (spec.md §6's named presets).
func analyzeHandler(decode DecodeFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		file := c.QueryParam("file")
		if file == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "missing required query parameter: file")
		}
		if decode == nil {
			return echo.NewHTTPError(http.StatusNotImplemented, "no audio decoder configured")
		}

		cfg, err := config.WithPreset(c.QueryParam("template"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}

		pcm, err := decode(file)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}

		sm, err := pipeline.New(cfg).Run(c.Request().Context(), pcm, nil)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}

		return c.JSON(http.StatusOK, sm)
	}
}
