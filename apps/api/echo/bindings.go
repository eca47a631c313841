package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/gradebook/core"
)

const (
	formatCSV  = "csv"
	formatXLSX = "xlsx"
)

type SuccessResponse struct {
	Success string `json:"success"`
}

// ExportQuery reads the `format` query param of a roster export. It defaults to csv.
type ExportQuery struct {
	Format string
}

func (q *ExportQuery) Bind(ctx echo.Context) error {
	q.Format = strings.ToLower(core.CleanString(ctx.QueryParam("format")))
	switch q.Format {
	case "":
		q.Format = formatCSV
	case formatCSV, formatXLSX:
	default:
		return core.InvalidValue("format", "format must be one of: csv, xlsx")
	}
	return nil
}

func (q ExportQuery) mimeType() string {
	if q.Format == formatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}
