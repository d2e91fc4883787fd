package report

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"presensi-backend/internal/attendance"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
)

type Handler struct {
	svc    *attendance.Service
	school string
	now    func() time.Time
}

func RegisterRoutes(admin gin.IRoutes, svc *attendance.Service, school string) {
	h := &Handler{svc: svc, school: school, now: time.Now}
	admin.GET("/admin/recap/export", h.Export)
}

// Export godoc
// @Summary  Download the monthly recap
// @Tags     admin
// @Produce  application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce  application/pdf
// @Security BearerAuth
// @Param    month  query int    false "1-12, defaults to the current month"
// @Param    year   query int    false "defaults to the current year"
// @Param    format query string false "xlsx (default) or pdf"
// @Success  200
// @Router   /admin/recap/export [get]
func (h *Handler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "xlsx")
	if format != "xlsx" && format != "pdf" {
		attendance.RespondError(c, attendance.ErrInvalid("format must be xlsx or pdf"))
		return
	}

	month, year, ok := attendance.RecapPeriod(c, h.svc)
	if !ok {
		return
	}
	res, err := h.svc.MonthlyRecap(c.Request.Context(), month, year)
	if err != nil {
		attendance.RespondError(c, err)
		return
	}
	res.Items = attendance.FilterRecap(res.Items, c.Query("q"))

	meta := Meta{School: h.school, GeneratedAt: h.now().In(h.svc.Gate().Location())}

	// Render into a buffer so a failure can still produce a JSON error.
	var buf bytes.Buffer
	contentType := contentTypeXLSX
	if format == "pdf" {
		contentType = contentTypePDF
		err = WritePDF(&buf, res, meta)
	} else {
		err = WriteXLSX(&buf, res, meta)
	}
	if err != nil {
		log.Printf("[ERROR] render recap %04d-%02d as %s: %v", year, month, format, err)
		attendance.RespondError(c, attendance.ErrInternal("failed to render report"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.%s", Filename(res), format))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
