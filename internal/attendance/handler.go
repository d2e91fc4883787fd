package attendance

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"presensi-backend/internal/platform/auth"
)

const DeviceIDHeader = "X-Device-ID"

type Handler struct{ svc *Service }

// RegisterRoutes mounts the employee routes on staff and the dashboard
// routes on admin. Both groups must already run auth.RequireAuth.
func RegisterRoutes(staff, admin gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	staff.GET("/me", h.Profile)
	staff.GET("/classes", h.Classes)
	staff.GET("/attendance/eligibility", h.Eligibility)
	staff.POST("/attendance/check-in", h.CheckIn)
	staff.POST("/attendance/check-out", h.CheckOut)
	staff.POST("/teaching", h.SubmitTeaching)
	staff.POST("/leaves", h.SubmitLeave)

	admin.GET("/admin/daily", h.DailyBoard)
	admin.GET("/admin/recap", h.MonthlyRecap)
	admin.POST("/admin/refresh", h.Refresh)
}

// ---------- handlers ----------

// Profile godoc
// @Summary  Caller's roster entry
// @Tags     attendance
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} ProfileResponse
// @Router   /me [get]
func (h *Handler) Profile(c *gin.Context) {
	res, err := h.svc.Profile(c.Request.Context(), identity(c))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Classes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"classes": ClassOptions})
}

// Eligibility godoc
// @Summary  Whether this device may check in or out now
// @Tags     attendance
// @Produce  json
// @Security BearerAuth
// @Param    X-Device-ID header string true "device id"
// @Success  200 {object} EligibilityResponse
// @Router   /attendance/eligibility [get]
func (h *Handler) Eligibility(c *gin.Context) {
	res, err := h.svc.Eligibility(c.Request.Context(), identity(c), c.GetHeader(DeviceIDHeader))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// CheckIn godoc
// @Summary  Submit a check-in with selfie and GPS
// @Tags     attendance
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    X-Device-ID header string true "device id"
// @Param    body body CheckRequest true "selfie and location"
// @Success  201 {object} SubmissionResponse
// @Failure  502 {object} SubmissionResponse
// @Router   /attendance/check-in [post]
func (h *Handler) CheckIn(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json"))
		return
	}
	res, err := h.svc.CheckIn(c.Request.Context(), identity(c), c.GetHeader(DeviceIDHeader), req)
	respondSubmission(c, res, err)
}

// CheckOut godoc
// @Summary  Submit a check-out with selfie and GPS
// @Tags     attendance
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    X-Device-ID header string true "device id"
// @Param    body body CheckRequest true "selfie and location"
// @Success  201 {object} SubmissionResponse
// @Failure  502 {object} SubmissionResponse
// @Router   /attendance/check-out [post]
func (h *Handler) CheckOut(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json"))
		return
	}
	res, err := h.svc.CheckOut(c.Request.Context(), identity(c), c.GetHeader(DeviceIDHeader), req)
	respondSubmission(c, res, err)
}

// POST /teaching
func (h *Handler) SubmitTeaching(c *gin.Context) {
	var req TeachingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json"))
		return
	}
	res, err := h.svc.SubmitTeaching(c.Request.Context(), identity(c), req)
	respondSubmission(c, res, err)
}

// POST /leaves
func (h *Handler) SubmitLeave(c *gin.Context) {
	var req LeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json"))
		return
	}
	res, err := h.svc.SubmitLeave(c.Request.Context(), identity(c), req)
	respondSubmission(c, res, err)
}

// DailyBoard godoc
// @Summary  Today's attendance board
// @Tags     admin
// @Produce  json
// @Security BearerAuth
// @Param    q query string false "name or NIP filter"
// @Success  200 {object} DailyBoardResponse
// @Router   /admin/daily [get]
func (h *Handler) DailyBoard(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.DailyBoard(c.Request.Context(), c.Query("q")))
}

// MonthlyRecap godoc
// @Summary  Monthly attendance recap
// @Tags     admin
// @Produce  json
// @Security BearerAuth
// @Param    month query int false "1-12, defaults to the current month"
// @Param    year  query int false "defaults to the current year"
// @Param    q     query string false "name or NIP filter"
// @Success  200 {object} RecapResponse
// @Router   /admin/recap [get]
func (h *Handler) MonthlyRecap(c *gin.Context) {
	month, year, ok := RecapPeriod(c, h.svc)
	if !ok {
		return
	}
	res, err := h.svc.MonthlyRecap(c.Request.Context(), month, year)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	res.Items = FilterRecap(res.Items, c.Query("q"))
	c.JSON(http.StatusOK, res)
}

// POST /admin/refresh
func (h *Handler) Refresh(c *gin.Context) {
	res, err := h.svc.Refresh(c.Request.Context())
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// ---------- helpers ----------

// RecapPeriod reads month and year query params, defaulting to the current
// school month. It writes a 400 and returns false on malformed input.
func RecapPeriod(c *gin.Context, svc *Service) (int, int, bool) {
	now := svc.clock.Now().In(svc.loc())
	month, err := parseIntDefault(c.Query("month"), int(now.Month()))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "month must be a number"))
		return 0, 0, false
	}
	year, err := parseIntDefault(c.Query("year"), now.Year())
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "year must be a number"))
		return 0, 0, false
	}
	return month, year, true
}

// RespondError writes err with the status its code maps to.
func RespondError(c *gin.Context, err error) {
	c.JSON(toHTTPStatus(err), errorFromErr(err))
}

func respondSubmission(c *gin.Context, res SubmissionResponse, err error) {
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	if !res.Accepted {
		c.JSON(http.StatusBadGateway, res)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func identity(c *gin.Context) Identity {
	return Identity{
		NIP:  c.GetString(auth.CtxUserIDKey),
		Name: c.GetString(auth.CtxNameKey),
		Role: c.GetString(auth.CtxRoleKey),
	}
}

func parseIntDefault(s string, d int) (int, error) {
	if s == "" {
		return d, nil
	}
	return strconv.Atoi(s)
}

type errorDTO struct {
	Error struct {
		Code    Code              `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields,omitempty"`
	} `json:"error"`
}

func errorBody(code Code, msg string) errorDTO {
	var e errorDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}

func errorFromErr(err error) errorDTO {
	var msg string
	var code Code = CodeInternal
	var fields map[string]string
	if api, ok := err.(*APIError); ok {
		code, msg, fields = api.Code, api.Message, api.Fields
	} else {
		msg = err.Error()
	}
	e := errorBody(code, msg)
	e.Error.Fields = fields
	return e
}
