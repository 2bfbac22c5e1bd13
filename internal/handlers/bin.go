package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"vermicompost_monitor/internal/models"
	"vermicompost_monitor/internal/service"
)

const (
	statusOK = "ok"

	errNoReading       = "no sensor reading yet"
	errGetState        = "failed to load state"
	errCalibrate       = "failed to save calibration"
	errResetCal        = "failed to reset calibration"
	errLoadRecords     = "failed to load records"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// CalibrateRequest is one provisioning step.
type CalibrateRequest struct {
	// Step to record. Allowed: moisture_dry, moisture_wet, ultrasonic, confirm
	Target string `json:"target" binding:"required" example:"ultrasonic"`
	// Distance to the tank floor in cm (ultrasonic only)
	EmptyCM float64 `json:"empty_cm,omitempty" example:"14"`
	// Distance to the full mark in cm (ultrasonic only)
	FullCM float64 `json:"full_cm,omitempty" example:"4"`
}

// @Summary      Liveness probe
// @Tags         provisioning
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /ping [get]
func (h *Handler) ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      Device identity
// @Tags         provisioning
// @Produce      json
// @Success      200  {object}  service.DeviceInfo
// @Router       /handshake [get]
func (h *Handler) handshake(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Monitoring.Handshake())
}

// @Summary      Latest sensor snapshot
// @Tags         provisioning
// @Produce      json
// @Success      200  {object}  models.SensorSnapshot
// @Failure      503  {object}  map[string]string
// @Router       /get_data [get]
func (h *Handler) getData(c *gin.Context) {
	snap, ok := h.services.Monitoring.Latest()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errNoReading})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary      Record a calibration step
// @Description  moisture_dry/moisture_wet capture the current raw probe readings; ultrasonic stores empty_cm/full_cm and completes setup; confirm completes setup.
// @Tags         calibration
// @Accept       json
// @Produce      json
// @Param        body  body      CalibrateRequest  true  "Calibration step"
// @Success      200   {object}  models.CalibrationProfile
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/calibrate [post]
// @Security     BearerAuth
func (h *Handler) calibrate(c *gin.Context) {
	var req CalibrateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	p, err := h.services.Calibration.Calibrate(c.Request.Context(), service.CalibrateRequest{
		Target:  req.Target,
		EmptyCM: req.EmptyCM,
		FullCM:  req.FullCM,
	})
	switch {
	case err == nil:
		c.JSON(http.StatusOK, p)
	case errors.Is(err, models.ErrInvalidCalibration), errors.Is(err, service.ErrUnknownTarget):
		if h.log != nil {
			h.log.Infow("calibration_rejected", "target", req.Target, "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNoReading):
		c.JSON(http.StatusConflict, gin.H{"error": errNoReading})
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, errCalibrate, "calibration_save_failed", err, "target", req.Target)
	}
}

// @Summary      Reset calibration
// @Description  Clears the stored calibration and returns to factory defaults; the pump stays off until setup completes again.
// @Tags         calibration
// @Produce      json
// @Success      200  {object}  models.CalibrationProfile
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/reset [post]
// @Security     BearerAuth
func (h *Handler) resetCalibration(c *gin.Context) {
	p, err := h.services.Calibration.Reset(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errResetCal, "calibration_reset_failed", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary      Bin state
// @Tags         monitoring
// @Produce      json
// @Success      200  {object}  service.BinState
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	st, err := h.services.Monitoring.GetState(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetState, "bin_get_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Historical records
// @Description  Records stored at the record cadence, filtered like /api/v1/logs.
// @Tags         monitoring
// @Produce      json
// @Param        from  query     string  false  "Start of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD')"
// @Param        to    query     string  false  "End of range; date-only treated as end of day"
// @Success      200   {object}  map[string]interface{}  "count, records"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/records [get]
// @Security     BearerAuth
func (h *Handler) getRecords(c *gin.Context) {
	from, to, ok := h.bindRange(c)
	if !ok {
		return
	}
	recs, err := h.services.Monitoring.Records(c.Request.Context(), from, to)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadRecords, "records_list_failed", err, "from", from, "to", to)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(recs),
		"records": recs,
	})
}
