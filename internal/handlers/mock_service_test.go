package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vermicompost_monitor/internal/models"
	"vermicompost_monitor/internal/service"
	"vermicompost_monitor/internal/telemetry"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseDevice   string
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastSignUpKey      string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password, signupKey string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	m.lastSignUpKey = signupKey
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (service.Identity, error) {
	m.lastParseToken = token
	if m.parseErr != nil {
		return service.Identity{}, m.parseErr
	}
	return service.Identity{OperatorID: m.parseID, DeviceID: m.parseDevice}, nil
}

type mockCalibration struct {
	profile  models.CalibrationProfile
	err      error
	resetErr error
	lastReq  service.CalibrateRequest
	calls    int
	resets   int
}

func (m *mockCalibration) Calibrate(_ context.Context, req service.CalibrateRequest) (models.CalibrationProfile, error) {
	m.calls++
	m.lastReq = req
	return m.profile, m.err
}

func (m *mockCalibration) Reset(context.Context) (models.CalibrationProfile, error) {
	m.resets++
	return models.DefaultCalibration(), m.resetErr
}

type mockMonitoring struct {
	device  service.DeviceInfo
	snap    models.SensorSnapshot
	hasSnap bool
	state   service.BinState
	err     error
	records []telemetry.Record

	lastFrom time.Time
	lastTo   time.Time
}

func (m *mockMonitoring) Handshake() service.DeviceInfo { return m.device }

func (m *mockMonitoring) Latest() (models.SensorSnapshot, bool) { return m.snap, m.hasSnap }

func (m *mockMonitoring) GetState(context.Context) (service.BinState, error) {
	return m.state, m.err
}

func (m *mockMonitoring) Records(_ context.Context, from, to time.Time) ([]telemetry.Record, error) {
	m.lastFrom, m.lastTo = from, to
	return m.records, m.err
}

type mockEventLog struct {
	resp     []models.PumpEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.PumpEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
