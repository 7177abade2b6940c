package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpin "shipping/internal/adapters/in/http"
	"shipping/internal/adapters/out/providers"
	"shipping/internal/core/application/usecases/commands"
	"shipping/internal/core/application/usecases/queries"
	"shipping/internal/core/domain/model/delivery"
	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/ports"
	"shipping/internal/metrics"
	"shipping/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

type MockCreateDeliveryHandler struct{ mock.Mock }

func (m *MockCreateDeliveryHandler) Handle(ctx context.Context, cmd commands.CreateDeliveryCommand) (*delivery.Delivery, error) {
	args := m.Called(ctx, cmd)
	d, _ := args.Get(0).(*delivery.Delivery)
	return d, args.Error(1)
}

type MockGetDeliveryStatusHandler struct{ mock.Mock }

func (m *MockGetDeliveryStatusHandler) Handle(
	ctx context.Context, query queries.GetDeliveryStatusQuery,
) (queries.GetDeliveryStatusQueryResponse, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(queries.GetDeliveryStatusQueryResponse), args.Error(1)
}

type MockApplyTrackingUpdateHandler struct{ mock.Mock }

func (m *MockApplyTrackingUpdateHandler) Handle(
	ctx context.Context, cmd commands.ApplyTrackingUpdateCommand,
) (commands.StatusChange, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.StatusChange), args.Error(1)
}

type fixture struct {
	create  *MockCreateDeliveryHandler
	status  *MockGetDeliveryStatusHandler
	webhook *MockApplyTrackingUpdateHandler
	metrics *metrics.Metrics
	server  *httpin.Server
	router  *echo.Echo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		create:  new(MockCreateDeliveryHandler),
		status:  new(MockGetDeliveryStatusHandler),
		webhook: new(MockApplyTrackingUpdateHandler),
		metrics: metrics.New(),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f.server = httpin.NewServer(f.create, f.status, f.webhook, newGateway(t), f.metrics, logger).
		WithOrderIDSource(kernel.FixedClock(baseTime), func(int) int { return 7 })
	f.router = httpin.NewRouter(f.server, f.metrics, logger, []byte(`{"openapi":"3.0.3"}`))

	t.Cleanup(func() {
		f.create.AssertExpectations(t)
		f.status.AssertExpectations(t)
		f.webhook.AssertExpectations(t)
	})
	return f
}

func newGateway(t *testing.T) *providers.Registry {
	t.Helper()
	gateway, err := providers.NewRegistry(providers.NewNRW(), providers.NewTLS())
	require.NoError(t, err)
	return gateway
}

func (f *fixture) do(method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var decoded map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	return rec, decoded
}

func newTestDelivery(t *testing.T, provider delivery.Provider, orderID string) *delivery.Delivery {
	t.Helper()
	d, err := delivery.NewDelivery(
		kernel.NewUUID(),
		orderID,
		provider,
		"TLS1741942800000512",
		"https://shipping.tls-express.com/api/v1/documents/labels/tls_x.pdf",
		baseTime,
		baseTime.Add(8*time.Hour),
	)
	require.NoError(t, err)
	return d
}

func orderIDIs(expected string) any {
	return mock.MatchedBy(func(cmd commands.CreateDeliveryCommand) bool {
		return cmd.OrderID() == expected
	})
}

func TestCreateDelivery_Success(t *testing.T) {
	f := newFixture(t)
	d := newTestDelivery(t, delivery.TLS, "order-42")
	f.create.On("Handle", mock.Anything, orderIDIs("order-42")).Return(d, nil).Once()

	rec, body := f.do(http.MethodPost, "/deliveries", `{"orderId":"order-42","weight":2.5,"pickup":{"lat":1,"lng":2}}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, d.ID().String(), data["id"])
	assert.Equal(t, "order-42", data["orderId"])
	assert.Equal(t, "TLS", data["provider"])
	assert.Equal(t, "TLS1741942800000512", data["trackingId"])
	assert.Equal(t, d.LabelURL(), data["labelUrl"])
	assert.Equal(t, "CREATED", data["status"])
	assert.Equal(t, "2025-03-14T17:00:00Z", data["estimatedDelivery"])
	assert.Equal(t, "2025-03-14T09:00:00Z", data["createdAt"])
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.DeliveriesCreated.WithLabelValues("TLS")), 0)
}

func TestCreateDelivery_NoBody_GeneratesOrderID(t *testing.T) {
	f := newFixture(t)
	d := newTestDelivery(t, delivery.NRW, "order_1741942800000_7")
	f.create.On("Handle", mock.Anything, orderIDIs("order_1741942800000_7")).Return(d, nil).Once()

	rec, _ := f.do(http.MethodPost, "/deliveries", "")

	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateDelivery_BlankOrderID_GeneratesOrderID(t *testing.T) {
	f := newFixture(t)
	d := newTestDelivery(t, delivery.NRW, "order_1741942800000_7")
	f.create.On("Handle", mock.Anything, orderIDIs("order_1741942800000_7")).Return(d, nil).Once()

	rec, _ := f.do(http.MethodPost, "/deliveries", `{"orderId":"  "}`)

	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateDelivery_LabelFailure_Returns503(t *testing.T) {
	f := newFixture(t)
	cause := &commands.DeliveryCreationError{
		OrderID:  "order-42",
		Provider: delivery.TLS,
		Cause:    ports.NewLabelGenerationError(delivery.TLS, errors.New("TLS API: invalid shipping address")),
	}
	f.create.On("Handle", mock.Anything, orderIDIs("order-42")).Return(nil, cause).Once()

	rec, body := f.do(http.MethodPost, "/deliveries", `{"orderId":"order-42"}`)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Service temporarily unavailable", body["error"])
	assert.Equal(t, "PROVIDER_ERROR", body["code"])
	assert.Contains(t, body["details"], "invalid shipping address")
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.LabelFailures.WithLabelValues("TLS")), 0)
}

func TestCreateDelivery_StorageFailure_Returns500(t *testing.T) {
	f := newFixture(t)
	cause := &commands.DeliveryCreationError{
		OrderID:  "order-42",
		Provider: delivery.NRW,
		Cause:    errs.NewDuplicateKeyError("delivery", "NRW/NRW1"),
	}
	f.create.On("Handle", mock.Anything, orderIDIs("order-42")).Return(nil, cause).Once()

	rec, body := f.do(http.MethodPost, "/deliveries", `{"orderId":"order-42"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Internal server error", body["error"])
	assert.NotEmpty(t, body["details"])
}

func TestCreateDelivery_MalformedJSON_Returns400(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(http.MethodPost, "/deliveries", `{"orderId":`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	f.create.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestGetDeliveryStatus_Found(t *testing.T) {
	f := newFixture(t)
	id := kernel.NewUUID()
	resp := queries.GetDeliveryStatusQueryResponse{
		ID:                id,
		OrderID:           "order-42",
		Provider:          delivery.NRW,
		TrackingID:        "NRW1741942800000123",
		LabelURL:          "https://api.nrw-logistics.com/v2/labels/lbl_nrw1741942800000123_1741942800000.pdf",
		Status:            delivery.InTransit,
		StatusDescription: delivery.InTransit.Description(),
		EstimatedDelivery: baseTime.Add(30 * time.Hour),
		CreatedAt:         baseTime,
		UpdatedAt:         baseTime.Add(time.Hour),
	}
	f.status.On("Handle", mock.Anything, mock.MatchedBy(func(q queries.GetDeliveryStatusQuery) bool {
		return q.DeliveryID().IsEqual(id)
	})).Return(resp, nil).Once()

	rec, body := f.do(http.MethodGet, "/deliveries/"+id.String()+"/status", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, id.String(), data["id"])
	assert.Equal(t, "IN_TRANSIT", data["status"])
	assert.Equal(t, "Package is in transit to destination", data["statusDescription"])
	assert.Equal(t, "order-42", data["orderId"])
	assert.Equal(t, "NRW", data["provider"])
	assert.Equal(t, "NRW1741942800000123", data["trackingId"])
	assert.Equal(t, resp.LabelURL, data["labelUrl"])
	assert.Equal(t, "2025-03-15T15:00:00Z", data["estimatedDelivery"])
	assert.Equal(t, "2025-03-14T09:00:00Z", data["createdAt"])
	assert.Equal(t, "2025-03-14T10:00:00Z", data["updatedAt"])
}

func TestGetDeliveryStatus_NotFound(t *testing.T) {
	f := newFixture(t)
	id := kernel.NewUUID()
	f.status.On("Handle", mock.Anything, mock.Anything).
		Return(queries.GetDeliveryStatusQueryResponse{}, errs.NewObjectNotFoundError("delivery", id.String())).Once()

	rec, body := f.do(http.MethodGet, "/deliveries/"+id.String()+"/status", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, map[string]any{"success": false, "error": "Delivery not found"}, body)
}

func TestGetDeliveryStatus_MalformedID_IsNotFound(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(http.MethodGet, "/deliveries/not-a-uuid/status", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Delivery not found", body["error"])
	f.status.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestGetDeliveryStatus_StoreFailure_Returns500(t *testing.T) {
	f := newFixture(t)
	f.status.On("Handle", mock.Anything, mock.Anything).
		Return(queries.GetDeliveryStatusQueryResponse{}, errors.New("connection reset")).Once()

	rec, body := f.do(http.MethodGet, "/deliveries/"+kernel.NewUUID().String()+"/status", "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", body["error"])
}

func TestGetDeliveryStatus_EmptyID_Returns400(t *testing.T) {
	f := newFixture(t)
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/deliveries//status", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("")

	wrapper := httpin.ServerInterfaceWrapper{Handler: f.server}
	require.NoError(t, wrapper.GetDeliveryStatus(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Delivery ID is required")
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec, _ := f.do(http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Healthy", rec.Body.String())
}

func TestRouter_ServesOpenAPIAndMetrics(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(http.MethodGet, "/openapi.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3.0.3", body["openapi"])

	f.do(http.MethodGet, "/health", "")
	rec, _ = f.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{handler="/health",method="GET",status="200"} 1`)
}
