package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

// Request and response bodies of api/openapi.yaml.

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CreateDeliveryRequest carries shipment metadata that is accepted but not
// used; only OrderID matters.
type CreateDeliveryRequest struct {
	OrderID         *string     `json:"orderId,omitempty"`
	Pickup          *Point      `json:"pickup,omitempty"`
	Dropoff         *Point      `json:"dropoff,omitempty"`
	Description     *string     `json:"description,omitempty"`
	CustomerAddress *Address    `json:"customerAddress,omitempty"`
	Weight          *float64    `json:"weight,omitempty"`
	Dimensions      *Dimensions `json:"dimensions,omitempty"`
}

type CreatedDelivery struct {
	ID                uuid.UUID `json:"id"`
	OrderID           string    `json:"orderId"`
	Provider          string    `json:"provider"`
	LabelURL          string    `json:"labelUrl"`
	TrackingID        string    `json:"trackingId"`
	Status            string    `json:"status"`
	EstimatedDelivery time.Time `json:"estimatedDelivery"`
	CreatedAt         time.Time `json:"createdAt"`
}

type CreateDeliveryResponse struct {
	Success bool            `json:"success"`
	Data    CreatedDelivery `json:"data"`
}

type DeliveryStatus struct {
	ID                uuid.UUID `json:"id"`
	Status            string    `json:"status"`
	StatusDescription string    `json:"statusDescription"`
	OrderID           string    `json:"orderId"`
	Provider          string    `json:"provider"`
	TrackingID        string    `json:"trackingId"`
	LabelURL          string    `json:"labelUrl"`
	EstimatedDelivery time.Time `json:"estimatedDelivery"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type DeliveryStatusResponse struct {
	Success bool           `json:"success"`
	Data    DeliveryStatus `json:"data"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
}

type WebhookRequest struct {
	TrackingID *string `json:"trackingId,omitempty"`
	Status     *string `json:"status,omitempty"`
}

type WebhookResponse struct {
	Success        bool       `json:"success"`
	Message        string     `json:"message,omitempty"`
	CurrentStatus  string     `json:"currentStatus,omitempty"`
	DeliveryID     *uuid.UUID `json:"deliveryId,omitempty"`
	PreviousStatus string     `json:"previousStatus,omitempty"`
	NewStatus      string     `json:"newStatus,omitempty"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
}

type WebhookError struct {
	Error           string   `json:"error"`
	Required        []string `json:"required,omitempty"`
	ValidStatuses   []string `json:"validStatuses,omitempty"`
	TrackingID      string   `json:"trackingId,omitempty"`
	Provider        string   `json:"provider,omitempty"`
	CurrentStatus   string   `json:"currentStatus,omitempty"`
	AttemptedStatus string   `json:"attemptedStatus,omitempty"`
}

// ServerInterface is implemented by Server.
type ServerInterface interface {
	// (POST /deliveries)
	CreateDelivery(ctx echo.Context) error
	// (GET /deliveries/{id}/status)
	GetDeliveryStatus(ctx echo.Context, id string) error
	// (POST /webhook/{provider})
	ReceiveProviderWebhook(ctx echo.Context, provider string) error
	// (GET /health)
	Health(ctx echo.Context) error
}

// ServerInterfaceWrapper converts echo contexts to typed parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func (w *ServerInterfaceWrapper) CreateDelivery(ctx echo.Context) error {
	return w.Handler.CreateDelivery(ctx)
}

func (w *ServerInterfaceWrapper) GetDeliveryStatus(ctx echo.Context) error {
	var id string
	if err := bindPathParam(ctx, "id", &id); err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Delivery ID is required",
			Details: err.Error(),
		})
	}

	return w.Handler.GetDeliveryStatus(ctx, id)
}

func (w *ServerInterfaceWrapper) ReceiveProviderWebhook(ctx echo.Context) error {
	var provider string
	if err := bindPathParam(ctx, "provider", &provider); err != nil {
		return ctx.JSON(http.StatusBadRequest, WebhookError{
			Error: fmt.Sprintf("Invalid format for parameter provider: %s", err),
		})
	}

	return w.Handler.ReceiveProviderWebhook(ctx, provider)
}

func (w *ServerInterfaceWrapper) Health(ctx echo.Context) error {
	return w.Handler.Health(ctx)
}

func bindPathParam(ctx echo.Context, name string, dest *string) error {
	return runtime.BindStyledParameterWithOptions("simple", name, ctx.Param(name), dest,
		runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath,
			Explode:       false,
			Required:      true,
		})
}

// EchoRouter is satisfied by *echo.Echo and *echo.Group.
type EchoRouter interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers mounts every operation of ServerInterface on router.
func RegisterHandlers(router EchoRouter, si ServerInterface) {
	wrapper := ServerInterfaceWrapper{Handler: si}

	router.POST("/deliveries", wrapper.CreateDelivery)
	router.GET("/deliveries/:id/status", wrapper.GetDeliveryStatus)
	router.POST("/webhook/:provider", wrapper.ReceiveProviderWebhook)
	router.GET("/health", wrapper.Health)
}
