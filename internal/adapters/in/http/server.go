// Package http is the echo boundary of the shipping service.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"

	"shipping/internal/core/application/usecases/commands"
	"shipping/internal/core/application/usecases/queries"
	"shipping/internal/core/domain/model/delivery"
	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/ports"
	"shipping/internal/metrics"
	"shipping/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

type (
	CreateDeliveryHandler interface {
		Handle(ctx context.Context, cmd commands.CreateDeliveryCommand) (*delivery.Delivery, error)
	}

	GetDeliveryStatusHandler interface {
		Handle(ctx context.Context, query queries.GetDeliveryStatusQuery) (queries.GetDeliveryStatusQueryResponse, error)
	}

	ApplyTrackingUpdateHandler interface {
		Handle(ctx context.Context, cmd commands.ApplyTrackingUpdateCommand) (commands.StatusChange, error)
	}
)

// Server implements ServerInterface on top of the application handlers.
type Server struct {
	createDeliveryHandler      CreateDeliveryHandler
	getDeliveryStatusHandler   GetDeliveryStatusHandler
	applyTrackingUpdateHandler ApplyTrackingUpdateHandler
	gateway                    ports.ProviderGateway

	metrics *metrics.Metrics
	logger  *slog.Logger
	clock   kernel.Clock
	intN    func(int) int
}

// NewServer creates a Server. Webhooks are only accepted for carriers in
// gateway that do not support status polling.
func NewServer(
	createDeliveryHandler CreateDeliveryHandler,
	getDeliveryStatusHandler GetDeliveryStatusHandler,
	applyTrackingUpdateHandler ApplyTrackingUpdateHandler,
	gateway ports.ProviderGateway,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Server {
	return &Server{
		createDeliveryHandler:      createDeliveryHandler,
		getDeliveryStatusHandler:   getDeliveryStatusHandler,
		applyTrackingUpdateHandler: applyTrackingUpdateHandler,
		gateway:                    gateway,
		metrics:                    m,
		logger:                     logger.With("component", "http"),
		clock:                      kernel.SystemClock,
		intN:                       rand.IntN,
	}
}

// WithOrderIDSource replaces the clock and random source used to name
// orders that arrive without an orderId.
func (s *Server) WithOrderIDSource(clock kernel.Clock, intN func(int) int) *Server {
	s.clock = clock
	s.intN = intN
	return s
}

// CreateDelivery handles POST /deliveries.
func (s *Server) CreateDelivery(ctx echo.Context) error {
	var req CreateDeliveryRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid request body",
			Details: err.Error(),
		})
	}

	orderID := ""
	if req.OrderID != nil {
		orderID = strings.TrimSpace(*req.OrderID)
	}
	if orderID == "" {
		orderID = s.generateOrderID()
	}

	cmd, err := commands.NewCreateDeliveryCommand(orderID)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid delivery request",
			Details: err.Error(),
		})
	}

	d, err := s.createDeliveryHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		var creationErr *commands.DeliveryCreationError
		provider := ""
		if errors.As(err, &creationErr) {
			provider = creationErr.Provider.String()
		}

		if errors.Is(err, ports.ErrLabelGeneration) {
			s.metrics.LabelFailures.WithLabelValues(provider).Inc()
			s.logger.Warn("label generation failed", "orderId", orderID, "provider", provider, "error", err)
			return ctx.JSON(http.StatusServiceUnavailable, ErrorResponse{
				Success: false,
				Error:   "Service temporarily unavailable",
				Details: err.Error(),
				Code:    "PROVIDER_ERROR",
			})
		}

		s.logger.Error("failed to create delivery", "orderId", orderID, "provider", provider, "error", err)
		return ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Success: false,
			Error:   "Internal server error",
			Details: err.Error(),
		})
	}

	s.metrics.DeliveriesCreated.WithLabelValues(d.Provider().String()).Inc()
	s.logger.Info("delivery created",
		"deliveryId", d.ID().String(),
		"orderId", d.OrderID(),
		"provider", d.Provider().String(),
		"trackingId", d.TrackingID(),
	)

	return ctx.JSON(http.StatusCreated, CreateDeliveryResponse{
		Success: true,
		Data: CreatedDelivery{
			ID:                d.ID().Bytes(),
			OrderID:           d.OrderID(),
			Provider:          d.Provider().String(),
			LabelURL:          d.LabelURL(),
			TrackingID:        d.TrackingID(),
			Status:            d.Status().String(),
			EstimatedDelivery: d.EstimatedDelivery(),
			CreatedAt:         d.CreatedAt(),
		},
	})
}

// GetDeliveryStatus handles GET /deliveries/{id}/status. An id that is not
// a UUID cannot name a delivery and is reported as not found.
func (s *Server) GetDeliveryStatus(ctx echo.Context, id string) error {
	notFound := ErrorResponse{Success: false, Error: "Delivery not found"}

	deliveryID, err := kernel.UUIDFromString(id)
	if err != nil {
		return ctx.JSON(http.StatusNotFound, notFound)
	}

	query, err := queries.NewGetDeliveryStatusQuery(deliveryID)
	if err != nil {
		return ctx.JSON(http.StatusNotFound, notFound)
	}

	resp, err := s.getDeliveryStatusHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return ctx.JSON(http.StatusNotFound, notFound)
		}

		s.logger.Error("failed to read delivery status", "deliveryId", id, "error", err)
		return ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Success: false,
			Error:   "Internal server error",
		})
	}

	return ctx.JSON(http.StatusOK, DeliveryStatusResponse{
		Success: true,
		Data: DeliveryStatus{
			ID:                resp.ID.Bytes(),
			Status:            resp.Status.String(),
			StatusDescription: resp.StatusDescription,
			OrderID:           resp.OrderID,
			Provider:          resp.Provider.String(),
			TrackingID:        resp.TrackingID,
			LabelURL:          resp.LabelURL,
			EstimatedDelivery: resp.EstimatedDelivery,
			CreatedAt:         resp.CreatedAt,
			UpdatedAt:         resp.UpdatedAt,
		},
	})
}

// ReceiveProviderWebhook handles POST /webhook/{provider}.
func (s *Server) ReceiveProviderWebhook(ctx echo.Context, providerName string) error {
	provider, err := delivery.ParseProvider(providerName)
	if err != nil || !s.acceptsWebhooks(provider) {
		return s.webhookReply(ctx, "unknown", http.StatusNotFound, WebhookError{
			Error:    "Unknown provider",
			Provider: providerName,
		})
	}

	var req WebhookRequest
	if err = ctx.Bind(&req); err != nil {
		return s.webhookReply(ctx, provider.String(), http.StatusBadRequest, WebhookError{
			Error: "Invalid request body",
		})
	}

	if req.TrackingID == nil || *req.TrackingID == "" || req.Status == nil || *req.Status == "" {
		return s.webhookReply(ctx, provider.String(), http.StatusBadRequest, WebhookError{
			Error:    "Missing required fields",
			Required: []string{"trackingId", "status"},
		})
	}

	// Carriers must send the exact wire name.
	status, err := delivery.ParseStatus(*req.Status)
	if err != nil || status.String() != *req.Status {
		return s.webhookReply(ctx, provider.String(), http.StatusBadRequest, WebhookError{
			Error:         "Invalid status",
			ValidStatuses: delivery.StatusNames(),
		})
	}

	cmd, err := commands.NewApplyTrackingUpdateCommand(provider, *req.TrackingID, status)
	if err != nil {
		return s.webhookReply(ctx, provider.String(), http.StatusBadRequest, WebhookError{
			Error:    "Missing required fields",
			Required: []string{"trackingId", "status"},
		})
	}

	change, err := s.applyTrackingUpdateHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.webhookFailure(ctx, provider, cmd, err)
	}

	if !change.Changed {
		s.logger.Info("status unchanged", "provider", provider.String(), "trackingId", cmd.TrackingID(), "status", change.Current.String())
		return s.webhookReply(ctx, provider.String(), http.StatusOK, WebhookResponse{
			Success:       true,
			Message:       "Status unchanged",
			CurrentStatus: change.Current.String(),
		})
	}

	s.metrics.ObserveTransition(provider.String(), "webhook", change.Current.String())
	s.logger.Info("status updated",
		"provider", provider.String(),
		"trackingId", cmd.TrackingID(),
		"deliveryId", change.DeliveryID.String(),
		"from", change.Previous.String(),
		"to", change.Current.String(),
	)

	deliveryID := change.DeliveryID.Bytes()
	updatedAt := change.UpdatedAt
	return s.webhookReply(ctx, provider.String(), http.StatusOK, WebhookResponse{
		Success:        true,
		DeliveryID:     &deliveryID,
		PreviousStatus: change.Previous.String(),
		NewStatus:      change.Current.String(),
		UpdatedAt:      &updatedAt,
	})
}

// acceptsWebhooks reports whether provider pushes its status. Polled
// carriers are only updated by reconciliation.
func (s *Server) acceptsWebhooks(provider delivery.Provider) bool {
	carrier, err := s.gateway.Provider(provider)
	if err != nil {
		return false
	}
	_, polls := carrier.StatusPoller()
	return !polls
}

func (s *Server) webhookFailure(ctx echo.Context, provider delivery.Provider, cmd commands.ApplyTrackingUpdateCommand, err error) error {
	var transitionErr *delivery.InvalidTransitionError

	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		s.logger.Warn("delivery not found for tracking id", "provider", provider.String(), "trackingId", cmd.TrackingID())
		return s.webhookReply(ctx, provider.String(), http.StatusNotFound, WebhookError{
			Error:      "Delivery not found",
			TrackingID: cmd.TrackingID(),
		})
	case errors.As(err, &transitionErr):
		s.logger.Warn("rejected status transition",
			"provider", provider.String(),
			"trackingId", cmd.TrackingID(),
			"from", transitionErr.Current.String(),
			"to", transitionErr.Attempted.String(),
		)
		return s.webhookReply(ctx, provider.String(), http.StatusBadRequest, WebhookError{
			Error:           "Invalid status transition",
			CurrentStatus:   transitionErr.Current.String(),
			AttemptedStatus: transitionErr.Attempted.String(),
		})
	case errors.Is(err, ports.ErrStatusConflict):
		s.logger.Warn("status changed concurrently", "provider", provider.String(), "trackingId", cmd.TrackingID())
		return s.webhookReply(ctx, provider.String(), http.StatusConflict, WebhookError{
			Error:      "Status changed concurrently",
			TrackingID: cmd.TrackingID(),
		})
	default:
		s.logger.Error("webhook processing failed", "provider", provider.String(), "trackingId", cmd.TrackingID(), "error", err)
		return s.webhookReply(ctx, provider.String(), http.StatusInternalServerError, WebhookError{
			Error: "Internal server error processing webhook",
		})
	}
}

func (s *Server) webhookReply(ctx echo.Context, provider string, code int, body any) error {
	s.metrics.ObserveWebhook(provider, code)
	return ctx.JSON(code, body)
}

// Health handles GET /health.
func (s *Server) Health(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Healthy")
}

func (s *Server) generateOrderID() string {
	return fmt.Sprintf("order_%d_%d", s.clock().UnixMilli(), s.intN(1000))
}
