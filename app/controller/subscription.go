package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/givebridge/ms-go-donations/app/factory"
	"github.com/givebridge/ms-go-donations/app/gateway"
	"github.com/givebridge/ms-go-donations/app/mapper"
	"github.com/givebridge/ms-go-donations/app/service"
	"github.com/givebridge/ms-go-donations/app/types"
)

type SubscriptionController struct {
	subscriptionService *service.SubscriptionService
	logger              logrus.FieldLogger
}

func NewSubscriptionController(subscriptionService *service.SubscriptionService) *SubscriptionController {
	return &SubscriptionController{
		subscriptionService: subscriptionService,
		logger:              factory.NewModuleLogger("subscriptions-controller"),
	}
}

func (c *SubscriptionController) CreateSubscription(ctx echo.Context) error {
	req, err := types.NewCreateSubscriptionRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	result, err := c.subscriptionService.CreateSubscription(ctx.Request().Context(), req)
	if err != nil {
		var declinedErr *gateway.DeclinedError
		var transportErr *gateway.TransportError
		var decodeErr *gateway.DecodeError

		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrDonationAlreadyExists):
			return c.writeError(ctx, http.StatusConflict, err.Error())
		case errors.As(err, &declinedErr):
			return c.writeError(ctx, http.StatusPaymentRequired, declinedErr.Message)
		case errors.As(err, &transportErr), errors.As(err, &decodeErr):
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Create subscription failed")
			return c.writeError(ctx, http.StatusBadGateway, "payment gateway unavailable, please try again")
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Create subscription failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	resp := &types.SubscriptionEnvelopeResponse{}
	if result.Subscription != nil {
		resp.Subscription = mapper.SubscriptionToResponse(result.Subscription)
	}
	if result.Donation != nil {
		resp.Donation = mapper.DonationToResponse(result.Donation)
	}
	return ctx.JSON(http.StatusCreated, resp)
}

func (c *SubscriptionController) GetSubscription(ctx echo.Context) error {
	req, err := types.NewCancelSubscriptionRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.subscriptionService.GetSubscription(ctx.Request().Context(), req.ID)
	if err != nil {
		if errors.Is(err, service.ErrSubscriptionNotFound) {
			return c.writeError(ctx, http.StatusNotFound, "subscription not found")
		}
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Get subscription failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.SubscriptionEnvelopeResponse{Subscription: mapper.SubscriptionToResponse(item)})
}

func (c *SubscriptionController) CancelSubscription(ctx echo.Context) error {
	req, err := types.NewCancelSubscriptionRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.subscriptionService.CancelSubscription(ctx.Request().Context(), req)
	if err != nil {
		var transportErr *gateway.TransportError

		switch {
		case errors.Is(err, service.ErrSubscriptionNotFound):
			return c.writeError(ctx, http.StatusNotFound, "subscription not found")
		case errors.Is(err, service.ErrInvalidStatus):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		case errors.As(err, &transportErr):
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Cancel subscription failed")
			return c.writeError(ctx, http.StatusBadGateway, err.Error())
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Cancel subscription failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusOK, &types.SubscriptionEnvelopeResponse{Subscription: mapper.SubscriptionToResponse(item)})
}

func (c *SubscriptionController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
