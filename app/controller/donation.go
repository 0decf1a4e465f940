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

type DonationController struct {
	donationService *service.DonationService
	logger          logrus.FieldLogger
}

func NewDonationController(donationService *service.DonationService) *DonationController {
	return &DonationController{
		donationService: donationService,
		logger:          factory.NewModuleLogger("donations-controller"),
	}
}

func (c *DonationController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok"})
}

func (c *DonationController) CreateDonation(ctx echo.Context) error {
	req, err := types.NewCreateDonationRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.donationService.CreateDonation(ctx.Request().Context(), req)
	if err != nil {
		return c.writeGatewayError(ctx, err, "Create donation failed")
	}

	return ctx.JSON(http.StatusCreated, &types.DonationEnvelopeResponse{Donation: mapper.DonationToResponse(item)})
}

func (c *DonationController) GetDonation(ctx echo.Context) error {
	req, err := types.NewGetDonationRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.donationService.GetDonation(ctx.Request().Context(), req.ID)
	if err != nil {
		if errors.Is(err, service.ErrDonationNotFound) {
			return c.writeError(ctx, http.StatusNotFound, "donation not found")
		}
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Get donation failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.DonationEnvelopeResponse{Donation: mapper.DonationToResponse(item)})
}

func (c *DonationController) ListDonations(ctx echo.Context) error {
	req, err := types.NewListDonationsRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	items, err := c.donationService.ListDonations(ctx.Request().Context(), req)
	if err != nil {
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("List donations failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.ListDonationsResponse{Donations: mapper.DonationsToResponse(items)})
}

func (c *DonationController) ListDonationNotes(ctx echo.Context) error {
	req, err := types.NewGetDonationRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	notes, err := c.donationService.ListDonationNotes(ctx.Request().Context(), req.ID)
	if err != nil {
		if errors.Is(err, service.ErrDonationNotFound) {
			return c.writeError(ctx, http.StatusNotFound, "donation not found")
		}
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("List donation notes failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.ListDonationNotesResponse{Notes: mapper.DonationNotesToResponse(notes)})
}

func (c *DonationController) RefundDonation(ctx echo.Context) error {
	req, err := types.NewRefundDonationRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.donationService.RefundDonation(ctx.Request().Context(), req)
	if err != nil {
		var reconciliationErr *gateway.ReconciliationError
		switch {
		case errors.Is(err, service.ErrDonationNotFound):
			return c.writeError(ctx, http.StatusNotFound, "donation not found")
		case errors.Is(err, service.ErrInvalidStatus):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		case errors.As(err, &reconciliationErr):
			return c.writeError(ctx, http.StatusConflict, err.Error())
		default:
			return c.writeGatewayError(ctx, err, "Refund donation failed")
		}
	}

	return ctx.JSON(http.StatusOK, &types.DonationEnvelopeResponse{Donation: mapper.DonationToResponse(item)})
}

func (c *DonationController) HandleWebhook(ctx echo.Context) error {
	req, err := types.NewWebhookRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	if err := c.donationService.HandleWebhook(ctx.Request().Context(), req); err != nil {
		switch {
		case errors.Is(err, service.ErrWebhookRejected):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrDonationNotFound):
			return c.writeError(ctx, http.StatusNotFound, "donation not found")
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Handle webhook failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusOK, &types.MessageResponse{Message: "Webhook processed"})
}

// writeGatewayError separates the failure tiers the gateway reports: a
// vendor decline is the donor's problem (402), a transport or decode
// failure is the vendor's (502).
func (c *DonationController) writeGatewayError(ctx echo.Context, err error, logMessage string) error {
	var declinedErr *gateway.DeclinedError
	var transportErr *gateway.TransportError
	var decodeErr *gateway.DecodeError

	switch {
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, service.ErrInvalidStatus):
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrDonationAlreadyExists):
		return c.writeError(ctx, http.StatusConflict, err.Error())
	case errors.As(err, &declinedErr):
		return c.writeError(ctx, http.StatusPaymentRequired, declinedErr.Message)
	case errors.As(err, &transportErr), errors.As(err, &decodeErr):
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error(logMessage)
		return c.writeError(ctx, http.StatusBadGateway, "payment gateway unavailable, please try again")
	default:
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error(logMessage)
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}
}

func (c *DonationController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
