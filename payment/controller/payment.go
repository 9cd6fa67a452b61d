package controller

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal"
	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/payment/processor"
	"github.com/Alturino/storefront/payment/service"
	"github.com/Alturino/storefront/payment/pkg/request"
)

type PaymentController struct {
	service   *service.PaymentService
	processor processor.Processor
}

// AttachPaymentController registers the intent route on the
// authenticated router and the webhook route on the public one. The
// webhook caller is the processor, not a user; its only credential is
// the payload signature.
func AttachPaymentController(
	authed *mux.Router,
	public *mux.Router,
	service *service.PaymentService,
	proc processor.Processor,
) {
	controller := PaymentController{service: service, processor: proc}

	authed.HandleFunc("/orders/create-payment-intent", controller.CreateIntent).
		Methods(http.MethodPost)
	public.HandleFunc("/orders/stripe-webhook", controller.StripeWebhook).
		Methods(http.MethodPost)
}

func (t PaymentController) CreateIntent(w http.ResponseWriter, r *http.Request) {
	c, span := inOtel.Tracer.Start(r.Context(), "PaymentController CreateIntent")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "PaymentController CreateIntent").
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "decoding request body").Logger()
	logger.Info().Msg("decoding request body")
	reqBody := request.CreatePaymentIntent{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("%w: failed decoding request body with error=%w", inErrors.ErrValidation, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("decoded request body")

	logger = logger.With().Str(constants.KEY_PROCESS, "validating request body").Logger()
	logger.Info().Msg("validating request body")
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("%w: failed validating request body with error=%w", inErrors.ErrValidation, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("validated request body")

	logger = logger.With().Str(constants.KEY_PROCESS, "getting userId from jwtToken").Logger()
	logger.Info().Msg("getting userId from jwtToken")
	userId, err := internal.UserIdFromJwtToken(c)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Str(constants.KEY_USER_ID, userId.String()).Logger()
	logger.Info().Msg("got userId from jwtToken")

	logger = logger.With().
		Str(constants.KEY_PROCESS, "creating payment intent").
		Str(constants.KEY_ORDER_ID, reqBody.OrderId.String()).
		Logger()
	logger.Info().Msg("creating payment intent")
	c = logger.WithContext(c)
	intent, err := t.service.CreateIntent(c, userId, reqBody)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Str(constants.KEY_PAYMENT_ID, intent.PaymentId.String()).Msg("created payment intent")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusCreated,
		"message":    "payment intent created",
		"data":       intent,
	})
}

// StripeWebhook authenticates the raw payload before anything else. An
// authenticated event is always acknowledged with 200, including
// internal no-ops, so the processor's retry loop stays quiet; only
// signature or payload rejection answers non-200.
func (t PaymentController) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	c, span := inOtel.Tracer.Start(r.Context(), "PaymentController StripeWebhook")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "PaymentController StripeWebhook").
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "reading payload").Logger()
	logger.Info().Msg("reading payload")
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		err = fmt.Errorf("%w: failed reading payload with error=%w", inErrors.ErrValidation, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("read payload")

	logger = logger.With().Str(constants.KEY_PROCESS, "verifying payload").Logger()
	logger.Info().Msg("verifying payload")
	event, err := t.processor.VerifyEvent(payload, r.Header.Get(inHttp.HeaderStripeSignature))
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().
		Str(constants.KEY_EVENT_TYPE, event.Type).
		Str(constants.KEY_INTENT_ID, event.IntentID).
		Logger()
	logger.Info().Msg("verified payload")

	logger = logger.With().Str(constants.KEY_PROCESS, "handling event").Logger()
	logger.Info().Msg("handling event")
	c = logger.WithContext(c)
	if err := t.service.HandleEvent(c, event); err != nil {
		// The payload authenticated, so the delivery is acknowledged
		// regardless; the failure is kept server-side for diagnosis.
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
	} else {
		logger.Info().Msg("handled event")
	}

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "event received",
	})
}
