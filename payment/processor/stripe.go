package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inOtel "github.com/Alturino/storefront/internal/otel"
)

type StripeProcessor struct {
	client    *http.Client
	baseUrl   string
	secretKey string
	verifier  signatureVerifier
}

func NewStripeProcessor(cfg config.Stripe) *StripeProcessor {
	return &StripeProcessor{
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   time.Duration(cfg.TimeoutSecond) * time.Second,
		},
		baseUrl:   strings.TrimRight(cfg.BaseUrl, "/"),
		secretKey: cfg.SecretKey,
		verifier: signatureVerifier{
			secret:    cfg.WebhookSecret,
			tolerance: time.Duration(cfg.ToleranceSecond) * time.Second,
			now:       time.Now,
		},
	}
}

type stripeIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *StripeProcessor) CreateIntent(
	c context.Context,
	amount int64,
	currency string,
	metadata map[string]string,
) (Intent, error) {
	c, span := inOtel.Tracer.Start(c, "StripeProcessor CreateIntent")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "StripeProcessor CreateIntent").
		Int64(constants.KEY_AMOUNT, amount).
		Logger()

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", currency)
	for k, v := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	req, err := http.NewRequestWithContext(
		c,
		http.MethodPost,
		p.baseUrl+"/v1/payment_intents",
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		err = fmt.Errorf("failed creating payment intent request with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Intent{}, err
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	logger = logger.With().Str(constants.KEY_PROCESS, "calling payment processor").Logger()
	logger.Info().Msg("calling payment processor")
	resp, err := p.client.Do(req)
	if err != nil {
		err = fmt.Errorf(
			"%w: failed calling payment processor with error=%w",
			inErrors.ErrExternalService,
			err,
		)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Intent{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf(
			"%w: failed reading payment processor response with error=%w",
			inErrors.ErrExternalService,
			err,
		)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Intent{}, err
	}
	logger.Info().Int("statusCode", resp.StatusCode).Msg("called payment processor")

	if resp.StatusCode >= http.StatusBadRequest {
		stripeErr := stripeError{}
		if err := json.Unmarshal(body, &stripeErr); err != nil {
			err = fmt.Errorf(
				"%w: processor returned status=%d with undecodable body",
				inErrors.ErrExternalService,
				resp.StatusCode,
			)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return Intent{}, err
		}
		// 402 and request-shaped errors are a definitive decline; the
		// rest of 4xx/5xx means the processor itself misbehaved.
		if resp.StatusCode == http.StatusPaymentRequired ||
			stripeErr.Error.Type == "card_error" ||
			stripeErr.Error.Type == "invalid_request_error" {
			err = fmt.Errorf(
				"%w: type=%s code=%s message=%s",
				inErrors.ErrIntentRejected,
				stripeErr.Error.Type,
				stripeErr.Error.Code,
				stripeErr.Error.Message,
			)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return Intent{}, err
		}
		err = fmt.Errorf(
			"%w: status=%d type=%s message=%s",
			inErrors.ErrExternalService,
			resp.StatusCode,
			stripeErr.Error.Type,
			stripeErr.Error.Message,
		)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Intent{}, err
	}

	intent := stripeIntent{}
	if err := json.Unmarshal(body, &intent); err != nil {
		err = fmt.Errorf(
			"%w: failed decoding payment intent with error=%w",
			inErrors.ErrExternalService,
			err,
		)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Intent{}, err
	}
	if intent.ID == "" || intent.ClientSecret == "" {
		err = fmt.Errorf("%w: payment intent response missing id", inErrors.ErrExternalService)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Intent{}, err
	}
	logger.Info().Str(constants.KEY_INTENT_ID, intent.ID).Msg("created payment intent")

	return Intent{ID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string            `json:"id"`
			Metadata map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// VerifyEvent authenticates payload before decoding it. An invalid
// signature never reveals whether the body would have parsed.
func (p *StripeProcessor) VerifyEvent(payload []byte, signatureHeader string) (Event, error) {
	if err := p.verifier.verify(payload, signatureHeader); err != nil {
		return Event{}, err
	}

	event := stripeEvent{}
	if err := json.Unmarshal(payload, &event); err != nil {
		return Event{}, fmt.Errorf(
			"%w: failed decoding webhook event with error=%w",
			inErrors.ErrValidation,
			err,
		)
	}
	metadata := event.Data.Object.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	return Event{
		ID:       event.ID,
		Type:     event.Type,
		IntentID: event.Data.Object.ID,
		Metadata: metadata,
	}, nil
}
