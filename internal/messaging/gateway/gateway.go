// Package gateway is the single entry point for outbound messages and
// inbound delivery callbacks. It picks one provider at construction and keeps
// it for its lifetime.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"outreach/internal/citizen/models"
	"outreach/internal/messaging/metrics"
	"outreach/internal/messaging/providers"
	"outreach/internal/messaging/providers/cloudapi"
	"outreach/internal/messaging/providers/twilio"
	"outreach/internal/messaging/webhook"
	"outreach/pkg/delivery"
	"outreach/pkg/phone"
)

// Mode selects whether messages leave the process.
type Mode string

const (
	ModeLive      Mode = "live"
	ModeSimulated Mode = "simulated"
)

// DefaultMessage is the outreach text when none is configured. {name} and
// {link} are substituted per citizen.
const DefaultMessage = "Olá {name}! A prefeitura quer ouvir você. Responda nossa pesquisa: {link}"

const tracerName = "outreach/internal/messaging/gateway"

// simulatedNamespace seeds the deterministic ids of simulated sends.
var simulatedNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("outreach/messaging/simulated"))

// Config selects and configures the provider.
type Config struct {
	Provider      string // "cloudapi" or "twilio"
	Mode          Mode
	WebhookSecret string
	CountryCode   string
	SurveyBaseURL string
	Message       string
	Template      providers.TemplateConfig
	CloudAPI      cloudapi.Config
	Twilio        twilio.Config
}

// Gateway sends outreach and verifies inbound callbacks. Safe for concurrent use.
type Gateway struct {
	provider      providers.Provider
	mode          Mode
	secret        string
	normalizer    phone.Normalizer
	surveyBaseURL string
	message       string
	templated     bool
	logger        *slog.Logger
	metrics       *metrics.Metrics
	tracer        trace.Tracer
	now           func() time.Time
}

// Option configures a Gateway.
type Option func(*Gateway)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(g *Gateway) {
		g.tracer = t
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		g.now = now
	}
}

// WithProvider bypasses provider resolution. Credentials are still validated
// in live mode.
func WithProvider(p providers.Provider) Option {
	return func(g *Gateway) {
		g.provider = p
	}
}

// Registry returns the closed set of provider variants built from cfg.
func Registry(cfg Config) *providers.Registry {
	r := providers.NewRegistry()
	_ = r.Register(cloudapi.Label, func() (providers.Provider, error) {
		c := cfg.CloudAPI
		c.Template = cfg.Template
		return cloudapi.New(c), nil
	})
	_ = r.Register(twilio.Label, func() (providers.Provider, error) {
		c := cfg.Twilio
		c.Template = cfg.Template
		return twilio.New(c), nil
	})
	return r
}

// New validates cfg and resolves the active provider. Live mode fails fast
// with *ConfigurationError when the provider lacks credentials.
func New(cfg Config, opts ...Option) (*Gateway, error) {
	if cfg.Mode == "" {
		cfg.Mode = ModeSimulated
	}
	if cfg.Mode != ModeLive && cfg.Mode != ModeSimulated {
		return nil, &ConfigurationError{Provider: cfg.Provider, Reason: "unknown mode " + string(cfg.Mode)}
	}
	if cfg.Message == "" {
		cfg.Message = DefaultMessage
	}

	g := &Gateway{
		mode:          cfg.Mode,
		secret:        cfg.WebhookSecret,
		normalizer:    phone.New(cfg.CountryCode),
		surveyBaseURL: cfg.SurveyBaseURL,
		message:       cfg.Message,
		templated:     cfg.Template.Name != "",
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.tracer == nil {
		g.tracer = otel.Tracer(tracerName)
	}

	if g.provider == nil {
		p, err := Registry(cfg).Build(cfg.Provider)
		if err != nil {
			return nil, &ConfigurationError{Provider: cfg.Provider, Reason: err.Error()}
		}
		g.provider = p
	}

	// Live callbacks cannot be verified without the webhook secret.
	if g.mode == ModeLive {
		missing := providers.MissingCredentials(g.provider)
		if g.secret == "" {
			missing = append(missing, WebhookSecretEnv)
		}
		if len(missing) > 0 {
			return nil, &ConfigurationError{Provider: g.provider.Label(), Missing: missing}
		}
	}

	g.logger.Info("messaging gateway initialized",
		"provider", g.provider.Label(),
		"mode", string(g.mode),
		"templated", g.templated,
	)
	return g, nil
}

func (g *Gateway) Provider() string { return g.provider.Label() }

func (g *Gateway) Mode() Mode { return g.mode }

// SignatureHeader is the header the active provider signs callbacks with.
func (g *Gateway) SignatureHeader() string {
	return g.provider.SignatureHeader()
}

// NormalizePhone exposes the configured normalizer.
func (g *Gateway) NormalizePhone(raw string) string {
	return g.normalizer.Normalize(raw)
}

// TargetLink is the survey link sent to a citizen.
func (g *Gateway) TargetLink(citizenID string) string {
	base := g.surveyBaseURL
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + providers.DefaultLinkParam + "=" + url.QueryEscape(citizenID)
}

// SendOutreach sends the outreach message to c. On success the send is
// recorded on c; on failure c is untouched and provider errors are returned
// unchanged.
func (g *Gateway) SendOutreach(ctx context.Context, c *models.Citizen) (*providers.SendResult, error) {
	ctx, span := g.tracer.Start(ctx, "gateway.SendOutreach", trace.WithAttributes(
		attribute.String("citizen.id", c.ID),
		attribute.String("messaging.provider", g.provider.Label()),
		attribute.String("messaging.mode", string(g.mode)),
	))
	defer span.End()

	number := g.normalizer.Normalize(c.Contact.Handle())
	if number == "" {
		number = g.normalizer.Normalize(c.Contact.Phone)
	}
	if number == "" {
		g.metrics.IncrementSend(g.provider.Label(), string(g.mode), "no_channel")
		span.SetStatus(codes.Error, ErrNoChannel.Error())
		return nil, ErrNoChannel
	}

	link := g.TargetLink(c.ID)

	var result *providers.SendResult
	if g.mode == ModeSimulated {
		result = g.simulate(c.ID, number)
	} else {
		var err error
		result, err = g.send(ctx, c, number, link)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			g.metrics.IncrementSend(g.provider.Label(), string(g.mode), outcome(err))
			g.logger.ErrorContext(ctx, "outreach send failed",
				"citizen_id", c.ID,
				"provider", g.provider.Label(),
				"error", err,
			)
			return nil, err
		}
	}

	c.RecordSend(g.now(), result.MessageID, result.Provider, result.Status)

	span.SetAttributes(attribute.String("messaging.message_id", result.MessageID))
	g.metrics.IncrementSend(result.Provider, string(g.mode), "sent")
	g.logger.InfoContext(ctx, "outreach sent",
		"citizen_id", c.ID,
		"provider", result.Provider,
		"message_id", result.MessageID,
		"mode", string(g.mode),
	)
	return result, nil
}

func (g *Gateway) send(ctx context.Context, c *models.Citizen, number, link string) (*providers.SendResult, error) {
	var tmpl *providers.Template
	body := ""
	if g.templated {
		tmpl = g.provider.BuildTemplate(c.Personal.Name, link)
	} else {
		body = g.renderMessage(c.Personal.Name, link)
	}

	start := time.Now()
	result, err := g.provider.Send(ctx, number, body, tmpl)
	g.metrics.ObserveSendLatency(g.provider.Label(), time.Since(start))
	if err != nil {
		return nil, err
	}
	if result.Provider == "" {
		result.Provider = g.provider.Label()
	}
	if result.Status == "" {
		result.Status = delivery.StatusSent
	}
	return result, nil
}

// simulate derives a stable id from the citizen and number so repeated runs
// produce the same result without any network call.
func (g *Gateway) simulate(citizenID, number string) *providers.SendResult {
	id := uuid.NewSHA1(simulatedNamespace, []byte(citizenID+"|"+number))
	return &providers.SendResult{
		Success:   true,
		MessageID: "sim-" + id.String(),
		Provider:  g.provider.Label(),
		Status:    delivery.StatusSent,
	}
}

func (g *Gateway) renderMessage(name, link string) string {
	return strings.NewReplacer("{name}", name, "{link}", link).Replace(g.message)
}

// ProcessInboundStatus verifies and parses a status callback. Nothing is
// parsed when the signature fails. A payload without statuses yields an empty
// slice.
func (g *Gateway) ProcessInboundStatus(ctx context.Context, body []byte, signature string) ([]providers.DeliveryStatusEvent, error) {
	_, span := g.tracer.Start(ctx, "gateway.ProcessInboundStatus", trace.WithAttributes(
		attribute.String("messaging.provider", g.provider.Label()),
		attribute.Int("http.request.body.size", len(body)),
	))
	defer span.End()

	if !webhook.Verify(body, signature, g.secret) {
		g.metrics.IncrementWebhook("unauthorized")
		span.SetStatus(codes.Error, ErrUnauthorizedWebhook.Error())
		g.logger.WarnContext(ctx, "webhook signature rejected", "provider", g.provider.Label())
		return nil, ErrUnauthorizedWebhook
	}

	events, err := g.provider.ParseStatusCallback(body)
	if err != nil {
		g.metrics.IncrementWebhook("malformed")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if events == nil {
		events = []providers.DeliveryStatusEvent{}
	}

	g.metrics.IncrementWebhook("accepted")
	for _, e := range events {
		g.metrics.IncrementStatusEvent(g.provider.Label(), e.Status.String(), e.Status.Known())
	}
	span.SetAttributes(attribute.Int("messaging.status_events", len(events)))
	return events, nil
}

func outcome(err error) string {
	var pe *providers.ProviderError
	if errors.As(err, &pe) {
		return string(pe.Category)
	}
	return "error"
}
