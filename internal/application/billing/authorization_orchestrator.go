package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jhoicas/facturacion-arg/internal/application/dto"
	"github.com/jhoicas/facturacion-arg/internal/domain"
	"github.com/jhoicas/facturacion-arg/internal/domain/entity"
	"github.com/jhoicas/facturacion-arg/internal/domain/fiscal"
)

// AuthorizationConfig reintentos, throttling y timeout del orquestador.
type AuthorizationConfig struct {
	MaxRetries        int           // reintentos ante fallas de transporte (además del primer intento)
	RetryBackoff      time.Duration // espera lineal: backoff * intento
	RequestsPerSecond float64       // <= 0 sin límite
	Timeout           time.Duration // timeout de ProcessAsync
}

// AuthorizationOrchestrator solicita el CAE a AFIP y consume el resultado terminal:
//
//	lectura → AuthorizationPort (con reintentos y rate limit) → tx: authorized/rejected (+ approved → issued)
//
// La llamada a AFIP ocurre fuera de la transacción; el comprobante solo se bloquea para
// registrar el resultado.
type AuthorizationOrchestrator struct {
	txRunner FiscalTxRunner
	repos    FiscalRepos
	port     AuthorizationPort
	events   EventPublisher
	limiter  *rate.Limiter
	cfg      AuthorizationConfig
	log      zerolog.Logger
	now      func() time.Time
}

// NewAuthorizationOrchestrator construye el orquestador.
func NewAuthorizationOrchestrator(
	txRunner FiscalTxRunner,
	repos FiscalRepos,
	port AuthorizationPort,
	events EventPublisher,
	cfg AuthorizationConfig,
	log zerolog.Logger,
) *AuthorizationOrchestrator {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &AuthorizationOrchestrator{
		txRunner: txRunner,
		repos:    repos,
		port:     port,
		events:   publisherOrNoop(events),
		limiter:  rate.NewLimiter(limit, 1),
		cfg:      cfg,
		log:      log.With().Str("component", "afip-orchestrator").Logger(),
		now:      time.Now,
	}
}

// ProcessAsync dispara la autorización en una goroutine con su propio contexto y timeout,
// desacoplada del ciclo HTTP.
func (o *AuthorizationOrchestrator) ProcessAsync(documentID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), o.cfg.Timeout)
		defer cancel()
		if _, err := o.authorize(ctx, "", documentID); err != nil {
			o.log.Error().Err(err).Str("document_id", documentID).Msg("autorización asíncrona fallida")
		}
	}()
}

// RequestAuthorization versión síncrona. companyID vacío omite el control de empresa (CLI).
// El rechazo de AFIP no es un error: queda en authorization_status=rejected.
func (o *AuthorizationOrchestrator) RequestAuthorization(ctx context.Context, companyID, documentID string) (*dto.AuthorizationResponse, error) {
	doc, err := o.authorize(ctx, companyID, documentID)
	if err != nil {
		return nil, err
	}
	return toAuthorizationResponse(doc), nil
}

func (o *AuthorizationOrchestrator) authorize(ctx context.Context, companyID, documentID string) (*entity.FiscalDocument, error) {
	// 0. Datos frescos, fuera de la transacción.
	doc, err := o.repos.Documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil || (companyID != "" && doc.IssuerCompanyID != companyID) {
		return nil, domain.ErrNotFound
	}
	if err := checkAuthorizable(doc); err != nil {
		return nil, err
	}
	req := AuthorizationRequest{Document: doc}
	if req.Items, err = o.repos.Documents.ListItems(ctx, doc.ID); err != nil {
		return nil, err
	}
	if req.Perceptions, err = o.repos.Documents.ListPerceptions(ctx, doc.ID); err != nil {
		return nil, err
	}
	if doc.RelatedDocumentID != "" {
		if req.Related, err = o.repos.Documents.GetByID(ctx, doc.RelatedDocumentID); err != nil {
			return nil, err
		}
	}

	// 1. AFIP con reintentos ante fallas de transporte.
	result, callErr := o.callWithRetry(ctx, req)

	// 2. Resultado terminal. Se persiste aunque ctx haya expirado.
	persistCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		persistCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
	}
	now := o.now()
	var updated *entity.FiscalDocument
	var authorized bool
	err = o.txRunner.RunFiscal(persistCtx, func(repos FiscalRepos) error {
		d, err := repos.Documents.GetForUpdate(persistCtx, documentID)
		if err != nil {
			return err
		}
		if d == nil {
			return domain.ErrNotFound
		}
		// Otro proceso pudo haber registrado el resultado mientras se esperaba a AFIP.
		if err := checkAuthorizable(d); err != nil {
			o.log.Warn().Str("document_id", d.ID).Str("authorization_status", string(d.AuthorizationStatus)).
				Msg("resultado de AFIP descartado: el comprobante ya no está pendiente")
			updated = d
			return nil
		}

		if callErr == nil && result.Approved() {
			// Un CAE vacío o vencido se registra como rechazo.
			if err := o.applySuccess(d, result, now); err != nil {
				o.applyFailure(d, err.Error(), now)
			} else {
				authorized = true
			}
		} else {
			o.applyFailure(d, failureMessage(result, callErr), now)
		}

		if err := repos.Documents.Update(persistCtx, d); err != nil {
			return fmt.Errorf("persistir autorización: %w", err)
		}
		if _, err := propagateStatusToNotes(persistCtx, repos, d, now); err != nil {
			return err
		}
		updated = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	if authorized {
		o.log.Info().Str("document_id", updated.ID).Str("cae", updated.AuthorizationCode).
			Str("business_status", string(updated.BusinessStatus)).Msg("CAE otorgado")
		ev := documentEvent(entity.EventDocumentAuthorized, updated, now)
		ev.Attributes["authorization_code"] = updated.AuthorizationCode
		o.events.Publish(ctx, ev)
	} else if updated.AuthorizationError != "" {
		o.log.Warn().Str("document_id", updated.ID).Str("error", updated.AuthorizationError).Msg("autorización rechazada")
	}
	return updated, nil
}

func (o *AuthorizationOrchestrator) applySuccess(d *entity.FiscalDocument, res *AuthorizationResult, now time.Time) error {
	if d.Type.IsNote() {
		return fiscal.RecordNoteAuthorization(d, res.Code, res.Expiry, now)
	}
	if err := fiscal.ApplyAuthorizationSuccess(d, res.Code, res.Expiry, now); err != nil {
		return err
	}
	if d.BusinessStatus == entity.StatusApproved {
		return fiscal.Transition(d, entity.StatusIssued, now)
	}
	return nil
}

func (o *AuthorizationOrchestrator) applyFailure(d *entity.FiscalDocument, msg string, now time.Time) {
	if d.Type.IsNote() {
		// La nota conserva los estados del original; el rechazo queda para revisión manual.
		d.AuthorizationError = msg
		d.NeedsReview = true
		d.UpdatedAt = now
		return
	}
	// checkAuthorizable garantiza draft, así que draft -> rejected siempre es válido.
	_ = fiscal.ApplyAuthorizationFailure(d, msg, now)
}

func (o *AuthorizationOrchestrator) callWithRetry(ctx context.Context, req AuthorizationRequest) (*AuthorizationResult, error) {
	var lastErr error
	for attempt := 0; attempt <= o.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := o.cfg.RetryBackoff * time.Duration(attempt)
			o.log.Debug().Str("document_id", req.Document.ID).Int("attempt", attempt).Dur("wait", wait).Msg("reintentando AFIP")
			select {
			case <-ctx.Done():
				return nil, errors.Join(lastErr, ctx.Err())
			case <-time.After(wait):
			}
		}
		if err := o.limiter.Wait(ctx); err != nil {
			return nil, errors.Join(lastErr, err)
		}
		res, err := o.port.RequestAuthorization(ctx, req)
		if err == nil && res != nil {
			return res, nil
		}
		if err == nil {
			err = errors.New("respuesta vacía de AFIP")
		}
		lastErr = err
		o.log.Warn().Err(err).Str("document_id", req.Document.ID).Int("attempt", attempt+1).Msg("falla de transporte con AFIP")
	}
	return nil, lastErr
}

// checkAuthorizable un comprobante propio pide CAE en approved+draft; una NC/ND mientras no tenga CAE propio.
func checkAuthorizable(doc *entity.FiscalDocument) error {
	if !doc.Type.SupportsExternalAuthorization() || doc.Direction == entity.DirectionReceived {
		return domain.NewValidationError("type", string(doc.Type), "el comprobante no se autoriza ante AFIP", domain.ErrInvalidTransition)
	}
	if doc.Type.IsNote() {
		if doc.AuthorizationCode != "" || doc.AuthorizationStatus == entity.AuthStatusManual {
			return &domain.TransitionError{Axis: fiscal.AxisAuthorization, From: string(doc.AuthorizationStatus), To: string(entity.AuthStatusAuthorized)}
		}
		return nil
	}
	if doc.AuthorizationStatus != entity.AuthStatusDraft {
		return &domain.TransitionError{Axis: fiscal.AxisAuthorization, From: string(doc.AuthorizationStatus), To: string(entity.AuthStatusAuthorized)}
	}
	if doc.BusinessStatus != entity.StatusApproved {
		return &domain.TransitionError{Axis: fiscal.AxisBusiness, From: string(doc.BusinessStatus), To: string(entity.StatusIssued)}
	}
	return nil
}

func failureMessage(res *AuthorizationResult, callErr error) string {
	if callErr != nil {
		return fmt.Sprintf("%v: %v", domain.ErrAuthorizationFailed, callErr)
	}
	if res == nil {
		return domain.ErrAuthorizationFailed.Error()
	}
	msg := res.ErrorMessage
	if res.ErrorCode != "" {
		msg = res.ErrorCode + ": " + msg
	}
	if msg == "" {
		msg = "AFIP no devolvió CAE"
	}
	return msg
}
