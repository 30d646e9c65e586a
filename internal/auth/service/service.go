// Package service authenticates volunteers and manages their accounts.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"moniftar/internal/audit"
	"moniftar/internal/auth/token"
	"moniftar/internal/domain"
	"moniftar/internal/notify"
	"moniftar/internal/outbox"
	"moniftar/internal/platform/tracing"
	"moniftar/internal/storage"
	id "moniftar/pkg/domain"
	dErrors "moniftar/pkg/domain-errors"
	"moniftar/pkg/platform/sentinel"
	"moniftar/pkg/requestcontext"
)

const (
	generatedPasswordLength = 8
	minPasswordLength       = 8
	passwordAlphabet        = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	maxCodeAttempts         = 20
)

// invalidCredentials is returned for every login failure so callers cannot
// tell unknown phones from wrong passwords.
const invalidCredentials = "invalid phone number or password"

type AuditPublisher interface {
	Emit(ctx context.Context, e audit.Event) error
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Generate(v *domain.Volunteer, now time.Time) (*token.Issued, error)
}

// TokenRevoker adds a token ID to the revocation list until it expires.
type TokenRevoker interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
}

// PasswordGenerator produces first-login passwords.
type PasswordGenerator func() (string, error)

type Service struct {
	runner     storage.Runner
	tokens     TokenIssuer
	revoker    TokenRevoker
	sender     notify.Sender
	logger     *slog.Logger
	audit      AuditPublisher
	metrics    *Metrics
	newPass    PasswordGenerator
	bcryptCost int
	tracer     trace.Tracer

	// dummyHash is compared against on unknown phones to keep login timing flat.
	dummyHash []byte
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.audit = p }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithPasswordGenerator(gen PasswordGenerator) Option {
	return func(s *Service) {
		if gen != nil {
			s.newPass = gen
		}
	}
}

// WithBcryptCost lowers the hashing cost, for tests.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

func New(runner storage.Runner, tokens TokenIssuer, revoker TokenRevoker, sender notify.Sender, opts ...Option) *Service {
	s := &Service{
		runner:     runner,
		tokens:     tokens,
		revoker:    revoker,
		sender:     sender,
		logger:     slog.Default(),
		newPass:    GeneratePassword,
		bcryptCost: bcrypt.DefaultCost,
		tracer:     tracing.Tracer("auth"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("moniftar-dummy-password"), s.bcryptCost)
	return s
}

// Session is a volunteer with a freshly issued access token.
type Session struct {
	Volunteer *domain.Volunteer
	Token     *token.Issued
}

// FirstLogin is the profile a volunteer submits at first login.
type FirstLogin struct {
	FirstName    string
	LastName     string
	HomeLocation *id.LocationID
	Password     string
}

// Login checks a phone and password and issues a token.
func (s *Service) Login(ctx context.Context, phone, password string) (out *Session, err error) {
	ctx, span := tracing.Start(ctx, s.tracer, "auth.Login")
	defer tracing.End(span, &err)

	v, err := s.findByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if v == nil {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		s.loginFailed(ctx, "", "unknown_phone")
		return nil, dErrors.New(dErrors.CodeUnauthorized, invalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword(v.PasswordHash, []byte(password)); err != nil {
		s.loginFailed(ctx, v.ID.String(), "wrong_password")
		return nil, dErrors.New(dErrors.CodeUnauthorized, invalidCredentials)
	}

	issued, err := s.tokens.Generate(v, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	s.metrics.incLogin("succeeded")
	s.emit(ctx, audit.Event{Action: audit.ActionLoginSucceeded, ActorID: v.ID.String(), Subject: v.Code})
	return &Session{Volunteer: v, Token: issued}, nil
}

func (s *Service) findByPhone(ctx context.Context, phone string) (*domain.Volunteer, error) {
	normalized, err := domain.NormalizePhone(phone)
	if err != nil {
		return nil, nil
	}
	var v *domain.Volunteer
	err = s.runner.View(ctx, func(st storage.Stores) error {
		found, err := st.Volunteers.FindByPhone(ctx, normalized)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load volunteer")
		}
		v = found
		return nil
	})
	return v, err
}

func (s *Service) loginFailed(ctx context.Context, actor, reason string) {
	s.metrics.incLogin("failed")
	s.logger.WarnContext(ctx, "login failed",
		"reason", reason,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.Event{Action: audit.ActionLoginFailed, ActorID: actor, Detail: reason})
}

// CompleteFirstLogin stores the volunteer's profile and new password, then
// issues a token without the first-login flag. The token used for the call is
// revoked.
func (s *Service) CompleteFirstLogin(ctx context.Context, p requestcontext.Principal, in FirstLogin) (out *Session, err error) {
	ctx, span := tracing.Start(ctx, s.tracer, "auth.CompleteFirstLogin")
	defer tracing.End(span, &err)

	if len(in.Password) < minPasswordLength {
		return nil, dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	var v *domain.Volunteer
	var ob outbox.Outbox
	err = s.runner.RunInTx(ctx, func(st storage.Stores) error {
		var err error
		v, err = st.Volunteers.FindByID(ctx, p.VolunteerID)
		if err != nil {
			return dErrors.FromStore(err, "volunteer not found", "failed to load volunteer")
		}
		if in.HomeLocation != nil {
			if _, err := st.Locations.FindByID(ctx, *in.HomeLocation); err != nil {
				return dErrors.FromStore(err, "distribution point not found", "failed to load location")
			}
		}
		if err := v.CompleteFirstLogin(in.FirstName, in.LastName, in.HomeLocation, hash); err != nil {
			return err
		}
		if err := st.Volunteers.Update(ctx, v); err != nil {
			return dErrors.FromStore(err, "volunteer not found", "failed to update volunteer")
		}
		ob.Record(audit.Event{
			Action:     audit.ActionFirstLogin,
			ActorID:    v.ID.String(),
			Subject:    v.Code,
			LocationID: locationString(v.HomeLocation),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	ob.Flush(ctx, s.sender, s.audit, s.logger)

	issued, err := s.tokens.Generate(v, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	s.revoke(ctx, p)
	return &Session{Volunteer: v, Token: issued}, nil
}

// CreateVolunteer opens an account for phone and sends it a generated
// password.
func (s *Service) CreateVolunteer(ctx context.Context, phone string) (out *domain.Volunteer, err error) {
	ctx, span := tracing.Start(ctx, s.tracer, "auth.CreateVolunteer")
	defer tracing.End(span, &err)

	phone = strings.TrimSpace(phone)
	if err := domain.RequireInternational(phone); err != nil {
		return nil, err
	}
	password, err := s.newPass()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	v, err := domain.NewVolunteer(id.NewVolunteerID(), phone, hash, false, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	var ob outbox.Outbox
	err = s.runner.RunInTx(ctx, func(st storage.Stores) error {
		if err := s.freeCode(ctx, st, v); err != nil {
			return err
		}
		if err := st.Volunteers.Create(ctx, v); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "phone number is already registered")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create volunteer")
		}
		ob.Notify(notify.VolunteerCredentials(v.Phone, password))
		ob.Record(audit.Event{Action: audit.ActionVolunteerCreated, Subject: v.Code})
		return nil
	})
	if err != nil {
		return nil, err
	}
	ob.Flush(ctx, s.sender, s.audit, s.logger)
	return v, nil
}

// freeCode redraws v.Code until no other volunteer holds it.
func (s *Service) freeCode(ctx context.Context, st storage.Stores, v *domain.Volunteer) error {
	for range maxCodeAttempts {
		_, err := st.Volunteers.FindByCode(ctx, v.Code)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check volunteer code")
		}
		v.Code = domain.NewVolunteerCode(v.IsAdmin)
	}
	return dErrors.New(dErrors.CodeInternal, "could not allocate a volunteer code")
}

// MakeAdmin grants the admin role to the volunteer with this code.
func (s *Service) MakeAdmin(ctx context.Context, code string) (out *domain.Volunteer, err error) {
	ctx, span := tracing.Start(ctx, s.tracer, "auth.MakeAdmin")
	defer tracing.End(span, &err)

	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "volunteer code is required")
	}
	var ob outbox.Outbox
	err = s.runner.RunInTx(ctx, func(st storage.Stores) error {
		v, err := st.Volunteers.FindByCode(ctx, code)
		if err != nil {
			return dErrors.FromStore(err, "volunteer with code '"+code+"' not found", "failed to load volunteer")
		}
		if err := v.Promote(); err != nil {
			return err
		}
		if err := st.Volunteers.Update(ctx, v); err != nil {
			return dErrors.FromStore(err, "volunteer not found", "failed to update volunteer")
		}
		ob.Record(audit.Event{Action: audit.ActionVolunteerPromoted, Subject: v.Code})
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	ob.Flush(ctx, s.sender, s.audit, s.logger)
	return out, nil
}

func (s *Service) Volunteers(ctx context.Context) ([]*domain.Volunteer, error) {
	var out []*domain.Volunteer
	err := s.runner.View(ctx, func(st storage.Stores) error {
		var err error
		out, err = st.Volunteers.List(ctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list volunteers")
		}
		return nil
	})
	return out, err
}

// Me returns the calling volunteer.
func (s *Service) Me(ctx context.Context, volID id.VolunteerID) (*domain.Volunteer, error) {
	var out *domain.Volunteer
	err := s.runner.View(ctx, func(st storage.Stores) error {
		var err error
		out, err = st.Volunteers.FindByID(ctx, volID)
		return dErrors.FromStore(err, "volunteer not found", "failed to load volunteer")
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Logout revokes the caller's token for the rest of its lifetime.
func (s *Service) Logout(ctx context.Context, p requestcontext.Principal) error {
	if p.TokenID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "token has no identifier")
	}
	ttl := p.ExpiresAt.Sub(requestcontext.Now(ctx))
	if ttl <= 0 {
		return nil
	}
	if err := s.revoker.RevokeToken(ctx, p.TokenID, ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
	}
	s.emit(ctx, audit.Event{Action: audit.ActionLogout, ActorID: p.VolunteerID.String()})
	return nil
}

// BootstrapAdmin makes sure an admin account exists for phone. An existing
// account is left untouched.
func (s *Service) BootstrapAdmin(ctx context.Context, phone, password string) (*domain.Volunteer, bool, error) {
	if existing, err := s.findByPhone(ctx, phone); err != nil || existing != nil {
		return existing, false, err
	}
	if len(password) < minPasswordLength {
		return nil, false, dErrors.New(dErrors.CodeValidation, "bootstrap password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	v, err := domain.NewVolunteer(id.NewVolunteerID(), phone, hash, true, requestcontext.Now(ctx))
	if err != nil {
		return nil, false, err
	}
	err = s.runner.RunInTx(ctx, func(st storage.Stores) error {
		if err := s.freeCode(ctx, st, v); err != nil {
			return err
		}
		if err := st.Volunteers.Create(ctx, v); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create admin")
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	s.emit(ctx, audit.Event{Action: audit.ActionVolunteerCreated, Subject: v.Code, Detail: "bootstrap"})
	return v, true, nil
}

func (s *Service) revoke(ctx context.Context, p requestcontext.Principal) {
	ttl := p.ExpiresAt.Sub(requestcontext.Now(ctx))
	if p.TokenID == "" || ttl <= 0 {
		return
	}
	if err := s.revoker.RevokeToken(ctx, p.TokenID, ttl); err != nil {
		s.logger.WarnContext(ctx, "failed to revoke superseded token",
			"volunteer_id", p.VolunteerID.String(),
			"error", err,
		)
	}
}

func (s *Service) emit(ctx context.Context, e audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", e.Action, "error", err)
	}
}

// GeneratePassword returns a random password from an alphabet without
// look-alike characters.
func GeneratePassword() (string, error) {
	max := big.NewInt(int64(len(passwordAlphabet)))
	var b strings.Builder
	for range generatedPasswordLength {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(passwordAlphabet[n.Int64()])
	}
	return b.String(), nil
}

func locationString(loc *id.LocationID) string {
	if loc == nil {
		return ""
	}
	return loc.String()
}
