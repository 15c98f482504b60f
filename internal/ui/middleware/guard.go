// Пакет middleware — HTTP middleware для Admin UI.
// guard.go — проверка сессионного токена и разрешений перед навигацией.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goartstore/catalog-admin/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-admin/internal/domain/rbac"
	"github.com/bigkaa/goartstore/catalog-admin/internal/ui/auth"
)

// Адреса перенаправления при отказе.
const (
	LoginPath        = "/"
	UnauthorizedPath = "/pages/unauthorized"
)

// DenyReason — причина отказа в доступе.
type DenyReason string

// Причины отказа в порядке проверки.
const (
	ReasonNoToken          DenyReason = "no_token"
	ReasonExpired          DenyReason = "expired"
	ReasonInvalidSignature DenyReason = "invalid_signature"
	ReasonForbidden        DenyReason = "forbidden"
)

// guardDenied — количество отказов Route Guard по причинам.
var guardDenied = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ca_guard_denied_total",
		Help: "Количество отказов в навигации по причинам",
	},
	[]string{"reason"},
)

// contextKey — тип для ключей контекста UI.
type contextKey string

const (
	// ContextKeyUser — пользователь (*model.User) в контексте запроса.
	ContextKeyUser contextKey = "ui_user"
	// ContextKeyToken — сессионный токен в контексте запроса.
	ContextKeyToken contextKey = "ui_token"
)

// Decision — результат проверки навигации.
type Decision struct {
	// Allowed — навигация разрешена
	Allowed bool
	// Redirect — куда перенаправить при отказе
	Redirect string
	// Reason — причина отказа
	Reason DenyReason
	// ClearSession — токен нужно удалить (истёк или подделан)
	ClearSession bool
	// User — пользователь из токена (только при Allowed)
	User *model.User
}

// Guard — Route Guard: решает, можно ли открыть страницу.
type Guard struct {
	sessions *auth.SessionManager
	logger   *slog.Logger
}

// NewGuard создаёт Route Guard.
func NewGuard(sessions *auth.SessionManager, logger *slog.Logger) *Guard {
	return &Guard{
		sessions: sessions,
		logger:   logger.With(slog.String("component", "route_guard")),
	}
}

// Check принимает решение по токену. Порядок проверок фиксирован:
// наличие токена, срок действия, подпись, разрешение required.
// Пустой required — достаточно действующей сессии.
func (g *Guard) Check(token string, present bool, required string, now time.Time) Decision {
	if !present || token == "" {
		return deny(ReasonNoToken, UnauthorizedPath, false)
	}
	if auth.IsExpired(token, now) {
		return deny(ReasonExpired, LoginPath, true)
	}
	if !auth.VerifySignature(token, g.sessions.Secret()) {
		return deny(ReasonInvalidSignature, UnauthorizedPath, true)
	}

	claims, err := auth.DecodeClaims(token)
	if err != nil {
		return deny(ReasonInvalidSignature, UnauthorizedPath, true)
	}
	user := claims.User()

	if required != "" && !rbac.NewSet(user.Permissions).Has(required) {
		return deny(ReasonForbidden, UnauthorizedPath, false)
	}

	return Decision{Allowed: true, User: user}
}

func deny(reason DenyReason, redirect string, clear bool) Decision {
	return Decision{Reason: reason, Redirect: redirect, ClearSession: clear}
}

// Require возвращает middleware, пропускающее запрос только при действующей
// сессии и наличии разрешения permission ("" — только сессия).
// Пользователь и токен помещаются в контекст запроса.
func (g *Guard) Require(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := g.sessions.ForRequest(w, r)

			token, present, err := session.Load(r.Context())
			if err != nil {
				g.logger.Warn("Ошибка чтения сессии",
					slog.String("error", err.Error()),
					slog.String("path", r.URL.Path),
				)
			}

			decision := g.Check(token, present, permission, g.sessions.Now())
			if !decision.Allowed {
				if decision.ClearSession {
					if err := session.Clear(r.Context()); err != nil {
						g.logger.Warn("Ошибка очистки сессии", slog.String("error", err.Error()))
					}
				}
				guardDenied.WithLabelValues(string(decision.Reason)).Inc()
				g.logger.Info("Навигация отклонена",
					slog.String("path", r.URL.Path),
					slog.String("reason", string(decision.Reason)),
					slog.String("required", permission),
					slog.String("redirect", decision.Redirect),
				)
				http.Redirect(w, r, decision.Redirect, http.StatusFound)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, decision.User)
			ctx = context.WithValue(ctx, ContextKeyToken, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext извлекает пользователя из контекста запроса.
// Возвращает nil, если запрос не прошёл через Guard.
func UserFromContext(ctx context.Context) *model.User {
	user, ok := ctx.Value(ContextKeyUser).(*model.User)
	if !ok {
		return nil
	}
	return user
}

// TokenFromContext извлекает сессионный токен из контекста запроса.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(ContextKeyToken).(string)
	return token
}

// WithUser помещает пользователя и токен в контекст (для тестов обработчиков).
func WithUser(ctx context.Context, user *model.User, token string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyUser, user)
	return context.WithValue(ctx, ContextKeyToken, token)
}
