package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy reintentos con backoff exponencial y jitter para los lookups de variantes.
// Transient decide si un error merece reintento; nil significa "nunca reintentar".
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Transient func(error) bool
}

// DefaultRetryPolicy 3 intentos, 200ms base, tope 3s.
func DefaultRetryPolicy(transient func(error) bool) RetryPolicy {
	return RetryPolicy{
		Attempts:  3,
		BaseDelay: 200 * time.Millisecond,
		MaxDelay:  3 * time.Second,
		Transient: transient,
	}
}

// Do ejecuta op hasta Attempts veces. Devuelve el último error si ninguno tuvo éxito,
// o el error del contexto si se cancela durante una espera.
func (p RetryPolicy) Do(ctx context.Context, op func(context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := op(ctx)
		if err != nil && (p.Transient == nil || !p.Transient(err)) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(p.exponential()),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithMaxElapsedTime(0),
	)
	// con el último intento backoff devuelve el error envuelto tal cual
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Unwrap()
	}
	return err
}

// exponential base * 2^i con jitter del 50%, acotado por MaxDelay.
func (p RetryPolicy) exponential() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.RandomizationFactor = 0.5
	b.Multiplier = 2
	if p.MaxDelay > 0 {
		b.MaxInterval = p.MaxDelay
	}
	return b
}
