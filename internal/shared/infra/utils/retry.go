package utils

import (
	"context"
	"time"
)

// Retry reintenta fn hasta attempts veces con una espera fija entre intentos.
// Se usa al arrancar, mientras la base o el broker todavía no aceptan conexiones.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
