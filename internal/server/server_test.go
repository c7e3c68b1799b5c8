package server

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLog() *logrus.Entry {
	logger := logrus.New()
	logger.Out = nopWriter{}
	return logrus.NewEntry(logger)
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestOnShutdown_RunsInReverseRegistrationOrder(t *testing.T) {
	s := New(http.NewServeMux(), ":0", time.Second, time.Second, time.Second, testLog())

	var order []string
	s.OnShutdown("store", func(ctx context.Context) error {
		order = append(order, "store")
		return nil
	})
	s.OnShutdown("cache", func(ctx context.Context) error {
		order = append(order, "cache")
		return nil
	})
	s.OnShutdown("broker", func(ctx context.Context) error {
		order = append(order, "broker")
		return nil
	})

	err := s.gracefulShutdown()

	require.NoError(t, err)
	assert.Equal(t, []string{"broker", "cache", "store"}, order)
}

func TestGracefulShutdown_ReturnsFirstErrorButRunsAllComponents(t *testing.T) {
	s := New(http.NewServeMux(), ":0", time.Second, time.Second, time.Second, testLog())

	var ran []string
	s.OnShutdown("a", func(ctx context.Context) error {
		ran = append(ran, "a")
		return errors.New("a failed")
	})
	s.OnShutdown("b", func(ctx context.Context) error {
		ran = append(ran, "b")
		return errors.New("b failed")
	})

	err := s.gracefulShutdown()

	require.Error(t, err)
	assert.Equal(t, "b failed", err.Error())
	assert.Equal(t, []string{"b", "a"}, ran)
}

func TestGracefulShutdown_NoComponentsIsFine(t *testing.T) {
	s := New(http.NewServeMux(), ":0", time.Second, time.Second, time.Second, testLog())

	assert.NoError(t, s.gracefulShutdown())
}
