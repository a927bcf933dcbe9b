package db

import (
	"context"
	"errors"
	"testing"
)

func TestConnectRequiresURL(t *testing.T) {
	_, err := Connect(context.Background(), "")
	if !errors.Is(err, ErrNoURL) {
		t.Fatalf("error = %v, want ErrNoURL", err)
	}
}

func TestConnectRejectsMalformedURL(t *testing.T) {
	_, err := Connect(context.Background(), "postgres://%zz")
	if err == nil {
		t.Fatal("expected parse error")
	}
}
