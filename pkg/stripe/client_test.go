package stripe

import (
	"context"
	"testing"

	"github.com/kq-050/ArtmarketPlace/pkg/config"
)

func TestNewClientValidatesKeyAgainstEnv(t *testing.T) {
	ctx := context.Background()

	if _, err := NewClient(ctx, config.StripeConfig{APIKey: "sk_live_abc", WebhookSecret: "whsec", Env: "test"}, nil); err == nil {
		t.Fatalf("live key should be rejected in test env")
	}
	if _, err := NewClient(ctx, config.StripeConfig{APIKey: "sk_test_abc", Env: "test"}, nil); err == nil {
		t.Fatalf("missing webhook secret should be rejected")
	}

	client, err := NewClient(ctx, config.StripeConfig{APIKey: "sk_test_abc", WebhookSecret: "whsec_test", Env: ""}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Environment() != "test" {
		t.Fatalf("expected default test env, got %q", client.Environment())
	}
	if client.SigningSecret() != "whsec_test" {
		t.Fatalf("unexpected signing secret")
	}
}

func TestNewClientRejectsUnknownEnv(t *testing.T) {
	_, err := NewClient(context.Background(), config.StripeConfig{APIKey: "sk_test_abc", WebhookSecret: "whsec", Env: "staging"}, nil)
	if err == nil {
		t.Fatalf("expected invalid env error")
	}
}
