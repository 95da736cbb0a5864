package payment

import (
	"testing"
)

func TestRegistry_FirstRegisteredIsDefault(t *testing.T) {
	log := testLogger(t)
	r := NewRegistry()
	mock := NewMockProvider(log)
	stripe, err := NewStripeProvider(log, "sk_test_abc", "pk_test_abc")
	if err != nil {
		t.Fatalf("NewStripeProvider: %v", err)
	}
	r.Register(mock)
	r.Register(stripe)

	if got := r.Default(); got == nil || got.Name() != "mock" {
		t.Fatalf("expected mock as implicit default, got %v", got)
	}
	names := r.Names()
	if len(names) != 2 || names[0] != "mock" || names[1] != "stripe" {
		t.Fatalf("registration order lost: %v", names)
	}
}

func TestRegistry_SetDefaultIgnoresUnknownName(t *testing.T) {
	r := NewRegistry()
	r.Register(NewMockProvider(testLogger(t)))
	r.SetDefault("stripe")
	if got := r.Default(); got == nil || got.Name() != "mock" {
		t.Fatalf("default changed to unregistered provider: %v", got)
	}
	r.SetDefault("mock")
	if got := r.Default(); got == nil || got.Name() != "mock" {
		t.Fatalf("explicit default lost: %v", got)
	}
}

func TestRegistry_ProviderLookupIsCaseInsensitive(t *testing.T) {
	r := NewRegistry()
	r.Register(NewMockProvider(testLogger(t)))
	if r.Provider("Mock") == nil || r.Provider(" MOCK ") == nil {
		t.Fatalf("lookup should normalize the name")
	}
	if r.Provider("stripe") != nil {
		t.Fatalf("unregistered provider resolved")
	}
}

func TestRegistry_ByTransactionIDResolvesByPrefix(t *testing.T) {
	log := testLogger(t)
	r := NewRegistry()
	stripe, err := NewStripeProvider(log, "sk_test_abc", "pk_test_abc")
	if err != nil {
		t.Fatalf("NewStripeProvider: %v", err)
	}
	r.Register(stripe)
	r.Register(NewMockProvider(log))

	if p := r.ByTransactionID("MOCK-ABCDEFGH12345678"); p == nil || p.Name() != "mock" {
		t.Fatalf("MOCK- id should resolve to mock, got %v", p)
	}
	if p := r.ByTransactionID("stripe_abcdef1234567890abcd"); p == nil || p.Name() != "stripe" {
		t.Fatalf("stripe_ id should resolve to stripe, got %v", p)
	}
	if p := r.ByTransactionID("unknown_123"); p != nil {
		t.Fatalf("unknown prefix should not resolve, got %v", p)
	}
}
