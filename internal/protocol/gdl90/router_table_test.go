package gdl90

import (
	"errors"
	"testing"
)

func TestRegistry_RegisterAndDecode(t *testing.T) {
	reg := NewRegistry()
	called := false
	reg.Register(0x65, func(body []byte) (Message, error) {
		called = true
		return DecodeUnknown(body)
	})
	m, err := reg.Decode([]byte{0x65, 0x01})
	if err != nil || !called {
		t.Fatalf("handler not called, err=%v", err)
	}
	if m.Kind() != KindUnknown || m.TypeID() != 0x65 {
		t.Fatalf("unexpected message: %+v", m)
	}
}

func TestRegistry_UnknownType(t *testing.T) {
	reg := DefaultRegistry()
	if _, err := reg.Decode([]byte{0x65, 0x00}); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
	if _, ok := reg.Lookup(TypeTrafficReport); !ok {
		t.Fatalf("traffic report not registered")
	}
}

func TestRegistry_Fallback(t *testing.T) {
	reg := DefaultRegistry()
	reg.SetFallback(DecodeUnknown)
	m, err := reg.Decode([]byte{0x65, 0xAA, 0xBB})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	u := m.(Unknown)
	if u.ID != 0x65 || len(u.Data) != 2 {
		t.Fatalf("unexpected: %+v", u)
	}
}

func TestRegistry_EmptyBody(t *testing.T) {
	if _, err := DefaultRegistry().Decode(nil); !errors.Is(err, ErrShortBody) {
		t.Fatalf("expected ErrShortBody, got %v", err)
	}
}
