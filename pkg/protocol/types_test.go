package protocol

import (
	"errors"
	"testing"
)

func TestPduTypeCodes(t *testing.T) {
	tests := []struct {
		t    PduType
		code string
		name string
	}{
		{TypeHello, "HLO", "Hello"},
		{TypeWelcome, "ACK", "Welcome"},
		{TypeLeave, "LEV", "Leave"},
		{TypeMessage, "MSG", "Message"},
		{TypeMalformedNotification, "BAD", "MalformedNotification"},
		{TypeConflictNotification, "CNF", "ConflictNotification"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := tt.t.Code()
			if !ok || code != tt.code {
				t.Errorf("Code() = %q, %v, want %q", code, ok, tt.code)
			}
			if tt.t.String() != tt.name {
				t.Errorf("String() = %q, want %q", tt.t.String(), tt.name)
			}

			parsed, err := ParseTypeCode(tt.code)
			if err != nil {
				t.Fatalf("ParseTypeCode() error = %v", err)
			}
			if parsed != tt.t {
				t.Errorf("ParseTypeCode(%q) = %v, want %v", tt.code, parsed, tt.t)
			}
		})
	}
}

func TestParseTypeCodeUnknown(t *testing.T) {
	for _, code := range []string{"XYZ", "hlo", "", "HLOO"} {
		if _, err := ParseTypeCode(code); !errors.Is(err, ErrUnknownType) {
			t.Errorf("ParseTypeCode(%q) error = %v, want ErrUnknownType", code, err)
		}
	}

	if _, ok := TypeUnknown.Code(); ok {
		t.Error("TypeUnknown.Code() should not be ok")
	}
	if TypeUnknown.String() != "PduType(0)" {
		t.Errorf("TypeUnknown.String() = %q", TypeUnknown.String())
	}
}

func TestRequiresPayload(t *testing.T) {
	required := map[PduType]bool{
		TypeHello:                 true,
		TypeWelcome:               true,
		TypeLeave:                 false,
		TypeMessage:               false,
		TypeMalformedNotification: false,
		TypeConflictNotification:  false,
	}

	for typ, want := range required {
		if got := typ.RequiresPayload(); got != want {
			t.Errorf("%v.RequiresPayload() = %v, want %v", typ, got, want)
		}
	}
}
