package common

import (
	"bytes"
	"testing"
)

func TestGenerateRandByteArray(t *testing.T) {
	size := 32
	data1 := GenerateRandByteArray(size)
	data2 := GenerateRandByteArray(size)
	if len(data1) != size || len(data2) != size {
		t.Fatalf("expected %d bytes, got %d and %d", size, len(data1), len(data2))
	}
	if bytes.Equal(data1, data2) {
		t.Errorf("two random reads returned identical bytes")
	}
}

func TestMakeRandHexString(t *testing.T) {
	s1, err := MakeRandHexString(16)
	if err != nil {
		t.Fatalf("MakeRandHexString error: %v", err)
	}
	s2, err := MakeRandHexString(16)
	if err != nil {
		t.Fatalf("MakeRandHexString error: %v", err)
	}
	if len(s1) != 32 {
		t.Errorf("expected 32 hex chars, got %d", len(s1))
	}
	if s1 == s2 {
		t.Errorf("two random strings are identical")
	}
}

func TestWipeByteArray(t *testing.T) {
	b := []byte{1, 2, 3}
	WipeByteArray(b)
	for i, v := range b {
		if v != 0 {
			t.Fatalf("byte %d not wiped: %d", i, v)
		}
	}
	WipeByteArray(nil) // must not panic
}
