package unlock

import (
	"bytes"
	"errors"
	"testing"

	"github.com/davecgh/go-spew/spew"
)

func TestKeyExchangeFrameLayout(t *testing.T) {
	got := keyExchangeFrame(0x0000A1B2C3D4E5F6, []byte{0xDE, 0xAD, 0xBE, 0xEF})

	want := [FrameLen]byte{
		0x0F, 0x08, // header
		0xA1, 0xB2, 0xC3, 0xD4, 0xE5, 0xF6, // app id, big-endian
		0xDE, 0xAD, 0xBE, 0xEF, // seed key
		0x01, 0x01, // key exchange command
		0x00, 0x00, // padding
	}

	if got != want {
		t.Fatalf("frame mismatch\ngot:\n%swant:\n%s", spew.Sdump(got), spew.Sdump(want))
	}
}

func TestUnlockFrameLayout(t *testing.T) {
	got := unlockFrame(0x0000A1B2C3D4E5F6, []byte{0x11, 0x22, 0x33, 0x44})

	want := [FrameLen]byte{
		0x0F, 0x08,
		0xA1, 0xB2, 0xC3, 0xD4, 0xE5, 0xF6,
		0x11, 0x22, 0x33, 0x44,
		0x02, 0x01,
		0x00, 0x00,
	}

	if got != want {
		t.Fatalf("frame mismatch\ngot:\n%swant:\n%s", spew.Sdump(got), spew.Sdump(want))
	}
}

func TestBuildFrame_ShortKeyZeroPadded(t *testing.T) {
	got := buildFrame(1, []byte{0xAA}, cmdKeyExchange)

	if got[8] != 0xAA || got[9] != 0 || got[10] != 0 || got[11] != 0 {
		t.Errorf("expected short key zero-padded in bytes 8..12, got % X", got[8:12])
	}
}

func TestBuildFrame_LongKeyTruncated(t *testing.T) {
	got := buildFrame(1, []byte{1, 2, 3, 4, 5, 6}, cmdUnlock)

	if !bytes.Equal(got[8:12], []byte{1, 2, 3, 4}) {
		t.Errorf("expected key truncated to 4 bytes, got % X", got[8:12])
	}
	if got[12] != 0x02 || got[13] != 0x01 {
		t.Errorf("command bytes overwritten by long key: % X", got[12:14])
	}
}

func TestSessionKey(t *testing.T) {
	resp := make([]byte, FrameLen)
	copy(resp[8:12], []byte{0x9A, 0x8B, 0x7C, 0x6D})

	key, err := sessionKey(resp)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(key, []byte{0x9A, 0x8B, 0x7C, 0x6D}) {
		t.Errorf("sessionKey = % X, want 9A 8B 7C 6D", key)
	}
}

func TestSessionKey_ShortResponse(t *testing.T) {
	_, err := sessionKey([]byte{0x0F, 0x08, 0x01})
	if !errors.Is(err, ErrLinkFailure) {
		t.Fatalf("expected ErrLinkFailure for short response, got %v", err)
	}
}
