package quetzal

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := make([]uint8, 64)
	for i := range original {
		original[i] = uint8(i)
	}

	current := append([]uint8(nil), original...)
	current[10] = 0xff
	current[40] = 0x42

	snapshot := Snapshot{
		Release:  3,
		Serial:   [6]byte{'2', '3', '1', '2', '1', '0'},
		Checksum: 0x1234,
		PC:       0x4f2c,
		Memory:   current,
		Frames: []Frame{
			{
				ReturnPC:        0x1000,
				DiscardsResult:  false,
				StoreVariable:   2,
				ArgumentMask:    0b0011,
				Locals:          []uint16{1, 2, 3},
				EvaluationStack: []uint16{7, 8},
			},
			{
				ReturnPC:       0x2000,
				DiscardsResult: true,
				Locals:         []uint16{},
			},
		},
	}

	data, err := Encode(original, snapshot)
	if err != nil {
		t.Fatalf("unexpected Encode error: %v", err)
	}

	if !bytes.Equal(data[0:4], []byte("FORM")) || !bytes.Equal(data[8:12], []byte("IFZS")) {
		t.Fatalf("missing FORM/IFZS header: %x", data[0:12])
	}

	decoded, err := Decode(data, original)
	if err != nil {
		t.Fatalf("unexpected Decode error: %v", err)
	}

	if !decoded.MatchesStory(snapshot.Release, snapshot.Serial, snapshot.Checksum) {
		t.Fatalf("fingerprint mismatch after round trip")
	}
	if decoded.PC != snapshot.PC {
		t.Fatalf("expected PC 0x%x, got 0x%x", snapshot.PC, decoded.PC)
	}
	if !bytes.Equal(decoded.Memory, current) {
		t.Fatalf("memory mismatch after round trip")
	}
	if len(decoded.Frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(decoded.Frames))
	}
	if decoded.Frames[0].StoreVariable != 2 || len(decoded.Frames[0].Locals) != 3 {
		t.Fatalf("frame 0 mismatch: %+v", decoded.Frames[0])
	}
	if !decoded.Frames[1].DiscardsResult {
		t.Fatalf("frame 1 should discard its result")
	}
}

func TestMatchesStoryFingerprintMismatch(t *testing.T) {
	s1 := Snapshot{Release: 1, Serial: [6]byte{'a'}, Checksum: 0x10}
	if s1.MatchesStory(1, [6]byte{'b'}, 0x10) {
		t.Fatal("expected serial mismatch to fail MatchesStory")
	}
}

func TestDecodeRejectsNonQuetzal(t *testing.T) {
	if _, err := Decode([]byte("not a save file"), nil); err == nil {
		t.Fatal("expected error decoding non-Quetzal data")
	}
}
