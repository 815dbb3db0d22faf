package snapshot

import "testing"

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteU32(42)
	w.WriteU64(1 << 40)
	w.WriteBool(true)
	w.WriteByte(7)
	w.WriteFixed(123456)

	r, err := NewReader(w.Bytes())
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if v := r.ReadU32(); v != 42 {
		t.Fatalf("ReadU32 = %d, want 42", v)
	}
	if v := r.ReadU64(); v != 1<<40 {
		t.Fatalf("ReadU64 = %d, want 2^40", v)
	}
	if v := r.ReadBool(); !v {
		t.Fatal("ReadBool = false, want true")
	}
	if v := r.ReadByte(); v != 7 {
		t.Fatalf("ReadByte = %d, want 7", v)
	}
	if v := r.ReadFixed(); v != 123456 {
		t.Fatalf("ReadFixed = %d, want 123456", v)
	}
	if r.Remaining() != 0 {
		t.Fatalf("Remaining = %d, want 0", r.Remaining())
	}
}

func TestReaderRejectsVersionMismatch(t *testing.T) {
	bad := []byte{0xFF, 0xFF, 0, 0}
	if _, err := NewReader(bad); err != ErrVersionMismatch {
		t.Fatalf("err = %v, want ErrVersionMismatch", err)
	}
}

func TestChecksumSensitiveToFrameNumber(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	a := Checksum(data, 10)
	b := Checksum(data, 11)
	if a == b {
		t.Fatal("checksums for differing frame numbers must differ")
	}
}

func TestChecksumDeterministic(t *testing.T) {
	data := []byte{9, 8, 7, 6, 5}
	a := Checksum(data, 100)
	b := Checksum(data, 100)
	if a != b {
		t.Fatal("checksum must be a pure function of (data, frame)")
	}
}
