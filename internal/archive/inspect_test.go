package archive

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"nzbtriage/internal/domain"
)

// buildRar4FileHeader builds a minimal RAR4 stream: the 7-byte signature
// followed by one 0x74 (file) header carrying the given method byte and
// flags, sized exactly to the fixed offsets inspectRarFileHeader reads.
func buildRar4FileHeader(t *testing.T, flags uint16, method byte) []byte {
	t.Helper()
	const headerSize = 32 // up to nameStartBase with no LHD_LARGE, no filename bytes needed

	header := make([]byte, headerSize)
	header[2] = rarFileHeaderType
	binary.LittleEndian.PutUint16(header[3:5], flags)
	binary.LittleEndian.PutUint16(header[5:7], uint16(headerSize))
	header[25] = method

	out := append([]byte{}, rar4Signature...)
	out = append(out, header...)
	return out
}

func TestInspectRar4Stored(t *testing.T) {
	b := buildRar4FileHeader(t, 0, rarMethodStore)
	f := Inspect(b)
	require.Equal(t, domain.StatusRarStored, f.Status)
}

func TestInspectRar4Compressed(t *testing.T) {
	b := buildRar4FileHeader(t, 0, 0x35)
	f := Inspect(b)
	require.Equal(t, domain.StatusRarCompressed, f.Status)
}

func TestInspectRar4Encrypted(t *testing.T) {
	b := buildRar4FileHeader(t, rarFlagPassword, rarMethodStore)
	f := Inspect(b)
	require.Equal(t, domain.StatusRarEncrypted, f.Status)
}

func TestInspectRar4Solid(t *testing.T) {
	b := buildRar4FileHeader(t, rarFlagSolid, rarMethodStore)
	f := Inspect(b)
	require.Equal(t, domain.StatusRarSolid, f.Status)
}

func TestInspectRar4HeaderNotFound(t *testing.T) {
	b := append([]byte{}, rar4Signature...)
	f := Inspect(b)
	require.Equal(t, domain.StatusRarHeaderNotFound, f.Status)
}

func TestInspectRar4CorruptHeader(t *testing.T) {
	header := make([]byte, 10)
	header[2] = 0x72 // not a file header
	binary.LittleEndian.PutUint16(header[5:7], 3)
	b := append([]byte{}, rar4Signature...)
	b = append(b, header...)
	f := Inspect(b)
	require.Equal(t, domain.StatusRarCorruptHeader, f.Status)
}

func TestInspectRar5AssumedStored(t *testing.T) {
	f := Inspect(rar5Signature)
	require.Equal(t, domain.StatusRarStored, f.Status)
}

func TestInspect7zStored(t *testing.T) {
	b := make([]byte, 32)
	b[0], b[1] = 0x37, 0x7A
	b[6] = 0x00
	f := Inspect(b)
	require.Equal(t, domain.StatusSevenZipStored, f.Status)
}

func TestInspect7zUnsupported(t *testing.T) {
	b := make([]byte, 32)
	b[0], b[1] = 0x37, 0x7A
	b[6] = 0x21
	f := Inspect(b)
	require.Equal(t, domain.StatusSevenZipUnsupported, f.Status)
	require.Equal(t, "21", f.Details)
}

func TestInspect7zInsufficientData(t *testing.T) {
	b := []byte{0x37, 0x7A, 0, 0, 0, 0, 0}
	f := Inspect(b)
	require.Equal(t, domain.StatusSevenZipInsufficient, f.Status)
}

func TestInspectUnrecognized(t *testing.T) {
	f := Inspect([]byte("not an archive at all"))
	require.Equal(t, domain.StatusRarHeaderNotFound, f.Status)
}
