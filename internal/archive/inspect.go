// Package archive recognizes RAR4/RAR5/7z container signatures and decides
// whether the archive is stored (safe for random-access streaming) or
// compressed/encrypted/solid, by walking the container's own block headers.
// There is no upstream archive library involved on purpose: this is the
// byte-level inspection the engine exists to do itself.
package archive

import (
	"encoding/binary"

	"nzbtriage/internal/domain"
)

var (
	rar4Signature = []byte{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x00}
	rar5Signature = []byte{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x01, 0x00}
)

const (
	rarFileHeaderType = 0x74

	rarFlagPassword = 0x0004
	rarFlagSolid    = 0x0010
	rarFlagLarge    = 0x0100

	rarMethodStore = 0x30
)

// Finding is the terminal status plus an optional details string.
type Finding struct {
	Status  domain.ArchiveStatus
	Details string
}

// Inspect classifies a byte buffer as RAR4, RAR5, 7z, or unrecognized.
func Inspect(b []byte) Finding {
	switch {
	case hasPrefix(b, rar5Signature):
		// RAR5 deep header parsing is deferred; treated as stored by policy.
		return Finding{Status: domain.StatusRarStored}
	case hasPrefix(b, rar4Signature):
		return inspectRar4(b)
	case len(b) >= 6 && b[0] == 0x37 && b[1] == 0x7A:
		return inspect7z(b)
	default:
		return Finding{Status: domain.StatusRarHeaderNotFound}
	}
}

func hasPrefix(b, sig []byte) bool {
	return len(b) >= len(sig) && string(b[:len(sig)]) == string(sig)
}

func inspectRar4(b []byte) Finding {
	offset := len(rar4Signature)

	for {
		if offset+7 > len(b) {
			return Finding{Status: domain.StatusRarHeaderNotFound}
		}

		headType := b[offset+2]
		flags := binary.LittleEndian.Uint16(b[offset+3 : offset+5])
		size := int(binary.LittleEndian.Uint16(b[offset+5 : offset+7]))

		if size < 7 {
			return Finding{Status: domain.StatusRarCorruptHeader}
		}
		if offset+size > len(b) {
			return Finding{Status: domain.StatusRarInsufficientData}
		}

		if headType == rarFileHeaderType {
			return inspectRarFileHeader(b, offset, flags)
		}

		offset += size
	}
}

func inspectRarFileHeader(b []byte, offset int, flags uint16) Finding {
	// Fixed offsets within a RAR4 file header, relative to its start:
	// HEAD_CRC(2) HEAD_TYPE(1) HEAD_FLAGS(2) HEAD_SIZE(2) PACK_SIZE(4)
	// UNP_SIZE(4) HOST_OS(1) FILE_CRC(4) FTIME(4) UNP_VER(1) METHOD(1)
	// NAME_SIZE(2) ATTR(4) [HIGH_PACK(4) HIGH_UNP(4) if LHD_LARGE]
	const methodOffset = 25
	const nameSizeOffset = 26
	const nameStartBase = 32

	if offset+nameSizeOffset+2 > len(b) {
		return Finding{Status: domain.StatusRarInsufficientData}
	}

	methodByte := b[offset+methodOffset]

	nameStart := offset + nameStartBase
	if flags&rarFlagLarge != 0 {
		nameStart += 8
	}
	if nameStart > len(b) {
		return Finding{Status: domain.StatusRarInsufficientData}
	}

	if flags&rarFlagPassword != 0 {
		return Finding{Status: domain.StatusRarEncrypted}
	}
	if flags&rarFlagSolid != 0 {
		return Finding{Status: domain.StatusRarSolid}
	}
	if methodByte != rarMethodStore {
		return Finding{Status: domain.StatusRarCompressed}
	}
	return Finding{Status: domain.StatusRarStored}
}

func inspect7z(b []byte) Finding {
	if len(b) < 32 {
		return Finding{Status: domain.StatusSevenZipInsufficient}
	}
	method := b[6]
	if method == 0x00 {
		return Finding{Status: domain.StatusSevenZipStored}
	}
	return Finding{Status: domain.StatusSevenZipUnsupported, Details: byteHex(method)}
}

func byteHex(b byte) string {
	const hexDigits = "0123456789abcdef"
	return string([]byte{hexDigits[b>>4], hexDigits[b&0xF]})
}
