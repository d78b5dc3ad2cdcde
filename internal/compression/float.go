package compression

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrCorrupt is returned when encoded float data cannot be decoded
var ErrCorrupt = errors.New("compression: corrupt float stream")

// gorillaMagic versions the float stream layout
const gorillaMagic = 0x02

// EncodeFloats packs values with XOR bit-packing from Facebook's Gorilla
// paper (Section 4.1.2):
//
//	Pelkonen et al., "Gorilla: A Fast, Scalable, In-Memory Time Series Database"
//	PVLDB, Vol. 8, No. 12, 2015.
//
// Wire format:
//
//	[version: 1 byte = 0x02]
//	[count:   uvarint]
//	[first value: 8 bytes LE, raw IEEE 754 bits]
//	[XOR bit stream, padded to a byte boundary]
//
// Each following value XORs with the previous one:
//   - XOR == 0: '0'
//   - meaningful bits fit the previous window: '1' '0' + bits
//   - otherwise: '1' '1' + leading(6) + (length-1)(6) + bits
//
// Score sequences start with long zero runs, so most samples cost one bit.
func EncodeFloats(values []float64) []byte {
	header := make([]byte, 0, 1+binary.MaxVarintLen64+8)
	header = append(header, gorillaMagic)
	header = binary.AppendUvarint(header, uint64(len(values)))
	if len(values) == 0 {
		return header
	}

	firstBits := math.Float64bits(values[0])
	header = binary.LittleEndian.AppendUint64(header, firstBits)

	// typically ~11 bits per value
	bw := newBitWriterAfter(header, len(values)*2)

	prevBits := firstBits
	prevLeading := uint8(64) // no window yet
	prevTrailing := uint8(0)
	prevMeaningBits := uint8(64)

	for _, v := range values[1:] {
		currentBits := math.Float64bits(v)
		xor := prevBits ^ currentBits
		prevBits = currentBits

		if xor == 0 {
			bw.WriteBit(0)
			continue
		}
		bw.WriteBit(1)

		leading := LeadingZeros64(xor)
		trailing := TrailingZeros64(xor)
		if leading > 63 {
			leading = 63
		}
		meaningBits := 64 - leading - trailing

		if prevMeaningBits < 64 && leading >= prevLeading && trailing >= prevTrailing {
			bw.WriteBit(0)
			bw.WriteBits(xor>>prevTrailing, prevMeaningBits)
			continue
		}

		bw.WriteBit(1)
		bw.WriteBits(uint64(leading), 6)
		// meaningBits is 1..64, stored as 0..63
		bw.WriteBits(uint64(meaningBits-1), 6)
		bw.WriteBits(xor>>trailing, meaningBits)

		prevLeading = leading
		prevTrailing = trailing
		prevMeaningBits = meaningBits
	}

	return bw.Bytes()
}

// DecodeFloats reverses EncodeFloats
func DecodeFloats(data []byte) ([]float64, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrCorrupt)
	}
	if data[0] != gorillaMagic {
		return nil, fmt.Errorf("%w: unknown version 0x%02x", ErrCorrupt, data[0])
	}
	offset := 1

	count, n := binary.Uvarint(data[offset:])
	if n <= 0 {
		return nil, fmt.Errorf("%w: bad count", ErrCorrupt)
	}
	offset += n
	if count == 0 {
		return []float64{}, nil
	}

	if offset+8 > len(data) {
		return nil, fmt.Errorf("%w: data too short for first value", ErrCorrupt)
	}
	prevBits := binary.LittleEndian.Uint64(data[offset:])
	offset += 8

	br := NewBitReader(data[offset:])
	// every value after the first costs at least one bit
	if uint64(br.Remaining()) < count-1 {
		return nil, fmt.Errorf("%w: %d values in %d bits", ErrCorrupt, count, br.Remaining())
	}

	values := make([]float64, count)
	values[0] = math.Float64frombits(prevBits)

	prevTrailing := uint8(0)
	prevMeaningBits := uint8(64)
	haveWindow := false

	for i := 1; i < int(count); i++ {
		controlBit, ok := br.ReadBit()
		if !ok {
			return nil, fmt.Errorf("%w: unexpected end of bitstream at value %d", ErrCorrupt, i)
		}
		if controlBit == 0 {
			values[i] = values[i-1]
			continue
		}

		controlBit2, ok := br.ReadBit()
		if !ok {
			return nil, fmt.Errorf("%w: unexpected end of bitstream at value %d (ctrl2)", ErrCorrupt, i)
		}

		if controlBit2 == 1 {
			leadingRaw, ok1 := br.ReadBits(6)
			meaningRaw, ok2 := br.ReadBits(6)
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("%w: unexpected end of bitstream at value %d (window)", ErrCorrupt, i)
			}
			leading := uint8(leadingRaw)
			meaningBits := uint8(meaningRaw) + 1
			if leading+meaningBits > 64 {
				return nil, fmt.Errorf("%w: window overflow at value %d", ErrCorrupt, i)
			}
			prevTrailing = 64 - leading - meaningBits
			prevMeaningBits = meaningBits
			haveWindow = true
		} else if !haveWindow {
			return nil, fmt.Errorf("%w: reused window before first at value %d", ErrCorrupt, i)
		}

		meaningful, ok := br.ReadBits(prevMeaningBits)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected end of bitstream at value %d (bits)", ErrCorrupt, i)
		}
		prevBits ^= meaningful << prevTrailing
		values[i] = math.Float64frombits(prevBits)
	}

	return values, nil
}
