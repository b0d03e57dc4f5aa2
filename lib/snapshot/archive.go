// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/sensorcore/lib/atomicfile"
	"github.com/bureau-foundation/sensorcore/lib/codec"
)

// Compression identifies the payload compression of an archive. The
// values are stored in the header.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionLZ4  Compression = 1
	CompressionZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown snapshot compression %q", name)
	}
}

const (
	formatVersion = 1
	headerSize    = 4 + 1 + 1 + 4 + 32
)

var magic = [4]byte{'S', 'N', 'S', 'C'}

// hashKey separates archive hashes from any other BLAKE3 use of the
// same bytes.
var hashKey = [32]byte{
	's', 'e', 'n', 's', 'o', 'r', 'c', 'o', 'r', 'e', '.', 's', 'n', 'a', 'p', 's',
	'h', 'o', 't', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

var (
	// ErrCorrupt is returned when an archive's hash or length does
	// not match its payload.
	ErrCorrupt = errors.New("snapshot: archive corrupt")

	// ErrFormat is returned for data that is not a snapshot archive.
	ErrFormat = errors.New("snapshot: not a snapshot archive")

	// errIncompressible makes Encode store an LZ4 payload
	// uncompressed.
	errIncompressible = errors.New("snapshot: payload incompressible")
)

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("snapshot: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("snapshot: zstd decoder initialization failed: " + err.Error())
	}
}

// Hash returns the keyed BLAKE3 digest of an uncompressed sequence.
func Hash(sequence []byte) [32]byte {
	hasher, err := blake3.NewKeyed(hashKey[:])
	if err != nil {
		panic("snapshot: blake3 keyed hasher: " + err.Error())
	}
	hasher.Write(sequence)
	var digest [32]byte
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// Encode writes snapshots as one archive. A payload LZ4 cannot
// shrink is stored uncompressed and the header says so.
func Encode(snapshots []Snapshot, compression Compression) ([]byte, error) {
	var sequence bytes.Buffer
	encoder := codec.NewEncoder(&sequence)
	for index := range snapshots {
		if err := encoder.Encode(&snapshots[index]); err != nil {
			return nil, fmt.Errorf("encoding snapshot %d: %w", index, err)
		}
	}
	if uint64(sequence.Len()) > math.MaxUint32 {
		return nil, fmt.Errorf("snapshot sequence of %d bytes exceeds the archive limit", sequence.Len())
	}

	payload, err := compress(sequence.Bytes(), compression)
	if errors.Is(err, errIncompressible) {
		payload, compression = sequence.Bytes(), CompressionNone
	} else if err != nil {
		return nil, err
	}

	archive := make([]byte, headerSize, headerSize+len(payload))
	copy(archive, magic[:])
	archive[4] = formatVersion
	archive[5] = byte(compression)
	binary.LittleEndian.PutUint32(archive[6:], uint32(sequence.Len()))
	digest := Hash(sequence.Bytes())
	copy(archive[10:], digest[:])
	return append(archive, payload...), nil
}

// Decode reads an archive produced by Encode.
func Decode(archive []byte) ([]Snapshot, error) {
	if len(archive) < headerSize || !bytes.Equal(archive[:4], magic[:]) {
		return nil, ErrFormat
	}
	if archive[4] != formatVersion {
		return nil, fmt.Errorf("%w: format version %d", ErrFormat, archive[4])
	}
	compression := Compression(archive[5])
	size := int(binary.LittleEndian.Uint32(archive[6:]))

	sequence, err := decompress(archive[headerSize:], compression, size)
	if err != nil {
		return nil, err
	}
	if digest := Hash(sequence); !bytes.Equal(digest[:], archive[10:headerSize]) {
		return nil, fmt.Errorf("%w: hash mismatch", ErrCorrupt)
	}

	var snapshots []Snapshot
	decoder := codec.NewDecoder(bytes.NewReader(sequence))
	for {
		var snapshot Snapshot
		err := decoder.Decode(&snapshot)
		if errors.Is(err, io.EOF) {
			return snapshots, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decoding snapshot %d: %w", len(snapshots), err)
		}
		snapshots = append(snapshots, snapshot)
	}
}

func compress(data []byte, compression Compression) ([]byte, error) {
	switch compression {
	case CompressionNone:
		return data, nil
	case CompressionZstd:
		return zstdEncoder.EncodeAll(data, nil), nil
	case CompressionLZ4:
		destination := make([]byte, lz4.CompressBlockBound(len(data)))
		written, err := lz4.CompressBlock(data, destination, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		// CompressBlock reports 0 for some incompressible input and
		// a block larger than the input for the rest.
		if written == 0 || written >= len(data) {
			return nil, errIncompressible
		}
		return destination[:written], nil
	default:
		return nil, fmt.Errorf("unsupported compression %s", compression)
	}
}

func decompress(payload []byte, compression Compression, size int) ([]byte, error) {
	switch compression {
	case CompressionNone:
		if len(payload) != size {
			return nil, fmt.Errorf("%w: %d payload bytes, header says %d", ErrCorrupt, len(payload), size)
		}
		return payload, nil
	case CompressionZstd:
		result, err := zstdDecoder.DecodeAll(payload, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", ErrCorrupt, err)
		}
		if len(result) != size {
			return nil, fmt.Errorf("%w: zstd produced %d bytes, header says %d", ErrCorrupt, len(result), size)
		}
		return result, nil
	case CompressionLZ4:
		destination := make([]byte, size)
		read, err := lz4.UncompressBlock(payload, destination)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %v", ErrCorrupt, err)
		}
		if read != size {
			return nil, fmt.Errorf("%w: lz4 produced %d bytes, header says %d", ErrCorrupt, read, size)
		}
		return destination, nil
	default:
		return nil, fmt.Errorf("%w: compression %s", ErrFormat, compression)
	}
}

// WriteFile encodes snapshots into the archive at path, replacing it
// atomically.
func WriteFile(path string, snapshots []Snapshot, compression Compression) error {
	archive, err := Encode(snapshots, compression)
	if err != nil {
		return err
	}
	if err := atomicfile.WriteFile(path, archive, 0o644); err != nil {
		return fmt.Errorf("writing snapshot archive: %w", err)
	}
	return nil
}

// ReadFile decodes the archive at path.
func ReadFile(path string) ([]Snapshot, error) {
	archive, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot archive: %w", err)
	}
	snapshots, err := Decode(archive)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snapshots, nil
}
