// Package codec reads and writes collections in the splinter binary
// format.
//
// A file is laid out as:
//
//	magic   "SPLT"
//	version 1 byte
//	comp    1 byte compression tag
//	length  8 bytes, big-endian uncompressed payload length
//	payload compressed CBOR snapshot of the attribute store
//	digest  32-byte BLAKE3 hash of the uncompressed payload
//
// The payload uses CBOR Core Deterministic Encoding, so the same
// collection always produces the same bytes.
package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"

	"github.com/chazu/splinter/pkg/collection"
	"github.com/chazu/splinter/pkg/geom"
)

// Version is the current format version.
const Version = 1

var magic = [4]byte{'S', 'P', 'L', 'T'}

const (
	headerSize = 4 + 1 + 1 + 8
	digestSize = 32
	// maxPayload bounds the length field before anything is allocated.
	maxPayload = 1 << 32
)

var (
	ErrBadMagic    = errors.New("codec: not a splinter file")
	ErrBadVersion  = errors.New("codec: unsupported version")
	ErrChecksum    = errors.New("codec: checksum mismatch")
	ErrUnknownKind = errors.New("codec: unknown attribute kind")
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{MaxArrayElements: 1 << 27}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// snapshot is the CBOR form of a collection.
type snapshot struct {
	Groups []groupRecord `cbor:"groups"`
}

type groupRecord struct {
	Name       string       `cbor:"name"`
	Size       int          `cbor:"size"`
	Attributes []attrRecord `cbor:"attrs"`
}

type attrRecord struct {
	Name       string          `cbor:"name"`
	Kind       collection.Kind `cbor:"kind"`
	Dependency string          `cbor:"dep,omitempty"`
	Default    cbor.RawMessage `cbor:"default"`
	Data       cbor.RawMessage `cbor:"data"`
}

// Snapshot encodes c as deterministic CBOR.
func Snapshot(c *collection.Collection) ([]byte, error) {
	var s snapshot
	for _, g := range c.Groups() {
		rec := groupRecord{Name: g, Size: c.NumElements(g)}
		for _, info := range c.Attributes(g) {
			data, _ := c.AttributeData(info.Name, g)
			raw, err := encMode.Marshal(data)
			if err != nil {
				return nil, fmt.Errorf("codec: encode %s.%s: %w", g, info.Name, err)
			}
			def, err := encMode.Marshal(info.Default)
			if err != nil {
				return nil, fmt.Errorf("codec: encode default of %s.%s: %w", g, info.Name, err)
			}
			rec.Attributes = append(rec.Attributes, attrRecord{
				Name:       info.Name,
				Kind:       info.Kind,
				Dependency: info.Dependency,
				Default:    def,
				Data:       raw,
			})
		}
		s.Groups = append(s.Groups, rec)
	}
	return encMode.Marshal(s)
}

// Restore decodes a snapshot made by Snapshot.
func Restore(payload []byte) (*collection.Collection, error) {
	var s snapshot
	if err := decMode.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("codec: decode snapshot: %w", err)
	}
	c := collection.NewStore()
	for _, g := range s.Groups {
		c.AddGroup(g.Name)
		if len(g.Attributes) == 0 {
			c.AddElements(g.Size, g.Name)
			continue
		}
		for _, a := range g.Attributes {
			data, def, err := decodeAttr(a)
			if err != nil {
				return nil, fmt.Errorf("codec: decode %s.%s: %w", g.Name, a.Name, err)
			}
			info := collection.AttributeInfo{Name: a.Name, Group: g.Name, Kind: a.Kind, Dependency: a.Dependency, Default: def}
			if err := c.RestoreAttribute(info, data); err != nil {
				return nil, fmt.Errorf("codec: %w", err)
			}
		}
		if n := c.NumElements(g.Name); n != g.Size {
			return nil, fmt.Errorf("codec: group %s has %d elements, header says %d", g.Name, n, g.Size)
		}
	}
	return c, nil
}

func decodeAttr(a attrRecord) (data, def any, err error) {
	switch a.Kind {
	case collection.KindInt:
		return decodeTyped[int](a)
	case collection.KindFloat:
		return decodeTyped[float64](a)
	case collection.KindBool:
		return decodeTyped[bool](a)
	case collection.KindString:
		return decodeTyped[string](a)
	case collection.KindVec:
		return decodeTyped[geom.Vec](a)
	case collection.KindBox:
		return decodeTyped[geom.Box](a)
	case collection.KindTransform:
		return decodeTyped[geom.Transform](a)
	case collection.KindIntSet:
		return decodeTyped[[]int](a)
	case collection.KindTri:
		return decodeTyped[[3]int](a)
	}
	return nil, nil, fmt.Errorf("%w %d", ErrUnknownKind, a.Kind)
}

func decodeTyped[T any](a attrRecord) (any, any, error) {
	var data []T
	if err := decMode.Unmarshal(a.Data, &data); err != nil {
		return nil, nil, err
	}
	if data == nil {
		data = []T{}
	}
	var def T
	if len(a.Default) > 0 {
		if err := decMode.Unmarshal(a.Default, &def); err != nil {
			return nil, nil, fmt.Errorf("default: %w", err)
		}
	}
	return data, def, nil
}

// Fingerprint returns the BLAKE3 hash of c's snapshot. Equal collections
// built the same way share a fingerprint.
func Fingerprint(c *collection.Collection) ([32]byte, error) {
	payload, err := Snapshot(c)
	if err != nil {
		return [32]byte{}, err
	}
	return blake3.Sum256(payload), nil
}

// Encode writes c to w.
func Encode(w io.Writer, c *collection.Collection, comp Compression) error {
	payload, err := Snapshot(c)
	if err != nil {
		return err
	}
	body, used, err := compress(payload, comp)
	if err != nil {
		return err
	}
	var header [headerSize]byte
	copy(header[:4], magic[:])
	header[4] = Version
	header[5] = byte(used)
	binary.BigEndian.PutUint64(header[6:], uint64(len(payload)))
	digest := blake3.Sum256(payload)
	for _, part := range [][]byte{header[:], body, digest[:]} {
		if _, err := w.Write(part); err != nil {
			return fmt.Errorf("codec: write: %w", err)
		}
	}
	return nil
}

// Decode reads a collection written by Encode.
func Decode(r io.Reader) (*collection.Collection, error) {
	all, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("codec: read: %w", err)
	}
	return Unmarshal(all)
}

// Marshal returns the encoded form of c.
func Marshal(c *collection.Collection, comp Compression) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, c, comp); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a complete file image.
func Unmarshal(b []byte) (*collection.Collection, error) {
	if len(b) < headerSize+digestSize || !bytes.Equal(b[:4], magic[:]) {
		return nil, ErrBadMagic
	}
	if b[4] != Version {
		return nil, fmt.Errorf("%w %d", ErrBadVersion, b[4])
	}
	comp := Compression(b[5])
	size := binary.BigEndian.Uint64(b[6:headerSize])
	if size > maxPayload {
		return nil, fmt.Errorf("codec: payload length %d too large", size)
	}
	body := b[headerSize : len(b)-digestSize]
	payload, err := decompress(body, comp, int(size))
	if err != nil {
		return nil, err
	}
	var want [32]byte
	copy(want[:], b[len(b)-digestSize:])
	if blake3.Sum256(payload) != want {
		return nil, ErrChecksum
	}
	return Restore(payload)
}

// WriteFile encodes c to path.
func WriteFile(path string, c *collection.Collection, comp Compression) error {
	b, err := Marshal(c, comp)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("codec: %w", err)
	}
	return nil
}

// ReadFile decodes the collection stored at path.
func ReadFile(path string) (*collection.Collection, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("codec: %w", err)
	}
	c, err := Unmarshal(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
