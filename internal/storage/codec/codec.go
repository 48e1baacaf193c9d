// Package codec implements the whole-file binary save/load format: on any
// mutating statement the entire catalog is rewritten (no incremental
// updates, no journaling), and on startup the whole file is decoded back
// into a fresh Database. Grounded on the teacher's internal/storage.{Encode,Decode}Row
// null-bitmap-and-length-prefixed-fields idiom, generalized from a single
// row's fixed schema to a whole multi-table catalog, and extended with a
// uuid file identity, an optional snappy-compressed body, and a murmur3
// content checksum footer (SPEC_FULL.md §4.2).
package codec

import (
	"bytes"
	"math/big"
	"os"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"
	"github.com/spaolacci/murmur3"

	"github.com/Kara-Zor-El/sqlvault/internal/bx"
	"github.com/Kara-Zor-El/sqlvault/internal/catalog"
	"github.com/Kara-Zor-El/sqlvault/internal/errx"
	"github.com/Kara-Zor-El/sqlvault/internal/types"
)

// magic identifies a sqlvault database file; version gates the on-disk
// layout so a future format change can be detected instead of silently
// misparsed.
var magic = [4]byte{'S', 'V', 'D', 'B'}

const version = 1

const decimalByteLen = 16 // 128-bit fixed point, per spec §6

// Save rewrites path with the entire contents of db. id is the file's
// identity UUID; callers pass back the id returned from Load (or a freshly
// minted one for a brand-new file) so successive saves of the same
// in-memory catalog keep a stable identity across process restarts.
func Save(path string, db *catalog.Database, id uuid.UUID, compress bool) error {
	body := encodeCatalog(db)
	sum := murmur3.Sum64(body)

	payload := body
	if compress {
		payload = snappy.Encode(nil, body)
	}

	var buf bytes.Buffer
	buf.Write(magic[:])
	buf.WriteByte(version)
	idBytes, _ := id.MarshalBinary()
	buf.Write(idBytes)
	if compress {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	var lenBuf [4]byte
	bx.PutU32(lenBuf[:], uint32(len(payload)))
	buf.Write(lenBuf[:])
	buf.Write(payload)
	var sumBuf [8]byte
	bx.PutU64(sumBuf[:], sum)
	buf.Write(sumBuf[:])

	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Load decodes path into a fresh Database, re-running every Table
// invariant as it rebuilds each table (CorruptDatabase on any violation,
// per spec §4.2). Returns the file's identity UUID alongside the decoded
// Database so the caller can carry it into the next Save.
func Load(path string) (*catalog.Database, uuid.UUID, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, uuid.UUID{}, err
	}

	const headerLen = 4 + 1 + 16 + 1 + 4
	if len(raw) < headerLen+8 {
		return nil, uuid.UUID{}, errx.New(errx.CorruptDatabase, "database file is truncated")
	}
	if !bytes.Equal(raw[:4], magic[:]) {
		return nil, uuid.UUID{}, errx.New(errx.CorruptDatabase, "database file has an unrecognized magic header")
	}
	if raw[4] != version {
		return nil, uuid.UUID{}, errx.New(errx.CorruptDatabase, "database file has unsupported format version %d", raw[4])
	}

	var id uuid.UUID
	if err := id.UnmarshalBinary(raw[5:21]); err != nil {
		return nil, uuid.UUID{}, errx.Wrap(errx.CorruptDatabase, err, "database file has a malformed identity header")
	}
	compressed := raw[21] == 1
	bodyLen := bx.U32(raw[22:26])

	pos := headerLen
	if pos+int(bodyLen)+8 > len(raw) {
		return nil, uuid.UUID{}, errx.New(errx.CorruptDatabase, "database file is truncated")
	}
	payload := raw[pos : pos+int(bodyLen)]
	sumBytes := raw[pos+int(bodyLen) : pos+int(bodyLen)+8]

	body := payload
	if compressed {
		body, err = snappy.Decode(nil, payload)
		if err != nil {
			return nil, uuid.UUID{}, errx.Wrap(errx.CorruptDatabase, err, "database file body failed to decompress")
		}
	}

	wantSum := bx.U64(sumBytes)
	if murmur3.Sum64(body) != wantSum {
		return nil, uuid.UUID{}, errx.New(errx.CorruptDatabase, "database file checksum mismatch")
	}

	db, err := decodeCatalog(body)
	if err != nil {
		return nil, uuid.UUID{}, err
	}
	return db, id, nil
}

// ---- body encoding: u32 tableCount, then per-table column defs and rows ----

func encodeCatalog(db *catalog.Database) []byte {
	tables := db.AllTables()

	var buf bytes.Buffer
	var u32 [4]byte

	bx.PutU32(u32[:], uint32(len(tables)))
	buf.Write(u32[:])

	for _, tbl := range tables {
		writeString(&buf, tbl.Name)

		bx.PutU32(u32[:], uint32(len(tbl.Columns)))
		buf.Write(u32[:])
		for _, c := range tbl.Columns {
			writeString(&buf, c.Name)
			writeString(&buf, string(c.Type))
			buf.WriteByte(boolByte(c.IsPrimaryKey))
			buf.WriteByte(boolByte(c.IsNullable))
		}

		rows, _ := tbl.FullScan()
		bx.PutU32(u32[:], uint32(len(rows)))
		buf.Write(u32[:])
		for _, row := range rows {
			for _, c := range tbl.Columns {
				v, _ := row.Get(c.Name)
				if v.IsNull() {
					buf.WriteByte(1)
					continue
				}
				buf.WriteByte(0)
				encodeValue(&buf, v)
			}
		}
	}

	return buf.Bytes()
}

func decodeCatalog(body []byte) (*catalog.Database, error) {
	db := catalog.NewDatabase()
	r := &reader{buf: body}

	tableCount, err := r.u32()
	if err != nil {
		return nil, err
	}

	for i := uint32(0); i < tableCount; i++ {
		name, err := r.string()
		if err != nil {
			return nil, err
		}
		colCount, err := r.u32()
		if err != nil {
			return nil, err
		}

		cols := make([]catalog.Column, colCount)
		for j := uint32(0); j < colCount; j++ {
			colName, err := r.string()
			if err != nil {
				return nil, err
			}
			typTag, err := r.string()
			if err != nil {
				return nil, err
			}
			dt, ok := catalog.ParseDataType(typTag)
			if !ok {
				return nil, errx.New(errx.CorruptDatabase, "table %q column %q has unknown type tag %q", name, colName, typTag)
			}
			isPK, err := r.byteBool()
			if err != nil {
				return nil, err
			}
			isNullable, err := r.byteBool()
			if err != nil {
				return nil, err
			}
			cols[j] = catalog.Column{Name: colName, Type: dt, IsPrimaryKey: isPK, IsNullable: isNullable, Default: types.NullValue()}
		}

		tbl, err := catalog.NewTable(name, cols, catalog.DefaultTreeOrder)
		if err != nil {
			return nil, errx.Wrap(errx.CorruptDatabase, err, "table %q failed invariant validation on load", name)
		}

		recordCount, err := r.u32()
		if err != nil {
			return nil, err
		}
		for k := uint32(0); k < recordCount; k++ {
			row := catalog.NewRow()
			for _, c := range tbl.Columns {
				isNull, err := r.byteBool()
				if err != nil {
					return nil, err
				}
				if isNull {
					row.Set(c.Name, types.NullValue())
					continue
				}
				v, err := decodeValue(r, c.Type)
				if err != nil {
					return nil, err
				}
				row.Set(c.Name, v)
			}
			pkVal, _ := row.Get(tbl.PrimaryKeyColumn().Name)
			if pkVal.IsNull() {
				return nil, errx.New(errx.CorruptDatabase, "table %q has a row with a null primary key", name)
			}
			if _, dup := tbl.Get(pkVal.String()); dup {
				return nil, errx.New(errx.CorruptDatabase, "table %q has duplicate primary key %q", name, pkVal.String())
			}
			if err := tbl.Insert(row, pkVal.String()); err != nil {
				return nil, errx.Wrap(errx.CorruptDatabase, err, "table %q failed to rebuild its index on load", name)
			}
		}

		if !tbl.Validate() {
			return nil, errx.New(errx.CorruptDatabase, "table %q failed structural validation on load", name)
		}
		db.PutTable(tbl)
	}

	return db, nil
}

func writeString(buf *bytes.Buffer, s string) {
	var l [4]byte
	bx.PutU32(l[:], uint32(len(s)))
	buf.Write(l[:])
	buf.WriteString(s)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// ---- per-type value encodings, per spec §6 ----

func encodeValue(buf *bytes.Buffer, v types.Value) {
	switch v.Tag() {
	case types.Int:
		var b [4]byte
		bx.PutI32(b[:], int32(v.AsInt()))
		buf.Write(b[:])
	case types.Decimal:
		buf.Write(decimalToBytes(v.AsDecimalUnscaled()))
	case types.Bool:
		buf.WriteByte(boolByte(v.AsBool()))
	case types.DateTime:
		var b [8]byte
		bx.PutI64(b[:], v.AsTime().UnixNano())
		buf.Write(b[:])
	case types.Date:
		var b [4]byte
		bx.PutI32(b[:], int32(v.AsTime().Unix()/86400))
		buf.Write(b[:])
	case types.String:
		writeString(buf, v.AsString())
	}
}

func decodeValue(r *reader, dt catalog.DataType) (types.Value, error) {
	switch dt {
	case catalog.TypeInt:
		b, err := r.take(4)
		if err != nil {
			return types.Value{}, err
		}
		return types.IntValue(int64(bx.I32(b))), nil
	case catalog.TypeDecimal:
		b, err := r.take(decimalByteLen)
		if err != nil {
			return types.Value{}, err
		}
		return types.DecimalFromUnscaled(bytesToDecimal(b)), nil
	case catalog.TypeBoolean:
		ok, err := r.byteBool()
		if err != nil {
			return types.Value{}, err
		}
		return types.BoolValue(ok), nil
	case catalog.TypeDateTime:
		b, err := r.take(8)
		if err != nil {
			return types.Value{}, err
		}
		return types.DateTimeValue(time.Unix(0, bx.I64(b)).UTC()), nil
	case catalog.TypeDate:
		b, err := r.take(4)
		if err != nil {
			return types.Value{}, err
		}
		days := int64(bx.I32(b))
		return types.DateValue(time.Unix(days*86400, 0).UTC()), nil
	case catalog.TypeVarchar, catalog.TypeText:
		s, err := r.string()
		if err != nil {
			return types.Value{}, err
		}
		return types.StringValue(s), nil
	default:
		return types.Value{}, errx.New(errx.CorruptDatabase, "unknown column type %q during decode", dt)
	}
}

// decimalToBytes renders u as a fixed 16-byte little-endian two's
// complement integer (spec §6: "DECIMAL = 128-bit fixed point").
func decimalToBytes(u *big.Int) []byte {
	out := make([]byte, decimalByteLen)
	mag := new(big.Int).Abs(u)
	magBytes := mag.Bytes() // big-endian
	for i := 0; i < len(magBytes) && i < decimalByteLen; i++ {
		out[i] = magBytes[len(magBytes)-1-i]
	}
	if u.Sign() < 0 {
		// two's complement negate in place
		carry := uint16(1)
		for i := 0; i < decimalByteLen; i++ {
			v := uint16(^out[i]) + carry
			out[i] = byte(v)
			carry = v >> 8
		}
	}
	return out
}

func bytesToDecimal(b []byte) *big.Int {
	neg := b[decimalByteLen-1]&0x80 != 0
	work := make([]byte, decimalByteLen)
	copy(work, b)
	if neg {
		carry := uint16(1)
		for i := 0; i < decimalByteLen; i++ {
			v := uint16(^work[i]) + carry
			work[i] = byte(v)
			carry = v >> 8
		}
	}
	be := make([]byte, decimalByteLen)
	for i := 0; i < decimalByteLen; i++ {
		be[i] = work[decimalByteLen-1-i]
	}
	mag := new(big.Int).SetBytes(be)
	if neg {
		mag.Neg(mag)
	}
	return mag
}

// reader is a cursor over a decoded catalog body, returning CorruptDatabase
// on any out-of-bounds access instead of panicking.
type reader struct {
	buf []byte
	pos int
}

func (r *reader) take(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, errx.New(errx.CorruptDatabase, "database file body ended unexpectedly")
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return bx.U32(b), nil
}

func (r *reader) byteBool() (bool, error) {
	b, err := r.take(1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

func (r *reader) string() (string, error) {
	n, err := r.u32()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
