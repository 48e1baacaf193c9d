package codec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Kara-Zor-El/sqlvault/internal/catalog"
	"github.com/Kara-Zor-El/sqlvault/internal/types"
)

func buildFixture(t *testing.T) *catalog.Database {
	t.Helper()
	db := catalog.NewDatabase()
	cols := []catalog.Column{
		{Name: "id", Type: catalog.TypeInt, IsPrimaryKey: true, Default: types.NullValue()},
		{Name: "amount", Type: catalog.TypeDecimal, IsNullable: true, Default: types.NullValue()},
		{Name: "name", Type: catalog.TypeVarchar, IsNullable: true, Default: types.NullValue()},
		{Name: "active", Type: catalog.TypeBoolean, IsNullable: true, Default: types.NullValue()},
		{Name: "born", Type: catalog.TypeDate, IsNullable: true, Default: types.NullValue()},
		{Name: "seen", Type: catalog.TypeDateTime, IsNullable: true, Default: types.NullValue()},
		{Name: "note", Type: catalog.TypeText, IsNullable: true, Default: types.NullValue()},
	}
	tbl, err := catalog.NewTable("fixtures", cols, catalog.DefaultTreeOrder)
	require.NoError(t, err)

	amount, err := types.DecimalFromString("-1234.56780000")
	require.NoError(t, err)
	born, err := types.ParseDate("2024-03-05")
	require.NoError(t, err)
	seen, err := types.ParseDateTime("2024-03-05 12:30:45")
	require.NoError(t, err)

	row1, key1, err := tbl.BuildRow(map[string]types.Value{
		"id":     types.IntValue(1),
		"amount": amount,
		"name":   types.StringValue("Alice"),
		"active": types.BoolValue(true),
		"born":   types.DateValue(born),
		"seen":   types.DateTimeValue(seen),
		"note":   types.StringValue("hello world"),
	})
	require.NoError(t, err)
	require.NoError(t, tbl.Insert(row1, key1))

	row2, key2, err := tbl.BuildRow(map[string]types.Value{
		"id":     types.IntValue(2),
		"amount": types.NullValue(),
		"name":   types.NullValue(),
		"active": types.NullValue(),
		"born":   types.NullValue(),
		"seen":   types.NullValue(),
		"note":   types.NullValue(),
	})
	require.NoError(t, err)
	require.NoError(t, tbl.Insert(row2, key2))

	db.PutTable(tbl)
	return db
}

func TestCodec_SaveThenLoadIsIdentity(t *testing.T) {
	for _, compress := range []bool{false, true} {
		db := buildFixture(t)
		path := filepath.Join(t.TempDir(), "db.svdb")
		id := uuid.New()

		require.NoError(t, Save(path, db, id, compress))

		got, gotID, err := Load(path)
		require.NoError(t, err)
		require.Equal(t, id, gotID)

		tbl, err := got.GetTable("fixtures")
		require.NoError(t, err)

		row1, ok := tbl.Get("1")
		require.True(t, ok)
		amount, _ := row1.Get("amount")
		require.Equal(t, "-1234.5678", amount.String())
		name, _ := row1.Get("name")
		require.Equal(t, "Alice", name.String())
		active, _ := row1.Get("active")
		require.True(t, active.AsBool())
		born, _ := row1.Get("born")
		require.Equal(t, "2024-03-05", born.String())
		seen, _ := row1.Get("seen")
		require.Equal(t, "2024-03-05 12:30:45", seen.String())
		note, _ := row1.Get("note")
		require.Equal(t, "hello world", note.String())

		row2, ok := tbl.Get("2")
		require.True(t, ok)
		amount2, _ := row2.Get("amount")
		require.True(t, amount2.IsNull())
		name2, _ := row2.Get("name")
		require.True(t, name2.IsNull())
	}
}

func TestCodec_Load_RejectsWrongMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.svdb")
	require.NoError(t, os.WriteFile(path, []byte("not a sqlvault file at all, way too short? no, long enough"), 0o644))

	_, _, err := Load(path)
	require.Error(t, err)
}

func TestCodec_Load_RejectsChecksumMismatch(t *testing.T) {
	db := buildFixture(t)
	path := filepath.Join(t.TempDir(), "db.svdb")
	require.NoError(t, Save(path, db, uuid.New(), false))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	// Flip a byte inside the body, after the 26-byte header, to break the checksum.
	raw[30] ^= 0xFF
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, _, err = Load(path)
	require.Error(t, err)
}

func TestCodec_Load_MissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.svdb"))
	require.Error(t, err)
}

func TestCodec_DecimalRoundTrip_NegativeAndZero(t *testing.T) {
	for _, s := range []string{"0", "-0.00000001", "99999999999.99999999", "-99999999999.99999999"} {
		v, err := types.DecimalFromString(s)
		require.NoError(t, err)
		b := decimalToBytes(v.AsDecimalUnscaled())
		require.Len(t, b, decimalByteLen)
		rt := bytesToDecimal(b)
		require.Equal(t, v.AsDecimalUnscaled().String(), rt.String())
	}
}
