package csvcodec

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/inventario/pkg/types"
)

var testLoc = time.FixedZone("BRT", -3*60*60)

func newTestCodec() *Codec {
	fixed := time.Date(2030, 1, 2, 3, 4, 5, 0, testLoc)
	return New(WithLocation(testLoc), WithClock(func() time.Time { return fixed }))
}

func assertSameRecords(t *testing.T, want, got []types.Record) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Code, got[i].Code, "record %d code", i)
		assert.Equal(t, want[i].Quantity, got[i].Quantity, "record %d quantity", i)
		assert.True(t, want[i].Timestamp.Equal(got[i].Timestamp),
			"record %d timestamp: want %s, got %s", i, want[i].Timestamp, got[i].Timestamp)
	}
}

func TestEncodeWritesHeaderAndRows(t *testing.T) {
	c := newTestCodec()
	ts := time.Date(2025, 3, 1, 10, 30, 0, 0, testLoc)

	out := string(c.Encode([]types.Record{
		{Code: "A1", Quantity: 3, Timestamp: ts},
		{Code: "a,b", Quantity: 1, Timestamp: ts},
		{Code: `say "hi"`, Quantity: 2, Timestamp: ts},
	}))

	want := "codigo,quantidade,data_hora_iso\n" +
		"A1,3,2025-03-01T10:30:00-03:00\n" +
		`"a,b",1,2025-03-01T10:30:00-03:00` + "\n" +
		`"say ""hi""",2,2025-03-01T10:30:00-03:00` + "\n"
	assert.Equal(t, want, out)
}

func TestEncodeEmptyWritesHeaderOnly(t *testing.T) {
	assert.Equal(t, Header+"\n", string(newTestCodec().Encode(nil)))
}

func TestRoundTrip(t *testing.T) {
	c := newTestCodec()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, testLoc)
	records := []types.Record{
		{Code: "A1", Quantity: 5, Timestamp: base},
		{Code: "7891234567890", Quantity: 12, Timestamp: base.Add(time.Minute)},
		{Code: "a,b,c", Quantity: 1, Timestamp: base.Add(2 * time.Minute)},
		{Code: `he said "ok"`, Quantity: 2, Timestamp: base.Add(3 * time.Minute)},
		{Code: "semi;colon", Quantity: 3, Timestamp: base.Add(4 * time.Minute)},
		{Code: "line\nbreak", Quantity: 4, Timestamp: base.Add(5 * time.Minute)},
		{Code: " padded ", Quantity: 6, Timestamp: base.Add(6 * time.Minute).UTC()},
	}

	got := c.Decode(c.Encode(records))

	assertSameRecords(t, records, got)
}

func TestDecodeNeverFails(t *testing.T) {
	c := newTestCodec()
	inputs := []string{
		"",
		"\n\n\n",
		"garbage",
		`"unterminated,1,2025-03-01T10:00:00Z`,
		";;;;;;",
		",,,",
		"codigo,quantidade,data_hora_iso",
		"\x00\x01\x02,\xff\xfe,",
		strings.Repeat(`"`, 101),
	}

	for _, in := range inputs {
		assert.NotPanics(t, func() { c.Decode([]byte(in)) }, "input %q", in)
	}
}

func TestDecodeSkipsMalformedRows(t *testing.T) {
	c := newTestCodec()
	in := Header + "\n" +
		"GOOD1,2,2025-03-01T10:00:00Z\n" +
		"BADQTY,abc,2025-03-01T10:00:00Z\n" +
		"SHORT,2\n" +
		"ZERO,0,2025-03-01T10:00:00Z\n" +
		"NEG,-4,2025-03-01T10:00:00Z\n" +
		",3,2025-03-01T10:00:00Z\n" +
		"GOOD2,7,2025-03-01T11:00:00Z,extra\n"

	got := c.Decode([]byte(in))

	require.Len(t, got, 2)
	assert.Equal(t, "GOOD1", got[0].Code)
	assert.Equal(t, "GOOD2", got[1].Code)
	assert.Equal(t, 7, got[1].Quantity)
}

func TestDecodeStrayQuoteIsLiteral(t *testing.T) {
	c := newTestCodec()
	in := Header + "\n" +
		`ab"c,1,2025-01-01T00:00:00Z` + "\n" +
		"X1,2,2025-01-01T00:00:00Z\n" +
		"X2,3,2025-01-01T00:00:00Z\n"

	got := c.Decode([]byte(in))

	require.Len(t, got, 3)
	assert.Equal(t, `ab"c`, got[0].Code)
	assert.Equal(t, "X1", got[1].Code)
	assert.Equal(t, "X2", got[2].Code)
	assert.Equal(t, 3, got[2].Quantity)
}

func TestDecodeUnterminatedQuoteDropsOnlyItsLine(t *testing.T) {
	c := newTestCodec()
	in := Header + "\n" +
		"X0,1,2025-01-01T00:00:00Z\n" +
		`"open,1,2025-01-01T00:00:00Z` + "\n" +
		"X1,2,2025-01-01T00:00:00Z\n" +
		`"multi` + "\n" + `line",4,2025-01-01T00:00:00Z` + "\n" +
		"X2,3,2025-01-01T00:00:00Z\n"

	got := c.Decode([]byte(in))

	codes := make([]string, 0, len(got))
	for _, r := range got {
		codes = append(codes, r.Code)
	}
	assert.Equal(t, []string{"X0", "X1", "multi\nline", "X2"}, codes)
}

func TestDecodeQuoteAfterFieldStartWhitespace(t *testing.T) {
	c := newTestCodec()
	in := `  "a,b" , 2 ,2025-01-01T00:00:00Z` + "\n" +
		`x"y"z,3,2025-01-01T00:00:00Z` + "\n"

	got := c.Decode([]byte(in))

	require.Len(t, got, 2)
	assert.Equal(t, "a,b", got[0].Code)
	assert.Equal(t, 2, got[0].Quantity)
	assert.Equal(t, `x"y"z`, got[1].Code)
}

func TestDecodeSemicolonDelimiter(t *testing.T) {
	c := newTestCodec()
	in := "codigo;quantidade;data_hora_iso\n" +
		`"A,1";3;2025-03-01T10:00:00Z` + "\n" +
		"B2;4;2025-03-01T11:00:00Z\n"

	got := c.Decode([]byte(in))

	require.Len(t, got, 2)
	assert.Equal(t, "A,1", got[0].Code)
	assert.Equal(t, 3, got[0].Quantity)
	assert.Equal(t, "B2", got[1].Code)
	assert.Equal(t, 4, got[1].Quantity)
}

func TestDecodeWithoutHeaderTreatsAllLinesAsData(t *testing.T) {
	c := newTestCodec()
	in := "A1,2,2025-03-01T10:00:00Z\nB2,3,2025-03-01T10:05:00Z\n"

	got := c.Decode([]byte(in))

	require.Len(t, got, 2)
	assert.Equal(t, "A1", got[0].Code)
	assert.Equal(t, "B2", got[1].Code)
}

func TestDecodeHeaderIsCaseInsensitive(t *testing.T) {
	c := newTestCodec()
	in := "CODIGO, Quantidade ,Data_Hora_ISO\r\nA1,2,2025-03-01T10:00:00Z\r\n"

	got := c.Decode([]byte(in))

	require.Len(t, got, 1)
	assert.Equal(t, "A1", got[0].Code)
}

func TestDecodeDuplicateCodesLastWins(t *testing.T) {
	c := newTestCodec()
	in := Header + "\n" +
		"A1,1,2025-03-01T10:00:00Z\n" +
		"B2,2,2025-03-01T10:01:00Z\n" +
		"A1,9,2025-03-01T10:02:00Z\n"

	got := c.Decode([]byte(in))

	require.Len(t, got, 2)
	assert.Equal(t, "A1", got[0].Code)
	assert.Equal(t, 9, got[0].Quantity)
	assert.True(t, got[0].Timestamp.Equal(time.Date(2025, 3, 1, 10, 2, 0, 0, time.UTC)))
	assert.Equal(t, "B2", got[1].Code)
}

func TestDecodeStripsByteOrderMark(t *testing.T) {
	c := newTestCodec()
	in := "\ufeff" + Header + "\nA1,2,2025-03-01T10:00:00Z\n"

	got := c.Decode([]byte(in))

	require.Len(t, got, 1)
	assert.Equal(t, "A1", got[0].Code)
}

func TestDecodeUnparsableTimestampUsesClock(t *testing.T) {
	c := newTestCodec()
	in := Header + "\nA1,2,not-a-date\n"

	got := c.Decode([]byte(in))

	require.Len(t, got, 1)
	assert.True(t, got[0].Timestamp.Equal(time.Date(2030, 1, 2, 3, 4, 5, 0, testLoc)))
}
