package unitconverter

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type HistorySuite struct {
	suite.Suite
	h     *History
	clock time.Time
}

func (s *HistorySuite) SetupTest() {
	s.clock = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.h = NewHistory()
	s.h.now = s.tick
}

func (s *HistorySuite) TearDownTest() {
	s.Require().NoError(s.h.Close())
}

func (s *HistorySuite) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *HistorySuite) TestConvertRecordsResult() {
	require := require.New(s.T())
	rec, err := s.h.Convert("1", "Weight", "Kilograms", "Pounds")
	require.NoError(err)
	require.NotEqual(uuid.Nil, rec.ID)
	require.Equal("2.20462", rec.Output)
	require.True(rec.OK())

	records := s.h.Records()
	require.Len(records, 1)
	require.Equal(rec, records[0])
	require.Len(s.h.GetLogs(), 1)
}

func (s *HistorySuite) TestSentinelOutputIsRecorded() {
	require := require.New(s.T())
	rec, err := s.h.Convert("abc", "Weight", "Kilograms", "Pounds")
	require.NoError(err)
	require.Equal("Invalid Input", rec.Output)
	require.False(rec.OK())

	rec, err = s.h.Convert("1", "Length", "Meters", "Celsius")
	require.NoError(err)
	require.Equal("Invalid Conversion", rec.Output)
	require.False(rec.OK())
	require.Len(s.h.Records(), 2)
}

func (s *HistorySuite) TestRecordsAreOrderedCopies() {
	require := require.New(s.T())
	first, _ := s.h.Convert("0", "Temperature", "Celsius", "Kelvin")
	second, _ := s.h.Convert("1", "Length", "Yards", "Feet")

	records := s.h.Records()
	require.Equal([]Record{first, second}, records)
	records[0].Output = "mutated"
	require.Equal("273.15000", s.h.Records()[0].Output)
}

func (s *HistorySuite) TestClear() {
	require := require.New(s.T())
	_, _ = s.h.Convert("1", "Length", "Yards", "Feet")
	require.NoError(s.h.Clear())
	require.Empty(s.h.Records())
}

func (s *HistorySuite) TestSQLiteMemory() {
	require := require.New(s.T())
	require.NoError(s.h.WithSQLite(":memory:"))
	rec, err := s.h.Convert("1", "Length", "Meters", "Yards")
	require.NoError(err)

	loaded, err := s.h.loadRecords()
	require.NoError(err)
	require.Len(loaded, 1)
	require.Equal(rec.ID, loaded[0].ID)
	require.True(rec.Timestamp.Equal(loaded[0].Timestamp))
	require.Equal("1.09361", loaded[0].Output)

	require.NoError(s.h.Clear())
	loaded, err = s.h.loadRecords()
	require.NoError(err)
	require.Empty(loaded)
}

func (s *HistorySuite) TestSecondAttachRejected() {
	require := require.New(s.T())
	require.NoError(s.h.WithSQLite(":memory:"))
	_, err := s.h.Convert("1", "Length", "Yards", "Feet")
	require.NoError(err)

	require.ErrorIs(s.h.WithSQLite(":memory:"), ErrDBAttached)

	// the first database is still in use
	_, err = s.h.Convert("1", "Length", "Feet", "Inches")
	require.NoError(err)
	loaded, err := s.h.loadRecords()
	require.NoError(err)
	require.Len(loaded, 2)
}

func TestHistorySuite(t *testing.T) {
	suite.Run(t, new(HistorySuite))
}

func TestHistoryReopenLoadsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	h := NewHistory()
	require.NoError(t, h.WithSQLite(path))
	a, err := h.Convert("32", "Temperature", "Fahrenheit", "Celsius")
	require.NoError(t, err)
	b, err := h.Convert("1", "Weight", "Kilograms", "Ounces")
	require.NoError(t, err)
	require.NoError(t, h.Close())

	reopened := NewHistory()
	require.NoError(t, reopened.WithSQLite(path))
	defer reopened.Close()

	records := reopened.Records()
	require.Len(t, records, 2)
	require.Equal(t, a.ID, records[0].ID)
	require.Equal(t, "0.00000", records[0].Output)
	require.Equal(t, b.ID, records[1].ID)
	require.Equal(t, "35.27400", records[1].Output)
}

func TestHistoryConvertMatchesEngine(t *testing.T) {
	h := NewHistory()
	cases := [][4]string{
		{"0", "Temperature", "Celsius", "Fahrenheit"},
		{"", "Temperature", "Celsius", "Fahrenheit"},
		{"5", "Nonsense", "Foo", "Foo"},
	}
	for _, c := range cases {
		rec, err := h.Convert(c[0], c[1], c[2], c[3])
		require.NoError(t, err)
		require.Equal(t, Convert(c[0], c[1], c[2], c[3]), rec.Output)
	}
}

func TestAttachKeepsEarlierRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	h := NewHistory()
	before, err := h.Convert("1", "Weight", "Pounds", "Ounces")
	require.NoError(t, err)
	require.NoError(t, h.WithSQLite(path))
	after, err := h.Convert("1", "Weight", "Ounces", "Grams")
	require.NoError(t, err)

	records := h.Records()
	require.Len(t, records, 2)
	require.Equal(t, before.ID, records[0].ID)
	require.Equal(t, after.ID, records[1].ID)
	require.NoError(t, h.Close())

	reopened := NewHistory()
	require.NoError(t, reopened.WithSQLite(path))
	defer reopened.Close()
	records = reopened.Records()
	require.Len(t, records, 2)
	require.Equal(t, before.ID, records[0].ID)
	require.Equal(t, "16.00000", records[0].Output)
}
