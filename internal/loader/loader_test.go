package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/outlier/internal/parquet"
	"github.com/huangsam/outlier/schema"
)

const rawCSV = `Port Name,State,Port Code,Border,Date,Measure,Value,Latitude,Longitude,Point
Detroit,Michigan,3801,US-Canada Border,Jan 2024,Trucks,"1,234",42.332,-83.048,POINT (-83.048 42.332)
El Paso,Texas,2402,US-Mexico Border,Feb 2024,Buses,n/a,31.764,-106.451,POINT (-106.451 31.764)
Laredo,Texas,2304,US-Mexico Border,sometime,Trucks,500,,,
`

func TestReadCSV_RawLayout(t *testing.T) {
	records, err := ReadCSV(strings.NewReader(rawCSV))
	require.NoError(t, err)
	require.Len(t, records, 3)

	first := records[0]
	assert.Equal(t, int64(1), first.ID)
	require.True(t, first.HasValue())
	assert.Equal(t, 1234.0, *first.Value)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, "Detroit", first.Attributes[schema.AttrPortName])
	assert.Equal(t, "3801", first.Attributes[schema.AttrPortCode])
	assert.Equal(t, "US-Canada Border", first.Attributes[schema.AttrBorder])
	assert.Equal(t, "POINT (-83.048 42.332)", first.Attributes[schema.AttrPoint])

	assert.Equal(t, int64(2), records[1].ID)
	assert.False(t, records[1].HasValue(), "unparsable value becomes missing")
	assert.Equal(t, "2024-02-01", records[1].DateString())

	assert.Equal(t, int64(3), records[2].ID)
	assert.False(t, records[2].HasDate(), "unparsable date becomes missing")
	assert.NotContains(t, records[2].Attributes, schema.AttrLatitude)
}

func TestReadCSV_NormalizedLayout(t *testing.T) {
	data := "id,date,value,state\n10,2024-03-01,5,Texas\n11,2024-04,,Maine\nx,,7,\n"
	records, err := ReadCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, int64(10), records[0].ID)
	assert.Equal(t, "2024-03-01", records[0].DateString())
	assert.Equal(t, "Texas", records[0].Attributes[schema.AttrState])

	assert.Equal(t, int64(11), records[1].ID)
	assert.Equal(t, "2024-04-01", records[1].DateString())
	assert.False(t, records[1].HasValue())

	// An unparsable id falls back to the row number.
	assert.Equal(t, int64(3), records[2].ID)
	assert.Empty(t, records[2].Attributes)
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorContains(t, err, "failed to read csv header")

	_, err = ReadCSV(strings.NewReader("id,date\n1,2024-01-01\n"))
	assert.ErrorIs(t, err, ErrNoValueColumn)
}

func TestReadCSV_ByteOrderMark(t *testing.T) {
	records, err := ReadCSV(strings.NewReader("\ufeffValue,Date\n3,Mar 2020\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 3.0, *records[0].Value)
	assert.Equal(t, "2020-03-01", records[0].DateString())
}

func TestNormalizeColumn(t *testing.T) {
	assert.Equal(t, "port_name", normalizeColumn(" Port  Name "))
	assert.Equal(t, "value", normalizeColumn("VALUE"))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("csv", func(t *testing.T) {
		path := filepath.Join(dir, "data.csv")
		require.NoError(t, os.WriteFile(path, []byte(rawCSV), 0o644))
		records, err := Load(path)
		require.NoError(t, err)
		assert.Len(t, records, 3)
	})

	t.Run("parquet", func(t *testing.T) {
		path := filepath.Join(dir, "data.parquet")
		file, err := os.Create(path)
		require.NoError(t, err)
		want := []schema.Record{{ID: 7, Value: schema.Float(42), Date: time.Date(2022, time.May, 1, 0, 0, 0, 0, time.UTC), Attributes: map[string]string{schema.AttrState: "Maine"}}}
		require.NoError(t, parquet.WriteRecords(file, want))
		require.NoError(t, file.Close())

		records, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, want, records)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "missing.csv"))
		assert.ErrorContains(t, err, "failed to open csv file")
	})
}
