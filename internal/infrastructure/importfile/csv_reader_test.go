package importfile

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, r RecordReader) (records []*ProductRecord, rowErrs []string) {
	t.Helper()
	for {
		rec, rowErr, err := r.Next()
		if err == io.EOF {
			return records, rowErrs
		}
		require.NoError(t, err)
		if rowErr != nil {
			rowErrs = append(rowErrs, rowErr.Code)
			continue
		}
		records = append(records, rec)
	}
}

func TestCSVRecordReader_ReadsRows(t *testing.T) {
	input := "sku,title,price,stock_level,attr:color\n" +
		"A-1,Wool Socks,9.99,12,red\n" +
		"A-2,Cotton Socks,4.50,0,blue\n"

	reader, err := NewCSVRecordReader(strings.NewReader(input))
	require.NoError(t, err)

	records, rowErrs := readAll(t, reader)
	require.Len(t, records, 2)
	assert.Empty(t, rowErrs)

	assert.Equal(t, "A-1", records[0].SKU)
	assert.Equal(t, 2, records[0].Line)
	assert.Equal(t, "Wool Socks", records[0].Fields["title"])
	assert.Equal(t, "9.99", records[0].Fields["price"])
	assert.Equal(t, "red", records[0].Fields["attr:color"])
	assert.Equal(t, "A-2", records[1].SKU)
}

func TestCSVRecordReader_StripsBOM(t *testing.T) {
	input := "\xEF\xBB\xBFsku,title\nA-1,Socks\n"

	reader, err := NewCSVRecordReader(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"sku", "title"}, reader.Headers())

	records, _ := readAll(t, reader)
	require.Len(t, records, 1)
	assert.Equal(t, "A-1", records[0].SKU)
}

func TestCSVRecordReader_EmptyFile(t *testing.T) {
	_, err := NewCSVRecordReader(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestCSVRecordReader_InvalidEncoding(t *testing.T) {
	_, err := NewCSVRecordReader(strings.NewReader("sku,title\n\xFF\xFE bad\n"))
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestCSVRecordReader_UnknownColumn(t *testing.T) {
	_, err := NewCSVRecordReader(strings.NewReader("sku,warehouse\nA-1,3\n"))
	require.ErrorIs(t, err, ErrHeaderMismatch)
	assert.Contains(t, err.Error(), "warehouse")
}

func TestCSVRecordReader_MissingSKUColumn(t *testing.T) {
	_, err := NewCSVRecordReader(strings.NewReader("title,price\nSocks,9.99\n"))
	assert.ErrorIs(t, err, ErrHeaderMismatch)
}

func TestCSVRecordReader_MalformedRowDoesNotStopStream(t *testing.T) {
	input := "sku,title,price\n" +
		"A-1,Socks,9.99\n" +
		"A-2,Shirt\n" + // wrong column count
		"A-3,Hat,12.00\n"

	reader, err := NewCSVRecordReader(strings.NewReader(input))
	require.NoError(t, err)

	records, rowErrs := readAll(t, reader)
	require.Len(t, records, 2)
	assert.Equal(t, "A-1", records[0].SKU)
	assert.Equal(t, "A-3", records[1].SKU)
	assert.Equal(t, []string{CodeMalformedRow}, rowErrs)
}

func TestCSVRecordReader_TypedValues(t *testing.T) {
	input := "sku,price,stock_level\n" +
		"A-1,not-a-price,5\n" +
		"A-2,9.99,lots\n" +
		"A-3,9.99,5\n"

	reader, err := NewCSVRecordReader(strings.NewReader(input))
	require.NoError(t, err)

	var errs []string
	var cols []string
	var good []*ProductRecord
	for {
		rec, rowErr, err := reader.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if rowErr != nil {
			errs = append(errs, rowErr.Code)
			cols = append(cols, rowErr.Column)
			continue
		}
		good = append(good, rec)
	}

	assert.Equal(t, []string{CodeInvalidType, CodeInvalidType}, errs)
	assert.Equal(t, []string{"price", "stock_level"}, cols)
	require.Len(t, good, 1)
	assert.Equal(t, "A-3", good[0].SKU)
}

func TestCSVRecordReader_MissingSKUValue(t *testing.T) {
	input := "sku,title\n,Socks\n"

	reader, err := NewCSVRecordReader(strings.NewReader(input))
	require.NoError(t, err)

	rec, rowErr, err := reader.Next()
	require.NoError(t, err)
	assert.Nil(t, rec)
	require.NotNil(t, rowErr)
	assert.Equal(t, CodeMissingField, rowErr.Code)
	assert.Equal(t, "sku", rowErr.Column)
	assert.Equal(t, 2, rowErr.Row)
}
