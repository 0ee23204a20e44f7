package csvload

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRows_FileOrderAndColumns(t *testing.T) {
	in := "Url,Fieldname,Value,Action\n" +
		"https://a.test,promo,SAVE10,click|#submit\n" +
		"https://b.test,promo,SAVE20,\n"

	rows, err := ReadRows(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "https://a.test", rows[0].URL())
	assert.Equal(t, "click|#submit", rows[0].Action())
	assert.Equal(t, "https://b.test", rows[1].URL())
	assert.Equal(t, "", rows[1].Action())
	assert.Equal(t, []string{"Url", "Fieldname", "Value", "Action"}, rows[1].Keys())
}

func TestReadRows_ShortRecordPadded(t *testing.T) {
	rows, err := ReadRows(strings.NewReader("Url,Fieldname,Value\nhttps://a.test,promo\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	v, ok := rows[0].Get("Value")
	assert.True(t, ok)
	assert.Equal(t, "", v)
}

func TestReadRows_StripsBOMAndSkipsBlankLines(t *testing.T) {
	in := "\ufeffUrl,Fieldname,Value\n\nhttps://a.test,k,v\n\n"

	rows, err := ReadRows(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "https://a.test", rows[0].URL())
}

func TestReadRows_MissingColumn(t *testing.T) {
	_, err := ReadRows(strings.NewReader("Url,Value\nx,y\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.Contains(t, err.Error(), "Fieldname")
}

func TestReadRows_EmptyInput(t *testing.T) {
	_, err := ReadRows(strings.NewReader(""))
	assert.True(t, errors.Is(err, ErrMissingColumn))
}

func TestReadRows_MalformedQuote(t *testing.T) {
	_, err := ReadRows(strings.NewReader("Url,Fieldname,Value\n\"https://a.test,k,v\n"))
	assert.Error(t, err)
}

func TestLoadRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.csv")
	require.NoError(t, os.WriteFile(path, []byte("Url,Fieldname,Value\nhttps://a.test,k,v\n"), 0o644))

	rows, err := LoadRows(path)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = LoadRows(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
