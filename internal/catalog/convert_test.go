package catalog

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorize(t *testing.T) {
	tests := map[string]string{
		"chest tightness":     "cardiovascular",
		"shortness of breath": "respiratory",
		"dizziness":           "neurological",
		"Headache":            "neurological",
		"nausea":              "gastrointestinal",
		"knee pain":           "musculoskeletal",
		"skin rash":           "dermatological",
		"insomnia":            "psychological",
		"painful urination":   "urological",
		"blurred vision":      "visual",
		"tinnitus":            "ENT",
		"menstrual cramps":    "reproductive",
		"fatigue":             "general",
	}
	for name, want := range tests {
		assert.Equal(t, want, Categorize(name), name)
	}
}

func TestCategorizeFirstRuleWins(t *testing.T) {
	// "chest" is cardiovascular and beats "arm".
	assert.Equal(t, "cardiovascular", Categorize("chest and arm pain"))
	// "throat" is respiratory and the respiratory rule precedes ENT.
	assert.Equal(t, "respiratory", Categorize("sore throat"))
}

func TestConvert(t *testing.T) {
	dataset := "diseases,anxiety and nervousness,shortness of breath,,Anxiety and Nervousness,dizziness\n" +
		"panic disorder,1,0,0,0,1\n"

	got, err := Convert(strings.NewReader(dataset))
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "S00001", got[0].Code)
	assert.Equal(t, "anxiety and nervousness", got[0].Name)
	assert.Equal(t, []string{"anxiety and nervousness"}, got[0].Aliases)
	assert.Equal(t, "psychological", got[0].Category)

	assert.Equal(t, "S00002", got[1].Code)
	assert.Equal(t, "S00005", got[2].Code, "codes follow column position")
	assert.Equal(t, "neurological", got[2].Category)
}

func TestConvertErrors(t *testing.T) {
	_, err := Convert(strings.NewReader(""))
	assert.Error(t, err)
	_, err = Convert(strings.NewReader("diseases\n"))
	assert.Error(t, err)
}

func TestConvertThenOpen(t *testing.T) {
	symptoms, err := Convert(strings.NewReader("diseases,cough,fever,chest pain\n"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "catalog.csv")
	require.NoError(t, Init(path, symptoms))
	assert.Error(t, Init(path, symptoms), "Init must not overwrite")

	c, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, symptoms, c.All())
	s, ok := c.Lookup("Chest Pain")
	require.True(t, ok)
	assert.Equal(t, "S00003", s.Code)
}

func TestWriteCSV(t *testing.T) {
	symptoms, err := Convert(strings.NewReader("diseases,cough\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, symptoms))
	assert.Equal(t, "code,name,aliases,category\r\nS00001,cough,cough,respiratory\r\n", buf.String())
}
