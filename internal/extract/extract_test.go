package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectPlainJSON(t *testing.T) {
	raw, err := Object(`{"name":"apple","score":92}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"apple","score":92}`, string(raw))
}

func TestObjectWithFencesAndProse(t *testing.T) {
	text := "Sure! Here is the analysis you asked for:\n```json\n{\"name\": \"banana\"}\n```\nLet me know if you need anything else."
	raw, err := Object(text)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"banana"}`, string(raw))
}

func TestObjectMultipleFences(t *testing.T) {
	text := "```\n{\"a\": 1}\n```\n"
	raw, err := Object(text)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(raw))
}

func TestObjectNoJSON(t *testing.T) {
	_, err := Object("I could not identify anything in this image.")
	var extractErr *Error
	require.ErrorAs(t, err, &extractErr)
	assert.Contains(t, extractErr.Text, "could not identify")
}

func TestObjectInvalidJSON(t *testing.T) {
	_, err := Object(`{"name": "apple", "score": }`)
	var extractErr *Error
	assert.ErrorAs(t, err, &extractErr)
}

func TestArray(t *testing.T) {
	text := "```json\n[{\"title\": \"Banana smoothie\"}, {\"title\": \"Spinach salad\"}]\n```"
	raw, err := Array(text)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"title":"Banana smoothie"},{"title":"Spinach salad"}]`, string(raw))
}

func TestArrayNoJSON(t *testing.T) {
	_, err := Array("no recipes today")
	var extractErr *Error
	assert.ErrorAs(t, err, &extractErr)
}

func TestDecodeObject(t *testing.T) {
	var out struct {
		Name  string `json:"name"`
		Score int    `json:"score"`
	}
	err := DecodeObject("prefix ```json\n{\"name\":\"kale\",\"score\":80}\n``` suffix", &out)
	require.NoError(t, err)
	assert.Equal(t, "kale", out.Name)
	assert.Equal(t, 80, out.Score)
}

func TestDecodeObjectTypeMismatchIsExtractionError(t *testing.T) {
	var out struct {
		Score int `json:"score"`
	}
	err := DecodeObject(`{"score": "very fresh"}`, &out)
	var extractErr *Error
	assert.True(t, errors.As(err, &extractErr))
}

func TestDecodeArray(t *testing.T) {
	var out []struct {
		Title string `json:"title"`
	}
	err := DecodeArray(`[{"title":"Soup"}]`, &out)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Soup", out[0].Title)
}
