package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected Money
		wantErr  bool
	}{
		{name: "plain amount", input: "120.50", expected: 12050},
		{name: "no fraction", input: "99", expected: 9900},
		{name: "one fractional digit", input: "3.5", expected: 350},
		{name: "zero", input: "0.00", expected: 0},
		{name: "leading dot", input: ".75", expected: 75},
		{name: "negative", input: "-2.25", expected: -225},
		{name: "too many fractional digits", input: "1.234", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "not a number", input: "abc", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseMoney(tc.input)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMoney)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "120.50", Money(12050).String())
	assert.Equal(t, "0.05", Money(5).String())
	assert.Equal(t, "-2.25", Money(-225).String())
}

func TestMoneyMul(t *testing.T) {
	assert.Equal(t, Money(36150), Money(12050).Mul(3))
}

func TestMoneyUnmarshalJSON(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected Money
		wantErr  bool
	}{
		{name: "decimal string", input: `"120.50"`, expected: 12050},
		{name: "bare number", input: `120.5`, expected: 12050},
		{name: "integer number", input: `99`, expected: 9900},
		{name: "null", input: `null`, expected: 0},
		{name: "garbage string", input: `"abc"`, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var m Money
			err := json.Unmarshal([]byte(tc.input), &m)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, m)
		})
	}
}

func TestMoneyMarshalJSON(t *testing.T) {
	data, err := json.Marshal(Money(12050))
	require.NoError(t, err)
	assert.Equal(t, `"120.50"`, string(data))
}

func TestPostDecoding(t *testing.T) {
	payload := `{
		"id": 7,
		"user": {"id": 1, "username": "vermeer"},
		"title": "Girl with a Pearl Earring",
		"price": "1200.00",
		"is_sold": true,
		"likes_count": 3,
		"created_at": "2026-08-01T12:00:00Z"
	}`

	var post Post
	require.NoError(t, json.Unmarshal([]byte(payload), &post))
	assert.Equal(t, 7, post.ID)
	assert.Equal(t, "vermeer", post.User.Username)
	assert.Equal(t, Money(120000), post.Price)
	assert.True(t, post.IsSold)
	assert.Equal(t, 3, post.LikesCount)
	assert.Equal(t, 2026, post.CreatedAt.Year())
}
