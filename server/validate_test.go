package server

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowfield/config"
)

func TestParseConnectParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Identity
		kind  error
		msg   string
	}{
		{name: "ok", query: "name=%20Alice%20&character_id=MALE-C", want: Identity{Name: "Alice", CharacterID: "male-c"}},
		{name: "fifty runes", query: "name=" + strings.Repeat("é", 50) + "&character_id=female-f", want: Identity{Name: strings.Repeat("é", 50), CharacterID: "female-f"}},
		{name: "missing name", query: "character_id=male-a", kind: ErrInvalidName, msg: "Missing required parameter: name"},
		{name: "empty name", query: "name=&character_id=male-a", kind: ErrInvalidName, msg: "Missing required parameter: name"},
		{name: "missing character", query: "name=Alice", kind: ErrInvalidCharacter, msg: "Missing required parameter: character_id"},
		{name: "empty character", query: "name=Alice&character_id=", kind: ErrInvalidCharacter, msg: "Missing required parameter: character_id"},
		{name: "blank name", query: "name=%20&character_id=male-a", kind: ErrInvalidName, msg: "Name cannot be empty"},
		{name: "long name", query: "name=" + strings.Repeat("a", 51) + "&character_id=male-a", kind: ErrInvalidName, msg: "Name must be 50 characters or less"},
		{name: "bad letter", query: "name=Alice&character_id=male-g", kind: ErrInvalidCharacter, msg: "Invalid character_id format"},
		{name: "padded character", query: "name=Alice&character_id=male-a%20", kind: ErrInvalidCharacter, msg: "Invalid character_id format"},
		{name: "bad prefix", query: "name=Alice&character_id=robot-a", kind: ErrInvalidCharacter, msg: "Invalid character_id format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			got, err := ParseConnectParams(q)
			if tt.kind != nil {
				require.ErrorIs(t, err, tt.kind)
				assert.Equal(t, tt.msg, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChatPolicyCheck(t *testing.T) {
	p := NewChatPolicy(config.Default().Chat)

	text, err := p.Check("  hi there \n")
	require.NoError(t, err)
	assert.Equal(t, "hi there", text)

	_, err = p.Check(" \t ")
	assert.ErrorIs(t, err, ErrChatEmpty)

	_, err = p.Check(strings.Repeat("x", 500))
	assert.NoError(t, err)
	_, err = p.Check(strings.Repeat("x", 501))
	assert.ErrorIs(t, err, ErrChatTooLong)
	assert.Equal(t, "Message must be 500 characters or less", err.Error())
}

func TestChatPolicyUpdate(t *testing.T) {
	p := NewChatPolicy(config.Default().Chat)

	ten := 10
	changed, err := p.Update(ChatSettings{MaxLength: &ten})
	require.NoError(t, err)
	assert.False(t, changed)
	_, err = p.Check(strings.Repeat("x", 11))
	assert.ErrorIs(t, err, ErrChatTooLong)

	window := int64(1000)
	changed, err = p.Update(ChatSettings{RateWindowMs: &window})
	require.NoError(t, err)
	assert.True(t, changed)
	limit, burst := p.Limit()
	assert.Equal(t, 5, burst)
	assert.InDelta(t, 5.0, float64(limit), 1e-9)

	zero := 0
	_, err = p.Update(ChatSettings{RateMessages: &zero})
	assert.Error(t, err)
}
