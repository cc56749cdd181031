package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractMentions(t *testing.T) {
	mentions := ExtractMentions("shot with @Alice and @bob.marley, thanks @alice!")
	assert.Equal(t, []string{"alice", "bob.marley"}, mentions)
}

func TestExtractMentionsLengthBounds(t *testing.T) {
	assert.Empty(t, ExtractMentions("hi @ab"))
	assert.Empty(t, ExtractMentions("@"+strings.Repeat("a", 31)))
	assert.Empty(t, ExtractMentions("no mentions here"))
}

func TestExtractHashtags(t *testing.T) {
	tags := ExtractHashtags("golden hour #Sunset over #lisbon. #sunset again")
	assert.Equal(t, []string{"sunset", "lisbon"}, tags)
}

func TestExtractHashtagsIgnoresBareSymbol(t *testing.T) {
	assert.Empty(t, ExtractHashtags("just a # and nothing else"))
}
