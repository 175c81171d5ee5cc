package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepoNameFromURL(t *testing.T) {
	cases := map[string]string{
		"https://github.com/acme/widgets.git": "widgets",
		"https://github.com/acme/widgets":     "widgets",
		"git@github.com:acme/widgets.git":     "widgets",
		"ssh://git@sr.ht/~acme/widgets":       "widgets",
		"https://github.com/acme/widgets/":    "widgets",
		"widgets":                             "widgets",
	}
	for url, want := range cases {
		assert.Equal(t, want, RepoNameFromURL(url), "url %q", url)
	}
}
