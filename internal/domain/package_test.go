package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseGitHubURL(t *testing.T) {
	testCases := []struct {
		name  string
		url   string
		owner string
		repo  string
		ok    bool
	}{
		{name: "plain", url: "https://github.com/cloudinary/cloudinary_npm", owner: "cloudinary", repo: "cloudinary_npm", ok: true},
		{name: "www and .git", url: "https://www.github.com/lodash/lodash.git", owner: "lodash", repo: "lodash", ok: true},
		{name: "deep path", url: "https://github.com/o/r/tree/main", owner: "o", repo: "r", ok: true},
		{name: "trailing slash", url: " https://github.com/o/r/ ", owner: "o", repo: "r", ok: true},
		{name: "npm url", url: "https://www.npmjs.com/package/express", ok: false},
		{name: "owner only", url: "https://github.com/o", ok: false},
		{name: "garbage", url: "::not a url", ok: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			owner, repo, ok := ParseGitHubURL(tc.url)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.owner, owner)
			assert.Equal(t, tc.repo, repo)
		})
	}
}

func TestNewPackage(t *testing.T) {
	pkg := NewPackage("https://github.com/o/r", "/tmp/o_r")
	assert.True(t, pkg.OnGitHub())
	assert.Equal(t, "/tmp/o_r", pkg.Path)

	assert.False(t, NewPackage("https://example.com/x", "/tmp/x").OnGitHub())
}
