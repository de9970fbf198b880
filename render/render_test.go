package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Plain_Is_Passthrough(t *testing.T) {
	out, err := Plain{}.Render("# heading\n**bold**")
	require.NoError(t, err)
	require.Equal(t, "# heading\n**bold**", out)
}

func Test_Markdown_Renders_Once(t *testing.T) {
	req := require.New(t)
	markdown, err := NewMarkdown(80)
	req.NoError(err)

	out, err := markdown.Render("some **bold** text")
	req.NoError(err)
	req.NotEmpty(out)
	req.True(strings.Contains(out, "bold"))
}
