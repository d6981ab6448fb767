package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"hello", "world", "it", "s", "3d"}, Tokens("Hello, world! It's 3D."))
	assert.Empty(t, Tokens("  ...  "))
}

func TestTerms(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "stop words removed",
			input: "The quick brown fox",
			want:  []string{"quick", "brown", "fox"},
		},
		{
			name:  "duplicates removed, order kept",
			input: "neural networks and neural nets",
			want:  []string{"neural", "networks", "nets"},
		},
		{
			name:  "only stop words",
			input: "the and of",
			want:  []string{},
		},
		{
			name:  "multi-term query",
			input: "machine learning algorithms neural networks",
			want:  []string{"machine", "learning", "algorithms", "neural", "networks"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Terms(tt.input))
		})
	}
}

func TestTermSet(t *testing.T) {
	set := TermSet("The cat, the hat.")
	assert.Len(t, set, 3)
	assert.True(t, set["the"])
	assert.True(t, set["hat"])
}

func TestFilenameWords(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{path: "docs/NeuralNet_overview.md", want: []string{"neural", "net", "overview"}},
		{path: "machine-learning-basics.txt", want: []string{"machine", "learning", "basics"}},
		{path: "HTTPServer.go", want: []string{"http", "server"}},
		{path: "v2Config.yaml", want: []string{"v2", "config"}},
		{path: "README", want: []string{"readme"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, FilenameWords(tt.path))
		})
	}
}

func TestIsStopWord(t *testing.T) {
	assert.True(t, IsStopWord("the"))
	assert.False(t, IsStopWord("neural"))
}
