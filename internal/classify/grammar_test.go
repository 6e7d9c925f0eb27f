package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrammar_FindRejection(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		out       string
		wantOK    bool
		wantPath  string
		wantIndex int
		wantMsg   string
	}{
		"unknown path": {
			out:      "line one\nNo question at /data/missing[1].\nline three",
			wantOK:   true,
			wantPath: "/data/missing[1]",
			wantMsg:  "No question at /data/missing[1].",
		},
		"invalid value": {
			out:      "Invalid value for /data/age[1] (must be a number)",
			wantOK:   true,
			wantPath: "/data/age[1]",
		},
		"out of range index": {
			out:       "Index 9 out of bounds",
			wantOK:    true,
			wantIndex: 9,
		},
		"invalid menu selection": {
			out:       "Invalid selection: 7",
			wantOK:    true,
			wantIndex: 7,
		},
		"earliest marker wins": {
			out:      "Answer rejected for /data/b[1]\nCould not find question /data/a[1]\n",
			wantOK:   true,
			wantPath: "/data/b[1]",
		},
		"clean output": {
			out:    "Form Start\n<data/>\n",
			wantOK: false,
		},
	}

	g := DefaultGrammar()
	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			rej, ok := g.FindRejection(tt.out)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantPath, rej.Path)
			assert.Equal(t, tt.wantIndex, rej.Index)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, rej.Message)
			}
		})
	}
}

func TestGrammar_FindFault(t *testing.T) {
	t.Parallel()

	g := DefaultGrammar()

	tests := map[string]struct {
		out  string
		want string
	}{
		"thread exception":  {out: "Exception in thread \"main\" java.lang.RuntimeException: x", want: `Exception in thread "main"`},
		"caused by":         {out: "...\nCaused by: org.javarosa.xpath.XPathTypeMismatchException: bad\n", want: "Caused by: org.javarosa.xpath.XPathTypeMismatchException: bad"},
		"unreadable replay": {out: "Unable to parse replay string", want: "Unable to parse replay string"},
		"clean":             {out: "Form Start\nQuestion 1\n", want: ""},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, ok := g.FindFault(tt.out)
			assert.Equal(t, tt.want != "", ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGrammar_Completed(t *testing.T) {
	t.Parallel()

	g := DefaultGrammar()
	assert.True(t, g.Completed("Form entry complete!"))
	assert.True(t, g.Completed("form submitted"))
	assert.False(t, g.Completed("Form Start"))
}
