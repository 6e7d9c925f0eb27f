package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessages(t *testing.T) {
	t.Parallel()

	cause := stderrors.New("cause")

	tests := map[string]struct {
		err          *CLIError
		category     ErrorCategory
		contains     string
		wantSteps    bool
		wantsCauseOf bool
	}{
		"missing fixture path": {err: MissingFixturePath(), category: Argument, contains: "no fixture", wantSteps: true},
		"fixture not found":    {err: FixtureNotFound("t/a.yaml"), category: Argument, contains: "t/a.yaml", wantSteps: true},
		"invalid fixture":      {err: InvalidFixture("t/a.yaml", cause), category: Argument, contains: "t/a.yaml", wantSteps: true, wantsCauseOf: true},
		"java not found":       {err: JavaNotFound(17), category: Prerequisite, contains: "java", wantSteps: true},
		"jar not configured":   {err: CLIJarNotConfigured(), category: Prerequisite, contains: "commcare-cli", wantSteps: true},
		"artifact missing":     {err: ArtifactMissing("restore", "/c/r.xml", "use --minimal-restore", cause), category: Prerequisite, contains: "/c/r.xml", wantSteps: true, wantsCauseOf: true},
		"config not found":     {err: ConfigFileNotFound("/c.json"), category: Configuration, contains: "/c.json", wantSteps: true},
		"config parse":         {err: ConfigParseError("/c.json", cause), category: Configuration, contains: "cause", wantSteps: true, wantsCauseOf: true},
		"flag combination":     {err: InvalidFlagCombination("--app --minimal-restore", "x"), category: Argument, contains: "--app"},
		"flag value":           {err: InvalidFlagValue("--format", "xml", "table", "json"), category: Argument, contains: "xml", wantSteps: true},
		"timeout":              {err: TimeoutError("2m0s", "intake"), category: Runtime, contains: "2m0s", wantSteps: true},
		"directory not found":  {err: DirectoryNotFound("/out"), category: Prerequisite, contains: "/out", wantSteps: true},
		"file not writable":    {err: FileNotWritable("/out/a.xml", cause), category: Runtime, contains: "/out/a.xml", wantSteps: true, wantsCauseOf: true},
		"file exists":          {err: FileExists("a.yaml"), category: Argument, contains: "a.yaml", wantSteps: true},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.category, tt.err.Category)
			assert.Contains(t, tt.err.Message, tt.contains)
			assert.Equal(t, tt.wantSteps, len(tt.err.Remediation) > 0)
			if tt.wantsCauseOf {
				assert.ErrorIs(t, tt.err, cause)
			}
		})
	}
}
