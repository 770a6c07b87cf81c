package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testClaudeCommand = `---
allowed-tools: [Write, Edit, MultiEdit]
description: Create a new React component
---
# Create React Component

Create a new React component named $COMPONENT_NAME with the following structure:

## Props
- $PROPS

Extra notes: $ARGUMENTS`

const testClaudeAgent = `---
name: Code Reviewer
description: Reviews diffs
---
Review the change in $1 against $2. Costs $10 are not arguments.`

func setupProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func TestConvertArguments(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Fix issue $ARGUMENTS now", "Fix issue {{arguments}} now"},
		{"From $1 to $2.", "From {{arg1}} to {{arg2}}."},
		{"Named $PR_NUMBER here", "Named {{pr_number}} here"},
		{"Price $10 and $A stay", "Price $10 and $A stay"},
		{"lower $name stays", "lower $name stays"},
		{"Already {{done}}", "Already {{done}}"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ConvertArguments(tt.in))
		})
	}
}

func TestImportProject(t *testing.T) {
	dir := setupProject(t, map[string]string{
		".claude/commands/frontend/component.md": testClaudeCommand,
		".claude/commands/deploy-app.md":         "Deploy $ARGUMENTS to staging",
		".claude/agents/reviewer.md":             testClaudeAgent,
		".claude/commands/notes.txt":             "ignored",
		".claude/commands/broken.md":             "---\ntitle: [unclosed\n---\nbody",
	})

	imp := NewClaudeCodeImporter()
	result, err := imp.Import(Options{Path: dir})
	require.NoError(t, err)
	require.Len(t, result.Items, 3)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Error(), "broken.md")

	byTitle := map[string]Item{}
	for _, item := range result.Items {
		byTitle[item.Prompt.Name] = item
	}

	component, ok := byTitle["Create React Component"]
	require.True(t, ok)
	assert.Equal(t, KindCommand, component.Kind)
	assert.Equal(t, []string{"component_name", "props", "arguments"}, component.Prompt.Placeholders())

	deploy, ok := byTitle["Deploy App"]
	require.True(t, ok)
	assert.Equal(t, "Deploy {{arguments}} to staging", deploy.Prompt.Content)
	assert.True(t, deploy.Prompt.IsNew())

	agent, ok := byTitle["Code Reviewer"]
	require.True(t, ok)
	assert.Equal(t, KindAgent, agent.Kind)
	assert.Equal(t, "Review the change in {{arg1}} against {{arg2}}. Costs $10 are not arguments.", agent.Prompt.Content)
}

func TestImportDefaultPaths(t *testing.T) {
	project := setupProject(t, map[string]string{".claude/commands/one.md": "One $ARGUMENTS"})
	home := setupProject(t, map[string]string{".claude/commands/two.md": "Two"})

	imp := NewClaudeCodeImporter()
	imp.workDir = func() (string, error) { return project, nil }
	imp.homeDir = func() (string, error) { return home, nil }

	result, err := imp.Import(Options{})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "One", result.Items[0].Prompt.Name)
	assert.Equal(t, "Two", result.Items[1].Prompt.Name)

	result, err = imp.Import(Options{Path: filepath.Join(project, ".claude")})
	require.NoError(t, err)
	require.Len(t, result.Items, 1, "an explicit path skips ~/.claude unless asked")

	result, err = imp.Import(Options{Path: project, UserLevel: true})
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)
}
