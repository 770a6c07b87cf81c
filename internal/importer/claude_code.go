// Package importer turns prompt files written for other tools into library
// prompts with {{placeholder}} syntax.
package importer

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/dpshade/pocket-fill/internal/models"
	"github.com/dpshade/pocket-fill/internal/placeholder"
)

// Item kinds.
const (
	KindCommand = "command"
	KindAgent   = "agent"
)

// ClaudeCodeImporter reads Claude Code slash commands and agents from
// .claude/commands and .claude/agents.
type ClaudeCodeImporter struct {
	// replaced in tests
	homeDir func() (string, error)
	workDir func() (string, error)
}

func NewClaudeCodeImporter() *ClaudeCodeImporter {
	return &ClaudeCodeImporter{homeDir: os.UserHomeDir, workDir: os.Getwd}
}

// Options configures an import.
type Options struct {
	Path      string // project directory or a .claude directory; empty means the working directory plus ~/.claude
	UserLevel bool   // also read ~/.claude when Path is set
}

// Item is one converted file.
type Item struct {
	Prompt *models.Prompt
	Source string
	Kind   string
}

// Result holds the converted files and per-file failures. A failing file
// never stops the rest of the import.
type Result struct {
	Items  []Item
	Errors []error
}

// Import scans the configured directories. Prompts in the result are new:
// they have no ID and no folder.
func (i *ClaudeCodeImporter) Import(opts Options) (*Result, error) {
	paths, err := i.determinePaths(opts)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, base := range paths {
		root := base
		if filepath.Base(base) != ".claude" {
			root = filepath.Join(base, ".claude")
		}
		i.importDir(filepath.Join(root, "commands"), KindCommand, result)
		i.importDir(filepath.Join(root, "agents"), KindAgent, result)
	}
	return result, nil
}

func (i *ClaudeCodeImporter) determinePaths(opts Options) ([]string, error) {
	var paths []string
	if opts.Path != "" {
		abs, err := filepath.Abs(opts.Path)
		if err != nil {
			return nil, err
		}
		paths = append(paths, abs)
	} else if cwd, err := i.workDir(); err == nil {
		paths = append(paths, cwd)
	}

	if opts.Path == "" || opts.UserLevel {
		if home, err := i.homeDir(); err == nil {
			user := filepath.Join(home, ".claude")
			if len(paths) == 0 || paths[0] != user {
				paths = append(paths, user)
			}
		}
	}
	return paths, nil
}

func (i *ClaudeCodeImporter) importDir(dir, kind string, result *Result) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".md") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		result.Errors = append(result.Errors, fmt.Errorf("failed to read %s: %w", dir, err))
	}
	sort.Strings(files)

	for _, path := range files {
		p, err := i.importFile(path, dir)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("failed to import %s %s: %w", kind, path, err))
			continue
		}
		result.Items = append(result.Items, Item{Prompt: p, Source: path, Kind: kind})
	}
}

type claudeFrontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

func (i *ClaudeCodeImporter) importFile(path, root string) (*models.Prompt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	fm, body, err := parseFrontmatter(data)
	if err != nil {
		return nil, err
	}

	rel, _ := filepath.Rel(root, path)
	title := fm.Name
	if title == "" {
		title = extractTitle(body, rel)
	}
	return &models.Prompt{
		Name:     title,
		Content:  ConvertArguments(body),
		FolderID: models.NoFolder,
	}, nil
}

func parseFrontmatter(data []byte) (claudeFrontmatter, string, error) {
	var fm claudeFrontmatter
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	if !strings.HasPrefix(text, "---\n") {
		return fm, strings.TrimSpace(text), nil
	}
	rest := text[4:]
	if strings.HasPrefix(rest, "---") {
		return fm, strings.TrimSpace(rest[3:]), nil
	}
	header, body, ok := strings.Cut(rest, "\n---")
	if !ok {
		return fm, "", fmt.Errorf("missing closing frontmatter delimiter")
	}
	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return fm, "", fmt.Errorf("failed to parse frontmatter: %w", err)
	}
	return fm, strings.TrimSpace(body), nil
}

// extractTitle uses the first level-one heading, else the file name. Files
// in subdirectories keep their namespace, "frontend/component.md" becoming
// "Frontend Component".
func extractTitle(body, rel string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	name := strings.TrimSuffix(rel, filepath.Ext(rel))
	name = strings.NewReplacer(string(os.PathSeparator), " ", "-", " ", "_", " ").Replace(name)
	return cases.Title(language.English).String(name)
}

var argumentPattern = regexp.MustCompile(`\$([1-9]|[A-Z][A-Z0-9_]*[A-Z0-9])\b`)

// ConvertArguments rewrites Claude Code argument markers as placeholders:
// $ARGUMENTS becomes {{arguments}}, $1 becomes {{arg1}} and $NAME-style
// variables become {{name}}.
func ConvertArguments(body string) string {
	return argumentPattern.ReplaceAllStringFunc(body, func(m string) string {
		name := m[1:]
		if name[0] >= '1' && name[0] <= '9' {
			name = "arg" + name
		} else {
			name = strings.ToLower(name)
		}
		return placeholder.Wrap(name)
	})
}
