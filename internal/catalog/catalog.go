// Package catalog provides the command corpus a session is drawn from.
package catalog

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"unicode/utf8"
)

//go:embed commands.txt
var defaultCorpus string

const (
	baseSeconds    = 3.0
	perCharSeconds = 0.15
	minSeconds     = 5.0
)

// Uncategorized labels commands listed before any category header.
const Uncategorized = "Uncategorized"

// Entry is a single catalog command and the category it was listed under.
type Entry struct {
	Command  string
	Category string
}

// Catalog is an immutable ordered list of commands.
type Catalog struct {
	entries []Entry
}

// Default returns the built-in corpus.
func Default() *Catalog {
	c, err := Parse(strings.NewReader(defaultCorpus))
	if err != nil {
		panic(fmt.Sprintf("built-in catalog is invalid: %v", err))
	}
	return c
}

// LoadFile reads a catalog from the provided file path.
func LoadFile(path string) (*Catalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only catalog.
			_ = cerr
		}
	}()
	return Parse(file)
}

// Parse reads one command per line. A line starting with "## " opens a new
// category, other lines starting with "#" are comments. Duplicate commands
// are kept once, in first-seen position.
func Parse(r io.Reader) (*Catalog, error) {
	category := Uncategorized
	seen := map[string]struct{}{}
	var entries []Entry
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "## ") {
			category = strings.TrimSpace(strings.TrimPrefix(line, "## "))
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		entries = append(entries, Entry{Command: line, Category: category})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}
	return &Catalog{entries: entries}, nil
}

// Len returns the number of commands.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entries returns a copy of the catalog entries in catalog order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Commands returns the command strings in catalog order.
func (c *Catalog) Commands() []string {
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Command
	}
	return out
}

// Categories returns category names in first-seen order.
func (c *Catalog) Categories() []string {
	var out []string
	seen := map[string]struct{}{}
	for _, e := range c.entries {
		if _, ok := seen[e.Category]; ok {
			continue
		}
		seen[e.Category] = struct{}{}
		out = append(out, e.Category)
	}
	return out
}

// Filter returns a catalog restricted to the named categories, matched
// case-insensitively. An empty list returns the catalog unchanged.
func (c *Catalog) Filter(categories []string) (*Catalog, error) {
	if len(categories) == 0 {
		return c, nil
	}
	wanted := map[string]struct{}{}
	for _, name := range categories {
		name = normalizeCategory(name)
		if name != "" {
			wanted[name] = struct{}{}
		}
	}
	known := map[string]struct{}{}
	for _, name := range c.Categories() {
		known[normalizeCategory(name)] = struct{}{}
	}
	for name := range wanted {
		if _, ok := known[name]; !ok {
			return nil, fmt.Errorf("unknown category %q (available: %s)", name, strings.Join(c.Categories(), ", "))
		}
	}
	var entries []Entry
	for _, e := range c.entries {
		if _, ok := wanted[normalizeCategory(e.Category)]; ok {
			entries = append(entries, e)
		}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no commands match the selected categories")
	}
	return &Catalog{entries: entries}, nil
}

func normalizeCategory(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Shuffle returns a uniformly random permutation of the catalog commands.
// The catalog itself is never reordered.
func (c *Catalog) Shuffle(rnd *rand.Rand) []string {
	return Shuffle(c.Commands(), rnd)
}

// Shuffle returns a Fisher-Yates permutation of commands without mutating the input.
func Shuffle(commands []string, rnd *rand.Rand) []string {
	out := make([]string, len(commands))
	copy(out, commands)
	for i := len(out) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// TimeLimit returns the seconds allowed for typing command.
func TimeLimit(command string) float64 {
	limit := baseSeconds + float64(utf8.RuneCountInString(command))*perCharSeconds
	if limit < minSeconds {
		return minSeconds
	}
	return limit
}
