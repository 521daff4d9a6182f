package completion

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// CacheDirFunc returns the cache directory to use for completion.
type CacheDirFunc func(cmd *cobra.Command) string

// DefaultCacheDirFunc ignores the command and returns DefaultCacheDir.
// PersistentPreRunE does not run during __complete, so only the environment
// is consulted.
func DefaultCacheDirFunc(*cobra.Command) string {
	return DefaultCacheDir()
}

// Completer provides tab completion functions for the mindtalk CLI.
// It reads from the file-based cache and never builds an App or client.
type Completer struct {
	getCacheDir CacheDirFunc
}

// NewCompleter creates a new Completer. If getCacheDir is nil,
// DefaultCacheDirFunc is used.
func NewCompleter(getCacheDir CacheDirFunc) *Completer {
	if getCacheDir == nil {
		getCacheDir = DefaultCacheDirFunc
	}
	return &Completer{getCacheDir: getCacheDir}
}

func (c *Completer) store(cmd *cobra.Command) *Store {
	return NewStore(c.getCacheDir(cmd))
}

// CharacterCompletion completes character IDs, described by name.
func (c *Completer) CharacterCompletion() cobra.CompletionFunc {
	return c.complete(Characters)
}

// CounselorCompletion completes counselor IDs, described by name.
func (c *Completer) CounselorCompletion() cobra.CompletionFunc {
	return c.complete(Counselors)
}

// SessionCompletion completes session IDs, most recently active first.
func (c *Completer) SessionCompletion() cobra.CompletionFunc {
	return c.complete(Sessions)
}

func (c *Completer) complete(section Section) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
		// Only the first positional argument is an ID
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		items := c.store(cmd).Items(section)
		if len(items) == 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		needle := strings.ToLower(toComplete)
		var completions []cobra.Completion
		for _, item := range rankItems(items) {
			id := strconv.FormatInt(item.ID, 10)
			if !strings.HasPrefix(id, toComplete) && !strings.Contains(strings.ToLower(item.Name), needle) {
				continue
			}
			desc := item.Name
			if item.Detail != "" {
				desc += " - " + item.Detail
			}
			completions = append(completions, cobra.CompletionWithDesc(id, desc))
		}

		return completions, cobra.ShellCompDirectiveNoFileComp
	}
}

// rankItems returns items sorted by recency (more recent first), then
// alphabetically. The input is not modified.
func rankItems(items []CachedItem) []CachedItem {
	ranked := slices.Clone(items)
	slices.SortStableFunc(ranked, func(a, b CachedItem) int {
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return b.UpdatedAt.Compare(a.UpdatedAt)
		}
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return ranked
}
