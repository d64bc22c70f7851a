package palette

import "fmt"

// CommandDefinition is a declarative command supplied by the caller.
// Name must be unique across the whole set; duplicate names are an
// integration bug and rejected at construction.
type CommandDefinition struct {
	// Name is the unique key, also used as the match value
	Name string
	// Label is the display text, falling back to Name
	Label string
	// Group places the command under a heading; same string, same group
	Group string
	// Icon is a glyph rendered before the label
	Icon string
	// Shortcut is a display-only hint, right-aligned
	Shortcut string
	// Keywords are extra search terms
	Keywords []string
	// Disabled renders the command grayed out and unselectable
	Disabled bool
	// OnSelect is invoked when the command is chosen
	OnSelect func()
}

// DisplayLabel returns the label, falling back to the name
func (d CommandDefinition) DisplayLabel() string {
	if d.Label != "" {
		return d.Label
	}
	return d.Name
}

// matchTerms returns the values the filter runs against: the name,
// plus the label when it differs, plus explicit keywords.
func (d CommandDefinition) matchTerms() []string {
	terms := []string{d.Name}
	if d.Label != "" && d.Label != d.Name {
		terms = append(terms, d.Label)
	}
	return append(terms, d.Keywords...)
}

// validateCommands rejects duplicate names loudly: an integration bug,
// not a runtime condition.
func validateCommands(commands []CommandDefinition) error {
	seen := make(map[string]struct{}, len(commands))
	for _, cmd := range commands {
		if cmd.Name == "" {
			return fmt.Errorf("palette: command with empty name")
		}
		if _, ok := seen[cmd.Name]; ok {
			return fmt.Errorf("palette: duplicate command name %q", cmd.Name)
		}
		seen[cmd.Name] = struct{}{}
	}
	return nil
}

type commandGroup struct {
	heading string
	items   []CommandDefinition
}

// groupCommands groups by the Group field preserving encounter order,
// with ungrouped commands first.
func groupCommands(commands []CommandDefinition) []commandGroup {
	var groups []commandGroup
	index := make(map[string]int)

	for _, cmd := range commands {
		if i, ok := index[cmd.Group]; ok {
			groups[i].items = append(groups[i].items, cmd)
			continue
		}
		index[cmd.Group] = len(groups)
		groups = append(groups, commandGroup{heading: cmd.Group, items: []CommandDefinition{cmd}})
	}

	// Ungrouped commands lead regardless of where they first appeared
	for i, g := range groups {
		if g.heading == "" && i > 0 {
			ungrouped := groups[i]
			groups = append(groups[:i], groups[i+1:]...)
			groups = append([]commandGroup{ungrouped}, groups...)
			break
		}
	}

	return groups
}
