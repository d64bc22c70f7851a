package palette

import "strings"

// ItemKind discriminates the selectable item types in command mode
type ItemKind string

const (
	ItemCommand      ItemKind = "command"
	ItemConversation ItemKind = "conversation"
	ItemAction       ItemKind = "action"
	ItemAskAI        ItemKind = "ask-ai"
)

const recentChatsHeading = "Recent Chats"
const actionsHeading = "Actions"

// Item is one selectable entry in the palette list
type Item struct {
	Kind     ItemKind
	Value    string
	Label    string
	Icon     string
	Shortcut string
	Keywords []string
	Disabled bool

	// UpdatedAt is set for conversation items (unix millis), for
	// relative-time display
	UpdatedAt int64

	onSelect func()
}

// Select invokes the item's action. Disabled items are inert.
func (it Item) Select() {
	if it.Disabled || it.onSelect == nil {
		return
	}
	it.onSelect()
}

// matchTerms returns the values the filter runs against
func (it Item) matchTerms() []string {
	terms := []string{it.Value}
	if it.Label != "" && it.Label != it.Value {
		terms = append(terms, it.Label)
	}
	return append(terms, it.Keywords...)
}

// ItemGroup is a headed run of items. An empty heading renders the
// items without a header.
type ItemGroup struct {
	Heading string
	Items   []Item
}

// Groups assembles the full command-mode list: declarative commands in
// their groups (ungrouped first), recent conversations, executable
// actions from the source, and the trailing Ask AI affordance.
func (c *Controller) Groups() []ItemGroup {
	var out []ItemGroup

	for _, g := range c.groups {
		items := make([]Item, 0, len(g.items))
		for _, def := range g.items {
			def := def
			items = append(items, Item{
				Kind:     ItemCommand,
				Value:    def.Name,
				Label:    def.DisplayLabel(),
				Icon:     def.Icon,
				Shortcut: def.Shortcut,
				Keywords: def.Keywords,
				Disabled: def.Disabled,
				onSelect: func() {
					if def.OnSelect != nil {
						def.OnSelect()
					}
					c.closeAfterSelect()
				},
			})
		}
		out = append(out, ItemGroup{Heading: g.heading, Items: items})
	}

	if conversations := c.store.Conversations(); len(conversations) > 0 {
		if len(conversations) > recentConversationLimit {
			conversations = conversations[:recentConversationLimit]
		}
		items := make([]Item, 0, len(conversations))
		for _, convo := range conversations {
			convo := convo
			items = append(items, Item{
				Kind:      ItemConversation,
				Value:     "chat-history-" + convo.ID,
				Label:     convo.Title,
				Keywords:  []string{convo.Title},
				UpdatedAt: convo.UpdatedAt,
				onSelect:  func() { c.SelectConversation(convo.ID) },
			})
		}
		out = append(out, ItemGroup{Heading: recentChatsHeading, Items: items})
	}

	var actionItems []Item
	for _, action := range c.adapter.AvailableActions() {
		if action.Execute == nil {
			continue
		}
		label := action.DisplayLabel()
		actionItems = append(actionItems, Item{
			Kind:     ItemAction,
			Value:    label,
			Label:    label,
			onSelect: func() { c.selectAction(label) },
		})
	}
	if len(actionItems) > 0 {
		out = append(out, ItemGroup{Heading: actionsHeading, Items: actionItems})
	}

	if c.adapter.IsEnabled() {
		out = append(out, ItemGroup{Items: []Item{{
			Kind:     ItemAskAI,
			Value:    AskAIValue,
			Label:    c.askAILabel,
			onSelect: c.SelectAskAI,
		}}})
	}

	return out
}

// FilterGroups returns the groups with only the items matching the
// query. The Ask AI affordance is pinned: it survives any query so
// there is always a way into chat.
func (c *Controller) FilterGroups(query string) []ItemGroup {
	query = strings.TrimSpace(query)

	var out []ItemGroup
	for _, group := range c.Groups() {
		var items []Item
		for _, item := range group.Items {
			if item.Kind == ItemAskAI || c.filter(query, item.matchTerms()...) {
				items = append(items, item)
			}
		}
		if len(items) > 0 {
			out = append(out, ItemGroup{Heading: group.Heading, Items: items})
		}
	}
	return out
}

// selectAction starts a fresh chat and sends the action's label as the
// opening message
func (c *Controller) selectAction(label string) {
	c.StartNewChat()
	c.SwitchToChat("")
	c.SendMessage(label)
}

// closeAfterSelect asks the host to close the palette after a command
// ran
func (c *Controller) closeAfterSelect() {
	c.mu.Lock()
	notify := c.onOpenChange
	c.mu.Unlock()
	if notify != nil {
		notify(false)
	}
}
