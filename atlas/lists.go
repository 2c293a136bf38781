package atlas

import (
	"sort"
	"strconv"
)

// ListEntry identifies a server-side object list. Custom lists live in the
// object groups table and use a separate ID space, so mookodi and good share
// ID 2 without clashing.
type ListEntry struct {
	ID     int
	Custom bool
}

// Lists maps list names to their server IDs. A Lists value is never modified
// after construction; build a new one with NewLists to change it.
type Lists struct {
	entries map[string]ListEntry
}

// NewLists copies entries into an immutable registry.
func NewLists(entries map[string]ListEntry) Lists {
	dup := make(map[string]ListEntry, len(entries))
	for k, v := range entries {
		dup[k] = v
	}
	return Lists{entries: dup}
}

// DefaultLists returns the lists defined on the ATLAS transient server.
func DefaultLists() Lists {
	return NewLists(map[string]ListEntry{
		"garbage":           {ID: 0},
		"follow_up":         {ID: 1},
		"good":              {ID: 2},
		"possible":          {ID: 3},
		"eyeball":           {ID: 4},
		"attic":             {ID: 5},
		"stars":             {ID: 6},
		"agn":               {ID: 7},
		"fasttrack":         {ID: 8},
		"movers":            {ID: 9},
		"magellanic_clouds": {ID: 10},
		"pm_stars":          {ID: 11},
		"mookodi":           {ID: 2, Custom: true},
		"cv":                {ID: 40, Custom: true},
		"mdwarf":            {ID: 56, Custom: true},
		"heloise":           {ID: 72, Custom: true},
		"vra":               {ID: 73, Custom: true},
		"dummy":             {ID: 999, Custom: true},
	})
}

// Lookup returns the entry registered under name.
func (l Lists) Lookup(name string) (ListEntry, error) {
	entry, ok := l.entries[name]
	if !ok {
		return ListEntry{}, requestErr("unknown list %q", name)
	}
	return entry, nil
}

// Names returns the registered names in sorted order.
func (l Lists) Names() []string {
	names := make([]string, 0, len(l.entries))
	for name := range l.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports how many lists are registered.
func (l Lists) Len() int { return len(l.entries) }

// CustomFlag renders Custom the way the server's getcustomlist field expects.
func (e ListEntry) CustomFlag() string { return formBool(e.Custom) }

func (e ListEntry) idString() string { return strconv.Itoa(e.ID) }
