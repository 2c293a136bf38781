package app

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/five82/atlasapi/atlas"
	"github.com/five82/atlasapi/internal/prefs"
	"github.com/five82/atlasapi/internal/prompt"
)

type env struct {
	client *atlas.Client
	exec   *atlas.Executor
	lists  atlas.Lists
	out    io.Writer
	log    logrus.FieldLogger

	prefsPath string
}

type command struct {
	name        string
	args        string
	summary     string
	needsServer bool
	run         func(ctx context.Context, e *env, args []string) (any, error)
}

var commands = []command{
	{name: "vra-scores", args: "[-since YYYY-MM-DD] [-ids id,id]", summary: "Read the VRA scores table", needsServer: true, run: runVRAScores},
	{name: "vra-todo", args: "-since YYYY-MM-DD", summary: "Read the VRA to-do list", needsServer: true, run: runVRAToDo},
	{name: "custom-lists", args: "[-ids id,id] [-group n]", summary: "Read the custom lists table", needsServer: true, run: runCustomLists},
	{name: "object", args: "[-mjd n] <id>", summary: "Fetch one object", needsServer: true, run: runObject},
	{name: "objects", args: "[-mjd n] <id>...", summary: "Fetch many objects in batches of 100", needsServer: true, run: runObjects},
	{name: "cone", args: "-ra deg -dec deg -radius arcsec [-type nearest|all|count]", summary: "Cone search", needsServer: true, run: runCone},
	{name: "list-ids", args: "<list>", summary: "Print the ATLAS IDs on a list", needsServer: true, run: runListIDs},
	{name: "write-vra-score", args: "-id id -preal p -pgal p -pfast p [-debug]", summary: "Write a VRA score row", needsServer: true, run: runWriteVRAScore},
	{name: "write-vra-rank", args: "-id id -rank r", summary: "Write a VRA rank", needsServer: true, run: runWriteVRARank},
	{name: "write-todo", args: "<id>", summary: "Add an object to the VRA to-do list", needsServer: true, run: runWriteToDo},
	{name: "list-add", args: "-list name <id>...", summary: "Add objects to a custom list", needsServer: true, run: runListAdd},
	{name: "list-remove", args: "-list name <id>...", summary: "Remove objects from a custom list", needsServer: true, run: runListRemove},
	{name: "refresh-token", summary: "Refresh and save the API token now", needsServer: true, run: runRefreshToken},
	{name: "lists", summary: "Show known list names and IDs", run: runLists},
	{name: "themes", args: "[-set name]", summary: "Show or pick the login prompt theme", run: runThemes},
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: atlas [-config path] [-log-level level] [-log-format text|json] <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-16s %s\n", c.name, c.summary)
		if c.args != "" {
			fmt.Fprintf(w, "  %-16s   %s %s\n", "", c.name, c.args)
		}
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

// optionalFloat is a float flag that remembers whether it was set.
type optionalFloat struct {
	value float64
	set   bool
}

func (f *optionalFloat) String() string {
	if f == nil || !f.set {
		return ""
	}
	return strconv.FormatFloat(f.value, 'f', -1, 64)
}

func (f *optionalFloat) Set(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return err
	}
	f.value, f.set = v, true
	return nil
}

func (f *optionalFloat) ptr() *float64 {
	if !f.set {
		return nil
	}
	v := f.value
	return &v
}

// splitIDs accepts IDs as separate arguments, comma-joined, or both.
func splitIDs(args ...string) []string {
	var ids []string
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if id := strings.TrimSpace(part); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func singleArg(fs *flag.FlagSet, what string) (string, error) {
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%w: %s takes exactly one %s", ErrUsage, fs.Name(), what)
	}
	return strings.TrimSpace(fs.Arg(0)), nil
}

func runVRAScores(ctx context.Context, e *env, args []string) (any, error) {
	fs := newFlagSet("vra-scores")
	since := fs.String("since", "", "only rows after this date")
	ids := fs.String("ids", "", "comma-separated ATLAS IDs")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	return e.client.VRAScores(ctx, atlas.VRAScoresQuery{
		DateThreshold: strings.TrimSpace(*since),
		ObjectIDs:     splitIDs(*ids),
	})
}

func runVRAToDo(ctx context.Context, e *env, args []string) (any, error) {
	fs := newFlagSet("vra-todo")
	since := fs.String("since", "", "only rows after this date")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	return e.client.VRAToDo(ctx, atlas.VRAToDoQuery{DateThreshold: strings.TrimSpace(*since)})
}

func runCustomLists(ctx context.Context, e *env, args []string) (any, error) {
	fs := newFlagSet("custom-lists")
	ids := fs.String("ids", "", "comma-separated ATLAS IDs")
	group := fs.Int("group", -1, "object group id")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	q := atlas.CustomListsQuery{ObjectIDs: splitIDs(*ids)}
	if *group >= 0 {
		q.ObjectGroupID = group
	}
	return e.client.CustomListsTable(ctx, q)
}

func runObject(ctx context.Context, e *env, args []string) (any, error) {
	fs := newFlagSet("object")
	var mjd optionalFloat
	fs.Var(&mjd, "mjd", "only detections after this MJD")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	id, err := singleArg(fs, "ATLAS ID")
	if err != nil {
		return nil, err
	}
	return e.client.SourceData(ctx, id, mjd.ptr())
}

func runObjects(ctx context.Context, e *env, args []string) (any, error) {
	fs := newFlagSet("objects")
	var mjd optionalFloat
	fs.Var(&mjd, "mjd", "only detections after this MJD")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	return e.client.MultipleSourceData(ctx, splitIDs(fs.Args()...), mjd.ptr())
}

func runCone(ctx context.Context, e *env, args []string) (any, error) {
	fs := newFlagSet("cone")
	var ra, dec, radius optionalFloat
	fs.Var(&ra, "ra", "right ascension in degrees")
	fs.Var(&dec, "dec", "declination in degrees")
	fs.Var(&radius, "radius", "radius in arcseconds")
	requestType := fs.String("type", atlas.ConeNearest, "nearest, all or count")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	if !ra.set || !dec.set || !radius.set {
		return nil, fmt.Errorf("%w: cone needs -ra, -dec and -radius", ErrUsage)
	}
	return e.client.ConeSearch(ctx, atlas.ConeQuery{
		RA:          ra.value,
		Dec:         dec.value,
		Radius:      radius.value,
		RequestType: strings.TrimSpace(*requestType),
	})
}

func runListIDs(ctx context.Context, e *env, args []string) (any, error) {
	fs := newFlagSet("list-ids")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	name, err := singleArg(fs, "list name")
	if err != nil {
		return nil, err
	}
	return e.client.ListIDs(ctx, name)
}

func runWriteVRAScore(ctx context.Context, e *env, args []string) (any, error) {
	fs := newFlagSet("write-vra-score")
	id := fs.String("id", "", "ATLAS ID")
	preal := fs.Float64("preal", 0, "probability the object is real")
	pgal := fs.Float64("pgal", 0, "probability the object is galactic")
	pfast := fs.Float64("pfast", 0, "probability the object is fast")
	debug := fs.Bool("debug", false, "mark the row as a debug entry")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	return e.client.WriteVRAScore(ctx, atlas.VRAScore{
		ObjectID: strings.TrimSpace(*id),
		PReal:    *preal,
		PGal:     *pgal,
		PFast:    *pfast,
		Debug:    *debug,
	})
}

func runWriteVRARank(ctx context.Context, e *env, args []string) (any, error) {
	fs := newFlagSet("write-vra-rank")
	id := fs.String("id", "", "ATLAS ID")
	var rank optionalFloat
	fs.Var(&rank, "rank", "rank value")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	if !rank.set {
		return nil, fmt.Errorf("%w: write-vra-rank needs -rank", ErrUsage)
	}
	return e.client.WriteVRARank(ctx, strings.TrimSpace(*id), rank.value)
}

func runWriteToDo(ctx context.Context, e *env, args []string) (any, error) {
	fs := newFlagSet("write-todo")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	id, err := singleArg(fs, "ATLAS ID")
	if err != nil {
		return nil, err
	}
	return e.client.WriteToDo(ctx, id)
}

func runListAdd(ctx context.Context, e *env, args []string) (any, error) {
	return runListEdit(ctx, "list-add", args, e.client.AddToCustomList)
}

func runListRemove(ctx context.Context, e *env, args []string) (any, error) {
	return runListEdit(ctx, "list-remove", args, e.client.RemoveFromCustomList)
}

func runListEdit(ctx context.Context, name string, args []string, edit func(context.Context, string, []string) (*atlas.BatchResult, error)) (any, error) {
	fs := newFlagSet(name)
	list := fs.String("list", "", "list name")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	if strings.TrimSpace(*list) == "" {
		return nil, fmt.Errorf("%w: %s needs -list", ErrUsage, name)
	}
	return edit(ctx, strings.TrimSpace(*list), splitIDs(fs.Args()...))
}

func runRefreshToken(ctx context.Context, e *env, _ []string) (any, error) {
	if err := e.exec.RefreshToken(ctx); err != nil {
		return nil, err
	}
	e.log.WithField("config", e.exec.Config().Path()).Info("token refreshed")
	return map[string]string{"status": "refreshed", "config": e.exec.Config().Path()}, nil
}

type listRow struct {
	Name   string `json:"name"`
	ID     int    `json:"id"`
	Custom bool   `json:"custom"`
}

func runLists(_ context.Context, e *env, _ []string) (any, error) {
	names := e.lists.Names()
	rows := make([]listRow, 0, len(names))
	for _, name := range names {
		entry, err := e.lists.Lookup(name)
		if err != nil {
			return nil, err
		}
		rows = append(rows, listRow{Name: name, ID: entry.ID, Custom: entry.Custom})
	}
	return rows, nil
}

type themeInfo struct {
	Current   string   `json:"current"`
	Available []string `json:"available"`
	Prefs     string   `json:"prefs"`
}

func runThemes(_ context.Context, e *env, args []string) (any, error) {
	fs := newFlagSet("themes")
	set := fs.String("set", "", "theme to save for the login prompt")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	path := e.prefsPath
	if strings.TrimSpace(path) == "" {
		path = prefs.DefaultPath()
	}
	current, _ := prefs.Load(path)

	if name := strings.TrimSpace(*set); name != "" {
		theme := prompt.GetTheme(name)
		if !strings.EqualFold(theme.Name, name) {
			return nil, fmt.Errorf("%w: unknown theme %q", ErrUsage, name)
		}
		current.Theme = theme.Name
		if err := prefs.Save(path, current); err != nil {
			return nil, err
		}
	}
	return themeInfo{Current: current.Theme, Available: prompt.ThemeNames(), Prefs: path}, nil
}
