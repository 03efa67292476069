package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/danielpatrickdp/jsonui/internal/logging"
	"github.com/danielpatrickdp/jsonui/internal/persist"
	"github.com/danielpatrickdp/jsonui/internal/store"
	"github.com/danielpatrickdp/jsonui/internal/value"
)

// #region main

func main() {
	os.Exit(run())
}

func run() int {
	dbPath := flag.String("db", "", "path to the version store database")
	statePath := flag.String("state", "", "document file to overwrite on --rollback")
	last := flag.Int("last", 20, "show N most recent versions")
	version := flag.String("version", "", "show single version detail")
	saves := flag.Bool("saves", false, "show the save log instead of versions")
	rollback := flag.String("rollback", "", "make a previous version the active one")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/jsonui.db [--last N] [--version id] [--saves] [--rollback id --state file] [--json]")
		return 2
	}
	if *rollback != "" && *statePath == "" {
		fmt.Fprintln(os.Stderr, "--rollback needs --state, the document file the editor loads")
		return 2
	}

	st, err := store.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 1
	}
	defer st.Close()

	switch {
	case *rollback != "":
		err = runRollback(st, *rollback, persist.FileSink{Path: *statePath})
	case *version != "":
		err = runDetailMode(st, *version, *jsonOut)
	case *saves:
		err = runSavesMode(st, *last, *jsonOut)
	default:
		err = runListMode(st, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// #endregion main

// #region list-mode

type listRow struct {
	VersionID string `json:"version_id"`
	ParentID  string `json:"parent_id,omitempty"`
	Size      int    `json:"size"`
	Leaves    int    `json:"leaves"`
	Trigger   string `json:"trigger,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
	Age       string `json:"-"`
}

func runListMode(st *store.Store, last int, jsonOut bool) error {
	versions, err := st.ListVersionsWithSaves(last)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		fmt.Fprintln(os.Stderr, "no versions found")
		return nil
	}
	active := activeID(st)

	// Store returns newest first; print chronologically.
	rows := make([]listRow, len(versions))
	for i, vs := range versions {
		rows[len(versions)-1-i] = listRow{
			VersionID: vs.VersionID,
			ParentID:  vs.ParentID,
			Size:      vs.Size,
			Leaves:    vs.Leaves,
			Trigger:   vs.Trigger,
			Reason:    vs.Reason,
			Active:    vs.VersionID == active,
			CreatedAt: vs.CreatedAt.Format("2006-01-02T15:04:05Z"),
			Age:       humanize.Time(vs.CreatedAt),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-2s%-10s  %-10s  %8s  %6s  %-7s  %-16s  %s\n",
		"", "Version", "Parent", "Size", "Leaves", "Trigger", "Age", "Reason")
	fmt.Printf("%-2s%-10s+-%-10s+-%8s+-%6s+-%-7s+-%-16s+-%s\n",
		"", "----------", "----------", "--------", "------", "-------", "----------------", "--------------------")
	for _, r := range rows {
		mark := ""
		if r.Active {
			mark = "*"
		}
		fmt.Printf("%-2s%-10s  %-10s  %8s  %6d  %-7s  %-16s  %s\n",
			mark, shortID(r.VersionID), orDash(shortID(r.ParentID)), humanize.Bytes(uint64(r.Size)),
			r.Leaves, orDash(r.Trigger), r.Age, r.Reason)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	VersionID string          `json:"version_id"`
	ParentID  string          `json:"parent_id"`
	CreatedAt string          `json:"created_at"`
	Size      int             `json:"size"`
	Leaves    int             `json:"leaves"`
	Depth     int             `json:"depth"`
	Note      string          `json:"note,omitempty"`
	Active    bool            `json:"active"`
	Document  json.RawMessage `json:"document"`
}

func runDetailMode(st *store.Store, versionID string, jsonOut bool) error {
	v, err := st.GetVersion(versionID)
	if err != nil {
		return err
	}
	doc, err := value.EncodeIndent(v.Document, "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	out := detailOutput{
		VersionID: v.VersionID,
		ParentID:  v.ParentID,
		CreatedAt: v.CreatedAt.Format("2006-01-02T15:04:05Z"),
		Size:      v.Size,
		Leaves:    v.Leaves,
		Depth:     value.Depth(v.Document),
		Note:      v.Note,
		Active:    v.VersionID == activeID(st),
		Document:  doc,
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Version:  %s\n", out.VersionID)
	fmt.Printf("Parent:   %s\n", orDash(out.ParentID))
	fmt.Printf("Created:  %s (%s)\n", out.CreatedAt, humanize.Time(v.CreatedAt))
	fmt.Printf("Size:     %s\n", humanize.Bytes(uint64(out.Size)))
	fmt.Printf("Leaves:   %s\n", humanize.Comma(int64(out.Leaves)))
	fmt.Printf("Depth:    %d\n", out.Depth)
	fmt.Printf("Active:   %v\n", out.Active)
	if out.Note != "" {
		fmt.Printf("Note:     %s\n", out.Note)
	}
	fmt.Printf("\n%s\n", doc)
	return nil
}

// #endregion detail-mode

// #region saves-mode

type saveRow struct {
	ID        int64    `json:"id"`
	VersionID string   `json:"version_id,omitempty"`
	Trigger   string   `json:"trigger"`
	Decision  string   `json:"decision"`
	Reason    string   `json:"reason,omitempty"`
	Levels    []int    `json:"levels,omitempty"`
	Findings  []string `json:"findings,omitempty"`
	CreatedAt string   `json:"created_at"`
}

func runSavesMode(st *store.Store, last int, jsonOut bool) error {
	entries, err := logging.ListSaves(st.DB(), last)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "no saves logged")
		return nil
	}

	rows := make([]saveRow, len(entries))
	for i, e := range entries {
		r := saveRow{
			ID:        e.ID,
			VersionID: e.VersionID,
			Trigger:   e.TriggerType,
			Decision:  e.Decision,
			Reason:    e.Reason,
			CreatedAt: e.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
		if d := logging.ParseDirty(e.DirtyJSON); d != nil {
			r.Findings = d.GateFindings
			for level, dirty := range d.Levels {
				if dirty {
					r.Levels = append(r.Levels, level)
				}
			}
			slices.Sort(r.Levels)
		}
		rows[len(entries)-1-i] = r
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-6s  %-10s  %-7s  %-8s  %-8s  %s\n", "ID", "Version", "Trigger", "Decision", "Levels", "Reason")
	fmt.Printf("%-6s+-%-10s+-%-7s+-%-8s+-%-8s+-%s\n",
		"------", "----------", "-------", "--------", "--------", "--------------------")
	for _, r := range rows {
		levels := make([]string, len(r.Levels))
		for i, l := range r.Levels {
			levels[i] = strconv.Itoa(l)
		}
		fmt.Printf("%-6d  %-10s  %-7s  %-8s  %-8s  %s\n",
			r.ID, orDash(shortID(r.VersionID)), r.Trigger, r.Decision, orDash(strings.Join(levels, ",")), r.Reason)
		for _, f := range r.Findings {
			fmt.Printf("%-6s  %s\n", "", f)
		}
	}
	return nil
}

// #endregion saves-mode

// #region rollback

func runRollback(st *store.Store, versionID string, sink persist.FileSink) error {
	v, err := st.Restore(versionID, sink)
	if err != nil {
		return err
	}
	fmt.Printf("active version is now %s, written to %s\n", v.VersionID, sink.Path)
	return nil
}

// #endregion rollback

// #region output

func activeID(st *store.Store) string {
	cur, err := st.Current()
	if err != nil {
		return ""
	}
	return cur.VersionID
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// #endregion output
