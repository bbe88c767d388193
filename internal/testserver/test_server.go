// Package testserver wires a complete server against an in-memory fake
// of the Azure DevOps work item API, for functional tests that exercise
// the full tool surface without network access.
package testserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"boardsmcp/internal/azure"
	"boardsmcp/internal/domain/workitem"
	"boardsmcp/internal/mcp"
	"boardsmcp/internal/sqlite"
)

type TestServer struct {
	MCP     *sdkmcp.Server
	Service *workitem.Service
	Tracker *FakeTracker
	DB      *sqlite.DB
}

func New(t *testing.T) *TestServer {
	t.Helper()

	tracker := NewFakeTracker(t)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { _ = db.Close() })

	backend := azure.New("testorg", "test-token")
	backend.BaseURL = tracker.Server.URL

	svc := workitem.NewService(backend, sqlite.NewAuditRepository(db), "testorg", "TestProject", nil)

	return &TestServer{
		MCP:     mcp.NewServer(mcp.Config{Service: svc}),
		Service: svc,
		Tracker: tracker,
		DB:      db,
	}
}

// FakeTracker is an in-memory stand-in for the work item tracking REST
// API: create, read, patch, delete, and hierarchy relations. Just
// enough fidelity for the client's request shapes.
type FakeTracker struct {
	Server *httptest.Server

	mu          sync.Mutex
	nextID      int
	items       map[int]*trackerItem
	failStatus  int
	failMessage string
}

type trackerItem struct {
	id        int
	fields    map[string]any
	relations []trackerRelation
}

type trackerRelation struct {
	Rel string `json:"rel"`
	URL string `json:"url"`
}

type trackerPatchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

func NewFakeTracker(t *testing.T) *FakeTracker {
	t.Helper()
	ft := &FakeTracker{
		nextID: 100,
		items:  make(map[int]*trackerItem),
	}
	ft.Server = httptest.NewServer(http.HandlerFunc(ft.handle))
	t.Cleanup(ft.Server.Close)
	return ft
}

// Item returns a snapshot of a stored work item's fields, or nil.
func (ft *FakeTracker) Item(id int) map[string]any {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	item, ok := ft.items[id]
	if !ok {
		return nil
	}
	snapshot := make(map[string]any, len(item.fields))
	for k, v := range item.fields {
		snapshot[k] = v
	}
	return snapshot
}

// ChildIDs returns the hierarchy-forward child ids of a work item.
func (ft *FakeTracker) ChildIDs(id int) []int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	item, ok := ft.items[id]
	if !ok {
		return nil
	}
	var children []int
	for _, rel := range item.relations {
		if rel.Rel == "System.LinkTypes.Hierarchy-Forward" {
			if childID, ok := relationTargetID(rel.URL); ok {
				children = append(children, childID)
			}
		}
	}
	return children
}

// FailNext makes the next matching create request fail with the given
// status, simulating a transient tracker fault.
func (ft *FakeTracker) FailNext(status int, message string) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.failStatus = status
	ft.failMessage = message
}

func (ft *FakeTracker) handle(w http.ResponseWriter, r *http.Request) {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	if ft.failStatus != 0 {
		status, message := ft.failStatus, ft.failMessage
		ft.failStatus, ft.failMessage = 0, ""
		writeTrackerError(w, status, message)
		return
	}

	// Paths look like /{org}/{project}/_apis/wit/workitems/...
	idx := strings.Index(r.URL.Path, "/_apis/wit/workitems/")
	if idx < 0 {
		writeTrackerError(w, http.StatusNotFound, "unknown route "+r.URL.Path)
		return
	}
	rest := r.URL.Path[idx+len("/_apis/wit/workitems/"):]

	switch {
	case r.Method == http.MethodPost && strings.HasPrefix(rest, "$"):
		ft.handleCreate(w, r, rest[1:])
	default:
		id, err := strconv.Atoi(rest)
		if err != nil {
			writeTrackerError(w, http.StatusBadRequest, "bad work item id "+rest)
			return
		}
		switch r.Method {
		case http.MethodGet:
			ft.handleGet(w, id)
		case http.MethodPatch:
			ft.handlePatch(w, r, id)
		case http.MethodDelete:
			ft.handleDelete(w, id)
		default:
			writeTrackerError(w, http.StatusMethodNotAllowed, "unsupported method")
		}
	}
}

func (ft *FakeTracker) handleCreate(w http.ResponseWriter, r *http.Request, typ string) {
	var ops []trackerPatchOp
	if err := json.NewDecoder(r.Body).Decode(&ops); err != nil {
		writeTrackerError(w, http.StatusBadRequest, "bad patch document")
		return
	}

	ft.nextID++
	item := &trackerItem{
		id: ft.nextID,
		fields: map[string]any{
			"System.WorkItemType": typ,
			"System.State":        "New",
		},
	}
	for _, op := range ops {
		if field, ok := strings.CutPrefix(op.Path, "/fields/"); ok && op.Op == "add" {
			item.fields[field] = op.Value
		}
	}
	if title, _ := item.fields["System.Title"].(string); title == "" {
		writeTrackerError(w, http.StatusBadRequest, "VS403691: System.Title is required")
		return
	}

	ft.items[item.id] = item
	writeTrackerItem(w, item)
}

func (ft *FakeTracker) handleGet(w http.ResponseWriter, id int) {
	item, ok := ft.items[id]
	if !ok {
		writeTrackerError(w, http.StatusNotFound, fmt.Sprintf("TF401232: work item %d does not exist", id))
		return
	}
	writeTrackerItem(w, item)
}

func (ft *FakeTracker) handlePatch(w http.ResponseWriter, r *http.Request, id int) {
	item, ok := ft.items[id]
	if !ok {
		writeTrackerError(w, http.StatusNotFound, fmt.Sprintf("TF401232: work item %d does not exist", id))
		return
	}

	var ops []trackerPatchOp
	if err := json.NewDecoder(r.Body).Decode(&ops); err != nil {
		writeTrackerError(w, http.StatusBadRequest, "bad patch document")
		return
	}

	for _, op := range ops {
		switch {
		case strings.HasPrefix(op.Path, "/fields/"):
			field := strings.TrimPrefix(op.Path, "/fields/")
			if op.Op == "remove" {
				delete(item.fields, field)
			} else {
				item.fields[field] = op.Value
			}
		case op.Path == "/relations/-" && op.Op == "add":
			if err := ft.addRelation(item, op.Value); err != nil {
				writeTrackerError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
	}
	writeTrackerItem(w, item)
}

func (ft *FakeTracker) handleDelete(w http.ResponseWriter, id int) {
	if _, ok := ft.items[id]; !ok {
		writeTrackerError(w, http.StatusNotFound, fmt.Sprintf("TF401232: work item %d does not exist", id))
		return
	}
	delete(ft.items, id)
	w.WriteHeader(http.StatusNoContent)
}

// addRelation stores the forward relation on the parent and the
// matching reverse relation on the child, as the real tracker does.
func (ft *FakeTracker) addRelation(parent *trackerItem, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("bad relation value")
	}
	var rel trackerRelation
	if err := json.Unmarshal(raw, &rel); err != nil {
		return fmt.Errorf("bad relation value")
	}

	childID, ok := relationTargetID(rel.URL)
	if !ok {
		return fmt.Errorf("bad relation target %q", rel.URL)
	}
	child, ok := ft.items[childID]
	if !ok {
		return fmt.Errorf("TF401232: work item %d does not exist", childID)
	}

	parent.relations = append(parent.relations, rel)
	child.relations = append(child.relations, trackerRelation{
		Rel: "System.LinkTypes.Hierarchy-Reverse",
		URL: strings.Replace(rel.URL, fmt.Sprintf("/%d", childID), fmt.Sprintf("/%d", parent.id), 1),
	})
	return nil
}

func relationTargetID(relURL string) (int, bool) {
	idx := strings.LastIndexByte(relURL, '/')
	if idx < 0 {
		return 0, false
	}
	id, err := strconv.Atoi(relURL[idx+1:])
	return id, err == nil
}

func writeTrackerItem(w http.ResponseWriter, item *trackerItem) {
	payload := map[string]any{
		"id":     item.id,
		"fields": item.fields,
	}
	if len(item.relations) > 0 {
		payload["relations"] = item.relations
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

func writeTrackerError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
