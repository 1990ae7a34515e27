package google

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	gsheet "google.golang.org/api/sheets/v4"
)

// fakeSheets serves the subset of the Sheets v4 REST API the client uses.
type fakeSheets struct {
	mu     sync.Mutex
	id     string
	nextID int64
	tabs   map[string]*fakeTab
	gets   int
}

type fakeTab struct {
	id   int64
	rows [][]any
}

func newFakeSheets(id string) *fakeSheets {
	return &fakeSheets{id: id, nextID: 100, tabs: map[string]*fakeTab{}}
}

func (f *fakeSheets) addTab(title string, rows ...[]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.tabs[title] = &fakeTab{id: f.nextID, rows: rows}
}

func (f *fakeSheets) rows(title string) [][]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tabs[title]
	if !ok {
		return nil
	}
	return t.rows
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p := strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/")
	switch {
	case p == f.id && r.Method == http.MethodGet:
		f.gets++
		var sheets []*gsheet.Sheet
		for title, t := range f.tabs {
			sheets = append(sheets, &gsheet.Sheet{Properties: &gsheet.SheetProperties{Title: title, SheetId: t.id}})
		}
		writeJSON(w, &gsheet.Spreadsheet{SpreadsheetId: f.id, Sheets: sheets})
	case p == f.id+":batchUpdate":
		f.batchUpdate(w, r)
	case strings.HasPrefix(p, f.id+"/values/"):
		rng := strings.TrimPrefix(p, f.id+"/values/")
		appendCall := strings.HasSuffix(rng, ":append")
		rng = strings.TrimSuffix(rng, ":append")
		tab, cells := splitRange(rng)
		t, ok := f.tabs[tab]
		if !ok {
			writeError(w, http.StatusBadRequest, "Unable to parse range: "+rng)
			return
		}
		switch {
		case r.Method == http.MethodGet:
			writeJSON(w, &gsheet.ValueRange{Range: rng, Values: t.rows})
		case appendCall:
			var vr gsheet.ValueRange
			json.NewDecoder(r.Body).Decode(&vr)
			t.rows = append(t.rows, vr.Values...)
			writeJSON(w, &gsheet.AppendValuesResponse{SpreadsheetId: f.id})
		case r.Method == http.MethodPut:
			var vr gsheet.ValueRange
			json.NewDecoder(r.Body).Decode(&vr)
			row, col := cellRef(cells)
			for i, vals := range vr.Values {
				for len(t.rows) <= row+i {
					t.rows = append(t.rows, []any{})
				}
				for j, v := range vals {
					for len(t.rows[row+i]) <= col+j {
						t.rows[row+i] = append(t.rows[row+i], "")
					}
					t.rows[row+i][col+j] = v
				}
			}
			writeJSON(w, &gsheet.UpdateValuesResponse{SpreadsheetId: f.id})
		default:
			writeError(w, http.StatusMethodNotAllowed, r.Method)
		}
	default:
		writeError(w, http.StatusNotFound, p)
	}
}

func (f *fakeSheets) batchUpdate(w http.ResponseWriter, r *http.Request) {
	var req gsheet.BatchUpdateSpreadsheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp := &gsheet.BatchUpdateSpreadsheetResponse{SpreadsheetId: f.id}
	for _, rq := range req.Requests {
		switch {
		case rq.AddSheet != nil:
			f.nextID++
			title := rq.AddSheet.Properties.Title
			f.tabs[title] = &fakeTab{id: f.nextID}
			resp.Replies = append(resp.Replies, &gsheet.Response{AddSheet: &gsheet.AddSheetResponse{
				Properties: &gsheet.SheetProperties{Title: title, SheetId: f.nextID},
			}})
		case rq.DeleteDimension != nil:
			dr := rq.DeleteDimension.Range
			for _, t := range f.tabs {
				if t.id != dr.SheetId {
					continue
				}
				t.rows = append(t.rows[:dr.StartIndex], t.rows[dr.EndIndex:]...)
			}
			resp.Replies = append(resp.Replies, &gsheet.Response{})
		}
	}
	writeJSON(w, resp)
}

// splitRange parses "'tab'!cells".
func splitRange(rng string) (string, string) {
	i := strings.LastIndex(rng, "'!")
	if !strings.HasPrefix(rng, "'") || i < 0 {
		return rng, ""
	}
	return strings.ReplaceAll(rng[1:i], "''", "'"), rng[i+2:]
}

// cellRef returns zero-based row and column of the top-left cell of cells.
func cellRef(cells string) (int, int) {
	if i := strings.Index(cells, ":"); i >= 0 {
		cells = cells[:i]
	}
	col := 0
	j := 0
	for j < len(cells) && cells[j] >= 'A' && cells[j] <= 'Z' {
		col = col*26 + int(cells[j]-'A'+1)
		j++
	}
	row, _ := strconv.Atoi(cells[j:])
	return row - 1, col - 1
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"error":{"code":%d,"message":%q}}`, code, msg)
}
