package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"presupuesto/internal/cache"
	"presupuesto/internal/core"
	"presupuesto/internal/store"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client stores every user's ledger in its own tab of one spreadsheet.
// Rows are `id | tipo | categoria | descripcion | monto | fecha`.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// tab title -> sheetId; the numeric id is needed for row deletion.
	sheetIDs *cache.LRUCache[int64]
}

var (
	_ store.Adapter    = (*Client)(nil)
	_ store.Pinger     = (*Client)(nil)
	_ store.UserLister = (*Client)(nil)
)

// Header is written as the first row of every new tab.
var Header = []any{"id", "tipo", "categoria", "descripcion", "monto", "fecha"}

type Config struct {
	SpreadsheetID string
	// Inline service account JSON; takes precedence over CredentialsFile.
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Sheets client authenticated with a service account.
// GOOGLE_APPLICATION_CREDENTIALS is used when neither credential is set.
func New(ctx context.Context, cfg Config) (*Client, error) {
	creds, err := serviceAccountJSON(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewWithOptions(ctx, cfg.SpreadsheetID,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// NewWithOptions creates a client with explicit API options, e.g. a custom
// endpoint.
func NewWithOptions(ctx context.Context, spreadsheetID string, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetIDs:      cache.NewLRUCache[int64](256, 10*time.Minute),
	}, nil
}

func serviceAccountJSON(ctx context.Context, cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.CredentialsJSON)
	path := strings.TrimSpace(cfg.CredentialsFile)
	if inline == "" && path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline service account credentials", "json_length", len(inline))
		return []byte(inline), nil
	case path != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.InfoContext(ctx, "Read service account credentials from file", "path", path, "size", len(b))
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// Ping reads the spreadsheet metadata.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("spreadsheetId").Context(ctx).Do()
	if err != nil {
		return classify("ping spreadsheet", err)
	}
	return nil
}

// Users lists the tabs of the spreadsheet that are valid user names.
func (c *Client) Users(ctx context.Context) ([]string, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, classify("read spreadsheet metadata", err)
	}
	var out []string
	for _, sh := range ss.Sheets {
		if sh.Properties == nil || core.ValidateUser(sh.Properties.Title) != nil {
			continue
		}
		c.sheetIDs.Set(sh.Properties.Title, sh.Properties.SheetId)
		out = append(out, sh.Properties.Title)
	}
	sort.Strings(out)
	return out, nil
}

func (c *Client) Load(ctx context.Context, user string) (core.Ledger, error) {
	if err := core.ValidateUser(user); err != nil {
		return core.Ledger{}, err
	}
	_, ok, err := c.lookupTab(ctx, user)
	if err != nil {
		return core.Ledger{}, err
	}
	if !ok {
		return core.NewLedger(user), nil
	}
	rng := a1(user, "A:F")
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		c.sheetIDs.Delete(user)
		return core.Ledger{}, classify("read "+rng, err)
	}
	ms, skipped := parseRows(resp.Values)
	if skipped > 0 {
		slog.WarnContext(ctx, "Skipped unreadable rows", "user", user, "rows", skipped)
	}
	return core.LedgerOf(user, ms), nil
}

func (c *Client) Append(ctx context.Context, l core.Ledger, m core.Movement) error {
	if _, err := c.ensureTab(ctx, l.User); err != nil {
		return err
	}
	cols, err := c.columns(ctx, l.User)
	if err != nil {
		return err
	}
	rng := a1(l.User, "A:F")
	vr := &gsheet.ValueRange{Values: [][]any{formatRow(m, cols)}}
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return classify("append to "+rng, err)
	}
	slog.InfoContext(ctx, "Movement appended to sheet", "user", l.User, "id", m.ID, "kind", m.Kind)
	return nil
}

// Update rewrites the monto cell of the first row carrying m's id.
func (c *Client) Update(ctx context.Context, l core.Ledger, m core.Movement) error {
	rows, cols, err := c.rowsWithID(ctx, l.User, m.ID, m.Kind)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("movement %s: %w", m.ID, core.ErrNotFound)
	}
	cell := a1(l.User, fmt.Sprintf("%c%d", 'A'+rune(cols.amount), rows[0]+1))
	vr := &gsheet.ValueRange{Values: [][]any{{m.Amount.Decimal().InexactFloat64()}}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, cell, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return classify("update "+cell, err)
	}
	return nil
}

// Remove deletes every row carrying id.
func (c *Client) Remove(ctx context.Context, l core.Ledger, id string) error {
	sheetID, ok, err := c.lookupTab(ctx, l.User)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("movement %s: %w", id, core.ErrNotFound)
	}
	rows, _, err := c.rowsWithID(ctx, l.User, id, "")
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("movement %s: %w", id, core.ErrNotFound)
	}
	// Requests run in order; deleting bottom-up keeps earlier indexes valid.
	reqs := make([]*gsheet.Request, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		reqs = append(reqs, &gsheet.Request{DeleteDimension: &gsheet.DeleteDimensionRequest{
			Range: &gsheet.DimensionRange{
				SheetId:    sheetID,
				Dimension:  "ROWS",
				StartIndex: int64(rows[i]),
				EndIndex:   int64(rows[i] + 1),
			},
		}})
	}
	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{Requests: reqs}).
		Context(ctx).Do()
	if err != nil {
		return classify("delete rows", err)
	}
	slog.InfoContext(ctx, "Movement rows deleted from sheet", "user", l.User, "id", id, "rows", len(rows))
	return nil
}

// rowsWithID returns the zero-based row indexes whose id column equals id,
// along with the column layout read from the header. A non-empty kind also
// requires the tipo column to match.
func (c *Client) rowsWithID(ctx context.Context, user, id string, kind core.Kind) ([]int, columns, error) {
	if _, ok, err := c.lookupTab(ctx, user); err != nil {
		return nil, defaultColumns, err
	} else if !ok {
		return nil, defaultColumns, nil
	}
	rng := a1(user, "A:F")
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, defaultColumns, classify("read "+rng, err)
	}
	cols := defaultColumns
	var out []int
	for i, row := range resp.Values {
		vals := toStrings(row)
		if i == 0 {
			if hc, ok := headerColumns(vals); ok {
				cols = hc
				continue
			}
		}
		if safeGet(vals, cols.id) != id {
			continue
		}
		if kind != "" {
			if k, err := core.ParseKind(safeGet(vals, cols.kind)); err == nil && k != kind {
				continue
			}
		}
		out = append(out, i)
	}
	return out, cols, nil
}

// columns reads the header row of user's tab. Tabs without a header use
// the default layout.
func (c *Client) columns(ctx context.Context, user string) (columns, error) {
	rng := a1(user, "A1:F1")
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return defaultColumns, classify("read "+rng, err)
	}
	if len(resp.Values) == 0 {
		return defaultColumns, nil
	}
	cols, _ := headerColumns(toStrings(resp.Values[0]))
	return cols, nil
}

func (c *Client) lookupTab(ctx context.Context, title string) (int64, bool, error) {
	if id, ok := c.sheetIDs.Get(title); ok {
		return id, true, nil
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, false, classify("read spreadsheet metadata", err)
	}
	var (
		found bool
		id    int64
	)
	for _, sh := range ss.Sheets {
		if sh.Properties == nil {
			continue
		}
		c.sheetIDs.Set(sh.Properties.Title, sh.Properties.SheetId)
		if sh.Properties.Title == title {
			found, id = true, sh.Properties.SheetId
		}
	}
	return id, found, nil
}

func (c *Client) ensureTab(ctx context.Context, title string) (int64, error) {
	id, ok, err := c.lookupTab(ctx, title)
	if err != nil || ok {
		return id, err
	}
	resp, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{AddSheet: &gsheet.AddSheetRequest{
			Properties: &gsheet.SheetProperties{Title: title},
		}}},
	}).Context(ctx).Do()
	if err != nil {
		return 0, classify("add sheet "+title, err)
	}
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		id = resp.Replies[0].AddSheet.Properties.SheetId
	}
	hdr := a1(title, "A1:F1")
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, hdr, &gsheet.ValueRange{Values: [][]any{Header}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return 0, classify("write header "+hdr, err)
	}
	c.sheetIDs.Set(title, id)
	slog.InfoContext(ctx, "Created sheet tab", "title", title, "sheet_id", id)
	return id, nil
}

// a1 builds a quoted A1 range on the given tab.
func a1(tab, cells string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'!" + cells
}

// classify wraps transport failures and server-side errors with
// ErrStorageUnavailable. Client errors are returned as-is.
func classify(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code >= 400 && gerr.Code < 500 && gerr.Code != 429 {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", core.ErrStorageUnavailable, op, err)
}
