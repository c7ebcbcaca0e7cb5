// Package sheets mirrors raw tracker data into Google Sheets so users can
// inspect and export their own history. The mirror is strictly secondary:
// the local database remains the source of truth, and every mirror call is
// best-effort.
//
// Layout: one master spreadsheet maps each email to a per-user spreadsheet;
// each task gets its own sheet tab whose column A holds the recorded
// instants.
package sheets

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

const (
	masterSheetTitle = "Diligence Tracker Master Sheet"
	userSheetPrefix  = "Diligence Tracker - "
)

var scopes = []string{
	"https://www.googleapis.com/auth/spreadsheets",
	"https://www.googleapis.com/auth/drive",
}

// Client talks to the Sheets and Drive APIs with service-account
// credentials.
type Client struct {
	sheets     *gsheets.Service
	drive      *drive.Service
	adminEmail string
	masterID   string

	mu    sync.Mutex
	cache map[string]string // email -> spreadsheet ID
}

// New builds a mirror client from a service-account credentials file and
// locates (or creates) the master spreadsheet.
func New(ctx context.Context, credentialsFile, adminEmail string) (*Client, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file %s: %w", credentialsFile, err)
	}

	conf, err := google.JWTConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account credentials: %w", err)
	}
	httpClient := conf.Client(ctx)

	sheetsSrv, err := gsheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to build sheets client: %w", err)
	}
	driveSrv, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to build drive client: %w", err)
	}

	c := &Client{
		sheets:     sheetsSrv,
		drive:      driveSrv,
		adminEmail: adminEmail,
		cache:      make(map[string]string),
	}

	masterID, err := c.getOrCreateMasterSheet()
	if err != nil {
		return nil, err
	}
	c.masterID = masterID

	return c, nil
}

// AppendEntry mirrors one recorded occurrence onto the task's sheet tab.
func (c *Client) AppendEntry(email, task string, occurredAt time.Time) error {
	spreadsheetID, err := c.getOrCreateSpreadsheet(email)
	if err != nil {
		return err
	}

	// Ensure the task tab exists; AddSheet fails harmlessly when it does
	c.addSheetTab(spreadsheetID, task)

	_, err = c.sheets.Spreadsheets.Values.Append(spreadsheetID, task+"!A:A", &gsheets.ValueRange{
		Values: [][]interface{}{{occurredAt.UTC().Format(time.RFC3339)}},
	}).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Do()
	if err != nil {
		return fmt.Errorf("unable to append entry row: %w", err)
	}
	return nil
}

// RenameTask renames the task's sheet tab, carrying its rows with it. The
// tab rename is a single batch update, mirroring the registry's atomic
// relabel.
func (c *Client) RenameTask(email, oldName, newName string) error {
	spreadsheetID, err := c.getOrCreateSpreadsheet(email)
	if err != nil {
		return err
	}

	sheetID, err := c.findSheetTab(spreadsheetID, oldName)
	if err != nil {
		return err
	}

	_, err = c.sheets.Spreadsheets.BatchUpdate(spreadsheetID, &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			UpdateSheetProperties: &gsheets.UpdateSheetPropertiesRequest{
				Properties: &gsheets.SheetProperties{SheetId: sheetID, Title: newName},
				Fields:     "title",
			},
		}},
	}).Do()
	if err != nil {
		return fmt.Errorf("unable to rename sheet tab: %w", err)
	}
	return nil
}

// SpreadsheetURL returns the user-facing link to the identity's raw data.
func (c *Client) SpreadsheetURL(email string) (string, error) {
	spreadsheetID, err := c.getOrCreateSpreadsheet(email)
	if err != nil {
		return "", err
	}
	return SpreadsheetURLFor(spreadsheetID), nil
}

// SpreadsheetURLFor builds the docs URL for a spreadsheet ID.
func SpreadsheetURLFor(spreadsheetID string) string {
	return "https://docs.google.com/spreadsheets/d/" + spreadsheetID
}

// ========== INTERNALS ==========

func (c *Client) getOrCreateMasterSheet() (string, error) {
	query := fmt.Sprintf("name='%s' and mimeType='application/vnd.google-apps.spreadsheet'", masterSheetTitle)
	results, err := c.drive.Files.List().Q(query).Spaces("drive").Do()
	if err != nil {
		return "", fmt.Errorf("unable to search for master sheet: %w", err)
	}

	var sheetID string
	if len(results.Files) > 0 {
		sheetID = results.Files[0].Id
	} else {
		spreadsheet, err := c.sheets.Spreadsheets.Create(&gsheets.Spreadsheet{
			Properties: &gsheets.SpreadsheetProperties{Title: masterSheetTitle},
		}).Do()
		if err != nil {
			return "", fmt.Errorf("unable to create master sheet: %w", err)
		}
		sheetID = spreadsheet.SpreadsheetId

		_, err = c.sheets.Spreadsheets.Values.Update(sheetID, "A1:B1", &gsheets.ValueRange{
			Values: [][]interface{}{{"Email", "Spreadsheet ID"}},
		}).ValueInputOption("RAW").Do()
		if err != nil {
			return "", fmt.Errorf("unable to initialize master sheet: %w", err)
		}
	}

	if c.adminEmail != "" {
		c.share(sheetID, c.adminEmail)
	}
	return sheetID, nil
}

func (c *Client) getOrCreateSpreadsheet(email string) (string, error) {
	c.mu.Lock()
	if id, ok := c.cache[email]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	result, err := c.sheets.Spreadsheets.Values.Get(c.masterID, "A:B").Do()
	if err != nil {
		return "", fmt.Errorf("unable to read master sheet: %w", err)
	}

	for i, row := range result.Values {
		if i == 0 || len(row) < 2 {
			continue // header row or incomplete row
		}
		if rowEmail, ok := row[0].(string); ok && rowEmail == email {
			if id, ok := row[1].(string); ok {
				c.remember(email, id)
				return id, nil
			}
		}
	}

	spreadsheet, err := c.sheets.Spreadsheets.Create(&gsheets.Spreadsheet{
		Properties: &gsheets.SpreadsheetProperties{Title: userSheetPrefix + email},
	}).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create user spreadsheet: %w", err)
	}
	newID := spreadsheet.SpreadsheetId

	_, err = c.sheets.Spreadsheets.Values.Append(c.masterID, "A:B", &gsheets.ValueRange{
		Values: [][]interface{}{{email, newID}},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Do()
	if err != nil {
		return "", fmt.Errorf("unable to register user spreadsheet: %w", err)
	}

	c.share(newID, email)
	if c.adminEmail != "" {
		c.share(newID, c.adminEmail)
	}

	c.remember(email, newID)
	return newID, nil
}

func (c *Client) addSheetTab(spreadsheetID, title string) {
	// Best-effort: fails when the tab already exists, which is the common case
	c.sheets.Spreadsheets.BatchUpdate(spreadsheetID, &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{
				Properties: &gsheets.SheetProperties{Title: title},
			},
		}},
	}).Do()
}

func (c *Client) findSheetTab(spreadsheetID, title string) (int64, error) {
	meta, err := c.sheets.Spreadsheets.Get(spreadsheetID).Do()
	if err != nil {
		return 0, fmt.Errorf("unable to fetch spreadsheet metadata: %w", err)
	}
	for _, sheet := range meta.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == title {
			return sheet.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet tab %q not found", title)
}

func (c *Client) share(spreadsheetID, email string) {
	c.drive.Permissions.Create(spreadsheetID, &drive.Permission{
		Type:         "user",
		Role:         "writer",
		EmailAddress: email,
	}).SendNotificationEmail(false).Do()
}

func (c *Client) remember(email, spreadsheetID string) {
	c.mu.Lock()
	c.cache[email] = spreadsheetID
	c.mu.Unlock()
}
